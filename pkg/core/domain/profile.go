package domain

import "time"

// SubscriptionTier is a paid plan.
type SubscriptionTier string

const (
	TierPremium SubscriptionTier = "premium"
	TierPro     SubscriptionTier = "pro"
)

// UserProfile is created once at registration. Subscription fields are
// written by the subscription flow.
type UserProfile struct {
	UserID             string            `json:"user_id"`
	FirstName          string            `json:"first_name"`
	LastName           string            `json:"last_name"`
	Email              string            `json:"email"`
	PhoneNumber        string            `json:"phone_number"`
	PhoneVerified      bool              `json:"phone_verified"`
	Subscription       *SubscriptionTier `json:"subscription,omitempty"`
	SubscriptionExpiry *time.Time        `json:"subscription_expiry,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// HasActiveSubscription reports whether any tier is active at now.
func (p *UserProfile) HasActiveSubscription(now time.Time) bool {
	if p == nil || p.Subscription == nil || p.SubscriptionExpiry == nil {
		return false
	}
	return p.SubscriptionExpiry.After(now)
}

// HasActiveTier reports whether tier is the active subscription at now.
func (p *UserProfile) HasActiveTier(tier SubscriptionTier, now time.Time) bool {
	return p.HasActiveSubscription(now) && *p.Subscription == tier
}

// Plan describes a subscription offer.
type Plan struct {
	Tier         SubscriptionTier `json:"tier"`
	Name         string           `json:"name"`
	MonthlyPrice int              `json:"monthly_price"`
	Currency     string           `json:"currency"`
	Benefits     []string         `json:"benefits"`
}

var premiumBenefits = []string{
	"Access to all premium templates",
	"Copy and customize templates",
	"Create unlimited bio pages",
	"Custom social handles",
	"Custom links",
	"Share your bio pages",
}

// Plans returns the subscription offers. Pro includes everything in premium.
func Plans() []Plan {
	pro := append([]string{}, premiumBenefits...)
	pro = append(pro, "Upload your own templates")
	return []Plan{
		{Tier: TierPremium, Name: "Premium", MonthlyPrice: 199, Currency: "INR", Benefits: append([]string{}, premiumBenefits...)},
		{Tier: TierPro, Name: "Pro", MonthlyPrice: 499, Currency: "INR", Benefits: pro},
	}
}

// OTPChallenge is a pending phone verification code. Only the hash of the
// code is stored. Attempts counts wrong codes submitted against it.
type OTPChallenge struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	PhoneNumber string    `json:"phone_number"`
	CodeHash    string    `json:"-"`
	Attempts    int       `json:"attempts"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}
