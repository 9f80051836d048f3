// Package gate decides whether a user may publish a bio page and, when they
// may not, which single corrective step to surface.
package gate

// Status is the outcome of an evaluation.
type Status string

const (
	StatusLoading Status = "loading"
	StatusBlocked Status = "blocked"
	StatusAllowed Status = "allowed"
)

// Action names the corrective step for a blocked decision.
type Action string

const (
	ActionLogIn          Action = "log-in"
	ActionCompleteSignup Action = "complete-signup"
	ActionVerifyPhone    Action = "verify-phone"
	ActionSubscribe      Action = "subscribe"
)

// Navigation targets for the corrective actions. Logging in has none: the
// caller is already on a surface that can authenticate.
const (
	SignupTarget      = "/signup?reason=registration-required"
	VerifyPhoneTarget = "/verify-phone"
	PricingTarget     = "/pricing"
)

// Fact is a prerequisite whose remote value may not be known yet.
type Fact struct {
	Resolved bool
	Value    bool
}

// Pending is a fact whose lookup has not resolved.
var Pending = Fact{}

// Known returns a resolved fact.
func Known(v bool) Fact { return Fact{Resolved: true, Value: v} }

// Prerequisites is the state the gate decides on. It is passed in explicitly
// so evaluation has no hidden inputs.
type Prerequisites struct {
	Authenticated Fact
	Registered    Fact
	PhoneVerified Fact
	Subscribed    Fact
}

// Decision is the gate outcome. Reason, Action and Target are set only when
// Status is StatusBlocked.
type Decision struct {
	Status Status `json:"status"`
	Reason string `json:"blocking_reason,omitempty"`
	Action Action `json:"suggested_action,omitempty"`
	Target string `json:"navigate_to,omitempty"`
}

// Allowed reports whether the decision permits publishing.
func (d Decision) Allowed() bool { return d.Status == StatusAllowed }

// Gate evaluates prerequisites in fixed order. The zero value checks
// authentication, registration and phone verification.
type Gate struct {
	RequireSubscription bool
}

type check struct {
	fact   func(Prerequisites) Fact
	reason string
	action Action
	target string
}

var baseChecks = []check{
	{
		fact:   func(p Prerequisites) Fact { return p.Authenticated },
		reason: "Please log in to access this feature.",
		action: ActionLogIn,
	},
	{
		fact:   func(p Prerequisites) Fact { return p.Registered },
		reason: "Please complete signup to access this feature.",
		action: ActionCompleteSignup,
		target: SignupTarget,
	},
	{
		fact:   func(p Prerequisites) Fact { return p.PhoneVerified },
		reason: "Please verify your phone number to continue.",
		action: ActionVerifyPhone,
		target: VerifyPhoneTarget,
	},
}

var subscriptionCheck = check{
	fact:   func(p Prerequisites) Fact { return p.Subscribed },
	reason: "This feature requires an active subscription. Please upgrade to continue.",
	action: ActionSubscribe,
	target: PricingTarget,
}

// Evaluate returns loading while any checked fact is unresolved, otherwise
// the first unmet check in order, otherwise allowed.
func (g Gate) Evaluate(p Prerequisites) Decision {
	checks := g.checks()
	for _, c := range checks {
		if !c.fact(p).Resolved {
			return Decision{Status: StatusLoading}
		}
	}
	for _, c := range checks {
		if !c.fact(p).Value {
			return Decision{
				Status: StatusBlocked,
				Reason: c.reason,
				Action: c.action,
				Target: c.target,
			}
		}
	}
	return Decision{Status: StatusAllowed}
}

// NeedsSubscription reports whether the subscription fact takes part in evaluation.
func (g Gate) NeedsSubscription() bool { return g.RequireSubscription }

func (g Gate) checks() []check {
	if !g.RequireSubscription {
		return baseChecks
	}
	return append(append([]check{}, baseChecks...), subscriptionCheck)
}
