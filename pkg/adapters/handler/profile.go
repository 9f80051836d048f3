package handler

import (
	"net/http"
	"time"

	"github.com/caffeinepub/liinks/pkg/core/domain"
	"github.com/caffeinepub/liinks/pkg/ports"
)

type ProfileHandler struct {
	service ports.ProfileService
	// exposeOTP returns issued codes in the response while SMS delivery is mocked.
	exposeOTP bool
	payee     domain.UPIPayee
	now       func() time.Time
}

func NewProfileHandler(service ports.ProfileService, exposeOTP bool, payee domain.UPIPayee) *ProfileHandler {
	return &ProfileHandler{service: service, exposeOTP: exposeOTP, payee: payee, now: time.Now}
}

// RegisterRequest payload
type RegisterRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

// OTPRequest payload
type OTPRequest struct {
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code,omitempty"`
}

// SubscribeRequest payload
type SubscribeRequest struct {
	Tier             domain.SubscriptionTier `json:"tier"`
	PaymentReference string                  `json:"payment_reference"`
}

func (h *ProfileHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, apiError{Code: "invalid_request", Message: err.Error(), Status: http.StatusBadRequest})
		return
	}

	profile, err := h.service.Register(r.Context(), IdentityFrom(r.Context()).UserID, ports.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), IdentityFrom(r.Context()).UserID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if profile == nil {
		respondError(r.Context(), w, domain.ErrNotRegistered)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req OTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, apiError{Code: "invalid_request", Message: err.Error(), Status: http.StatusBadRequest})
		return
	}

	issued, err := h.service.RequestOTP(r.Context(), IdentityFrom(r.Context()).UserID, req.PhoneNumber)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if !h.exposeOTP {
		issued.Code = ""
	}
	writeJSON(w, http.StatusCreated, issued)
}

func (h *ProfileHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req OTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, apiError{Code: "invalid_request", Message: err.Error(), Status: http.StatusBadRequest})
		return
	}

	profile, err := h.service.VerifyOTP(r.Context(), IdentityFrom(r.Context()).UserID, req.PhoneNumber, req.Code)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type planResponse struct {
	domain.Plan
	PaymentLink string `json:"payment_link,omitempty"`
}

// Plans lists the subscription offers. With a payee configured each plan
// carries a UPI link for the manual payment step.
func (h *ProfileHandler) Plans(w http.ResponseWriter, r *http.Request) {
	plans := domain.Plans()
	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, planResponse{
			Plan:        p,
			PaymentLink: h.payee.PaymentLink(p.MonthlyPrice, p.Name+" subscription"),
		})
	}

	body := map[string]any{"data": out}
	if h.payee.VPA != "" {
		body["payee"] = h.payee
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *ProfileHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, apiError{Code: "invalid_request", Message: err.Error(), Status: http.StatusBadRequest})
		return
	}

	profile, err := h.service.Subscribe(r.Context(), IdentityFrom(r.Context()).UserID, req.Tier, req.PaymentReference)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, subscriptionStatus(profile, h.now()))
}

func (h *ProfileHandler) Subscription(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), IdentityFrom(r.Context()).UserID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if profile == nil {
		respondError(r.Context(), w, domain.ErrNotRegistered)
		return
	}
	writeJSON(w, http.StatusOK, subscriptionStatus(profile, h.now()))
}

type subscriptionResponse struct {
	Active    bool                     `json:"active"`
	Tier      *domain.SubscriptionTier `json:"tier,omitempty"`
	ExpiresAt *time.Time               `json:"expires_at,omitempty"`
}

func subscriptionStatus(p *domain.UserProfile, now time.Time) subscriptionResponse {
	return subscriptionResponse{
		Active:    p.HasActiveSubscription(now),
		Tier:      p.Subscription,
		ExpiresAt: p.SubscriptionExpiry,
	}
}
