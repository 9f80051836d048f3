package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/caffeinepub/liinks/pkg/core/domain"
	"github.com/caffeinepub/liinks/pkg/core/gate"
	"github.com/caffeinepub/liinks/pkg/logging"
)

// actionRetry is offered for failures the caller can simply try again.
const actionRetry gate.Action = "retry"

// apiError is the JSON error envelope. Action and Target tell the client
// which corrective step to surface.
type apiError struct {
	Code    string
	Message string
	Status  int
	Action  gate.Action
	Target  string
	Details map[string]any
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(ctx context.Context, w http.ResponseWriter, e apiError) {
	if e.Status == 0 {
		e.Status = http.StatusInternalServerError
	}
	payload := map[string]any{
		"error":   e.Code,
		"message": sanitize(e.Message, 512),
		"status":  e.Status,
	}
	if id := middleware.GetReqID(ctx); id != "" {
		payload["request_id"] = id
	}
	if e.Action != "" {
		payload["action"] = e.Action
	}
	if e.Target != "" {
		payload["navigate_to"] = e.Target
	}
	for k, v := range e.Details {
		payload[k] = v
	}
	writeJSON(w, e.Status, payload)
}

// respondError maps service errors onto the envelope. Unknown errors are
// logged and reported without their text.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(ctx, w, apiError{
			Code:    "invalid_request",
			Message: verr.Error(),
			Status:  http.StatusBadRequest,
			Details: map[string]any{"fields": verr.Fields},
		})
	case errors.Is(err, domain.ErrNotAuthenticated):
		writeError(ctx, w, apiError{Code: "unauthenticated", Message: "Please log in to access this feature.", Status: http.StatusUnauthorized, Action: gate.ActionLogIn})
	case errors.Is(err, domain.ErrNotRegistered):
		writeError(ctx, w, apiError{Code: "registration_required", Message: "Please complete signup to access this feature.", Status: http.StatusForbidden, Action: gate.ActionCompleteSignup, Target: gate.SignupTarget})
	case errors.Is(err, domain.ErrPhoneNotVerified):
		writeError(ctx, w, apiError{Code: "phone_verification_required", Message: "Please verify your phone number to continue.", Status: http.StatusForbidden, Action: gate.ActionVerifyPhone, Target: gate.VerifyPhoneTarget})
	case errors.Is(err, domain.ErrSubscriptionRequired):
		writeError(ctx, w, apiError{Code: "subscription_required", Message: "This feature requires an active subscription. Please upgrade to continue.", Status: http.StatusPaymentRequired, Action: gate.ActionSubscribe, Target: gate.PricingTarget})
	case errors.Is(err, domain.ErrAlreadyRegistered):
		writeError(ctx, w, apiError{Code: "already_registered", Message: err.Error(), Status: http.StatusConflict})
	case errors.Is(err, domain.ErrTemplateNotFound), errors.Is(err, domain.ErrBioPageNotFound):
		writeError(ctx, w, apiError{Code: "not_found", Message: err.Error(), Status: http.StatusNotFound})
	case errors.Is(err, domain.ErrNoOTPChallenge), errors.Is(err, domain.ErrInvalidOTP), errors.Is(err, domain.ErrOTPExpired), errors.Is(err, domain.ErrOTPAttemptsExceeded):
		writeError(ctx, w, apiError{Code: "otp_rejected", Message: err.Error(), Status: http.StatusBadRequest, Action: actionRetry})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(ctx, w, apiError{Code: "timeout", Message: "The request took too long. Please try again.", Status: http.StatusServiceUnavailable, Action: actionRetry})
	default:
		logging.FromContext(ctx).Error("request failed", zap.Error(err))
		writeError(ctx, w, apiError{Code: "internal_error", Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError, Action: actionRetry})
	}
}

// respondDecision reports a gate decision that did not allow the request.
// Loading means the prerequisites could not be resolved in time.
func respondDecision(ctx context.Context, w http.ResponseWriter, d gate.Decision) {
	if d.Status == gate.StatusLoading {
		w.Header().Set("Retry-After", "1")
		writeError(ctx, w, apiError{
			Code:    "prerequisites_pending",
			Message: "Still checking your account. Please try again.",
			Status:  http.StatusServiceUnavailable,
			Action:  actionRetry,
			Details: map[string]any{"gate": d},
		})
		return
	}
	writeError(ctx, w, apiError{
		Code:    "prerequisite_required",
		Message: d.Reason,
		Status:  http.StatusPreconditionRequired,
		Action:  d.Action,
		Target:  d.Target,
		Details: map[string]any{"gate": d},
	})
}

func sanitize(value string, limit int) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}

const maxJSONBody = 1 << 20

// decodeJSON reads a single JSON document from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}
