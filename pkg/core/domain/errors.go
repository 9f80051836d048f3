package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrNotRegistered        = errors.New("profile not found: registration required")
	ErrAlreadyRegistered    = errors.New("user already registered")
	ErrPhoneNotVerified     = errors.New("phone number not verified")
	ErrSubscriptionRequired = errors.New("active subscription required")
	ErrTemplateNotFound     = errors.New("template not found")
	ErrBioPageNotFound      = errors.New("bio page not found")
	ErrNoOTPChallenge       = errors.New("no otp requested for this phone number")
	ErrInvalidOTP           = errors.New("invalid otp code")
	ErrOTPExpired           = errors.New("otp code expired")
	ErrOTPAttemptsExceeded  = errors.New("too many wrong otp codes, request a new one")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError is returned when input is rejected before reaching the store.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" failed "+f.Rule)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, rule string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Rule: rule}}}
}
