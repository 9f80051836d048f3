package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/caffeinepub/liinks/pkg/core/domain"
	"github.com/caffeinepub/liinks/pkg/ports"
)

const (
	otpDigits              = 6
	maxOTPAttempts         = 5
	defaultOTPTTL          = 10 * time.Minute
	defaultSubscriptionDur = 30 * 24 * time.Hour
)

// ProfileService handles registration, mocked phone verification and manual
// subscription confirmation.
type ProfileService struct {
	repo            ports.ProfileRepository
	logger          *zap.Logger
	otpTTL          time.Duration
	subscriptionDur time.Duration
	now             func() time.Time
	newCode         func() (string, error)
}

func NewProfileService(repo ports.ProfileRepository, otpTTL, subscriptionDur time.Duration, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if otpTTL <= 0 {
		otpTTL = defaultOTPTTL
	}
	if subscriptionDur <= 0 {
		subscriptionDur = defaultSubscriptionDur
	}
	return &ProfileService{
		repo:            repo,
		logger:          logger,
		otpTTL:          otpTTL,
		subscriptionDur: subscriptionDur,
		now:             time.Now,
		newCode:         generateOTP,
	}
}

type registerRequest struct {
	FirstName   string `validate:"required,max=80"`
	LastName    string `validate:"required,max=80"`
	Email       string `validate:"required,email"`
	PhoneNumber string `validate:"required,min=5,max=20"`
}

func (s *ProfileService) Register(ctx context.Context, userID string, input ports.RegisterInput) (*domain.UserProfile, error) {
	req := registerRequest{
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		Email:       strings.TrimSpace(input.Email),
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrAlreadyRegistered
	}

	now := s.now()
	profile := &domain.UserProfile{
		UserID:      userID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	s.logger.Info("profile registered", zap.String("user_id", userID))
	return profile, nil
}

// GetProfile returns nil without error when the user has not registered.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return s.repo.GetProfile(ctx, userID)
}

func (s *ProfileService) IsRegistered(ctx context.Context, userID string) (bool, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return false, err
	}
	return profile != nil, nil
}

func (s *ProfileService) IsPhoneVerified(ctx context.Context, userID string) (bool, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return false, err
	}
	return profile != nil && profile.PhoneVerified, nil
}

func (s *ProfileService) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return false, err
	}
	return profile.HasActiveSubscription(s.now()), nil
}

// RequestOTP issues a new code for phoneNumber, replacing earlier ones. The
// code is returned to the caller since no SMS is sent.
func (s *ProfileService) RequestOTP(ctx context.Context, userID, phoneNumber string) (*ports.OTPIssued, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if len(phoneNumber) < 5 {
		return nil, domain.NewValidationError("PhoneNumber", "min=5")
	}

	code, err := s.newCode()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash otp: %w", err)
	}

	if err := s.repo.DeleteOTPChallenges(ctx, userID); err != nil {
		return nil, fmt.Errorf("clear otp challenges: %w", err)
	}

	now := s.now()
	challenge := &domain.OTPChallenge{
		ID:          uuid.NewString(),
		UserID:      userID,
		PhoneNumber: phoneNumber,
		CodeHash:    string(hash),
		ExpiresAt:   now.Add(s.otpTTL),
		CreatedAt:   now,
	}
	if err := s.repo.SaveOTPChallenge(ctx, challenge); err != nil {
		return nil, fmt.Errorf("save otp challenge: %w", err)
	}

	s.logger.Info("otp issued", zap.String("user_id", userID), zap.String("challenge_id", challenge.ID))
	return &ports.OTPIssued{
		ChallengeID: challenge.ID,
		PhoneNumber: phoneNumber,
		Code:        code,
		ExpiresAt:   challenge.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// VerifyOTP checks code and marks the phone verified on the caller's profile.
// rejectCode records a wrong code. The challenge is discarded once
// maxOTPAttempts wrong codes have been submitted.
func (s *ProfileService) rejectCode(ctx context.Context, challenge *domain.OTPChallenge) error {
	attempts, err := s.repo.RecordOTPFailure(ctx, challenge.ID)
	if err != nil {
		return fmt.Errorf("record otp failure: %w", err)
	}
	if attempts < maxOTPAttempts {
		return domain.ErrInvalidOTP
	}
	if err := s.repo.DeleteOTPChallenges(ctx, challenge.UserID); err != nil {
		return fmt.Errorf("discard otp challenge: %w", err)
	}
	s.logger.Warn("otp challenge discarded after repeated wrong codes", zap.String("user_id", challenge.UserID))
	return domain.ErrOTPAttemptsExceeded
}

func (s *ProfileService) VerifyOTP(ctx context.Context, userID, phoneNumber, code string) (*domain.UserProfile, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	code = strings.TrimSpace(code)
	if len(code) != otpDigits {
		return nil, domain.NewValidationError("Code", "len=6")
	}

	challenge, err := s.repo.GetOTPChallenge(ctx, userID, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("load otp challenge: %w", err)
	}
	if challenge == nil {
		return nil, domain.ErrNoOTPChallenge
	}
	if !s.now().Before(challenge.ExpiresAt) {
		return nil, domain.ErrOTPExpired
	}
	if challenge.Attempts >= maxOTPAttempts {
		return nil, domain.ErrOTPAttemptsExceeded
	}
	if err := bcrypt.CompareHashAndPassword([]byte(challenge.CodeHash), []byte(code)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, s.rejectCode(ctx, challenge)
		}
		return nil, err
	}

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, domain.ErrNotRegistered
	}

	profile.PhoneNumber = phoneNumber
	profile.PhoneVerified = true
	profile.UpdatedAt = s.now()
	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if err := s.repo.DeleteOTPChallenges(ctx, userID); err != nil {
		s.logger.Warn("failed to clear otp challenges", zap.String("user_id", userID), zap.Error(err))
	}

	s.logger.Info("phone verified", zap.String("user_id", userID))
	return profile, nil
}

type subscribeRequest struct {
	Tier             string `validate:"required,oneof=premium pro"`
	PaymentReference string `validate:"required,max=120"`
}

// Subscribe records a manually confirmed payment and activates tier.
func (s *ProfileService) Subscribe(ctx context.Context, userID string, tier domain.SubscriptionTier, paymentReference string) (*domain.UserProfile, error) {
	req := subscribeRequest{Tier: string(tier), PaymentReference: strings.TrimSpace(paymentReference)}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, domain.ErrNotRegistered
	}

	now := s.now()
	expiry := now.Add(s.subscriptionDur)
	profile.Subscription = &tier
	profile.SubscriptionExpiry = &expiry
	profile.UpdatedAt = now
	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.logger.Info("subscription confirmed",
		zap.String("user_id", userID),
		zap.String("tier", string(tier)),
		zap.String("payment_reference", req.PaymentReference),
	)
	return profile, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

var _ ports.ProfileService = (*ProfileService)(nil)
