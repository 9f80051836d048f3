package ports

import (
	"context"
	"io"

	"github.com/caffeinepub/liinks/pkg/core/domain"
	"github.com/caffeinepub/liinks/pkg/core/gate"
)

// TemplateRepository defines storage operations for templates
type TemplateRepository interface {
	CreateTemplate(ctx context.Context, template *domain.Template) error
	GetTemplate(ctx context.Context, id string) (*domain.Template, error)
	ListTemplates(ctx context.Context) ([]domain.Template, error) // published only
	ListTemplatesByCategory(ctx context.Context, category string) ([]domain.Template, error)
}

// BioPageRepository defines storage operations for bio pages, keyed by share id
type BioPageRepository interface {
	UpsertBioPage(ctx context.Context, page *domain.BioPage) error
	GetBioPage(ctx context.Context, shareID domain.ShareID) (*domain.BioPage, error)
	ListBioPagesByUser(ctx context.Context, userID string) ([]domain.BioPage, error)
	DumpBioPages(ctx context.Context) ([]domain.BioPage, error) // For migration
}

// ProfileRepository defines storage operations for user profiles and OTP challenges
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *domain.UserProfile) error
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
	UpdateProfile(ctx context.Context, profile *domain.UserProfile) error

	SaveOTPChallenge(ctx context.Context, challenge *domain.OTPChallenge) error
	GetOTPChallenge(ctx context.Context, userID, phoneNumber string) (*domain.OTPChallenge, error)
	RecordOTPFailure(ctx context.Context, challengeID string) (int, error)
	DeleteOTPChallenges(ctx context.Context, userID string) error
}

// Repository is everything the SQL adapter implements.
type Repository interface {
	TemplateRepository
	BioPageRepository
	ProfileRepository
}

// BlobStore uploads template thumbnails and returns their public URL.
type BlobStore interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}

// Identity is the authenticated caller. A nil *Identity means anonymous.
type Identity struct {
	UserID string
	Email  string
}

// TemplateService defines catalog and upload operations
type TemplateService interface {
	GetAll(ctx context.Context) []domain.Template
	GetByCategory(ctx context.Context, category string) []domain.Template
	GetByID(ctx context.Context, id string) (*domain.Template, error)
	EditorContent(ctx context.Context, id string) (*domain.Template, domain.EditableContent, error)
	Upload(ctx context.Context, userID string, input UploadTemplateInput) (string, error)
}

// UploadTemplateInput carries a new template. Thumbnail, when set, is pushed
// to the blob store and overrides ThumbnailURL.
type UploadTemplateInput struct {
	Name          string
	Category      string
	Description   string
	ThumbnailURL  string
	Thumbnail     io.Reader
	ThumbnailName string
	Content       domain.EditableContent
}

// PrerequisiteService resolves remote prerequisite state and runs the gate
type PrerequisiteService interface {
	Check(ctx context.Context, identity *Identity) (gate.Decision, error)
}

// BioPageService defines publish and share operations
type BioPageService interface {
	Save(ctx context.Context, identity *Identity, input SaveBioPageInput) (*PublishResult, error)
	GetShared(ctx context.Context, shareID domain.ShareID) (*domain.BioPage, error)
	ListMine(ctx context.Context, userID string) ([]domain.BioPage, error)
}

// SaveBioPageInput is the editor state submitted for publishing.
type SaveBioPageInput struct {
	TemplateID    string
	Title         string
	BioText       string
	SocialHandles []domain.SocialHandle
	Links         []domain.Link
}

// PublishResult is the outcome of a save attempt. Page is nil unless the
// gate allowed the save.
type PublishResult struct {
	Decision gate.Decision
	Page     *domain.BioPage
	ShareID  domain.ShareID
}

// ProfileService defines registration, phone verification and subscription operations
type ProfileService interface {
	Register(ctx context.Context, userID string, input RegisterInput) (*domain.UserProfile, error)
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
	IsRegistered(ctx context.Context, userID string) (bool, error)
	IsPhoneVerified(ctx context.Context, userID string) (bool, error)
	HasActiveSubscription(ctx context.Context, userID string) (bool, error)

	RequestOTP(ctx context.Context, userID, phoneNumber string) (*OTPIssued, error)
	VerifyOTP(ctx context.Context, userID, phoneNumber, code string) (*domain.UserProfile, error)

	Subscribe(ctx context.Context, userID string, tier domain.SubscriptionTier, paymentReference string) (*domain.UserProfile, error)
}

// RegisterInput is the signup form.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
}

// OTPIssued is returned by RequestOTP. Code is exposed because SMS delivery
// is mocked.
type OTPIssued struct {
	ChallengeID string `json:"challenge_id"`
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code,omitempty"`
	ExpiresAt   string `json:"expires_at"`
}
