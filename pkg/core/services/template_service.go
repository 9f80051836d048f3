package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/caffeinepub/liinks/pkg/core/content"
	"github.com/caffeinepub/liinks/pkg/core/domain"
	"github.com/caffeinepub/liinks/pkg/ports"
)

const templateIDPrefix = "tpl_"

// TemplateService serves the template catalog. Listing never fails: when the
// store errors or is empty the bundled seed catalog is served instead.
type TemplateService struct {
	repo     ports.TemplateRepository
	profiles ports.ProfileRepository
	blobs    ports.BlobStore
	seeds    []domain.Template
	codec    *content.Codec
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

func NewTemplateService(repo ports.TemplateRepository, profiles ports.ProfileRepository, blobs ports.BlobStore, seeds []domain.Template, codec *content.Codec, logger *zap.Logger) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if codec == nil {
		codec = content.NewCodec(logger)
	}
	return &TemplateService{
		repo:     repo,
		profiles: profiles,
		blobs:    blobs,
		seeds:    seeds,
		codec:    codec,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return templateIDPrefix + ulid.Make().String() },
	}
}

func (s *TemplateService) GetAll(ctx context.Context) []domain.Template {
	remote, err := s.repo.ListTemplates(ctx)
	return s.resolve(remote, err, s.seedsWhere(func(domain.Template) bool { return true }), zap.String("scope", "all"))
}

func (s *TemplateService) GetByCategory(ctx context.Context, category string) []domain.Template {
	remote, err := s.repo.ListTemplatesByCategory(ctx, category)
	seeds := s.seedsWhere(func(t domain.Template) bool { return t.Category == category })
	return s.resolve(remote, err, seeds, zap.String("category", category))
}

// resolve applies the fallback policy: seeds on error or empty result,
// otherwise remote followed by seeds with the first occurrence of an id kept.
func (s *TemplateService) resolve(remote []domain.Template, err error, seeds []domain.Template, field zap.Field) []domain.Template {
	if err != nil {
		s.logger.Warn("template store unavailable, serving seed catalog", field, zap.Error(err))
		return seeds
	}
	if len(remote) == 0 {
		return seeds
	}

	merged := make([]domain.Template, 0, len(remote)+len(seeds))
	seen := make(map[string]struct{}, len(remote)+len(seeds))
	for _, list := range [][]domain.Template{remote, seeds} {
		for _, t := range list {
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
			merged = append(merged, t)
		}
	}
	return merged
}

func (s *TemplateService) seedsWhere(keep func(domain.Template) bool) []domain.Template {
	out := make([]domain.Template, 0, len(s.seeds))
	for _, t := range s.seeds {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// GetByID looks the template up in the store, then in the seed catalog.
// Unlisted templates are reachable by id.
func (s *TemplateService) GetByID(ctx context.Context, id string) (*domain.Template, error) {
	tpl, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		s.logger.Warn("template lookup failed, checking seed catalog", zap.String("template_id", id), zap.Error(err))
	}
	if err == nil && tpl != nil {
		return tpl, nil
	}
	for _, seed := range s.seeds {
		if seed.ID == id {
			t := seed
			return &t, nil
		}
	}
	return nil, domain.ErrTemplateNotFound
}

// EditorContent returns the template and its decoded editor state.
func (s *TemplateService) EditorContent(ctx context.Context, id string) (*domain.Template, domain.EditableContent, error) {
	tpl, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, domain.EditableContent{}, err
	}
	return tpl, s.codec.Decode(tpl.EditableContent, tpl.Name, tpl.Description), nil
}

type uploadTemplateRequest struct {
	Name        string `validate:"required,max=120"`
	Category    string `validate:"required"`
	Description string `validate:"required,max=2000"`
}

// Upload stores a new template created by userID. Only an active pro
// subscription may upload.
func (s *TemplateService) Upload(ctx context.Context, userID string, input ports.UploadTemplateInput) (string, error) {
	req := uploadTemplateRequest{
		Name:        cleanText(input.Name),
		Category:    input.Category,
		Description: cleanText(input.Description),
	}
	if err := validateStruct(req); err != nil {
		return "", err
	}
	if !domain.IsKnownCategory(req.Category) {
		return "", domain.NewValidationError("Category", "oneof")
	}
	if input.Thumbnail == nil && input.ThumbnailURL == "" {
		return "", domain.NewValidationError("Thumbnail", "required")
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return "", domain.ErrNotRegistered
	}
	if !profile.HasActiveTier(domain.TierPro, s.now()) {
		return "", domain.ErrSubscriptionRequired
	}

	id := s.newID()
	thumbnail := input.ThumbnailURL
	if input.Thumbnail != nil {
		if s.blobs == nil {
			return "", errors.New("thumbnail storage is not configured")
		}
		thumbnail, err = s.blobs.Upload(ctx, thumbnailKey(id, input.ThumbnailName), input.Thumbnail)
		if err != nil {
			return "", fmt.Errorf("upload thumbnail: %w", err)
		}
	}

	encoded, err := s.codec.Encode(content.NormalizeIDs(input.Content))
	if err != nil {
		return "", err
	}

	tpl := &domain.Template{
		ID:              id,
		Name:            req.Name,
		Category:        req.Category,
		Description:     req.Description,
		Status:          domain.TemplateStatusPublished,
		ThumbnailURL:    thumbnail,
		EditableContent: encoded,
		CreatorID:       userID,
		CreatedAt:       s.now(),
	}
	if err := s.repo.CreateTemplate(ctx, tpl); err != nil {
		return "", fmt.Errorf("create template: %w", err)
	}

	s.logger.Info("template uploaded", zap.String("template_id", id), zap.String("user_id", userID))
	return id, nil
}

// thumbnailKey names a template's thumbnail blob after the template id. The
// client's file name only contributes its extension.
func thumbnailKey(templateID, fileName string) string {
	ext := path.Ext(path.Base(strings.ReplaceAll(fileName, "\\", "/")))
	if ext == "." {
		ext = ""
	}
	return templateID + ext
}

var _ ports.TemplateService = (*TemplateService)(nil)
