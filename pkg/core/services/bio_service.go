package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/caffeinepub/liinks/pkg/core/content"
	"github.com/caffeinepub/liinks/pkg/core/domain"
	"github.com/caffeinepub/liinks/pkg/ports"
)

// BioPageService publishes bio pages and serves them by share id.
type BioPageService struct {
	repo      ports.BioPageRepository
	templates ports.TemplateService
	prereqs   ports.PrerequisiteService
	logger    *zap.Logger
	now       func() time.Time
}

func NewBioPageService(repo ports.BioPageRepository, templates ports.TemplateService, prereqs ports.PrerequisiteService, logger *zap.Logger) *BioPageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BioPageService{
		repo:      repo,
		templates: templates,
		prereqs:   prereqs,
		logger:    logger,
		now:       time.Now,
	}
}

type saveBioPageRequest struct {
	TemplateID string `validate:"required"`
	Title      string `validate:"required,max=200"`
	BioText    string `validate:"required,max=5000"`
}

type socialHandleRequest struct {
	Platform string `validate:"required,max=50"`
	Username string `validate:"max=100"`
	URL      string `validate:"omitempty,max=2048"`
}

type linkRequest struct {
	Title string `validate:"required,max=200"`
	URL   string `validate:"required,max=2048"`
}

// Save validates the editor state, re-evaluates the publish gate and, when
// allowed, writes the page under its share id. Invalid input is rejected
// before any prerequisite lookup. A page saved again for the same template
// is overwritten and keeps its creation time. A gate refusal is reported in
// the result, not as an error.
func (s *BioPageService) Save(ctx context.Context, identity *ports.Identity, input ports.SaveBioPageInput) (*ports.PublishResult, error) {
	page, err := s.buildPage(input)
	if err != nil {
		return nil, err
	}

	decision, err := s.prereqs.Check(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return &ports.PublishResult{Decision: decision}, nil
	}
	page.UserID = identity.UserID

	if _, err := s.templates.GetByID(ctx, page.TemplateID); err != nil {
		return nil, err
	}

	shareID := page.ShareID()
	existing, err := s.repo.GetBioPage(ctx, shareID)
	if err != nil {
		return nil, fmt.Errorf("load bio page: %w", err)
	}
	now := s.now()
	page.CreatedAt = now
	if existing != nil {
		page.CreatedAt = existing.CreatedAt
	}
	page.UpdatedAt = now

	if err := s.repo.UpsertBioPage(ctx, page); err != nil {
		return nil, fmt.Errorf("save bio page: %w", err)
	}

	s.logger.Info("bio page published",
		zap.String("share_id", shareID.String()),
		zap.Bool("overwrite", existing != nil),
	)
	return &ports.PublishResult{Decision: decision, Page: page, ShareID: shareID}, nil
}

// buildPage sanitises and validates the editor state. The owner is filled in
// by the caller once the gate allows the save.
func (s *BioPageService) buildPage(input ports.SaveBioPageInput) (*domain.BioPage, error) {
	req := saveBioPageRequest{
		TemplateID: input.TemplateID,
		Title:      cleanText(input.Title),
		BioText:    cleanText(input.BioText),
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	state := content.NormalizeIDs(domain.EditableContent{
		Title:         req.Title,
		BioText:       req.BioText,
		SocialHandles: input.SocialHandles,
		Links:         input.Links,
	})
	for i := range state.SocialHandles {
		h := &state.SocialHandles[i]
		h.Platform = cleanText(h.Platform)
		h.Username = cleanText(h.Username)
		if err := validateStruct(socialHandleRequest{Platform: h.Platform, Username: h.Username, URL: h.URL}); err != nil {
			return nil, err
		}
	}
	for i := range state.Links {
		l := &state.Links[i]
		l.Title = cleanText(l.Title)
		l.Description = cleanText(l.Description)
		if err := validateStruct(linkRequest{Title: l.Title, URL: l.URL}); err != nil {
			return nil, err
		}
	}

	return &domain.BioPage{
		TemplateID:    req.TemplateID,
		Title:         state.Title,
		BioText:       state.BioText,
		SocialHandles: state.SocialHandles,
		Links:         state.Links,
	}, nil
}

func (s *BioPageService) GetShared(ctx context.Context, shareID domain.ShareID) (*domain.BioPage, error) {
	page, err := s.repo.GetBioPage(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, domain.ErrBioPageNotFound
	}
	return page, nil
}

func (s *BioPageService) ListMine(ctx context.Context, userID string) ([]domain.BioPage, error) {
	return s.repo.ListBioPagesByUser(ctx, userID)
}

var _ ports.BioPageService = (*BioPageService)(nil)
