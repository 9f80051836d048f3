package services

import (
	"context"
	"io"
	"sync"

	"github.com/caffeinepub/liinks/pkg/core/domain"
)

type stubTemplateRepo struct {
	templates []domain.Template
	listErr   error
	getErr    error
	created   []*domain.Template
}

func (s *stubTemplateRepo) CreateTemplate(_ context.Context, t *domain.Template) error {
	s.created = append(s.created, t)
	return nil
}

func (s *stubTemplateRepo) GetTemplate(_ context.Context, id string) (*domain.Template, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, t := range s.templates {
		if t.ID == id {
			tpl := t
			return &tpl, nil
		}
	}
	return nil, nil
}

func (s *stubTemplateRepo) ListTemplates(context.Context) ([]domain.Template, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.templates, nil
}

func (s *stubTemplateRepo) ListTemplatesByCategory(_ context.Context, category string) ([]domain.Template, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.Template
	for _, t := range s.templates {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out, nil
}

type stubProfileRepo struct {
	mu         sync.Mutex
	profiles   map[string]*domain.UserProfile
	challenges map[string]*domain.OTPChallenge
	getErr     error
	updates    int
}

func newStubProfileRepo(profiles ...*domain.UserProfile) *stubProfileRepo {
	r := &stubProfileRepo{
		profiles:   map[string]*domain.UserProfile{},
		challenges: map[string]*domain.OTPChallenge{},
	}
	for _, p := range profiles {
		r.profiles[p.UserID] = p
	}
	return r
}

func (s *stubProfileRepo) CreateProfile(_ context.Context, p *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profiles[p.UserID] = &cp
	return nil
}

func (s *stubProfileRepo) GetProfile(_ context.Context, userID string) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *stubProfileRepo) UpdateProfile(_ context.Context, p *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profiles[p.UserID] = &cp
	s.updates++
	return nil
}

func (s *stubProfileRepo) SaveOTPChallenge(_ context.Context, c *domain.OTPChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.challenges[c.UserID+"|"+c.PhoneNumber] = &cp
	return nil
}

func (s *stubProfileRepo) GetOTPChallenge(_ context.Context, userID, phone string) (*domain.OTPChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[userID+"|"+phone]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *stubProfileRepo) RecordOTPFailure(_ context.Context, challengeID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.challenges {
		if c.ID == challengeID {
			c.Attempts++
			return c.Attempts, nil
		}
	}
	return 0, nil
}

func (s *stubProfileRepo) DeleteOTPChallenges(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, c := range s.challenges {
		if c.UserID == userID {
			delete(s.challenges, k)
		}
	}
	return nil
}

type stubBioRepo struct {
	pages   map[domain.ShareID]domain.BioPage
	upserts int
}

func newStubBioRepo() *stubBioRepo {
	return &stubBioRepo{pages: map[domain.ShareID]domain.BioPage{}}
}

func (s *stubBioRepo) UpsertBioPage(_ context.Context, p *domain.BioPage) error {
	s.pages[p.ShareID()] = *p
	s.upserts++
	return nil
}

func (s *stubBioRepo) GetBioPage(_ context.Context, id domain.ShareID) (*domain.BioPage, error) {
	p, ok := s.pages[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *stubBioRepo) ListBioPagesByUser(_ context.Context, userID string) ([]domain.BioPage, error) {
	var out []domain.BioPage
	for _, p := range s.pages {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubBioRepo) DumpBioPages(context.Context) ([]domain.BioPage, error) {
	var out []domain.BioPage
	for _, p := range s.pages {
		out = append(out, p)
	}
	return out, nil
}

type stubBlobStore struct {
	names []string
	body  []byte
}

func (s *stubBlobStore) Upload(_ context.Context, name string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.names = append(s.names, name)
	s.body = b
	return "https://cdn.example.com/" + name, nil
}
