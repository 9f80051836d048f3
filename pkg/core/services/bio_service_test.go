package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caffeinepub/liinks/pkg/core/domain"
	"github.com/caffeinepub/liinks/pkg/core/gate"
	"github.com/caffeinepub/liinks/pkg/ports"
)

type bioFixture struct {
	svc      *BioPageService
	bios     *stubBioRepo
	profiles *stubProfileRepo
}

func newBioFixture(t *testing.T, profiles ...*domain.UserProfile) *bioFixture {
	t.Helper()
	profileRepo := newStubProfileRepo(profiles...)
	bios := newStubBioRepo()
	templates := newTemplateService(&stubTemplateRepo{}, profileRepo, nil, nil)
	prereqs := NewPrerequisiteService(NewProfileService(profileRepo, 0, 0, nil), gate.Gate{}, 0, nil)
	return &bioFixture{
		svc:      NewBioPageService(bios, templates, prereqs, nil),
		bios:     bios,
		profiles: profileRepo,
	}
}

func validSave() ports.SaveBioPageInput {
	return ports.SaveBioPageInput{
		TemplateID: "seed-a",
		Title:      "Asha Rao",
		BioText:    "Runner. Coach.",
		SocialHandles: []domain.SocialHandle{
			{Platform: "instagram", Username: "asha", URL: "https://instagram.com/asha"},
		},
		Links: []domain.Link{
			{Title: "Plans", URL: "https://example.com/plans"},
			{ID: "custom", Title: "Blog", URL: "https://example.com/blog"},
		},
	}
}

func TestBioPageService_Save_Blocked(t *testing.T) {
	f := newBioFixture(t, &domain.UserProfile{UserID: "u1"})

	res, err := f.svc.Save(context.Background(), &ports.Identity{UserID: "u1"}, validSave())

	require.NoError(t, err)
	assert.Equal(t, gate.StatusBlocked, res.Decision.Status)
	assert.Equal(t, gate.ActionVerifyPhone, res.Decision.Action)
	assert.Nil(t, res.Page)
	assert.Zero(t, f.bios.upserts)

	anon, err := f.svc.Save(context.Background(), nil, validSave())
	require.NoError(t, err)
	assert.Equal(t, gate.ActionLogIn, anon.Decision.Action)
}

func TestBioPageService_Save_RecheckedEachAttempt(t *testing.T) {
	f := newBioFixture(t, &domain.UserProfile{UserID: "u1"})
	id := &ports.Identity{UserID: "u1"}

	res, err := f.svc.Save(context.Background(), id, validSave())
	require.NoError(t, err)
	require.False(t, res.Decision.Allowed())

	f.profiles.profiles["u1"].PhoneVerified = true

	res, err = f.svc.Save(context.Background(), id, validSave())
	require.NoError(t, err)
	assert.True(t, res.Decision.Allowed())
	assert.Equal(t, domain.ShareID("u1_seed-a"), res.ShareID)
}

func TestBioPageService_Save_Publishes(t *testing.T) {
	f := newBioFixture(t, &domain.UserProfile{UserID: "u1", PhoneVerified: true})
	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return first }

	input := validSave()
	input.Title = "  <script>alert(1)</script>Asha  "
	res, err := f.svc.Save(context.Background(), &ports.Identity{UserID: "u1"}, input)

	require.NoError(t, err)
	require.NotNil(t, res.Page)
	assert.Equal(t, "Asha", res.Page.Title)
	assert.Equal(t, "handle-0", res.Page.SocialHandles[0].ID)
	assert.Equal(t, "link-0", res.Page.Links[0].ID)
	assert.Equal(t, "custom", res.Page.Links[1].ID)
	assert.Empty(t, input.Links[0].ID)

	later := first.Add(time.Hour)
	f.svc.now = func() time.Time { return later }
	input.BioText = "Updated"
	res, err = f.svc.Save(context.Background(), &ports.Identity{UserID: "u1"}, input)
	require.NoError(t, err)

	stored, err := f.svc.GetShared(context.Background(), "u1_seed-a")
	require.NoError(t, err)
	assert.Equal(t, "Updated", stored.BioText)
	assert.Equal(t, first, stored.CreatedAt)
	assert.Equal(t, later, stored.UpdatedAt)
	assert.Len(t, f.bios.pages, 1)

	mine, err := f.svc.ListMine(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestBioPageService_Save_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ports.SaveBioPageInput)
		wantErr error
		field   string
	}{
		{name: "empty title", mutate: func(in *ports.SaveBioPageInput) { in.Title = "   " }, field: "Title"},
		{name: "markup only bio", mutate: func(in *ports.SaveBioPageInput) { in.BioText = "<b></b>" }, field: "BioText"},
		{name: "link without url", mutate: func(in *ports.SaveBioPageInput) { in.Links[0].URL = "" }, field: "URL"},
		{name: "unknown template", mutate: func(in *ports.SaveBioPageInput) { in.TemplateID = "nope" }, wantErr: domain.ErrTemplateNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBioFixture(t, &domain.UserProfile{UserID: "u1", PhoneVerified: true})
			input := validSave()
			tt.mutate(&input)

			_, err := f.svc.Save(context.Background(), &ports.Identity{UserID: "u1"}, input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.field, verr.Fields[0].Field)
			}
			assert.Zero(t, f.bios.upserts)
		})
	}
}

type countingPrereqs struct {
	calls    int
	decision gate.Decision
}

func (c *countingPrereqs) Check(context.Context, *ports.Identity) (gate.Decision, error) {
	c.calls++
	return c.decision, nil
}

func TestBioPageService_Save_ValidatesBeforeGate(t *testing.T) {
	tests := []struct {
		name     string
		identity *ports.Identity
		mutate   func(*ports.SaveBioPageInput)
	}{
		{name: "blank title", identity: &ports.Identity{UserID: "u1"}, mutate: func(in *ports.SaveBioPageInput) { in.Title = "  " }},
		{name: "missing template", identity: &ports.Identity{UserID: "u1"}, mutate: func(in *ports.SaveBioPageInput) { in.TemplateID = "" }},
		{name: "anonymous with blank bio", mutate: func(in *ports.SaveBioPageInput) { in.BioText = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prereqs := &countingPrereqs{decision: gate.Decision{Status: gate.StatusAllowed}}
			bios := newStubBioRepo()
			templates := newTemplateService(&stubTemplateRepo{}, newStubProfileRepo(), nil, nil)
			svc := NewBioPageService(bios, templates, prereqs, nil)
			input := validSave()
			tt.mutate(&input)

			_, err := svc.Save(context.Background(), tt.identity, input)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Zero(t, prereqs.calls)
			assert.Zero(t, bios.upserts)
		})
	}
}

func TestBioPageService_GetShared_NotFound(t *testing.T) {
	f := newBioFixture(t)

	_, err := f.svc.GetShared(context.Background(), domain.NewShareID("u9", "seed-a"))

	assert.ErrorIs(t, err, domain.ErrBioPageNotFound)
}
