package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caffeinepub/liinks/pkg/adapters/repository/sqlite"
	"github.com/caffeinepub/liinks/pkg/core/catalog"
	"github.com/caffeinepub/liinks/pkg/core/domain"
)

func newRepo(t *testing.T, name string) *sqlite.SQLiteRepository {
	t.Helper()
	repo, err := sqlite.NewSQLiteRepository("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newRepo(t, "cli_src")
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, src.UpsertBioPage(ctx, &domain.BioPage{
		UserID: "u1", TemplateID: "seed-creator-glow", Title: "Asha", BioText: "Coach",
		Links: []domain.Link{{ID: "link-0", Title: "Site", URL: "https://example.com"}}, CreatedAt: now, UpdatedAt: now,
	}))

	var buf bytes.Buffer
	require.NoError(t, doExport(ctx, src, &buf))

	file := filepath.Join(t.TempDir(), "pages.json")
	require.NoError(t, os.WriteFile(file, buf.Bytes(), 0o600))

	dst := newRepo(t, "cli_dst")
	n, err := doImport(ctx, dst, file)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = doImport(ctx, dst, file)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pages, err := dst.DumpBioPages(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "Site", pages[0].Links[0].Title)
}

func TestExportEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, doExport(context.Background(), newRepo(t, "cli_empty"), &buf))
	assert.Equal(t, "[]\n", buf.String())
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, "cli_seed")

	n, err := doSeed(ctx, repo, catalog.Seeds())
	require.NoError(t, err)
	assert.Equal(t, len(catalog.Seeds()), n)

	n, err = doSeed(ctx, repo, catalog.Seeds())
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := repo.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, len(catalog.Seeds()))
}
