package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/caffeinepub/liinks/pkg/adapters/repository/sqlite"
	"github.com/caffeinepub/liinks/pkg/config"
	"github.com/caffeinepub/liinks/pkg/core/catalog"
	"github.com/caffeinepub/liinks/pkg/core/domain"
	"github.com/caffeinepub/liinks/pkg/logging"
	"github.com/caffeinepub/liinks/pkg/ports"
)

const usage = "expected 'export', 'import' or 'seed' subcommands"

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")
	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer repo.Close()

	ctx := context.Background()
	switch os.Args[1] {
	case "export":
		_ = exportCmd.Parse(os.Args[2:])
		err = doExport(ctx, repo, os.Stdout)
	case "import":
		_ = importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		var n int
		n, err = doImport(ctx, repo, *importFile)
		logger.Info("import finished", zap.Int("imported", n))
	case "seed":
		_ = seedCmd.Parse(os.Args[2:])
		var n int
		n, err = doSeed(ctx, repo, catalog.Seeds())
		logger.Info("seed finished", zap.Int("inserted", n))
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
	if err != nil {
		logger.Fatal("command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

// doExport writes every bio page as an indented JSON array.
func doExport(ctx context.Context, repo ports.BioPageRepository, w io.Writer) error {
	pages, err := repo.DumpBioPages(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if pages == nil {
		pages = []domain.BioPage{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(pages)
}

// doImport upserts the pages in filename. Pages keep their share id, so
// importing the same export twice is harmless.
func doImport(ctx context.Context, repo ports.BioPageRepository, filename string) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var pages []domain.BioPage
	if err := json.NewDecoder(file).Decode(&pages); err != nil {
		return 0, fmt.Errorf("decode failed: %w", err)
	}

	count := 0
	for i := range pages {
		p := &pages[i]
		if p.UserID == "" || p.TemplateID == "" {
			continue
		}
		if err := repo.UpsertBioPage(ctx, p); err != nil {
			return count, fmt.Errorf("import %s: %w", p.ShareID(), err)
		}
		count++
	}
	return count, nil
}

// doSeed stores the bundled templates that are not in the store yet.
func doSeed(ctx context.Context, repo ports.TemplateRepository, seeds []domain.Template) (int, error) {
	count := 0
	for i := range seeds {
		existing, err := repo.GetTemplate(ctx, seeds[i].ID)
		if err != nil {
			return count, err
		}
		if existing != nil {
			continue
		}
		if err := repo.CreateTemplate(ctx, &seeds[i]); err != nil {
			return count, fmt.Errorf("seed %s: %w", seeds[i].ID, err)
		}
		count++
	}
	return count, nil
}
