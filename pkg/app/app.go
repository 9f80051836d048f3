// Package app wires configuration, storage and services into the HTTP router.
package app

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/caffeinepub/liinks/pkg/adapters/handler"
	"github.com/caffeinepub/liinks/pkg/adapters/repository/sqlite"
	"github.com/caffeinepub/liinks/pkg/adapters/storage/cloudinary"
	"github.com/caffeinepub/liinks/pkg/config"
	"github.com/caffeinepub/liinks/pkg/core/catalog"
	"github.com/caffeinepub/liinks/pkg/core/content"
	"github.com/caffeinepub/liinks/pkg/core/gate"
	"github.com/caffeinepub/liinks/pkg/core/services"
	"github.com/caffeinepub/liinks/pkg/ports"
)

// App is a fully wired server.
type App struct {
	Handler http.Handler
	repo    *sqlite.SQLiteRepository
}

// New opens the store and builds the router. Thumbnail uploads are only
// available when a Cloudinary URL is configured.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	var blobs ports.BlobStore
	if cfg.CloudinaryURL != "" {
		store, err := cloudinary.New(cfg.CloudinaryURL)
		if err != nil {
			_ = repo.Close()
			return nil, err
		}
		blobs = store
	} else {
		logger.Info("CLOUDINARY_URL not set, thumbnail uploads disabled")
	}

	return &App{
		Handler: handler.NewRouter(cfg, logger, NewServices(cfg, repo, blobs, logger)),
		repo:    repo,
	}, nil
}

// NewServices builds the domain services on top of repo.
func NewServices(cfg *config.Config, repo ports.Repository, blobs ports.BlobStore, logger *zap.Logger) handler.Services {
	codec := content.NewCodec(logger.Named("codec"))
	profiles := services.NewProfileService(repo, cfg.OTPTTL, cfg.SubscriptionPeriod(), logger.Named("profiles"))
	prereqs := services.NewPrerequisiteService(profiles, gate.Gate{}, cfg.GateTimeout, logger.Named("gate"))
	templates := services.NewTemplateService(repo, repo, blobs, catalog.Seeds(), codec, logger.Named("templates"))
	bios := services.NewBioPageService(repo, templates, prereqs, logger.Named("biopages"))

	return handler.Services{
		Templates:     templates,
		BioPages:      bios,
		Prerequisites: prereqs,
		Profiles:      profiles,
	}
}

func (a *App) Close() error {
	return a.repo.Close()
}
