package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/caffeinepub/liinks/pkg/config"
	"github.com/caffeinepub/liinks/pkg/core/domain"
	"github.com/caffeinepub/liinks/pkg/logging"
	"github.com/caffeinepub/liinks/pkg/ports"
)

const requestTimeout = 30 * time.Second

// Services bundles what the HTTP layer calls into.
type Services struct {
	Templates     ports.TemplateService
	BioPages      ports.BioPageService
	Prerequisites ports.PrerequisiteService
	Profiles      ports.ProfileService
}

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, logger *zap.Logger, svc Services) http.Handler {
	th := NewTemplateHandler(svc.Templates)
	bh := NewBioPageHandler(svc.BioPages, svc.Prerequisites, cfg.BaseURL)
	ph := NewProfileHandler(svc.Profiles, cfg.ExposeOTP, domain.UPIPayee{VPA: cfg.UPIPayeeVPA, Name: cfg.UPIPayeeName})
	authHandler := NewAuthHandler(cfg)
	mw := NewMiddleware(cfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(logging.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	r.Get("/auth/google/login", authHandler.Login)
	r.Get("/auth/google/callback", authHandler.Callback)
	r.Get("/auth/logout", authHandler.Logout)
	r.Get("/share/{shareID}", bh.Shared)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/public", func(r chi.Router) {
			r.Get("/templates", th.List)
			r.Get("/templates/{id}", th.Get)
			r.Get("/templates/{id}/content", th.Content)
			r.Get("/categories", th.Categories)
			r.Get("/bio/{shareID}", bh.Shared)
		})
		r.Get("/plans", ph.Plans)

		// Anonymous callers get a gate decision telling them to log in.
		r.Group(func(r chi.Router) {
			r.Use(mw.OptionalAuth)
			r.Get("/publish-gate", bh.Gate)
			r.Post("/bio-pages", bh.Save)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)
			r.Post("/templates", th.Upload)
			r.Get("/me/profile", ph.Get)
			r.Post("/me/profile", ph.Register)
			r.Post("/me/phone/otp", ph.RequestOTP)
			r.Post("/me/phone/verify", ph.VerifyOTP)
			r.Get("/me/subscription", ph.Subscription)
			r.Post("/me/subscription", ph.Subscribe)
			r.Get("/me/bio-pages", bh.ListMine)
		})
	})

	return r
}
