package handler

import (
	"net/http"

	"github.com/caffeinepub/liinks/pkg/app"
	"github.com/caffeinepub/liinks/pkg/config"
	"github.com/caffeinepub/liinks/pkg/logging"
)

var mux http.Handler

func init() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}

	// Note: On Vercel, db.sqlite is ephemeral unless using a remote SQL/Turso URL in DATABASE_URL
	application, err := app.New(cfg, logger)
	if err != nil {
		panic(err)
	}
	mux = application.Handler
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
