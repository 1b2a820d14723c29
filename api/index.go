package handler

import (
	"net/http"
	"os"

	"github.com/lessonlines/lessonlines/pkg/app"
	"github.com/lessonlines/lessonlines/pkg/config"
	"github.com/lessonlines/lessonlines/pkg/logging"
)

var mux http.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Note: On Vercel, a local SQLite file is ephemeral unless DATABASE_URL points at Turso
	a, err := app.New(cfg, logging.New(os.Stderr, cfg.LogLevel))
	if err != nil {
		panic(err)
	}
	mux = a.Handler
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
