package app

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/contractor-desk/contractor-desk/internal/auth"
	"github.com/contractor-desk/contractor-desk/internal/masterdata"
	"github.com/contractor-desk/contractor-desk/internal/masterdata/shared"
	"github.com/contractor-desk/contractor-desk/internal/observability"
	"github.com/contractor-desk/contractor-desk/internal/platform/httpx"
	internalShared "github.com/contractor-desk/contractor-desk/internal/shared"
	"github.com/contractor-desk/contractor-desk/web"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *internalShared.SessionManager
	CSRFManager       *internalShared.CSRFManager
	AuthHandler       *auth.Handler
	MasterDataHandler *masterdata.Handler
	// Backend and Sessions are probed by /healthz.
	Backend  Pinger
	Sessions Pinger
	Metrics  *observability.Metrics
}

// NewRouter constructs the chi.Router with desk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", healthHandler(map[string]Pinger{
		"backend":  params.Backend,
		"sessions": params.Sessions,
	}))

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(params.AuthHandler.RequireLogin)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/"+shared.SectionContractors, http.StatusSeeOther)
		})
		if params.MasterDataHandler != nil {
			params.MasterDataHandler.MountRoutes(r)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// healthHandler answers 200 while every configured dependency is reachable and
// an RFC7807 problem naming the first failure otherwise. nil checks report
// "unchecked".
func healthHandler(checks map[string]Pinger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		status := healthStatus{Status: "ok", Checks: make(map[string]string, len(names))}
		for _, name := range names {
			pinger := checks[name]
			if pinger == nil {
				status.Checks[name] = "unchecked"
				continue
			}
			if err := pinger.Ping(ctx); err != nil {
				httpx.Problem(w, http.StatusServiceUnavailable, "Dependency Unavailable", name+": "+err.Error())
				return
			}
			status.Checks[name] = "ok"
		}
		httpx.JSON(w, http.StatusOK, status)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
