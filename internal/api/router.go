// Package api exposes the fact-checker over HTTP.
package api

import (
	"net/http"

	"github.com/factchecker/claimcheck/internal/config"
	"github.com/factchecker/claimcheck/internal/database"
	"github.com/factchecker/claimcheck/internal/verify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg *config.Config, service *verify.Service, store database.Store, version string) http.Handler {
	r := chi.NewRouter()

	handler := NewHandler(service, store, cfg.Pipeline.CheckTimeout, version)

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(store))
			r.Use(AuditMiddleware(store))
			r.Use(RateLimitMiddleware(cfg.RateLimits.RequestsPerMinute))

			r.Post("/check", handler.CheckClaim)
			r.Get("/checks", handler.ListChecks)
			r.Get("/checks/{id}", handler.GetCheck)
			r.Get("/audit", handler.GetAuditLogs)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminMiddleware(cfg.Server.AdminToken))
			r.Post("/keys", handler.CreateAPIKey)
			r.Get("/keys", handler.ListAPIKeys)
			r.Delete("/keys/{id}", handler.DeleteAPIKey)
		})
	})

	if cfg.Server.EnableUI {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(indexPage))
		})
	}

	return r
}

const indexPage = `<!DOCTYPE html>
<html>
<head>
    <title>claimcheck</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        h1 { color: #2563eb; }
        code { background: #f1f5f9; padding: 2px 6px; border-radius: 4px; }
        .endpoint { margin: 10px 0; }
    </style>
</head>
<body>
    <h1>claimcheck API</h1>
    <p>The claim checker is running. Use the API endpoints below:</p>

    <h2>Endpoints</h2>
    <div class="endpoint"><code>GET /api/v1/health</code> - Health check</div>
    <div class="endpoint"><code>POST /api/v1/check</code> - Check a claim, body <code>{"claim": "...", "fresh": false}</code></div>
    <div class="endpoint"><code>GET /api/v1/checks</code> - List stored checks</div>
    <div class="endpoint"><code>GET /api/v1/checks/{id}</code> - Get a stored check</div>
    <div class="endpoint"><code>GET /api/v1/audit</code> - Request audit log</div>

    <h2>Authentication</h2>
    <p>Use <code>Authorization: Bearer your-api-key</code> header for all requests except health check.</p>

    <h2>Create API Key</h2>
    <p><code>POST /api/v1/admin/keys</code> with body <code>{"name": "my-key"}</code>, authorized with <code>Authorization: Bearer &lt;server.admin_token&gt;</code></p>
</body>
</html>`
