package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"mediastudio/internal/http/handlers"
	"mediastudio/internal/infra"
	"mediastudio/internal/middleware"
)

// Options bundles what the router needs beyond the handler container.
type Options struct {
	Logger        infra.Logger
	CORSOrigins   []string
	RateLimit     int
	DefaultLocale string
	CountryLookup middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)
	if opts.RateLimit > 0 {
		r.Use(middleware.RateLimit(opts.RateLimit, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", app.SessionCreate)
		r.Route("/{session_id}", func(r chi.Router) {
			r.Delete("/", app.SessionClose)
			r.Post("/images/generate", app.ImagesGenerate)
			r.Post("/images/edit", app.ImagesEdit)
			r.Get("/images/edit/archive", app.ImagesEditArchive)
			r.Post("/videos/generate", app.VideosGenerate)
			r.Get("/videos/status", app.VideoStatus)
		})
	})

	r.Get("/v1/assets/{asset_id}/download", app.AssetDownload)

	return r
}
