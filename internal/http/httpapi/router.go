package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"nanogen/internal/http/handlers"
	"nanogen/internal/middleware"
)

// NewRouter assembles the full HTTP surface: middleware chain plus every
// route under /api.
func NewRouter(app *handlers.App, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Log),
		middleware.CORS(app.Config.CORSAllowedOrigins),
		middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute),
		middleware.I18N(app.Config.DefaultLocale, lookup),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/generate", func(r chi.Router) {
			r.Post("/", app.Generate)
			r.Post("/upload", app.UploadImage)
			r.Get("/history/{sessionId}", app.GenerationHistory)
			r.Get("/{id}", app.GetGeneration)
			r.Post("/{id}/gallery", app.PromoteToGallery)
		})

		r.Route("/gallery", func(r chi.Router) {
			r.Get("/", app.GalleryList)
			r.Get("/featured/showcase", app.GalleryShowcase)
			r.Get("/search/query", app.GallerySearch)
			r.Get("/{id}", app.GalleryGet)
			r.Post("/{id}/like", app.GalleryLike)
		})

		r.Route("/files", func(r chi.Router) {
			r.Get("/admin/stats", app.StorageStats)
			r.Post("/admin/cleanup", app.CleanupFiles)
			r.Get("/{name}", app.ServeFile)
			r.Delete("/{name}", app.DeleteFile)
		})

		r.Get("/stats/summary", app.StatsSummary)
	})

	return r
}
