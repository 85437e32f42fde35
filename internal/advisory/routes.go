package advisory

import (
	"net/http"

	"github.com/FarmFlow/FF-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := SessionInfo{}

	// The map and details endpoints fan out to external services; keep
	// per-client request rates sane.
	r.Use(middleware.RateLimitMiddleware(rate.Limit(10), 20))

	r.Get("/locations", LocationsHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Post("/selections", SelectCropHandler)
		r.Get("/selections", UserSelectionsHandler)
		r.Delete("/selections/{id}", DeleteSelectionHandler)
		r.Get("/crops/{cropName}", CropDetailsHandler)
		r.Get("/region-production", RegionProductionHandler)
		r.Get("/region-data/{lat}/{lng}/{cropName}", RegionDataHandler)
		r.Post("/map", MapHandler)
		r.Post("/recommendations", RecommendationsHandler)
	})

	return r
}
