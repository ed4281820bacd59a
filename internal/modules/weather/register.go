package weather

import (
	"log/slog"
	"net/http"

	"github.com/ClaudineiMS/gdash/internal/modules/weather/controller"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/repository"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/service"
)

// RegisterFeature mounts the weather routes on mux. When subscriber is not
// nil, readings it receives are stored through the same repository.
func RegisterFeature(mux *http.ServeMux, repo repository.WeatherRepository, opts controller.Options, subscriber service.MessageSubscriber, logger *slog.Logger) {
	weatherController := controller.NewWeatherController(repo, opts)
	weatherController.RegisterRoutes(mux)

	if subscriber != nil {
		service.NewService(repo, logger).Register(subscriber)
	}
}
