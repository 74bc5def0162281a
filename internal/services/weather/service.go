package weather

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Nazarious-ucu/city-data-reporter/internal/models"
)

const tracerName = "city-data-reporter/weather"

type client interface {
	Fetch(ctx context.Context, city string) (models.WeatherRecord, error)
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type fetchObserver interface {
	ObserveFetch(outcome string, d time.Duration)
}

// Service asks the provider exactly once per call; there is no retry.
type Service struct {
	logger   zerolog.Logger
	client   client
	observer fetchObserver
}

func NewService(logger zerolog.Logger, cl client, observer fetchObserver) *Service {
	return &Service{client: cl, logger: logger, observer: observer}
}

func (s *Service) GetByCity(ctx context.Context, city string) (models.WeatherRecord, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "weather.GetByCity")
	defer span.End()
	span.SetAttributes(attribute.String("city", city))

	start := time.Now()
	data, err := s.client.Fetch(ctx, city)
	outcome := Outcome(err)
	s.observer.ObserveFetch(outcome, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		s.logger.Error().
			Ctx(ctx).
			Str("city", city).
			Str("outcome", outcome).
			Err(err).
			Msg("fetch failed")
		return models.WeatherRecord{}, err
	}

	s.logger.Info().
		Ctx(ctx).
		Str("city", data.City).
		Float64("temperature", data.Temperature).
		Int("humidity", data.Humidity).
		Msg("fetch succeeded")
	return data, nil
}

// Outcome labels a fetch result for metrics and traces.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrCredential):
		return "credential"
	case errors.Is(err, models.ErrNetwork):
		return "network"
	default:
		return "provider_error"
	}
}
