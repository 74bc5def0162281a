package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/city-data-reporter/internal/models"
	loggerT "github.com/Nazarious-ucu/city-data-reporter/internal/services/logger"
)

const (
	units          = "metric"
	noDescription  = "n/a"
	maxErrorReadSz = 4096
)

type apiResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

type apiError struct {
	Message string `json:"message"`
}

// ClientOpenWeatherMap fetches current conditions from the OpenWeatherMap API.
type ClientOpenWeatherMap struct {
	APIKey string
	apiURL string
	client HTTPClient
	logger zerolog.Logger
}

// NewClientOpenWeatherMap constructs a new OpenWeatherMap client.
func NewClientOpenWeatherMap(apiKey, apiURL string,
	httpClient HTTPClient, logger zerolog.Logger,
) *ClientOpenWeatherMap {
	return &ClientOpenWeatherMap{APIKey: apiKey, apiURL: apiURL, client: httpClient, logger: logger}
}

// Fetch performs exactly one request for city.
func (s *ClientOpenWeatherMap) Fetch(ctx context.Context, city string) (models.WeatherRecord, error) {
	if s.APIKey == "" {
		return models.WeatherRecord{}, fmt.Errorf("%w: no API key configured", models.ErrCredential)
	}

	start := time.Now()
	reqURL, err := s.buildURL(city)
	if err != nil {
		return models.WeatherRecord{}, fmt.Errorf("%w: bad provider URL: %w", models.ErrProvider, err)
	}

	s.logger.Debug().
		Str("city", city).
		Str("endpoint", s.apiURL).
		Msg("starting OpenWeatherMap request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("city", city).
			Msg("failed to create HTTP request")
		return models.WeatherRecord{}, fmt.Errorf("%w: %w", models.ErrProvider, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		err = redactTransportError(err)
		s.logger.Error().
			Err(err).
			Str("city", city).
			Msg("error sending HTTP request to OpenWeatherMap")
		return models.WeatherRecord{}, fmt.Errorf("%w: contacting OpenWeatherMap: %w", models.ErrNetwork, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Error().
				Err(cerr).
				Str("city", city).
				Msg("failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		statusErr := statusError(resp, city)
		s.logger.Warn().
			Err(statusErr).
			Str("city", city).
			Str("status", resp.Status).
			Msg("OpenWeatherMap API returned non-200 status")
		return models.WeatherRecord{}, statusErr
	}

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		s.logger.Error().
			Err(err).
			Str("city", city).
			Msg("failed to decode OpenWeatherMap response")
		return models.WeatherRecord{}, fmt.Errorf("%w: %w", models.ErrUnexpectedResponse, err)
	}

	data, err := toRecord(city, raw)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("city", city).
			Msg("incomplete OpenWeatherMap response")
		return models.WeatherRecord{}, err
	}

	s.logger.Info().
		Str("city", data.City).
		Dur("duration_ms", time.Since(start)).
		Msg("successfully fetched weather data")

	return data, nil
}

func (s *ClientOpenWeatherMap) buildURL(city string) (string, error) {
	u, err := url.Parse(s.apiURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("q", city)
	q.Set("appid", s.APIKey)
	q.Set("units", units)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func statusError(resp *http.Response, city string) error {
	var body apiError
	// Error bodies are informative only; a malformed one still maps by status.
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorReadSz)).Decode(&body)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: provider rejected the key (%s)", models.ErrCredential, resp.Status)
	case http.StatusNotFound:
		if body.Message == "" {
			return fmt.Errorf("%w: %q", models.ErrNotFound, city)
		}
		return fmt.Errorf("%w: %q: %s", models.ErrNotFound, city, body.Message)
	default:
		msg := body.Message
		if msg == "" {
			msg = "unexpected error"
		}
		return fmt.Errorf("%w: status %s: %s", models.ErrProvider, resp.Status, msg)
	}
}

func toRecord(requested string, raw apiResponse) (models.WeatherRecord, error) {
	if raw.Main.Temp == nil || raw.Main.Humidity == nil {
		return models.WeatherRecord{}, fmt.Errorf("%w: missing temperature or humidity", models.ErrUnexpectedResponse)
	}

	city := raw.Name
	if city == "" {
		city = requested
	}

	description := noDescription
	if len(raw.Weather) > 0 && raw.Weather[0].Description != "" {
		description = raw.Weather[0].Description
	}

	return models.WeatherRecord{
		City:        city,
		Country:     raw.Sys.Country,
		Temperature: math.Round(*raw.Main.Temp*10) / 10,
		Humidity:    int(math.Round(*raw.Main.Humidity)),
		Description: description,
	}, nil
}

// redactTransportError masks the API key in the request URL that
// http.Client embeds in its errors.
func redactTransportError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = loggerT.RedactURLString(ue.URL)
	}
	return err
}
