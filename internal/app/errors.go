package app

import (
	"context"
	"errors"

	"github.com/Nazarious-ucu/city-data-reporter/internal/models"
)

const (
	ExitOK = iota
	ExitFailure
	ExitValidation
	ExitCredential
	ExitNotFound
	ExitNetwork
	ExitIO
)

// ExitCode maps an error returned by Run to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, models.ErrValidation):
		return ExitValidation
	case errors.Is(err, models.ErrCredential):
		return ExitCredential
	case errors.Is(err, models.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, models.ErrNetwork), errors.Is(err, context.DeadlineExceeded):
		return ExitNetwork
	case errors.Is(err, models.ErrIO):
		return ExitIO
	default:
		return ExitFailure
	}
}

// Message turns an error returned by Run into text for the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, models.ErrValidation):
		return "City name cannot be empty."
	case errors.Is(err, models.ErrCredential):
		return "Unauthorized: invalid or missing API key. Set OPEN_WEATHER_MAP_API_KEY to a valid OpenWeatherMap key."
	case errors.Is(err, context.Canceled):
		return "Interrupted."
	default:
		return err.Error()
	}
}
