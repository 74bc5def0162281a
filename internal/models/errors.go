package models

import "errors"

var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("city not found")
	ErrCredential         = errors.New("invalid or missing API key")
	ErrNetwork            = errors.New("network error")
	ErrIO                 = errors.New("file error")
	ErrProvider           = errors.New("weather provider error")
	ErrUnexpectedResponse = errors.New("unexpected provider response")
)
