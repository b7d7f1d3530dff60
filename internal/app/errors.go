package service

import "errors"

// Failure kinds returned by Predict. HTTP adapters map them to statuses.
var (
	ErrEncoding          = errors.New("encoding failed")
	ErrModelInference    = errors.New("model inference failed")
	ErrModelsUnavailable = errors.New("models unavailable")
	ErrModelLoad         = errors.New("model load failed")
)

// Kind returns a short metrics label for a Predict error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEncoding):
		return "encoding"
	case errors.Is(err, ErrModelsUnavailable):
		return "unavailable"
	case errors.Is(err, ErrModelInference):
		return "inference"
	default:
		return "unknown"
	}
}
