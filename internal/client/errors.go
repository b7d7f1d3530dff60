package client

import (
	"errors"
	"fmt"
)

// Sentinel kinds for client errors.
var (
	// ErrConnectivity means the service could not be reached within the timeout.
	ErrConnectivity = errors.New("could not connect to the prediction service")
	// ErrUnexpectedResponse means the service answered with a body that is
	// neither a prediction nor an error payload.
	ErrUnexpectedResponse = errors.New("unexpected response from the prediction service")
)

// RemoteError is an {"error": ...} payload returned by the service.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("prediction service error (status %d): %s", e.Status, e.Message)
}
