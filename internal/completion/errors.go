package completion

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidUpstreamFormat reports a JSON reply that lacks the response field.
	ErrInvalidUpstreamFormat = errors.New("invalid response format from upstream - missing response field")
	ErrUnknownKind           = errors.New("unknown completion type")
)

// ConfigError means the process is missing configuration needed for the call.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not set", e.Key)
}

// GatewayError carries an upstream failure. Message is safe to show callers;
// Err holds the internal cause and is never rendered.
type GatewayError struct {
	Status  int
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream API error (%d): %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("upstream API error (%d): %s", e.Status, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// HTTPStatus returns the status the error should surface with.
func (e *GatewayError) HTTPStatus() int {
	if e.Status < 400 || e.Status > 599 {
		return http.StatusInternalServerError
	}
	return e.Status
}
