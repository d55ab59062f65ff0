package completion

import (
	"context"
	"errors"
	"fmt"

	"mindhaven/internal/config"
	"mindhaven/internal/logger"
)

// Request is one completion call.
type Request struct {
	Kind Kind
	Text string
}

// Completer runs a request through the gateway and normalizes the answer.
type Completer struct {
	gateway Gateway
	log     *logger.Logger
}

func NewCompleter(gateway Gateway, log *logger.Logger) *Completer {
	if log == nil {
		log = logger.Nop()
	}
	return &Completer{gateway: gateway, log: log.With("component", "completer")}
}

// NewGateway picks the gateway implementation named by cfg.Driver.
func NewGateway(cfg config.CompletionConfig, log *logger.Logger) (Gateway, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case config.DriverEino:
		return NewEinoGateway(cfg, log), nil
	default:
		return NewHTTPGateway(cfg, log), nil
	}
}

// Complete returns a normalized Result or one of *ConfigError, *GatewayError,
// ErrInvalidUpstreamFormat.
func (c *Completer) Complete(ctx context.Context, req Request) (*Result, error) {
	if c == nil || c.gateway == nil {
		return nil, errors.New("completion gateway not configured")
	}
	if req.Kind != KindReply && req.Kind != KindSummary {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}
	raw, err := c.gateway.Invoke(ctx, req.Kind, req.Text)
	if err != nil {
		return nil, err
	}
	res, err := Normalize(req.Kind, raw)
	if err != nil {
		c.log.Error("upstream reply missing response field", "kind", req.Kind, "raw", raw)
		return nil, err
	}
	if res.Degraded {
		c.log.Info("upstream reply is not JSON, treating as plain text", "raw", raw)
	}
	return res, nil
}
