package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"mindhaven/internal/config"
	"mindhaven/internal/logger"
)

// Gateway sends one prompt upstream and returns the raw completion text.
type Gateway interface {
	Invoke(ctx context.Context, kind Kind, text string) (string, error)
}

const maxUpstreamBody = 4 << 20

// HTTPGateway talks to an OpenAI-compatible /chat/completions endpoint.
type HTTPGateway struct {
	endpoint     string
	defaultModel string
	apiKeyEnv    string
	modelEnv     string
	client       *http.Client
	getenv       func(string) string
	log          *logger.Logger
}

type GatewayOption func(*HTTPGateway)

// WithHTTPClient replaces the transport client.
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *HTTPGateway) {
		if client != nil {
			g.client = client
		}
	}
}

// WithGetenv replaces the environment lookup used for the credential and model.
func WithGetenv(fn func(string) string) GatewayOption {
	return func(g *HTTPGateway) {
		if fn != nil {
			g.getenv = fn
		}
	}
}

func NewHTTPGateway(cfg config.CompletionConfig, log *logger.Logger, opts ...GatewayOption) *HTTPGateway {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	client := &http.Client{}
	if cfg.TimeoutSeconds > 0 {
		client.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	g := &HTTPGateway{
		endpoint:     cfg.BaseURL + "/chat/completions",
		defaultModel: cfg.DefaultModel,
		apiKeyEnv:    cfg.APIKeyEnv,
		modelEnv:     cfg.ModelEnv,
		client:       client,
		getenv:       os.Getenv,
		log:          log.With("component", "completion_gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Invoke checks the credential, posts the request and returns
// choices[0].message.content ("" when absent).
func (g *HTTPGateway) Invoke(ctx context.Context, kind Kind, text string) (string, error) {
	apiKey, modelName, err := resolveCredentials(g.getenv, g.apiKeyEnv, g.modelEnv, g.defaultModel)
	if err != nil {
		g.log.Error("completion credential missing", "env", g.apiKeyEnv)
		return "", err
	}

	payload, err := json.Marshal(chatCompletionRequest{Model: modelName, Messages: BuildMessages(kind, text)})
	if err != nil {
		return "", &GatewayError{Status: http.StatusInternalServerError, Message: "upstream request failed", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &GatewayError{Status: http.StatusInternalServerError, Message: "upstream request failed", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Error("upstream request failed", "kind", kind, "model", modelName, "error", err)
		return "", &GatewayError{Status: http.StatusInternalServerError, Message: "upstream request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		g.log.Error("read upstream body failed", "kind", kind, "status", resp.StatusCode, "error", err)
		return "", &GatewayError{Status: http.StatusInternalServerError, Message: "upstream request failed", Err: err}
	}
	g.log.Debug("upstream responded",
		"kind", kind,
		"model", modelName,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"body_len", len(body),
	)

	var data chatCompletionResponse
	decodeErr := json.Unmarshal(body, &data)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "Unknown error"
		if decodeErr == nil && data.Error != nil && strings.TrimSpace(data.Error.Message) != "" {
			msg = data.Error.Message
		}
		g.log.Warn("upstream returned error status", "kind", kind, "status", resp.StatusCode, "upstream_message", msg)
		return "", &GatewayError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		g.log.Error("decode upstream body failed", "kind", kind, "error", decodeErr)
		return "", &GatewayError{Status: http.StatusInternalServerError, Message: "upstream request failed", Err: fmt.Errorf("decode completion: %w", decodeErr)}
	}
	if len(data.Choices) == 0 {
		return "", nil
	}
	return data.Choices[0].Message.Content, nil
}

// resolveCredentials reads the API key and model override from the environment.
// It never touches the network.
func resolveCredentials(getenv func(string) string, apiKeyEnv, modelEnv, defaultModel string) (string, string, error) {
	apiKey := strings.TrimSpace(getenv(apiKeyEnv))
	if apiKey == "" {
		return "", "", &ConfigError{Key: apiKeyEnv}
	}
	modelName := strings.TrimSpace(getenv(modelEnv))
	if modelName == "" {
		modelName = defaultModel
	}
	return apiKey, modelName, nil
}
