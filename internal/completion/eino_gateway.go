package completion

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"mindhaven/internal/config"
	"mindhaven/internal/logger"
)

// ChatModelFactory builds a chat model for one call.
type ChatModelFactory func(ctx context.Context, cfg config.CompletionConfig, apiKey, modelName string) (model.BaseChatModel, error)

// EinoGateway sends the prompt through an eino chat model. The model is built
// per call so the credential is always read fresh from the environment.
type EinoGateway struct {
	cfg     config.CompletionConfig
	factory ChatModelFactory
	getenv  func(string) string
	log     *logger.Logger
}

func NewEinoGateway(cfg config.CompletionConfig, log *logger.Logger) *EinoGateway {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &EinoGateway{
		cfg:     cfg,
		factory: newChatModel,
		getenv:  os.Getenv,
		log:     log.With("component", "completion_gateway", "provider", cfg.Provider),
	}
}

func (g *EinoGateway) Invoke(ctx context.Context, kind Kind, text string) (string, error) {
	apiKey, modelName, err := resolveCredentials(g.getenv, g.cfg.APIKeyEnv, g.cfg.ModelEnv, g.cfg.DefaultModel)
	if err != nil {
		g.log.Error("completion credential missing", "env", g.cfg.APIKeyEnv)
		return "", err
	}
	chatModel, err := g.factory(ctx, g.cfg, apiKey, modelName)
	if err != nil {
		g.log.Error("init chat model failed", "model", modelName, "error", err)
		return "", &GatewayError{Status: http.StatusInternalServerError, Message: "upstream request failed", Err: err}
	}

	start := time.Now()
	resp, err := chatModel.Generate(ctx, toSchemaMessages(BuildMessages(kind, text)))
	if err != nil {
		g.log.Error("chat model generate failed", "kind", kind, "model", modelName, "error", err)
		return "", &GatewayError{Status: http.StatusBadGateway, Message: "upstream request failed", Err: err}
	}
	g.log.Debug("chat model responded", "kind", kind, "model", modelName, "duration_ms", time.Since(start).Milliseconds())
	if resp == nil {
		return "", nil
	}
	return resp.Content, nil
}

func toSchemaMessages(messages []ChatMessage) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			out = append(out, schema.SystemMessage(msg.Content))
		default:
			out = append(out, schema.UserMessage(msg.Content))
		}
	}
	return out
}

func newChatModel(ctx context.Context, cfg config.CompletionConfig, apiKey, modelName string) (model.BaseChatModel, error) {
	var timeout time.Duration
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	switch cfg.Provider {
	case "openai":
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   modelName,
			APIKey:  apiKey,
			Timeout: timeout,
		})
	case "gemini":
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("new gemini client: %w", err)
		}
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  modelName,
		})
	case "claude":
		var baseURLPtr *string
		if cfg.BaseURL != "" {
			baseURLPtr = &cfg.BaseURL
		}
		return claude.NewChatModel(ctx, &claude.Config{
			APIKey:    apiKey,
			Model:     modelName,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", cfg.Provider)
	}
}
