package completion

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"mindhaven/internal/config"
)

type fakeChatModel struct {
	reply *schema.Message
	err   error
	input []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func newTestEinoGateway(fake *fakeChatModel, env map[string]string, built *int, gotModel *string) *EinoGateway {
	gw := NewEinoGateway(config.CompletionConfig{Driver: config.DriverEino, Provider: "openai"}, nil)
	gw.getenv = envMap(env)
	gw.factory = func(_ context.Context, _ config.CompletionConfig, apiKey, modelName string) (model.BaseChatModel, error) {
		*built++
		if gotModel != nil {
			*gotModel = modelName
		}
		return fake, nil
	}
	return gw
}

func TestEinoGatewayMissingKeySkipsModel(t *testing.T) {
	built := 0
	gw := newTestEinoGateway(&fakeChatModel{}, map[string]string{}, &built, nil)
	_, err := gw.Invoke(context.Background(), KindReply, "hello")
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if built != 0 {
		t.Fatalf("chat model built without credential")
	}
}

func TestEinoGatewayGenerate(t *testing.T) {
	built := 0
	var modelName string
	fake := &fakeChatModel{reply: schema.AssistantMessage(`{"response":"hi","emotional_analysis":"ok"}`, nil)}
	gw := newTestEinoGateway(fake, map[string]string{
		config.DefaultAPIKeyEnv: "sk-test",
		config.DefaultModelEnv:  "custom-model",
	}, &built, &modelName)

	raw, err := gw.Invoke(context.Background(), KindReply, "I feel anxious today")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if raw != `{"response":"hi","emotional_analysis":"ok"}` {
		t.Fatalf("unexpected raw %q", raw)
	}
	if modelName != "custom-model" {
		t.Fatalf("model override ignored: %q", modelName)
	}
	if len(fake.input) != 2 || fake.input[0].Role != schema.System || fake.input[1].Role != schema.User {
		t.Fatalf("unexpected model input %#v", fake.input)
	}
	if fake.input[1].Content != "I feel anxious today" {
		t.Fatalf("user text altered: %q", fake.input[1].Content)
	}
}

func TestEinoGatewayGenerateFailure(t *testing.T) {
	built := 0
	fake := &fakeChatModel{err: errors.New("connection reset")}
	gw := newTestEinoGateway(fake, map[string]string{config.DefaultAPIKeyEnv: "sk-test"}, &built, nil)

	_, err := gw.Invoke(context.Background(), KindSummary, "User: hi")
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gwErr.HTTPStatus() != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", gwErr.HTTPStatus())
	}
	if len(fake.input) != 1 || fake.input[0].Role != schema.System {
		t.Fatalf("summary should send one system message: %#v", fake.input)
	}
}

func TestNewGatewaySelectsDriver(t *testing.T) {
	gw, err := NewGateway(config.CompletionConfig{}, nil)
	if err != nil {
		t.Fatalf("NewGateway default: %v", err)
	}
	if _, ok := gw.(*HTTPGateway); !ok {
		t.Fatalf("default driver should be http, got %T", gw)
	}
	gw, err = NewGateway(config.CompletionConfig{Driver: config.DriverEino, Provider: "gemini"}, nil)
	if err != nil {
		t.Fatalf("NewGateway eino: %v", err)
	}
	if _, ok := gw.(*EinoGateway); !ok {
		t.Fatalf("expected eino gateway, got %T", gw)
	}
	if _, err := NewGateway(config.CompletionConfig{Driver: "carrier-pigeon"}, nil); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
