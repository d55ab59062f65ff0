package completion

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"mindhaven/internal/config"
)

type scriptedGateway struct {
	raw   string
	err   error
	calls int
	kind  Kind
	text  string
}

func (g *scriptedGateway) Invoke(_ context.Context, kind Kind, text string) (string, error) {
	g.calls++
	g.kind = kind
	g.text = text
	return g.raw, g.err
}

func TestCompleterReply(t *testing.T) {
	gw := &scriptedGateway{raw: `{"response":"It is okay to feel that way.","emotional_analysis":"anxious"}`}
	res, err := NewCompleter(gw, nil).Complete(context.Background(), Request{Kind: KindReply, Text: "I feel anxious today"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if gw.kind != KindReply || gw.text != "I feel anxious today" {
		t.Fatalf("gateway got %q/%q", gw.kind, gw.text)
	}
	if res.Response != "It is okay to feel that way." || res.EmotionalAnalysis != "anxious" {
		t.Fatalf("unexpected result %#v", res)
	}
}

func TestCompleterPropagatesErrors(t *testing.T) {
	gwErr := &GatewayError{Status: http.StatusTooManyRequests, Message: "slow down"}
	_, err := NewCompleter(&scriptedGateway{err: gwErr}, nil).Complete(context.Background(), Request{Kind: KindReply, Text: "x"})
	if !errors.Is(err, gwErr) {
		t.Fatalf("expected gateway error, got %v", err)
	}

	_, err = NewCompleter(&scriptedGateway{raw: `{"emotional_analysis":"calm"}`}, nil).Complete(context.Background(), Request{Kind: KindReply, Text: "x"})
	if !errors.Is(err, ErrInvalidUpstreamFormat) {
		t.Fatalf("expected ErrInvalidUpstreamFormat, got %v", err)
	}
}

func TestCompleterRejectsUnknownKind(t *testing.T) {
	gw := &scriptedGateway{raw: "x"}
	_, err := NewCompleter(gw, nil).Complete(context.Background(), Request{Kind: "poem", Text: "x"})
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if gw.calls != 0 {
		t.Fatalf("gateway called for unknown kind")
	}
}

func TestCompleterSummaryFallback(t *testing.T) {
	res, err := NewCompleter(&scriptedGateway{raw: ""}, nil).Complete(context.Background(), Request{Kind: KindSummary, Text: "User: hi"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Summary != nil || res.SummaryText() != NoSummaryPlaceholder {
		t.Fatalf("expected summary fallback, got %#v", res)
	}
}

func TestCompleterEndToEndOverHTTP(t *testing.T) {
	stub := newUpstreamStub(t, http.StatusOK, completionReply(`{"response":"Breathe slowly.","emotional_analysis":"worried"}`))
	gw := NewHTTPGateway(config.CompletionConfig{BaseURL: stub.server.URL}, nil,
		WithHTTPClient(stub.server.Client()),
		WithGetenv(envMap(map[string]string{config.DefaultAPIKeyEnv: "sk-test"})),
	)
	res, err := NewCompleter(gw, nil).Complete(context.Background(), Request{Kind: KindReply, Text: "I feel anxious today"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Response != "Breathe slowly." || res.EmotionalAnalysis != "worried" || res.Degraded {
		t.Fatalf("unexpected result %#v", res)
	}
	if stub.calls.Load() != 1 {
		t.Fatalf("expected exactly one upstream call, got %d", stub.calls.Load())
	}
}
