package completion

import (
	"errors"
	"testing"
)

func TestNormalizeWellFormedReply(t *testing.T) {
	cases := []struct {
		raw      string
		response string
		analysis string
	}{
		{`{"response":"That sounds hard.","emotional_analysis":"anxious, seeking support"}`, "That sounds hard.", "anxious, seeking support"},
		{"  {\"emotional_analysis\":\"calm\",\"response\":\"Glad to hear it.\"}\n", "Glad to hear it.", "calm"},
		{`{"response":"  padded  ","emotional_analysis":"  spaced  ","extra":1}`, "  padded  ", "  spaced  "},
	}
	for _, tc := range cases {
		res, err := Normalize(KindReply, tc.raw)
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", tc.raw, err)
		}
		if res.Response != tc.response || res.EmotionalAnalysis != tc.analysis {
			t.Fatalf("Normalize(%q) = %q/%q, want %q/%q", tc.raw, res.Response, res.EmotionalAnalysis, tc.response, tc.analysis)
		}
		if res.Degraded {
			t.Fatalf("well-formed reply marked degraded: %q", tc.raw)
		}
	}
}

func TestNormalizeMissingAnalysisUsesPlaceholder(t *testing.T) {
	for _, raw := range []string{
		`{"response":"Take a breath."}`,
		`{"response":"Take a breath.","emotional_analysis":""}`,
		`{"response":"Take a breath.","emotional_analysis":null}`,
	} {
		res, err := Normalize(KindReply, raw)
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", raw, err)
		}
		if res.EmotionalAnalysis != "No emotional analysis available." {
			t.Fatalf("Normalize(%q) analysis = %q", raw, res.EmotionalAnalysis)
		}
	}
}

func TestNormalizeFreeTextDegradesGracefully(t *testing.T) {
	for _, raw := range []string{
		"I think you should talk to a friend.",
		"",
		"   ",
		"{not json",
		`{"response":"cut off`,
		"```json\n{\"response\":\"fenced\"}\n```",
	} {
		res, err := Normalize(KindReply, raw)
		if err != nil {
			t.Fatalf("Normalize(%q) returned error: %v", raw, err)
		}
		if res.Response != raw {
			t.Fatalf("Normalize(%q) response = %q, want raw text", raw, res.Response)
		}
		if res.EmotionalAnalysis != "Unable to analyze emotions from this response format." {
			t.Fatalf("Normalize(%q) analysis = %q", raw, res.EmotionalAnalysis)
		}
		if !res.Degraded {
			t.Fatalf("Normalize(%q) not marked degraded", raw)
		}
	}
}

func TestNormalizeMissingResponseIsInvalidFormat(t *testing.T) {
	for _, raw := range []string{
		`{"emotional_analysis":"calm"}`,
		`{"response":"","emotional_analysis":"calm"}`,
		`{"response":42}`,
		`{}`,
		"42",
		`"hi"`,
		"true",
		"[]",
		`[{"response":"nested"}]`,
		"null",
	} {
		res, err := Normalize(KindReply, raw)
		if !errors.Is(err, ErrInvalidUpstreamFormat) {
			t.Fatalf("Normalize(%q) err = %v, want ErrInvalidUpstreamFormat", raw, err)
		}
		if res != nil {
			t.Fatalf("Normalize(%q) fabricated a reply: %#v", raw, res)
		}
	}
}

func TestNormalizeSummary(t *testing.T) {
	res, err := Normalize(KindSummary, "The user seems anxious but hopeful.")
	if err != nil {
		t.Fatalf("Normalize summary: %v", err)
	}
	if res.Summary == nil || *res.Summary != "The user seems anxious but hopeful." {
		t.Fatalf("summary not passed through verbatim: %#v", res.Summary)
	}
	if res.SummaryText() != "The user seems anxious but hopeful." {
		t.Fatalf("unexpected summary text %q", res.SummaryText())
	}

	// Summaries are never parsed, even when they look like JSON.
	res, err = Normalize(KindSummary, `{"response":"x"}`)
	if err != nil || res.Summary == nil || *res.Summary != `{"response":"x"}` {
		t.Fatalf("summary JSON was parsed: %#v, %v", res, err)
	}

	res, err = Normalize(KindSummary, "")
	if err != nil {
		t.Fatalf("Normalize(summary, \"\"): %v", err)
	}
	if res.Summary != nil || res.SummaryText() != "No summary available." {
		t.Fatalf("expected nil summary and fallback, got %#v", res.Summary)
	}

	// Only empty content is absent; whitespace comes back as sent.
	res, err = Normalize(KindSummary, "   \n")
	if err != nil {
		t.Fatalf("Normalize(summary, whitespace): %v", err)
	}
	if res.Summary == nil || *res.Summary != "   \n" {
		t.Fatalf("whitespace summary altered: %#v", res.Summary)
	}
}
