package completion

import (
	"encoding/json"
)

const (
	NoAnalysisPlaceholder = "No emotional analysis available."
	UnparsableAnalysis    = "Unable to analyze emotions from this response format."
	NoSummaryPlaceholder  = "No summary available."
)

// Result is the normalized upstream answer. Reply results fill Response and
// EmotionalAnalysis; summary results fill Summary, which is nil when the
// upstream returned empty content.
type Result struct {
	Kind              Kind
	Response          string
	EmotionalAnalysis string
	Summary           *string
	// Degraded is set when a reply was not JSON and was passed through as text.
	Degraded bool
}

// SummaryText is the summary as shown to users.
func (r *Result) SummaryText() string {
	if r == nil || r.Summary == nil {
		return NoSummaryPlaceholder
	}
	return *r.Summary
}

// replyOutcome is the tagged result of parsing a reply: either valid JSON
// (fields populated when it is an object) or free text.
type replyOutcome struct {
	notJSON  bool
	raw      string
	response string
	analysis string
}

func parseReply(raw string) replyOutcome {
	var doc json.RawMessage
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return replyOutcome{notJSON: true, raw: raw}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(doc, &obj); err != nil {
		// valid JSON, but not an object: there is no response field
		return replyOutcome{raw: raw}
	}
	return replyOutcome{
		raw:      raw,
		response: stringField(obj, "response"),
		analysis: stringField(obj, "emotional_analysis"),
	}
}

// stringField returns the field when it is a JSON string, "" otherwise.
func stringField(obj map[string]json.RawMessage, key string) string {
	val, ok := obj[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(val, &s); err != nil {
		return ""
	}
	return s
}

// Normalize converts the raw upstream text into a Result. The only error it
// returns is ErrInvalidUpstreamFormat, for valid JSON without a string response.
func Normalize(kind Kind, raw string) (*Result, error) {
	if kind == KindSummary {
		res := &Result{Kind: KindSummary}
		if raw != "" {
			summary := raw
			res.Summary = &summary
		}
		return res, nil
	}

	outcome := parseReply(raw)
	if outcome.notJSON {
		return &Result{
			Kind:              KindReply,
			Response:          outcome.raw,
			EmotionalAnalysis: UnparsableAnalysis,
			Degraded:          true,
		}, nil
	}
	if outcome.response == "" {
		return nil, ErrInvalidUpstreamFormat
	}
	analysis := outcome.analysis
	if analysis == "" {
		analysis = NoAnalysisPlaceholder
	}
	return &Result{
		Kind:              KindReply,
		Response:          outcome.response,
		EmotionalAnalysis: analysis,
	}, nil
}
