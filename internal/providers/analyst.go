package providers

import (
	"context"
	"encoding/json"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/catalogforge/enrichment-engine/internal/apperr"
)

// AnalystVerdict is the reasoning LLM's holistic judgement, exactly the
// shape the analyst worker persists (§4.6.7).
type AnalystVerdict struct {
	Status             string   `json:"status"`
	ConfidenceOverall  float64  `json:"confidenceOverall"`
	TrustedFields      []string `json:"trustedFields"`
	UntrustedFields    []string `json:"untrustedFields"`
	DivergencesFound   []string `json:"divergencesFound"`
	CriticalAlerts     []string `json:"criticalAlerts"`
	SecondaryAlerts    []string `json:"secondaryAlerts"`
	Recommendations    []string `json:"recommendations"`
	ExecutiveSummary   string   `json:"executiveSummary"`
	TypologyCode       string   `json:"typologyCode,omitempty"`
	TypologyName       string   `json:"typologyName,omitempty"`
	TypologyConfidence float64  `json:"typologyConfidence,omitempty"`
}

const analystSystemPrompt = `You are a senior fraud and data-quality analyst for a commercial
establishment enrichment pipeline. You are given an anchor document, the
original untrusted input, a per-field source map describing where each value
came from and whether it was cross-validated, a set of already-validated
data, and any divergences or alerts already raised upstream.

Decide a final verdict. Reply with a single JSON object and nothing else:
{"status":"APPROVED|APPROVED_WITH_CAVEATS|REJECTED|REQUIRES_REVIEW",
"confidenceOverall":0-100,
"trustedFields":["field", ...],
"untrustedFields":["field", ...],
"divergencesFound":["description", ...],
"criticalAlerts":["description", ...],
"secondaryAlerts":["description", ...],
"recommendations":["description", ...],
"executiveSummary":"a few sentences",
"typologyCode":"optional short code",
"typologyName":"optional label",
"typologyConfidence":0-100}

Be conservative: when the evidence is thin or contradictory, prefer
REQUIRES_REVIEW over APPROVED.`

// AnalystLLM runs the reasoning model that produces the final holistic
// verdict (C10). It is distinct from the normalization/vision LLMs because
// it consumes the full Source Map rather than a single raw value.
type AnalystLLM struct {
	client *anthropic.Client
	model  anthropic.Model
}

func NewAnalystLLM(apiKey, model string) *AnalystLLM {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	m := anthropic.Model(model)
	if model == "" {
		m = anthropic.ModelClaudeOpus4_0
	}
	return &AnalystLLM{client: &c, model: m}
}

// Decide builds the verdict from a prompt assembled by the analyst worker
// (§4.6.7). Parsing is tolerant: malformed JSON is repaired before giving
// up, since an occasional stray comma or trailing text should not demote
// a record straight to REQUIRES_REVIEW.
func (a *AnalystLLM) Decide(ctx context.Context, contextPrompt string) Result[AnalystVerdict] {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: analystSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(contextPrompt)),
		},
	})
	if err != nil {
		return Failure[AnalystVerdict](classifyAnthropicError(err))
	}

	var raw string
	for _, block := range msg.Content {
		if block.Type == "text" {
			raw += block.Text
		}
	}

	var verdict AnalystVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err == nil {
		return Success(verdict)
	}

	repaired, rerr := jsonrepair.RepairJSON(raw)
	if rerr != nil {
		return Failure[AnalystVerdict](apperr.Wrap(rerr, apperr.ParseError, "analyst verdict unparseable even after repair"))
	}
	if err := json.Unmarshal([]byte(repaired), &verdict); err != nil {
		return Failure[AnalystVerdict](apperr.Wrap(err, apperr.ParseError, "analyst verdict unparseable even after repair"))
	}
	return Success(verdict)
}
