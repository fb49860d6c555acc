package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/catalogforge/enrichment-engine/internal/apperr"
	"github.com/sashabaranov/go-openai"
)

// NormalizedAddress is the structured output both text LLMs are asked to
// produce from a raw, possibly messy address string (§4.1, §4.6.2).
type NormalizedAddress struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
}

const normalizeAddressSystemPrompt = `You normalize Brazilian commercial addresses into structured fields.
Reply with a single JSON object and nothing else:
{"street":"","number":"","complement":"","neighborhood":"","city":"","state":"","zip":""}
Use the two-letter state abbreviation. Leave a field as an empty string when it
cannot be determined from the input. Never invent a value.`

// TextLLM normalizes a free-text address into NormalizedAddress. Two
// independent implementations (one per vendor) back the dual-source
// requirement of the normalization cross-validation engine (§4.4.1).
type TextLLM interface {
	NormalizeAddress(ctx context.Context, raw, cityHint, stateHint string) Result[NormalizedAddress]
	MapHeaders(ctx context.Context, headerRow []string, sampleRows [][]string) Result[HeaderMapping]
}

// HeaderMapping is the canonical-field -> source-column assignment an
// ingest spreadsheet's header-mapping pass produces (§6.3).
type HeaderMapping struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Zip         string `json:"zip"`
	Document    string `json:"document"`
	ServiceType string `json:"serviceType"`
}

const mapHeadersSystemPrompt = `You map spreadsheet headers of Brazilian commercial establishment data
onto a fixed canonical schema. Given the header row and up to three sample data
rows, reply with a single JSON object mapping each canonical field to the
matching source column header, using an empty string when no column matches:
{"name":"","phone":"","address":"","city":"","state":"","zip":"","document":"","serviceType":""}
"document" is the only field that must be found when a plausible CNPJ/CPF column exists.`

func mapHeadersUserPrompt(headerRow []string, sampleRows [][]string) string {
	prompt := "Header row: " + strings.Join(headerRow, " | ")
	for i, row := range sampleRows {
		prompt += fmt.Sprintf("\nSample row %d: %s", i+1, strings.Join(row, " | "))
	}
	return prompt
}

// AnthropicTextLLM is the first of the two independent text LLMs.
type AnthropicTextLLM struct {
	client *anthropic.Client
	model  anthropic.Model
}

func NewAnthropicTextLLM(apiKey, model string) *AnthropicTextLLM {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	m := anthropic.Model(model)
	if model == "" {
		m = anthropic.ModelClaude3_5HaikuLatest
	}
	return &AnthropicTextLLM{client: &c, model: m}
}

func (a *AnthropicTextLLM) NormalizeAddress(ctx context.Context, raw, cityHint, stateHint string) Result[NormalizedAddress] {
	userPrompt := "Address: " + raw
	if cityHint != "" {
		userPrompt += "\nCity hint: " + cityHint
	}
	if stateHint != "" {
		userPrompt += "\nState hint: " + stateHint
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 512,
		System: []anthropic.TextBlockParam{
			{Text: normalizeAddressSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return Failure[NormalizedAddress](classifyAnthropicError(err))
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	var out NormalizedAddress
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return Failure[NormalizedAddress](apperr.Wrap(err, apperr.ParseError, "anthropic normalization payload did not conform"))
	}
	return Success(out)
}

func (a *AnthropicTextLLM) MapHeaders(ctx context.Context, headerRow []string, sampleRows [][]string) Result[HeaderMapping] {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 512,
		System: []anthropic.TextBlockParam{
			{Text: mapHeadersSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(mapHeadersUserPrompt(headerRow, sampleRows))),
		},
	})
	if err != nil {
		return Failure[HeaderMapping](classifyAnthropicError(err))
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	var out HeaderMapping
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return Failure[HeaderMapping](apperr.Wrap(err, apperr.ParseError, "anthropic header-mapping payload did not conform"))
	}
	return Success(out)
}

// OpenAITextLLM is the second of the two independent text LLMs.
type OpenAITextLLM struct {
	client *openai.Client
	model  string
}

func NewOpenAITextLLM(apiKey, model string) *OpenAITextLLM {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAITextLLM{client: openai.NewClient(apiKey), model: model}
}

func (o *OpenAITextLLM) NormalizeAddress(ctx context.Context, raw, cityHint, stateHint string) Result[NormalizedAddress] {
	userPrompt := "Address: " + raw
	if cityHint != "" {
		userPrompt += "\nCity hint: " + cityHint
	}
	if stateHint != "" {
		userPrompt += "\nState hint: " + stateHint
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: normalizeAddressSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return Failure[NormalizedAddress](classifyOpenAIError(err))
	}
	if len(resp.Choices) == 0 {
		return Failure[NormalizedAddress](apperr.New(apperr.Internal, "openai returned no choices"))
	}

	var out NormalizedAddress
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return Failure[NormalizedAddress](apperr.Wrap(err, apperr.ParseError, "openai normalization payload did not conform"))
	}
	return Success(out)
}

func (o *OpenAITextLLM) MapHeaders(ctx context.Context, headerRow []string, sampleRows [][]string) Result[HeaderMapping] {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: mapHeadersSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: mapHeadersUserPrompt(headerRow, sampleRows)},
		},
		Temperature:    0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return Failure[HeaderMapping](classifyOpenAIError(err))
	}
	if len(resp.Choices) == 0 {
		return Failure[HeaderMapping](apperr.New(apperr.Internal, "openai returned no choices"))
	}

	var out HeaderMapping
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return Failure[HeaderMapping](apperr.Wrap(err, apperr.ParseError, "openai header-mapping payload did not conform"))
	}
	return Success(out)
}
