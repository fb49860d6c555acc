package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/catalogforge/enrichment-engine/internal/apperr"
	"github.com/sashabaranov/go-openai"
)

// PhotoClassification is what a vision LLM returns when asked to bucket a
// single photo (§3.1 Photo.category, §4.6.5.1).
type PhotoClassification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// PhotoAnalysis is the richer per-photo judgement requested during the
// analysis stage's potential-score rubric (§4.6.4.1).
type PhotoAnalysis struct {
	LooksOpenForBusiness bool     `json:"looks_open_for_business"`
	QualitySignals       []string `json:"quality_signals"`
	Notes                string   `json:"notes"`
}

const classifyPhotoSystemPrompt = `Classify the establishment photo into exactly one category:
facade, interior, product, menu, or other. Reply with a single JSON object:
{"category":"facade|interior|product|menu|other","confidence":0.0-1.0}`

const analyzePhotoSystemPrompt = `Assess whether this establishment photo shows signs of
an actively operating business. Reply with a single JSON object:
{"looks_open_for_business":true|false,"quality_signals":["..."],"notes":"brief"}`

// VisionLLM classifies and analyzes establishment photos. Two independent
// implementations back the photo cross-validation engine (§4.4.4).
type VisionLLM interface {
	ClassifyPhoto(ctx context.Context, imageData []byte, mimeType string) Result[PhotoClassification]
	AnalyzePhoto(ctx context.Context, imageData []byte, mimeType string) Result[PhotoAnalysis]
}

// AnthropicVisionLLM is the first of the two independent vision LLMs.
type AnthropicVisionLLM struct {
	client *anthropic.Client
	model  anthropic.Model
}

func NewAnthropicVisionLLM(apiKey, model string) *AnthropicVisionLLM {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	m := anthropic.Model(model)
	if model == "" {
		m = anthropic.ModelClaude3_5SonnetLatest
	}
	return &AnthropicVisionLLM{client: &c, model: m}
}

func (a *AnthropicVisionLLM) ask(ctx context.Context, systemPrompt string, imageData []byte, mimeType string) (string, *apperr.AppError) {
	encoded := base64.StdEncoding.EncodeToString(imageData)
	imageBlock := anthropic.NewImageBlockBase64(mimeType, encoded)

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 512,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(imageBlock),
		},
	})
	if err != nil {
		return "", classifyAnthropicError(err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

func (a *AnthropicVisionLLM) ClassifyPhoto(ctx context.Context, imageData []byte, mimeType string) Result[PhotoClassification] {
	text, aerr := a.ask(ctx, classifyPhotoSystemPrompt, imageData, mimeType)
	if aerr != nil {
		return Failure[PhotoClassification](aerr)
	}
	var out PhotoClassification
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return Failure[PhotoClassification](apperr.Wrap(err, apperr.ParseError, "anthropic classification payload did not conform"))
	}
	return Success(out)
}

func (a *AnthropicVisionLLM) AnalyzePhoto(ctx context.Context, imageData []byte, mimeType string) Result[PhotoAnalysis] {
	text, aerr := a.ask(ctx, analyzePhotoSystemPrompt, imageData, mimeType)
	if aerr != nil {
		return Failure[PhotoAnalysis](aerr)
	}
	var out PhotoAnalysis
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return Failure[PhotoAnalysis](apperr.Wrap(err, apperr.ParseError, "anthropic analysis payload did not conform"))
	}
	return Success(out)
}

// OpenAIVisionLLM is the second of the two independent vision LLMs.
type OpenAIVisionLLM struct {
	client *openai.Client
	model  string
}

func NewOpenAIVisionLLM(apiKey, model string) *OpenAIVisionLLM {
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIVisionLLM{client: openai.NewClient(apiKey), model: model}
}

func (o *OpenAIVisionLLM) ask(ctx context.Context, systemPrompt string, imageData []byte, mimeType string) (string, *apperr.AppError) {
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(imageData)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
		Temperature:    0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.New(apperr.Internal, "openai vision returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIVisionLLM) ClassifyPhoto(ctx context.Context, imageData []byte, mimeType string) Result[PhotoClassification] {
	text, aerr := o.ask(ctx, classifyPhotoSystemPrompt, imageData, mimeType)
	if aerr != nil {
		return Failure[PhotoClassification](aerr)
	}
	var out PhotoClassification
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return Failure[PhotoClassification](apperr.Wrap(err, apperr.ParseError, "openai classification payload did not conform"))
	}
	return Success(out)
}

func (o *OpenAIVisionLLM) AnalyzePhoto(ctx context.Context, imageData []byte, mimeType string) Result[PhotoAnalysis] {
	text, aerr := o.ask(ctx, analyzePhotoSystemPrompt, imageData, mimeType)
	if aerr != nil {
		return Failure[PhotoAnalysis](aerr)
	}
	var out PhotoAnalysis
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return Failure[PhotoAnalysis](apperr.Wrap(err, apperr.ParseError, "openai analysis payload did not conform"))
	}
	return Success(out)
}
