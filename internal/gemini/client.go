// Package gemini implements the summarization collaborator on top of
// Google's Gemini API. It submits digest requests in JSON-schema response
// mode and parses the structured item list the model returns.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/ostapenko/digestbot/internal/config"
	"github.com/ostapenko/digestbot/internal/digest"
)

type sdkClient struct {
	genaiClient      *genai.Client
	log              *slog.Logger
	contentConfig    *genai.GenerateContentConfig
	defaultModelName string
	maxRetries       int
	retryDelay       time.Duration
}

// NewClient creates a new Gemini summarization client with the provided
// configuration. The returned client satisfies digest.Summarizer.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (digest.Summarizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	baseCfg := &genai.GenerateContentConfig{
		Temperature: &cfg.Temperature,

		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},

		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SummaryInstruction}}},
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized successfully", "model", cfg.ModelName)
	return &sdkClient{
		genaiClient:      gi,
		log:              logger,
		contentConfig:    baseCfg,
		defaultModelName: cfg.ModelName,
		maxRetries:       cfg.MaxRetries,
		retryDelay:       time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, nil
}

var digestItemSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"author":    {Type: genai.TypeString, Description: "Author label exactly as it appears in the input lines."},
		"idea":      {Type: genai.TypeString, Description: "The idea, at most 20 words."},
		"tickers":   {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "Upper-case ticker symbols without the $ marker."},
		"links":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "URLs belonging to the idea."},
		"contracts": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "Contract addresses belonging to the idea."},
	},
	Required: []string{"author", "idea", "tickers", "links", "contracts"},
}

var digestListSchema = &genai.Schema{
	Type:        genai.TypeArray,
	Description: "Ordered list of digest items summarizing the chat's last 24 hours.",
	Items:       digestItemSchema,
}

// Summarize submits the serialized message lines and returns the parsed item
// list. Errors cover API failures, safety blocks, and unparsable responses.
func (c *sdkClient) Summarize(ctx context.Context, chatTitle string, lines []string) ([]digest.Item, error) {
	c.log.DebugContext(ctx, "Requesting digest summary", "chat_title", chatTitle, "line_count", len(lines))

	var sb strings.Builder
	sb.WriteString("Chat: " + chatTitle + "\n\nMessages:\n")
	for _, line := range lines {
		sb.WriteString(line + "\n")
	}

	contents := []*genai.Content{genai.NewContentFromText(sb.String(), genai.RoleUser)}

	copyCfg := *c.contentConfig
	copyCfg.ResponseMIMEType = "application/json"
	copyCfg.ResponseSchema = digestListSchema

	resp, err := c.generateContentWithRetries(ctx, c.defaultModelName, contents, &copyCfg)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini digest summary API call failed", "error", err)
		return nil, fmt.Errorf("gemini summary call failed: %w", err)
	}

	jsonText, err := c.extractTextFromResponse(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("failed to extract summary response: %w", err)
	}

	var items []digest.Item
	if err := json.Unmarshal([]byte(jsonText), &items); err != nil {
		c.log.ErrorContext(ctx, "Failed to parse digest items from Gemini response", "error", err, "response_text", jsonText)
		return nil, fmt.Errorf("invalid digest JSON array received: %w", err)
	}

	c.log.DebugContext(ctx, "Parsed digest items from Gemini response", "item_count", len(items))
	return items, nil
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, modelName string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, modelName, contents, cfg)
		if err == nil {
			return resp, nil
		}

		c.log.WarnContext(ctx, "Gemini API call failed, checking for retry", "attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) {
			if i < c.maxRetries {
				c.log.InfoContext(ctx, "Retrying Gemini API call due to retriable APIError", "delay", c.retryDelay, "code", apiErr.Code)
				time.Sleep(c.retryDelay)
				continue
			}
			return nil, fmt.Errorf("gemini API call failed after %d retries (APIError code %d): %w", c.maxRetries, apiErr.Code, err)
		}

		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	return nil, err
}

func (c *sdkClient) extractTextFromResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reasonMsg)
		return "", fmt.Errorf("summary blocked by safety filter: %s", reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "finish_reason", finishReason)
		return "", fmt.Errorf("summary returned no content, finish reason: %s", finishReason)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("summary returned empty text")
	}
	return text, nil
}
