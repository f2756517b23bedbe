package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"
)

// Config holds OpenAI configuration parameters.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client implements the Judge interface against the OpenAI chat completions API.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

var ErrDisabled = errors.New("llm judge disabled")

const systemPrompt = `You are an empathetic but honest conflict mediator. You will be given two perspectives (Person A and Person B) about the same situation.

Your job is to:
1. Summarize the situation in a NEUTRAL, non-judgmental way.
2. Assign a percentage of responsibility to each person (a_responsibility and b_responsibility), such that they are integers that add up to 100.
3. Give concrete, practical advice for what Person A could do differently in the future.
4. Give concrete, practical advice for what Person B could do differently in the future.
5. Provide a short apology template that either person could use as a starting point.

SAFETY:
- If the situation involves abuse, severe harassment, self-harm, suicidal ideation, or anything that requires professional help, set safety_flag to true and set safety_message to a brief, kind suggestion to seek real-world support.
- In such cases, avoid blaming a victim. Focus on safety and support, not blame.

FORMAT:
Respond with a single JSON object with this schema:

{
  "neutral_summary": "string",
  "a_responsibility": 0,
  "b_responsibility": 0,
  "advice_a": "string",
  "advice_b": "string",
  "apology_template": "string",
  "safety_flag": false,
  "safety_message": "string"
}`

// NewClient constructs a Client if the supplied configuration is valid.
// Returns ErrDisabled when no API key is configured; callers treat that as
// "run heuristic verdicts only", never as a fatal condition.
func NewClient(cfg Config) (*Client, error) {
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1-nano"
	}
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrDisabled
	}
	temp := cfg.Temperature
	if temp <= 0 {
		temp = 0.3
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 800
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		temperature: temp,
		maxTokens:   cfg.MaxTokens,
	}
	return client, nil
}

// Enabled reports whether the client can make outbound calls.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Judge requests a structured verdict for the supplied case. Any transport,
// auth, or parse failure is returned as an error; the oracle converts those
// into a heuristic fallback. No partial results are produced.
func (c *Client) Judge(ctx context.Context, input CaseInput) (Judgment, error) {
	if c == nil || !c.Enabled() {
		return Judgment{}, ErrDisabled
	}

	payload := c.buildPayload(input)
	body, err := json.Marshal(payload)
	if err != nil {
		return Judgment{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Judgment{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Judgment{}, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return Judgment{}, fmt.Errorf("openai status %d: %v", resp.StatusCode, apiErr)
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Judgment{}, fmt.Errorf("decode response: %w", err)
	}

	if len(decoded.Choices) == 0 {
		return Judgment{}, errors.New("openai empty response")
	}

	content := normalizeJSONBlock(decoded.Choices[0].Message.Content)
	if content == "" {
		return Judgment{}, errors.New("openai empty verdict")
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return Judgment{}, fmt.Errorf("parse verdict: %w", err)
	}

	return judgmentFromFields(fields), nil
}

// judgmentFromFields coerces the model's JSON object into a valid Judgment:
// missing responsibility fields default to 50, text fields to "", and the
// shares are renormalized so they always sum to 100.
func judgmentFromFields(fields map[string]any) Judgment {
	a := intField(fields, "a_responsibility", 50)
	b := intField(fields, "b_responsibility", 50)
	a, b = NormalizeShares(a, b)

	return Judgment{
		NeutralSummary:  textField(fields, "neutral_summary"),
		AResponsibility: a,
		BResponsibility: b,
		AdviceA:         textField(fields, "advice_a"),
		AdviceB:         textField(fields, "advice_b"),
		ApologyTemplate: textField(fields, "apology_template"),
		SafetyFlag:      boolField(fields, "safety_flag"),
		SafetyMessage:   textField(fields, "safety_message"),
	}
}

func (c *Client) buildPayload(input CaseInput) map[string]any {
	messages := []map[string]string{
		{
			"role":    "system",
			"content": systemPrompt,
		},
		{
			"role":    "user",
			"content": buildUserPrompt(input),
		},
	}
	payload := map[string]any{
		"model":           c.model,
		"messages":        messages,
		"temperature":     c.temperature,
		"response_format": map[string]string{"type": "json_object"},
	}
	if c.maxTokens > 0 {
		payload["max_tokens"] = c.maxTokens
	}
	return payload
}

func buildUserPrompt(input CaseInput) string {
	builder := &strings.Builder{}
	fmt.Fprintf(builder, "Tone: %s\n\n", NormalizeTone(string(input.Tone)))
	fmt.Fprintf(builder, "Person A story:\n\"\"\"%s\"\"\"\n\n", input.StoryA)
	fmt.Fprintf(builder, "Person B story:\n\"\"\"%s\"\"\"", input.StoryB)
	return builder.String()
}

// normalizeJSONBlock strips markdown code fences and surrounding prose so the
// payload can be parsed even when the model wraps its JSON.
func normalizeJSONBlock(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.IndexRune(trimmed, '\n'); idx >= 0 {
			trimmed = trimmed[idx+1:]
		}
		if strings.HasSuffix(trimmed, "```") {
			trimmed = trimmed[:len(trimmed)-3]
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end >= start {
		return strings.TrimSpace(trimmed[start : end+1])
	}
	return trimmed
}

func textField(fields map[string]any, key string) string {
	if value, ok := fields[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func intField(fields map[string]any, key string, fallback int) int {
	switch value := fields[key].(type) {
	case float64:
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fallback
		}
		return int(math.Round(value))
	case bool:
		return fallback
	case string:
		trimmed := strings.TrimSpace(value)
		var parsed float64
		if _, err := fmt.Sscanf(trimmed, "%f", &parsed); err == nil {
			return int(math.Round(parsed))
		}
		return fallback
	default:
		return fallback
	}
}

func boolField(fields map[string]any, key string) bool {
	if value, ok := fields[key].(bool); ok {
		return value
	}
	return false
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
