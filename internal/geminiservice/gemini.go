/*
Package geminiservice talks to the Gemini generateContent API. It owns the
prompt and response-schema contract for risk assessments, the HTTP client
with its timeout and retry policy, and the strict validation of what the
model sends back.
*/
package geminiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// --- Gemini API Configuration ---
const (
	DefaultBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel          = "gemini-3-pro-preview"
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultRequestTimeout = 30 * time.Second
	structuredMimeType    = "application/json"
	maxErrorBodyBytes     = 4 << 10
)

// Failure classes of a prediction. Callers match them with errors.Is.
var (
	// ErrNetwork covers transport, auth and non-200 failures calling the model.
	ErrNetwork = errors.New("gemini request failed")
	// ErrEmptyResponse means the model answered without any text.
	ErrEmptyResponse = errors.New("gemini returned an empty response")
	// ErrSchemaViolation means the text is not JSON or does not match the declared schema.
	ErrSchemaViolation = errors.New("gemini response violates the schema")
)

// --- Structs for Gemini API Request/Response ---

type GeminiPayload struct {
	Contents          []GeminiContent   `json:"contents"`
	SystemInstruction *GeminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text string `json:"text,omitempty"`
}

type GenerationConfig struct {
	ResponseMimeType string        `json:"responseMimeType"`
	ResponseSchema   *GeminiSchema `json:"responseSchema,omitempty"`
}

type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Config carries the connection settings for a Client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string

	// Timeout bounds each attempt.
	Timeout time.Duration
	// MaxRetries is the total number of attempts, including the first one.
	MaxRetries     int
	InitialBackoff time.Duration
}

// Client calls the Gemini API with structured-output settings.
type Client struct {
	apiKey         string
	model          string
	baseURL        string
	timeout        time.Duration
	maxRetries     int
	initialBackoff time.Duration

	httpClient *http.Client
	log        *zerolog.Logger
}

// NewClient validates cfg, fills defaults and returns a ready Client.
func NewClient(log *zerolog.Logger, cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("server is not configured for AI risk assessments: missing API key")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	backoff := cfg.InitialBackoff
	if backoff <= 0 {
		backoff = defaultInitialBackoff
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	return &Client{
		apiKey:         apiKey,
		model:          model,
		baseURL:        baseURL,
		timeout:        timeout,
		maxRetries:     maxRetries,
		initialBackoff: backoff,
		httpClient:     &http.Client{},
		log:            log,
	}, nil
}

// NewWithHTTPClient is intended for tests; it lets callers swap the transport.
func NewWithHTTPClient(log *zerolog.Logger, cfg Config, httpClient *http.Client) (*Client, error) {
	c, err := NewClient(log, cfg)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c, nil
}

// Model returns the model identifier requests are sent to.
func (c *Client) Model() string {
	return c.model
}

// GenerateStructured sends one prompt with a response schema and returns the
// raw text of the first candidate. Transport errors, 429 and 5xx responses
// are retried with exponential backoff; anything else fails immediately.
func (c *Client) GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, schema *GeminiSchema) (string, error) {
	logger := c.loggerFrom(ctx)

	payload := GeminiPayload{
		SystemInstruction: &GeminiContent{
			Parts: []GeminiPart{{Text: systemPrompt}},
		},
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: userPrompt}}},
		},
		GenerationConfig: &GenerationConfig{
			ResponseMimeType: structuredMimeType,
			ResponseSchema:   schema,
		},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	var lastErr error

	// Exponential backoff retry loop
	for i := 0; i < c.maxRetries; i++ {
		logger.Info().Msgf("Attempt %d: Calling Gemini API...", i+1)

		text, retryable, err := c.attempt(ctx, payloadBytes)
		if err == nil {
			return text, nil
		}
		if !retryable {
			return "", err
		}

		lastErr = err
		logger.Warn().Err(lastErr).Msgf("Attempt %d failed", i+1)

		if i == c.maxRetries-1 {
			break
		}
		if err := sleepCtx(ctx, c.initialBackoff*time.Duration(math.Pow(2, float64(i)))); err != nil {
			return "", fmt.Errorf("%w: %w", ErrNetwork, err)
		}
	}

	return "", fmt.Errorf("failed to call Gemini API after %d attempts: %w", c.maxRetries, lastErr)
}

// attempt performs a single bounded request. The bool reports whether the
// failure is worth retrying.
func (c *Client) attempt(ctx context.Context, payload []byte) (string, bool, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to create request: %w", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The caller gave up; there is nobody left to retry for.
		if ctx.Err() != nil {
			return "", false, fmt.Errorf("%w: %w", ErrNetwork, ctx.Err())
		}
		return "", true, fmt.Errorf("%w: request failed: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		err := fmt.Errorf("%w: API returned non-200 status: %s, Body: %s", ErrNetwork, resp.Status, strings.TrimSpace(string(body)))
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
		return "", retryable, err
	}

	var geminiResp GeminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", false, fmt.Errorf("%w: failed to decode response: %w", ErrNetwork, err)
	}

	if len(geminiResp.Candidates) == 0 {
		if geminiResp.PromptFeedback != nil && geminiResp.PromptFeedback.BlockReason != "" {
			return "", false, fmt.Errorf("%w: prompt blocked: %s", ErrEmptyResponse, geminiResp.PromptFeedback.BlockReason)
		}
		return "", false, fmt.Errorf("%w: no candidates", ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", false, fmt.Errorf("%w: finish reason %q", ErrEmptyResponse, geminiResp.Candidates[0].FinishReason)
	}

	return sb.String(), false, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
