// Package llm wraps the generative text model used for outfit advice and
// search query refinement.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ShameelMohamed/FASHN8/config"
)

// Generator turns a prompt into free text. An empty string with a nil
// error means the model produced no text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewGeminiClient constructs a Generator from config.
func NewGeminiClient(cfg config.GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("gemini model is required")
	}
	return &GeminiClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint: fmt.Sprintf("%s/v1beta/models/%s:generateContent",
			strings.TrimRight(cfg.BaseURL, "/"), url.PathEscape(cfg.Model)),
		apiKey: cfg.APIKey,
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends prompt as a single user turn and returns the first
// candidate's text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+url.QueryEscape(c.apiKey), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", redactKey(err, c.apiKey))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("gemini response: %w", err)
	}

	var out geminiResponse
	if err := json.Unmarshal(data, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("gemini: status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil {
			return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", fmt.Errorf("gemini: status %d", resp.StatusCode)
	}

	if len(out.Candidates) == 0 {
		return "", nil
	}
	// The answer may be split over several parts of the first candidate.
	var text strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String(), nil
}

// redactKey keeps the API key out of transport errors, which embed the URL.
func redactKey(err error, key string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, url.QueryEscape(key), "REDACTED")
	}
	return err
}
