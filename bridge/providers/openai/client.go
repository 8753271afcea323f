// Package openai implements legacy-convention capability modules over the
// OpenAI REST API: chat (with optional streaming), Whisper transcription, and
// image generation.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Config controls the shared REST client.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

type client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func newClient(cfg Config) (*client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(base, "/"),
		http:    httpClient,
	}, nil
}

func configFromEnv(httpClient *http.Client) Config {
	return Config{
		APIKey:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BaseURL:    strings.TrimSpace(os.Getenv("OPENAI_API_BASE")),
		HTTPClient: httpClient,
	}
}

// postJSON issues a JSON POST and returns the raw response. The caller owns
// the body.
func (c *client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, apiError(resp)
	}
	return resp, nil
}

func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	body := strings.TrimSpace(string(data))
	if body == "" {
		body = "<empty body>"
	}
	return fmt.Errorf("openai error: status %d: %s", resp.StatusCode, body)
}
