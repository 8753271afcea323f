// Package gemini implements a legacy-convention capability module over the
// Vertex AI Gemini REST API using ADC credentials.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/victorarias/modelbridge/bridge"
	"github.com/victorarias/modelbridge/bridge/history"
	"github.com/victorarias/modelbridge/bridge/message"
)

const defaultModel = "gemini-2.0-flash"

// Config controls the module.
type Config struct {
	Project     string
	Location    string
	Model       string
	BaseURL     string
	MaxTokens   int
	HTTPClient  *http.Client
	TokenSource oauth2.TokenSource
}

// Module is a legacy module: each call forwards only the latest utterance and
// multi-turn context lives in its own running history, mutated per call.
type Module struct {
	*bridge.Options
	project   string
	location  string
	baseURL   string
	maxTokens int
	client    *http.Client
	cred      oauth2.TokenSource
	turns     *history.MemoryStore
}

// New constructs the module from config.
func New(cfg Config) (*Module, error) {
	project := strings.TrimSpace(cfg.Project)
	if project == "" {
		return nil, errors.New("gemini: project is required")
	}
	location := strings.TrimSpace(cfg.Location)
	if location == "" {
		location = "global"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = "https://aiplatform.googleapis.com/v1"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	ts := cfg.TokenSource
	if ts == nil {
		var err error
		ts, err = google.DefaultTokenSource(context.Background(), "https://www.googleapis.com/auth/cloud-platform")
		if err != nil {
			return nil, fmt.Errorf("gemini adc: %w", err)
		}
	}

	return &Module{
		Options: bridge.NewOptions([]bridge.OptionSpec{
			{ID: "model", Name: "Model", Key: "m", Type: bridge.OptionString, Default: model},
			{ID: "temperature", Name: "Temperature", Key: "t", Type: bridge.OptionString, Default: ""},
		}),
		project:   project,
		location:  location,
		baseURL:   strings.TrimRight(base, "/"),
		maxTokens: maxTokens,
		client:    client,
		cred:      ts,
		turns:     history.NewMemoryStore(),
	}, nil
}

// NewFromEnv builds the module from VERTEX_* environment variables.
func NewFromEnv(env *bridge.Env) (*Module, error) {
	cfg := Config{
		Project:    strings.TrimSpace(os.Getenv("VERTEX_PROJECT")),
		Location:   strings.TrimSpace(os.Getenv("VERTEX_LOCATION")),
		Model:      strings.TrimSpace(os.Getenv("VERTEX_MODEL")),
		BaseURL:    strings.TrimSpace(os.Getenv("VERTEX_API_BASE")),
		HTTPClient: env.Client(),
	}
	if v := strings.TrimSpace(os.Getenv("VERTEX_MAX_TOKENS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxTokens = n
		}
	}
	return New(cfg)
}

func (m *Module) Name() string { return "Gemini" }

func (m *Module) Capabilities() bridge.CapabilitySet {
	return bridge.NewCapabilitySet(bridge.CapabilityChat)
}

func (m *Module) InputModes() []message.Mode {
	return []message.Mode{message.ModeText, message.ModeImage}
}

// Reset discards the internal running history.
func (m *Module) Reset() {
	m.turns.Reset()
}

// Turns exposes the internal history length, for diagnostics.
func (m *Module) Turns() int {
	return m.turns.Len()
}

// LegacyChat sends the prompt (plus prior internal turns) to generateContent
// and records the exchange.
func (m *Module) LegacyChat(ctx context.Context, prompt string, imageB64 string) (bridge.LegacyReply, error) {
	reqBody, err := m.buildRequest(prompt, imageB64)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/projects/%s/locations/%s/publishers/google/models/%s:generateContent",
		m.baseURL, m.project, m.location, m.StringOption("model"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := m.cred.Token()
	if err != nil {
		return nil, fmt.Errorf("gemini token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := readBody(resp)
		return nil, fmt.Errorf("gemini error: status %d: %s", resp.StatusCode, body)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Candidates) == 0 {
		return nil, errors.New("gemini: empty response")
	}

	var reply strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		reply.WriteString(part.Text)
	}
	text := strings.TrimSpace(reply.String())

	m.turns.Append(history.Turn{Prompt: prompt, Reply: text})
	return bridge.TextReply(text), nil
}

func (m *Module) buildRequest(prompt string, imageB64 string) ([]byte, error) {
	turns := m.turns.Turns()
	contents := make([]geminiContent, 0, 2*len(turns)+1)
	for _, turn := range turns {
		contents = append(contents,
			geminiContent{Role: "user", Parts: []geminiPart{{Text: turn.Prompt}}},
			geminiContent{Role: "model", Parts: []geminiPart{{Text: turn.Reply}}},
		)
	}

	parts := []geminiPart{{Text: prompt}}
	if imageB64 != "" {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{MIMEType: "image/jpeg", Data: imageB64},
		})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: parts})

	request := geminiRequest{
		Contents: contents,
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens: m.maxTokens,
		},
	}
	if raw := strings.TrimSpace(m.StringOption("temperature")); raw != "" {
		temp, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("gemini: invalid temperature option: %w", err)
		}
		request.GenerationConfig.Temperature = temp
	}
	return json.Marshal(request)
}

func readBody(resp *http.Response) (string, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	body := strings.TrimSpace(string(data))
	if body == "" {
		return "<empty body>", nil
	}
	if len(body) > 1200 {
		return body[:1200] + "... (truncated)", nil
	}
	return body, nil
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}
