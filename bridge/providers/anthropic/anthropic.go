// Package anthropic implements the structured capability module for the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/victorarias/modelbridge/bridge"
	"github.com/victorarias/modelbridge/bridge/message"
	"github.com/victorarias/modelbridge/bridge/usage"
)

const defaultModel = "claude-sonnet-4-5"

// Config controls the module.
type Config struct {
	APIKey     string
	Model      string
	MaxTokens  int
	HTTPClient *http.Client
}

// Module calls the Anthropic Messages API with full structured history each
// turn. It keeps no conversation state of its own.
type Module struct {
	*bridge.Options
	client    anthropic.Client
	maxTokens int
}

// New constructs the module from config.
func New(cfg Config) (*Module, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Module{
		Options:   bridge.NewOptions(optionSpecs(model)),
		client:    anthropic.NewClient(opts...),
		maxTokens: maxTokens,
	}, nil
}

// NewFromEnv builds the module from ANTHROPIC_* environment variables.
func NewFromEnv(env *bridge.Env) (*Module, error) {
	cfg := Config{
		APIKey:     strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		Model:      strings.TrimSpace(os.Getenv("ANTHROPIC_MODEL")),
		HTTPClient: env.Client(),
	}
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_MAX_TOKENS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxTokens = n
		}
	}
	return New(cfg)
}

func optionSpecs(model string) []bridge.OptionSpec {
	return []bridge.OptionSpec{
		{ID: "model", Name: "Model", Key: "m", Type: bridge.OptionString, Default: model},
		{ID: "temperature", Name: "Temperature", Key: "t", Type: bridge.OptionString, Default: ""},
		{ID: "concise", Name: "Concise replies", Key: "c", Type: bridge.OptionBoolean, Default: false},
	}
}

func (m *Module) Name() string { return "Claude" }

func (m *Module) Capabilities() bridge.CapabilitySet {
	return bridge.NewCapabilitySet(bridge.CapabilityChat)
}

func (m *Module) InputModes() []message.Mode {
	return []message.Mode{message.ModeText, message.ModeImage}
}

// Chat sends the full history to the Messages API and returns one reply.
func (m *Module) Chat(ctx context.Context, history []message.Message) (bridge.Reply, error) {
	messages, system, err := convertHistory(history)
	if err != nil {
		return bridge.Reply{}, err
	}
	if len(messages) == 0 {
		return bridge.Reply{}, errors.New("anthropic: no messages to send")
	}

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.StringOption("model")),
		MaxTokens: int64(m.maxTokens),
		Messages:  messages,
	}
	if m.BoolOption("concise") {
		system = append(system, anthropic.TextBlockParam{Text: "Answer in at most two sentences."})
	}
	if len(system) > 0 {
		req.System = system
	}
	if raw := strings.TrimSpace(m.StringOption("temperature")); raw != "" {
		temp, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return bridge.Reply{}, fmt.Errorf("anthropic: invalid temperature option: %w", err)
		}
		req.Temperature = anthropic.Float(temp)
	}

	msg, err := m.client.Messages.New(ctx, req)
	if err != nil {
		return bridge.Reply{}, fmt.Errorf("anthropic: %w", err)
	}

	var reply strings.Builder
	for _, block := range msg.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			reply.WriteString(variant.Text)
		}
	}

	return bridge.Reply{
		Message: message.Text(message.RoleAssistant, strings.TrimSpace(reply.String())),
		Usage:   usage.Normalize(usage.Usage{Input: int(msg.Usage.InputTokens), Output: int(msg.Usage.OutputTokens)}),
	}, nil
}

// convertHistory maps the unified format onto Messages API params. System
// messages become system blocks; audio and generic file blocks are not
// supported by this backend and are skipped.
func convertHistory(history []message.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam, error) {
	messages := make([]anthropic.MessageParam, 0, len(history))
	var system []anthropic.TextBlockParam

	for _, msg := range history {
		switch msg.Role {
		case message.RoleSystem:
			if text := strings.TrimSpace(msg.JoinText()); text != "" {
				system = append(system, anthropic.TextBlockParam{Text: text})
			}

		case message.RoleUser:
			blocks, err := convertUserBlocks(msg)
			if err != nil {
				return nil, nil, err
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewUserMessage(blocks...))
			}

		case message.RoleAssistant:
			if text := strings.TrimSpace(msg.JoinText()); text != "" {
				messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
			}
		}
	}
	return messages, system, nil
}

func convertUserBlocks(msg message.Message) ([]anthropic.ContentBlockParamUnion, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))
	for _, block := range msg.Content {
		switch {
		case block.Type == message.BlockText:
			if block.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(block.Text))
			}
		case block.IsImage():
			data, err := os.ReadFile(block.Path)
			if err != nil {
				return nil, fmt.Errorf("anthropic: read image %s: %w", block.Path, err)
			}
			mediaType := block.MIMEType
			if mediaType == "" {
				mediaType = "image/jpeg"
			}
			encoded := base64.StdEncoding.EncodeToString(data)
			blocks = append(blocks, anthropic.NewImageBlockBase64(mediaType, encoded))
		}
	}
	return blocks, nil
}
