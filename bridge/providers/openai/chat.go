package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/victorarias/modelbridge/bridge"
	"github.com/victorarias/modelbridge/bridge/history"
	"github.com/victorarias/modelbridge/bridge/message"
)

const defaultChatModel = "gpt-4o-mini"

// ChatModule is a legacy chat module over /chat/completions. With the stream
// option enabled it returns a lazy fragment sequence; the compatibility layer
// drains it fully before one response crosses the IPC boundary.
type ChatModule struct {
	*bridge.Options
	client *client
	turns  *history.MemoryStore
}

// NewChat constructs the chat module.
func NewChat(cfg Config) (*ChatModule, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ChatModule{
		Options: bridge.NewOptions([]bridge.OptionSpec{
			{ID: "model", Name: "Model", Key: "m", Type: bridge.OptionString, Default: defaultChatModel},
			{ID: "stream", Name: "Stream tokens", Key: "s", Type: bridge.OptionBoolean, Default: false},
		}),
		client: c,
		turns:  history.NewMemoryStore(),
	}, nil
}

// NewChatFromEnv builds the chat module from OPENAI_* environment variables.
func NewChatFromEnv(env *bridge.Env) (*ChatModule, error) {
	return NewChat(configFromEnv(env.Client()))
}

func (m *ChatModule) Name() string { return "OpenAI" }

func (m *ChatModule) Capabilities() bridge.CapabilitySet {
	return bridge.NewCapabilitySet(bridge.CapabilityChat, bridge.CapabilityStreamingChat)
}

func (m *ChatModule) InputModes() []message.Mode {
	return []message.Mode{message.ModeText, message.ModeImage}
}

// Reset discards the internal running history.
func (m *ChatModule) Reset() {
	m.turns.Reset()
}

// Turns exposes the internal history length, for diagnostics.
func (m *ChatModule) Turns() int {
	return m.turns.Len()
}

// LegacyChat sends the prompt plus prior internal turns. The exchange is
// recorded in the module's internal history; for streamed replies that
// happens once the fragment sequence has been drained.
func (m *ChatModule) LegacyChat(ctx context.Context, prompt string, imageB64 string) (bridge.LegacyReply, error) {
	streaming := m.BoolOption("stream")
	payload := chatRequest{
		Model:    m.StringOption("model"),
		Messages: m.buildMessages(prompt, imageB64),
		Stream:   streaming,
	}

	resp, err := m.client.postJSON(ctx, "/chat/completions", payload)
	if err != nil {
		return nil, err
	}

	if !streaming {
		defer resp.Body.Close()
		var parsed chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, err
		}
		if len(parsed.Choices) == 0 {
			return nil, errors.New("openai: empty response")
		}
		text := strings.TrimSpace(parsed.Choices[0].Message.Content)
		m.turns.Append(history.Turn{Prompt: prompt, Reply: text})
		return bridge.TextReply(text), nil
	}

	return bridge.StreamReply(func(yield func(string) bool) {
		defer resp.Body.Close()
		var full strings.Builder
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				break
			}
			var chunk chatStreamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				full.WriteString(choice.Delta.Content)
				if !yield(choice.Delta.Content) {
					return
				}
			}
		}
		m.turns.Append(history.Turn{Prompt: prompt, Reply: strings.TrimSpace(full.String())})
	}), nil
}

func (m *ChatModule) buildMessages(prompt string, imageB64 string) []chatMessage {
	turns := m.turns.Turns()
	messages := make([]chatMessage, 0, 2*len(turns)+1)
	for _, turn := range turns {
		messages = append(messages,
			chatMessage{Role: "user", Content: turn.Prompt},
			chatMessage{Role: "assistant", Content: turn.Reply},
		)
	}

	if imageB64 == "" {
		return append(messages, chatMessage{Role: "user", Content: prompt})
	}
	return append(messages, chatMessage{
		Role: "user",
		Content: []chatContentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &chatImageURL{
				URL: fmt.Sprintf("data:image/jpeg;base64,%s", imageB64),
			}},
		},
	})
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream,omitempty"`
}

// chatMessage content is either a plain string or a part list for
// multi-modal turns.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}
