package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/victorarias/modelbridge/bridge"
	"github.com/victorarias/modelbridge/bridge/message"
)

const defaultTranscribeModel = "whisper-1"

// TranscriptionModule turns audio files into text via /audio/transcriptions.
// It holds no conversation state.
type TranscriptionModule struct {
	*bridge.Options
	client *client
}

// NewTranscription constructs the transcription module.
func NewTranscription(cfg Config) (*TranscriptionModule, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &TranscriptionModule{
		Options: bridge.NewOptions([]bridge.OptionSpec{
			{ID: "model", Name: "Model", Key: "m", Type: bridge.OptionString, Default: defaultTranscribeModel},
			{ID: "language", Name: "Language hint", Key: "l", Type: bridge.OptionString, Default: ""},
		}),
		client: c,
	}, nil
}

// NewTranscriptionFromEnv builds the module from OPENAI_* environment
// variables.
func NewTranscriptionFromEnv(env *bridge.Env) (*TranscriptionModule, error) {
	return NewTranscription(configFromEnv(env.Client()))
}

func (m *TranscriptionModule) Name() string { return "Whisper" }

func (m *TranscriptionModule) Capabilities() bridge.CapabilitySet {
	return bridge.NewCapabilitySet(bridge.CapabilityTranscription)
}

func (m *TranscriptionModule) InputModes() []message.Mode {
	return []message.Mode{message.ModeAudio}
}

// Reset is a no-op; the module keeps no state between calls.
func (m *TranscriptionModule) Reset() {}

// LegacyChat is never reached through the compatibility layer, which routes
// transcription-capable modules to Transcribe. It answers with usage help for
// direct callers.
func (m *TranscriptionModule) LegacyChat(ctx context.Context, prompt string, imageB64 string) (bridge.LegacyReply, error) {
	return bridge.TextReply("Whisper transcribes audio. Attach an audio file to the message to use it."), nil
}

// Transcribe uploads the audio file and returns its transcript.
func (m *TranscriptionModule) Transcribe(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("openai: open audio %s: %w", audioPath, err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.WriteField("model", m.StringOption("model")); err != nil {
		return "", err
	}
	if lang := strings.TrimSpace(m.StringOption("language")); lang != "" {
		if err := writer.WriteField("language", lang); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.client.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+m.client.apiKey)

	resp, err := m.client.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apiError(resp)
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	return strings.TrimSpace(parsed.Text), nil
}
