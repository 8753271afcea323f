package openai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/victorarias/modelbridge/bridge"
	"github.com/victorarias/modelbridge/bridge/message"
)

const defaultImageModel = "dall-e-3"

// ImageModule generates images via /images/generations. The chat path hands
// it only the representative text as a prompt; the returned descriptor (a
// URL) is wrapped as text by the compatibility layer.
type ImageModule struct {
	*bridge.Options
	client *client
}

// NewImage constructs the image generation module.
func NewImage(cfg Config) (*ImageModule, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ImageModule{
		Options: bridge.NewOptions([]bridge.OptionSpec{
			{ID: "model", Name: "Model", Key: "m", Type: bridge.OptionString, Default: defaultImageModel},
			{ID: "size", Name: "Image size", Key: "z", Type: bridge.OptionEnum, Default: "1024x1024",
				Choices: []string{"1024x1024", "1792x1024", "1024x1792"}},
		}),
		client: c,
	}, nil
}

// NewImageFromEnv builds the module from OPENAI_* environment variables.
func NewImageFromEnv(env *bridge.Env) (*ImageModule, error) {
	return NewImage(configFromEnv(env.Client()))
}

func (m *ImageModule) Name() string { return "DALL-E" }

func (m *ImageModule) Capabilities() bridge.CapabilitySet {
	return bridge.NewCapabilitySet(bridge.CapabilityImageGeneration)
}

func (m *ImageModule) InputModes() []message.Mode {
	return []message.Mode{message.ModeText}
}

// Reset is a no-op; the module keeps no state between calls.
func (m *ImageModule) Reset() {}

// LegacyChat is never reached through the compatibility layer, which routes
// image-generation modules to GenerateImage.
func (m *ImageModule) LegacyChat(ctx context.Context, prompt string, imageB64 string) (bridge.LegacyReply, error) {
	descriptor, err := m.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return bridge.TextReply(descriptor), nil
}

// GenerateImage returns a descriptor for the generated image: its URL, or a
// note when the backend returned inline data instead.
func (m *ImageModule) GenerateImage(ctx context.Context, prompt string) (string, error) {
	payload := imageRequest{
		Model:  m.StringOption("model"),
		Prompt: prompt,
		N:      1,
		Size:   m.StringOption("size"),
	}
	resp, err := m.client.postJSON(ctx, "/images/generations", payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Data) == 0 {
		return "", errors.New("openai: empty image response")
	}
	if url := strings.TrimSpace(parsed.Data[0].URL); url != "" {
		return "Generated image: " + url, nil
	}
	return "Generated image returned as inline base64 data.", nil
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}
