// Package compat bridges legacy single-turn modules behind the structured
// multi-part message interface used by the IPC server.
package compat

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/victorarias/modelbridge/bridge"
	"github.com/victorarias/modelbridge/bridge/message"
)

// DefaultGreeting is forwarded as the representative utterance when the
// latest user message carries no text blocks. A legacy module is never handed
// an empty prompt.
const DefaultGreeting = "Hey"

// Bridge implements the structured Provider interface in terms of a wrapped
// LegacyModule. Only the latest user turn is forwarded; multi-turn context is
// assumed to live in the legacy module's own internal state, which it mutates
// on each call. When the orchestrator's view of history and that internal
// state diverge, results become inconsistent — a known limitation of the
// legacy convention, not repaired here.
type Bridge struct {
	legacy bridge.LegacyModule
}

// New wraps a legacy module.
func New(legacy bridge.LegacyModule) *Bridge {
	return &Bridge{legacy: legacy}
}

// Unwrap returns the wrapped legacy module.
func (b *Bridge) Unwrap() bridge.LegacyModule { return b.legacy }

func (b *Bridge) Name() string                        { return b.legacy.Name() }
func (b *Bridge) Capabilities() bridge.CapabilitySet  { return b.legacy.Capabilities() }
func (b *Bridge) InputModes() []message.Mode          { return b.legacy.InputModes() }
func (b *Bridge) OptionSpecs() []bridge.OptionSpec    { return b.legacy.OptionSpecs() }
func (b *Bridge) OptionValue(id string) (any, error)  { return b.legacy.OptionValue(id) }
func (b *Bridge) SetOption(id string, value any) error { return b.legacy.SetOption(id, value) }

// Chat translates the structured history into the legacy calling convention
// and the legacy result back into one message. Errors from the wrapped module
// propagate unchanged; they are converted to wire errors at the IPC boundary.
func (b *Bridge) Chat(ctx context.Context, history []message.Message) (bridge.Reply, error) {
	turn, err := extract(history)
	if err != nil {
		return bridge.Reply{}, err
	}

	caps := b.legacy.Capabilities()
	switch {
	case caps.Has(bridge.CapabilityTranscription):
		return b.transcribe(ctx, turn)
	case caps.Has(bridge.CapabilityImageGeneration):
		return b.generateImage(ctx, turn)
	default:
		reply, err := b.legacy.LegacyChat(ctx, turn.prompt, turn.imageB64)
		if err != nil {
			return bridge.Reply{}, err
		}
		msg, err := Normalize(reply)
		if err != nil {
			return bridge.Reply{}, err
		}
		return bridge.Reply{Message: msg}, nil
	}
}

func (b *Bridge) transcribe(ctx context.Context, turn inboundTurn) (bridge.Reply, error) {
	if turn.audioPath == "" {
		text := fmt.Sprintf("%s transcribes audio. Attach an audio file to the message to use it.", b.legacy.Name())
		return bridge.Reply{Message: message.Text(message.RoleAssistant, text)}, nil
	}
	transcriber, ok := b.legacy.(bridge.Transcriber)
	if !ok {
		return bridge.Reply{}, fmt.Errorf("%s declares transcription but does not implement it", b.legacy.Name())
	}
	text, err := transcriber.Transcribe(ctx, turn.audioPath)
	if err != nil {
		return bridge.Reply{}, err
	}
	return bridge.Reply{Message: message.Text(message.RoleAssistant, text)}, nil
}

func (b *Bridge) generateImage(ctx context.Context, turn inboundTurn) (bridge.Reply, error) {
	generator, ok := b.legacy.(bridge.ImageGenerator)
	if !ok {
		return bridge.Reply{}, fmt.Errorf("%s declares image generation but does not implement it", b.legacy.Name())
	}
	descriptor, err := generator.GenerateImage(ctx, turn.prompt)
	if err != nil {
		return bridge.Reply{}, err
	}
	return bridge.Reply{Message: message.Text(message.RoleAssistant, descriptor)}, nil
}

// inboundTurn is the legacy view of the latest user turn.
type inboundTurn struct {
	prompt    string
	imageB64  string
	audioPath string
}

func extract(history []message.Message) (inboundTurn, error) {
	turn := inboundTurn{prompt: DefaultGreeting}

	latest, ok := message.LatestUser(history)
	if !ok {
		return turn, nil
	}

	if text := latest.JoinText(); strings.TrimSpace(text) != "" {
		turn.prompt = text
	}

	if block, ok := message.FirstImage(latest); ok {
		data, err := os.ReadFile(block.Path)
		if err != nil {
			return inboundTurn{}, fmt.Errorf("read image %s: %w", block.Path, err)
		}
		turn.imageB64 = base64.StdEncoding.EncodeToString(data)
	}

	if block, ok := message.FirstAudio(latest); ok {
		turn.audioPath = block.Path
	}

	return turn, nil
}

// Normalize converges any legacy reply variant to one message. A stream is
// drained fully; no partial delivery crosses the IPC boundary.
func Normalize(reply bridge.LegacyReply) (message.Message, error) {
	switch r := reply.(type) {
	case bridge.TextReply:
		return message.Text(message.RoleAssistant, string(r)), nil
	case bridge.StreamReply:
		var sb strings.Builder
		for fragment := range r {
			sb.WriteString(fragment)
		}
		return message.Text(message.RoleAssistant, sb.String()), nil
	case bridge.MessageReply:
		return message.Message(r), nil
	case nil:
		return message.Message{}, fmt.Errorf("legacy module returned no reply")
	default:
		return message.Message{}, fmt.Errorf("unexpected legacy reply type %T", reply)
	}
}
