// Package bridge defines the capability module contract and the registry that
// exposes discovered modules to the IPC server.
package bridge

import (
	"context"
	"iter"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/victorarias/modelbridge/bridge/message"
	"github.com/victorarias/modelbridge/bridge/usage"
)

// Capability tags one operation a module declares support for. The
// compatibility layer switches on declared capabilities, never on probed
// methods.
type Capability string

const (
	CapabilityChat            Capability = "chat"
	CapabilityStreamingChat   Capability = "streaming_chat"
	CapabilityTranscription   Capability = "transcription"
	CapabilityImageGeneration Capability = "image_generation"
)

// CapabilitySet is the set of capabilities a module declares.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from the given tags.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the capability.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Module is the identity shared by both calling conventions: a display name,
// declared capabilities, accepted input modes, and mutable options.
//
// Module state (options, any internal history) is mutated in place by
// successive requests. The contract enforces no locking; sharing one instance
// across goroutines requires external synchronization.
type Module interface {
	Name() string
	Capabilities() CapabilitySet
	InputModes() []message.Mode
	OptionSpecs() []OptionSpec
	OptionValue(id string) (any, error)
	SetOption(id string, value any) error
}

// Reply is the result of one chat turn.
type Reply struct {
	Message message.Message
	// Usage is zero when the backend does not report token counts.
	Usage usage.Usage
}

// Provider is the structured variant of the module contract: callers send the
// full history as multi-part messages on every turn.
type Provider interface {
	Module
	Chat(ctx context.Context, history []message.Message) (Reply, error)
}

// LegacyModule is the older narrow variant: a single representative utterance
// plus an optional inline base64 image, with multi-turn context held in the
// module's own internal state. Reset clears that state.
type LegacyModule interface {
	Module
	LegacyChat(ctx context.Context, prompt string, imageB64 string) (LegacyReply, error)
	Reset()
}

// Transcriber converts an audio file into text. Asserted only on modules that
// declare CapabilityTranscription.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// ImageGenerator produces an image from a text prompt and returns a
// descriptor for it (a URL or path). Asserted only on modules that declare
// CapabilityImageGeneration.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// LegacyReply is the tagged result of a legacy chat call.
type LegacyReply interface {
	isLegacyReply()
}

// TextReply is a plain string result.
type TextReply string

func (TextReply) isLegacyReply() {}

// StreamReply is a lazy sequence of string fragments. It is always drained
// fully into one message before a response crosses the IPC boundary.
type StreamReply iter.Seq[string]

func (StreamReply) isLegacyReply() {}

// MessageReply is an already-structured message result.
type MessageReply message.Message

func (MessageReply) isLegacyReply() {}

// Env is the shared handle passed to every module factory at construction.
type Env struct {
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client returns the shared HTTP client, defaulting to a 120s-timeout client.
func (e *Env) Client() *http.Client {
	if e != nil && e.HTTPClient != nil {
		return e.HTTPClient
	}
	return &http.Client{Timeout: 120 * time.Second}
}

// Log returns the shared logger, defaulting to a no-op logger.
func (e *Env) Log() *zap.Logger {
	if e != nil && e.Logger != nil {
		return e.Logger
	}
	return zap.NewNop()
}
