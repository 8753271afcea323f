// Package providers holds the factory catalog of capability modules.
// Discovery iterates this list instead of scanning a directory; adding a
// backend means adding an entry here.
package providers

import (
	"github.com/victorarias/modelbridge/bridge"
	"github.com/victorarias/modelbridge/bridge/compat"
	"github.com/victorarias/modelbridge/bridge/providers/anthropic"
	"github.com/victorarias/modelbridge/bridge/providers/gemini"
	"github.com/victorarias/modelbridge/bridge/providers/openai"
)

// Default returns the full factory catalog. Legacy-convention modules are
// wrapped by the compatibility layer at construction, so the registry only
// ever holds the structured interface.
func Default() []bridge.Factory {
	return []bridge.Factory{
		{ID: "anthropic", New: func(env *bridge.Env) (bridge.Provider, error) {
			return anthropic.NewFromEnv(env)
		}},
		{ID: "gemini", New: legacy(gemini.NewFromEnv)},
		{ID: "openai", New: legacy(openai.NewChatFromEnv)},
		{ID: "whisper", New: legacy(openai.NewTranscriptionFromEnv)},
		{ID: "dalle", New: legacy(openai.NewImageFromEnv)},
	}
}

func legacy[M bridge.LegacyModule](build func(env *bridge.Env) (M, error)) func(env *bridge.Env) (bridge.Provider, error) {
	return func(env *bridge.Env) (bridge.Provider, error) {
		module, err := build(env)
		if err != nil {
			return nil, err
		}
		return compat.New(module), nil
	}
}
