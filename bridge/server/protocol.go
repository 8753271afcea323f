package server

import (
	"github.com/victorarias/modelbridge/bridge"
	"github.com/victorarias/modelbridge/bridge/message"
	"github.com/victorarias/modelbridge/bridge/tools"
	"github.com/victorarias/modelbridge/bridge/usage"
)

// Request is the wire envelope: an action plus action-specific fields.
type Request struct {
	Action   string            `json:"action"`
	Provider string            `json:"provider,omitempty"`
	OptionID string            `json:"option_id,omitempty"`
	Value    any               `json:"value,omitempty"`
	Messages []message.Message `json:"messages,omitempty"`
	Mode     string            `json:"mode,omitempty"`
	ToolID   string            `json:"tool_id,omitempty"`
}

// errorResponse is the uniform failure shape. Short descriptive strings only;
// no stack traces cross the wire.
type errorResponse struct {
	Error string `json:"error"`
}

type optionInfo struct {
	bridge.OptionSpec
	Value any `json:"value"`
}

type providerInfo struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	InputModes []message.Mode `json:"input_modes"`
	Options    []optionInfo   `json:"options"`
}

type providersResponse struct {
	Providers []providerInfo `json:"providers"`
}

type optionsResponse struct {
	Provider string       `json:"provider"`
	Options  []optionInfo `json:"options"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type chatResponse struct {
	Reply message.Message `json:"reply"`
	Usage *usage.Usage    `json:"usage,omitempty"`
}

type resultResponse struct {
	Result message.Message `json:"result"`
}

type toolsResponse struct {
	Tools []tools.Info `json:"tools"`
}

func optionInfos(module bridge.Module) []optionInfo {
	specs := module.OptionSpecs()
	out := make([]optionInfo, 0, len(specs))
	for _, spec := range specs {
		value, err := module.OptionValue(spec.ID)
		if err != nil {
			value = spec.Default
		}
		out = append(out, optionInfo{OptionSpec: spec, Value: value})
	}
	return out
}
