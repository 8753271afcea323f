package tools

import (
	"context"
	"fmt"

	"github.com/victorarias/modelbridge/bridge"
	"github.com/victorarias/modelbridge/bridge/message"
)

// modePrompts are the canned smoke-test prompts, one per input mode. They are
// plain text: the point is to exercise the module's chat path, not to ship
// fixture media.
var modePrompts = map[message.Mode]string{
	message.ModeText:  "Reply with one short sentence confirming you received this text.",
	message.ModeImage: "Reply with one short sentence describing how you would handle an attached image.",
	message.ModeAudio: "Reply with one short sentence describing how you would handle an attached audio file.",
	message.ModeFile:  "Reply with one short sentence describing how you would handle an attached file.",
}

// RunModeTest sends the canned prompt for the mode through the module's chat
// operation and returns its reply.
func RunModeTest(ctx context.Context, module bridge.Provider, mode message.Mode) (message.Message, error) {
	prompt, ok := modePrompts[mode]
	if !ok {
		return message.Message{}, fmt.Errorf("unknown mode: %s", mode)
	}
	reply, err := module.Chat(ctx, []message.Message{message.Text(message.RoleUser, prompt)})
	if err != nil {
		return message.Message{}, err
	}
	return reply.Message, nil
}
