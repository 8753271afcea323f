// Package message provides the unified multi-modal message format exchanged
// between the orchestrator and capability modules.
package message

import (
	"strings"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// BlockType discriminates content block variants on the wire.
type BlockType string

const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
	BlockFile  BlockType = "file"
	BlockAudio BlockType = "audio"
)

// Mode names one kind of input a module can accept.
type Mode string

const (
	ModeText  Mode = "text"
	ModeImage Mode = "image"
	ModeAudio Mode = "audio"
	ModeFile  Mode = "file"
)

// Block is one typed unit of message content. Non-text blocks reference files
// by path; the adapter reads them but never owns their lifetime.
type Block struct {
	Type     BlockType `json:"type"`
	Text     string    `json:"text,omitempty"`
	Path     string    `json:"path,omitempty"`
	MIMEType string    `json:"mime_type,omitempty"`
}

// Message is one conversational turn: a role plus an ordered block sequence.
type Message struct {
	Role    Role    `json:"role"`
	Content []Block `json:"content"`
}

// TextBlock builds a text content block.
func TextBlock(text string) Block {
	return Block{Type: BlockText, Text: text}
}

// Text builds a message holding a single text block.
func Text(role Role, text string) Message {
	return Message{Role: role, Content: []Block{TextBlock(text)}}
}

// JoinText joins the message's text blocks with newlines, in order.
func (m Message) JoinText() string {
	parts := make([]string, 0, len(m.Content))
	for _, block := range m.Content {
		if block.Type == BlockText {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// IsImage reports whether the block carries image content, either by tag or
// by an image/* MIME type on a file block.
func (b Block) IsImage() bool {
	return b.Type == BlockImage || strings.HasPrefix(b.MIMEType, "image/")
}

// IsAudio reports whether the block carries audio content, either by tag or
// by an audio/* MIME type on a file block.
func (b Block) IsAudio() bool {
	return b.Type == BlockAudio || strings.HasPrefix(b.MIMEType, "audio/")
}

// LatestUser returns the most recent user message in history.
func LatestUser(history []Message) (Message, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			return history[i], true
		}
	}
	return Message{}, false
}

// FirstImage returns the first image-typed block of the message.
func FirstImage(m Message) (Block, bool) {
	for _, block := range m.Content {
		if block.IsImage() {
			return block, true
		}
	}
	return Block{}, false
}

// FirstAudio returns the first audio-typed block of the message.
func FirstAudio(m Message) (Block, bool) {
	for _, block := range m.Content {
		if block.IsAudio() {
			return block, true
		}
	}
	return Block{}, false
}
