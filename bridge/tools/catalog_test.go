package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/victorarias/modelbridge/bridge"
	"github.com/victorarias/modelbridge/bridge/message"
)

type echoProvider struct {
	*bridge.Options
	err error
}

func newEchoProvider() *echoProvider {
	return &echoProvider{Options: bridge.NewOptions(nil)}
}

func (p *echoProvider) Name() string { return "Echo" }
func (p *echoProvider) Capabilities() bridge.CapabilitySet {
	return bridge.NewCapabilitySet(bridge.CapabilityChat)
}
func (p *echoProvider) InputModes() []message.Mode {
	return []message.Mode{message.ModeText, message.ModeImage}
}

func (p *echoProvider) Chat(ctx context.Context, history []message.Message) (bridge.Reply, error) {
	if p.err != nil {
		return bridge.Reply{}, p.err
	}
	latest, _ := message.LatestUser(history)
	return bridge.Reply{Message: message.Text(message.RoleAssistant, "echo: "+latest.JoinText())}, nil
}

func TestBuiltinListingOrder(t *testing.T) {
	catalog := NewCatalog(Builtin())
	list := catalog.List()
	want := []string{"chat_smoke", "vision_smoke", "host_info", "disk_free"}
	if len(list) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(list))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("expected %s at position %d, got %s", id, i, list[i].ID)
		}
	}
}

func TestCatalogDuplicateIDLastWinsLookup(t *testing.T) {
	catalog := NewCatalog([]Spec{
		{ID: "x", Name: "First", External: &Command{Bin: "sh", Args: []string{"-c", "echo first"}}},
		{ID: "x", Name: "Second", External: &Command{Bin: "sh", Args: []string{"-c", "echo second"}}},
	})
	if catalog.Len() != 1 {
		t.Fatalf("expected one listing entry, got %d", catalog.Len())
	}
	result, err := catalog.Run(context.Background(), "x", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.JoinText(), "second") {
		t.Fatalf("expected last spec to win lookup: %q", result.JoinText())
	}
}

func TestRunUnknownTool(t *testing.T) {
	catalog := NewCatalog(Builtin())
	_, err := catalog.Run(context.Background(), "nope", nil)
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
}

func TestRunDelegateRequiresProvider(t *testing.T) {
	catalog := NewCatalog(Builtin())
	_, err := catalog.Run(context.Background(), "chat_smoke", nil)
	if err == nil {
		t.Fatalf("expected error when no provider resolved")
	}
}

func TestRunDelegateRendersReply(t *testing.T) {
	catalog := NewCatalog(Builtin())
	result, err := catalog.Run(context.Background(), "chat_smoke", newEchoProvider())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := result.JoinText()
	for _, want := range []string{"tool: Chat smoke test", "provider: Echo", "mode: text", "---", "echo:"} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
	}
}

func TestRunDelegateProviderErrorSurfaces(t *testing.T) {
	catalog := NewCatalog(Builtin())
	provider := newEchoProvider()
	provider.err = errors.New("backend down")
	_, err := catalog.Run(context.Background(), "chat_smoke", provider)
	if err == nil || !strings.Contains(err.Error(), "backend down") {
		t.Fatalf("expected provider error to surface, got %v", err)
	}
}

func TestRunExternalRendersOutcome(t *testing.T) {
	catalog := NewCatalog([]Spec{{
		ID:       "say",
		Name:     "Say",
		External: &Command{Bin: "sh", Args: []string{"-c", "echo hello"}},
	}})
	result, err := catalog.Run(context.Background(), "say", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := result.JoinText()
	for _, want := range []string{"tool: Say", "status: exit 0", "--- stdout ---", "hello", "--- stderr ---", "(empty)"} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
	}
}

func TestRunExternalTimeoutRendersPartial(t *testing.T) {
	catalog := NewCatalog([]Spec{{
		ID:       "slow",
		Name:     "Slow",
		External: &Command{Bin: "sh", Args: []string{"-c", "echo partial; sleep 5"}, Timeout: 200 * time.Millisecond},
	}})
	result, err := catalog.Run(context.Background(), "slow", nil)
	if err != nil {
		t.Fatalf("timeout must be a result, not an error: %v", err)
	}
	text := result.JoinText()
	if !strings.Contains(text, "timed out after") {
		t.Fatalf("expected timeout status, got:\n%s", text)
	}
	if !strings.Contains(text, "partial") {
		t.Fatalf("expected partial output, got:\n%s", text)
	}
}

func TestRunExternalLaunchFailureIsError(t *testing.T) {
	catalog := NewCatalog([]Spec{{
		ID:       "ghost",
		Name:     "Ghost",
		External: &Command{Bin: "definitely-not-a-binary-7f3a"},
	}})
	_, err := catalog.Run(context.Background(), "ghost", nil)
	if err == nil || !strings.Contains(err.Error(), "failed to start") {
		t.Fatalf("expected launch failure error, got %v", err)
	}
}

func TestRunModeTestUnknownMode(t *testing.T) {
	_, err := RunModeTest(context.Background(), newEchoProvider(), message.Mode("video"))
	if err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestRunModeTestSendsCannedPrompt(t *testing.T) {
	result, err := RunModeTest(context.Background(), newEchoProvider(), message.ModeImage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.JoinText(), "image") {
		t.Fatalf("expected the image prompt to be forwarded, got %q", result.JoinText())
	}
}
