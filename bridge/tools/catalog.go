// Package tools exposes diagnostic routines uniformly, whether they delegate
// to a capability module or spawn an external process.
package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/victorarias/modelbridge/bridge"
	"github.com/victorarias/modelbridge/bridge/message"
)

// Spec describes one diagnostic tool. Exactly one invocation strategy is set.
type Spec struct {
	ID          string
	Name        string
	Description string

	// Delegate, when set, runs the canned smoke prompt for this mode through
	// a module's chat operation.
	Delegate message.Mode

	// External, when non-nil, spawns a child process under a hard timeout.
	External *Command
}

// Info is the listing shape for one tool.
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Catalog is the static tool registry, built once at startup.
type Catalog struct {
	specs []Spec
	byID  map[string]Spec
}

// ErrUnknownTool is wrapped with the requested id.
var ErrUnknownTool = fmt.Errorf("unknown tool")

// Builtin returns the built-in diagnostic set.
func Builtin() []Spec {
	return []Spec{
		{
			ID:          "chat_smoke",
			Name:        "Chat smoke test",
			Description: "Send a canned text prompt through a module and report the reply.",
			Delegate:    message.ModeText,
		},
		{
			ID:          "vision_smoke",
			Name:        "Vision smoke test",
			Description: "Ask a module to confirm its image-handling path.",
			Delegate:    message.ModeImage,
		},
		{
			ID:          "host_info",
			Name:        "Host info",
			Description: "Report kernel and platform details for the adapter host.",
			External:    &Command{Bin: "uname", Args: []string{"-a"}},
		},
		{
			ID:          "disk_free",
			Name:        "Disk free",
			Description: "Report free disk space on the adapter host.",
			External:    &Command{Bin: "df", Args: []string{"-h"}},
		},
	}
}

// NewCatalog builds the catalog from the given specs, in order. Later specs
// with a duplicate id replace earlier ones in lookup but not in listing
// order.
func NewCatalog(specs []Spec) *Catalog {
	catalog := &Catalog{byID: make(map[string]Spec, len(specs))}
	for _, spec := range specs {
		if _, exists := catalog.byID[spec.ID]; !exists {
			catalog.specs = append(catalog.specs, spec)
		}
		catalog.byID[spec.ID] = spec
	}
	return catalog
}

// List returns tool listings in catalog order.
func (c *Catalog) List() []Info {
	out := make([]Info, 0, len(c.specs))
	for _, spec := range c.specs {
		out = append(out, Info{ID: spec.ID, Name: spec.Name, Description: spec.Description})
	}
	return out
}

// Len returns the catalog size.
func (c *Catalog) Len() int {
	return len(c.specs)
}

// Run executes the tool and renders its outcome into one text message.
// Delegate tools require a resolved module; external tools ignore it. Unknown
// ids and launch failures are errors, not results.
func (c *Catalog) Run(ctx context.Context, toolID string, module bridge.Provider) (message.Message, error) {
	spec, ok := c.byID[toolID]
	if !ok {
		return message.Message{}, fmt.Errorf("%w: %s", ErrUnknownTool, toolID)
	}

	if spec.External != nil {
		return c.runExternal(ctx, spec)
	}
	return c.runDelegate(ctx, spec, module)
}

func (c *Catalog) runDelegate(ctx context.Context, spec Spec, module bridge.Provider) (message.Message, error) {
	if module == nil {
		return message.Message{}, fmt.Errorf("tool %s requires a provider", spec.ID)
	}
	result, err := RunModeTest(ctx, module, spec.Delegate)
	if err != nil {
		return message.Message{}, fmt.Errorf("tool %s: %w", spec.ID, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "tool: %s\n", spec.Name)
	fmt.Fprintf(&sb, "provider: %s\n", module.Name())
	fmt.Fprintf(&sb, "mode: %s\n", spec.Delegate)
	sb.WriteString("---\n")
	sb.WriteString(result.JoinText())
	return message.Text(message.RoleAssistant, sb.String()), nil
}

func (c *Catalog) runExternal(ctx context.Context, spec Spec) (message.Message, error) {
	outcome := Execute(ctx, *spec.External)
	if outcome.Status == StatusFailedToStart {
		return message.Message{}, fmt.Errorf("tool %s failed to start: %s", spec.ID, outcome.Reason)
	}
	return message.Text(message.RoleAssistant, renderOutcome(spec, outcome)), nil
}

func renderOutcome(spec Spec, outcome Outcome) string {
	status := fmt.Sprintf("exit %d", outcome.ExitCode)
	if outcome.Status == StatusTimedOut {
		status = fmt.Sprintf("timed out after %s (partial output below)", formatTimeout(outcome.Timeout))
	}

	stdout, _ := tailTrim(strings.TrimSpace(outcome.Stdout))
	stderr, _ := tailTrim(strings.TrimSpace(outcome.Stderr))
	if stdout == "" {
		stdout = "(empty)"
	}
	if stderr == "" {
		stderr = "(empty)"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "tool: %s\n", spec.Name)
	fmt.Fprintf(&sb, "status: %s\n", status)
	sb.WriteString("--- stdout ---\n")
	sb.WriteString(stdout)
	sb.WriteString("\n--- stderr ---\n")
	sb.WriteString(stderr)
	return sb.String()
}

func formatTimeout(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
