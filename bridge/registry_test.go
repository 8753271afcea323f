package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/victorarias/modelbridge/bridge/message"
)

type stubModule struct {
	*Options
	name string
}

func newStubModule(name string) *stubModule {
	return &stubModule{Options: NewOptions(nil), name: name}
}

func (s *stubModule) Name() string                { return s.name }
func (s *stubModule) Capabilities() CapabilitySet { return NewCapabilitySet(CapabilityChat) }
func (s *stubModule) InputModes() []message.Mode  { return []message.Mode{message.ModeText} }

func (s *stubModule) Chat(ctx context.Context, history []message.Message) (Reply, error) {
	return Reply{Message: message.Text(message.RoleAssistant, "stub: "+s.name)}, nil
}

func factoryFor(name string) Factory {
	return Factory{ID: name, New: func(env *Env) (Provider, error) {
		return newStubModule(name), nil
	}}
}

func failingFactory(id string) Factory {
	return Factory{ID: id, New: func(env *Env) (Provider, error) {
		return nil, errors.New("backend unavailable")
	}}
}

func TestDiscoverSkipsFailures(t *testing.T) {
	reg, err := Discover(nil, []Factory{
		factoryFor("alpha"),
		failingFactory("broken"),
		factoryFor("beta"),
		failingFactory("also-broken"),
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 modules, got %d", reg.Len())
	}
}

func TestDiscoverEmptyIsFatal(t *testing.T) {
	_, err := Discover(nil, []Factory{failingFactory("broken")}, nil)
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders, got %v", err)
	}
}

func TestDiscoverNoFactoriesIsFatal(t *testing.T) {
	_, err := Discover(nil, nil, nil)
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders, got %v", err)
	}
}

func TestDiscoverEnabledFilter(t *testing.T) {
	reg, err := Discover(nil, []Factory{
		factoryFor("alpha"),
		factoryFor("beta"),
	}, []string{"beta"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 module, got %d", reg.Len())
	}
	if _, err := reg.Get("alpha"); err == nil {
		t.Fatalf("expected alpha to be disabled")
	}
}

func TestDiscoverDuplicateNameLastWins(t *testing.T) {
	first := Factory{ID: "one", New: func(env *Env) (Provider, error) {
		return newStubModule("Twin"), nil
	}}
	second := Factory{ID: "two", New: func(env *Env) (Provider, error) {
		return newStubModule("twin"), nil
	}}
	reg, err := Discover(nil, []Factory{first, second}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected overwrite, got %d modules", reg.Len())
	}
	module, err := reg.Get("TWIN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if module.Name() != "twin" {
		t.Fatalf("expected last-discovered instance, got %s", module.Name())
	}
}

func TestGetUnknownProvider(t *testing.T) {
	reg, err := Discover(nil, []Factory{factoryFor("alpha")}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = reg.Get("ghost")
	if !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}
	if err.Error() != "Provider not found: ghost" {
		t.Fatalf("unexpected wire error text: %q", err.Error())
	}
}

func TestListPreservesOrder(t *testing.T) {
	reg, err := Discover(nil, []Factory{
		factoryFor("zeta"),
		factoryFor("alpha"),
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list := reg.List()
	if len(list) != 2 || list[0].Name() != "zeta" || list[1].Name() != "alpha" {
		t.Fatalf("expected registration order, got %v", []string{list[0].Name(), list[1].Name()})
	}
}
