package bridge

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Factory builds one capability module from the shared environment handle.
type Factory struct {
	ID  string
	New func(env *Env) (Provider, error)
}

// Registry holds the modules produced by one discovery pass. The set is fixed
// for the process lifetime; only module-internal state mutates afterwards.
type Registry struct {
	order  []string
	byName map[string]Provider
}

// Discover instantiates every enabled factory. A failing factory is logged
// and skipped so one broken integration never blocks the others; discovery
// fails only when the registry would end up empty. When enabled is non-empty
// it filters factories by id.
//
// Registry key is the lower-cased display name. Duplicate names overwrite
// silently, last wins.
func Discover(env *Env, factories []Factory, enabled []string) (*Registry, error) {
	log := env.Log()
	allow := make(map[string]struct{}, len(enabled))
	for _, id := range enabled {
		allow[strings.ToLower(strings.TrimSpace(id))] = struct{}{}
	}

	reg := &Registry{byName: make(map[string]Provider, len(factories))}
	for _, factory := range factories {
		if len(allow) > 0 {
			if _, ok := allow[strings.ToLower(factory.ID)]; !ok {
				log.Debug("module disabled by configuration", zap.String("factory", factory.ID))
				continue
			}
		}
		module, err := factory.New(env)
		if err != nil {
			log.Warn("module failed to load", zap.String("factory", factory.ID), zap.Error(err))
			continue
		}
		key := strings.ToLower(module.Name())
		if _, exists := reg.byName[key]; exists {
			log.Debug("duplicate module name, previous instance replaced", zap.String("name", module.Name()))
		} else {
			reg.order = append(reg.order, key)
		}
		reg.byName[key] = module
		log.Info("module loaded",
			zap.String("factory", factory.ID),
			zap.String("name", module.Name()))
	}

	if len(reg.byName) == 0 {
		return nil, ErrNoProviders
	}
	return reg, nil
}

// Get looks a module up by display name, case-insensitively.
func (r *Registry) Get(name string) (Provider, error) {
	module, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return module, nil
}

// List returns modules in first-registration order.
func (r *Registry) List() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.byName[key])
	}
	return out
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.byName)
}
