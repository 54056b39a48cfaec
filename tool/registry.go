package tool

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Dispatcher is the protocol layer adapters are registered into.
type Dispatcher interface {
	AddTool(adapter *Adapter) error
}

// RegisterConfig controls Register.
type RegisterConfig struct {
	Dispatcher Dispatcher
	Invoker    Invoker
	Logger     *slog.Logger
}

// Registry is the read-only set of adapters that passed registration.
type Registry struct {
	adapters map[string]*Adapter
	order    []string
}

// Register synthesizes and registers one adapter per descriptor. Nameless
// descriptors are skipped with a warning. Any other failure is recorded
// for that descriptor alone and registration continues.
func Register(cfg RegisterConfig, descriptors []ToolDescriptor) (*Registry, []RegistrationFailure) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := &Registry{
		adapters: make(map[string]*Adapter, len(descriptors)),
	}
	if len(descriptors) == 0 {
		logger.Warn("no tools to register")
		return reg, nil
	}

	var failures []RegistrationFailure
	fail := func(index int, name string, err error) {
		failure := RegistrationFailure{
			Index: index,
			Name:  name,
			Err:   fmt.Errorf("%w: %w", ErrToolRegistration, err),
		}
		failures = append(failures, failure)
		logger.Error("failed to register tool", slog.Int("index", index), slog.String("tool", name), slog.Any("error", err))
	}

	for i, desc := range descriptors {
		if err := desc.DecodeErr(); err != nil {
			fail(i, desc.Name, err)
			continue
		}
		// A whitespace-only name cannot be called by an MCP client, so it is
		// treated the same as a missing one.
		if strings.TrimSpace(desc.Name) == "" {
			logger.Warn("skipping tool with no name", slog.Int("index", i), slog.String("description", desc.Description))
			continue
		}
		if _, exists := reg.adapters[desc.Name]; exists {
			fail(i, desc.Name, errors.New("duplicate tool name"))
			continue
		}
		if cfg.Dispatcher == nil {
			fail(i, desc.Name, errors.New("dispatcher is nil"))
			continue
		}

		adapter, err := NewAdapter(desc, cfg.Invoker)
		if err != nil {
			fail(i, desc.Name, err)
			continue
		}
		if err := addTool(cfg.Dispatcher, adapter); err != nil {
			fail(i, desc.Name, err)
			continue
		}

		reg.adapters[desc.Name] = adapter
		reg.order = append(reg.order, desc.Name)
		logger.Info("registered tool", slog.String("tool", desc.Name))
	}
	return reg, failures
}

// addTool isolates dispatcher panics to the descriptor being registered.
func addTool(dispatcher Dispatcher, adapter *Adapter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatcher panic: %v", r)
		}
	}()
	return dispatcher.AddTool(adapter)
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (*Adapter, bool) {
	if r == nil {
		return nil, false
	}
	adapter, ok := r.adapters[name]
	return adapter, ok
}
