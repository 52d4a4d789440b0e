// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

// Package runtime wires the plugin pipeline together: descriptor source,
// dependency resolution, native loading, and the communication fabric.
package runtime

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/warcade/warcade/internal/event"
	"github.com/warcade/warcade/internal/plugin"
	"github.com/warcade/warcade/internal/service"
	"github.com/warcade/warcade/internal/store"
)

// Host is the surface handed to plugin init hooks. Hooks register
// services, subscribe to topics, and declare their storage schema
// through it; they never touch another plugin directly.
type Host struct {
	pluginID string
	rt       *Runtime
}

// Register exposes a named service under the plugin's id.
func (h *Host) Register(name string, fn service.Handler) {
	h.rt.services.Register(h.pluginID, name, fn)
}

// Call invokes another plugin's service.
func (h *Host) Call(ctx context.Context, pluginID, name string, req []byte) ([]byte, error) {
	return h.rt.services.Call(ctx, pluginID, name, req)
}

// Subscribe attaches a consumer endpoint to a topic.
func (h *Host) Subscribe(topic string) *event.Subscription {
	return h.rt.bus.Subscribe(topic)
}

// Emit publishes an event under the plugin's id.
func (h *Host) Emit(topic string, payload []byte) {
	h.rt.bus.EmitFrom(h.pluginID, topic, payload)
}

// Migrate applies the plugin's idempotent schema statements. Fails when
// the runtime has no database configured.
func (h *Host) Migrate(ctx context.Context, statements ...string) error {
	if h.rt.migrations == nil {
		return oops.Code("MIGRATION_FAILED").
			With("plugin", h.pluginID).
			Errorf("no database configured")
	}
	return h.rt.migrations.Migrate(ctx, h.pluginID, statements...)
}

// InitFunc is a plugin initialization hook, run once during Start in
// resolved load order. Registering services and declaring migrations
// happens here. An error means the plugin is not started; the rest of
// the runtime is unaffected.
type InitFunc func(ctx context.Context, host *Host) error

// Runtime owns the process-wide registries and drives the load pipeline.
// Construct one per process (or per test); nothing here is a global
// singleton.
type Runtime struct {
	source     plugin.Source
	loader     *plugin.Loader
	registry   *plugin.Registry
	services   *service.Registry
	bus        *event.Bus
	st         *store.Store
	migrations *store.Runner
	loaderOpts []plugin.LoaderOption

	mu      sync.RWMutex
	plugins map[string]*plugin.LoadedPlugin
	order   []string
	inits   map[string]InitFunc
	started map[string]bool

	ready atomic.Bool
}

// Option configures the Runtime.
type Option func(*Runtime)

// WithStore enables the plugin ledger and migration runner.
func WithStore(st *store.Store) Option {
	return func(rt *Runtime) {
		rt.st = st
		rt.migrations = st.Runner()
	}
}

// WithLoaderOptions configures the native loader (base directory, or a
// stub open function in tests). The loader always binds to the
// runtime's own registry.
func WithLoaderOptions(opts ...plugin.LoaderOption) Option {
	return func(rt *Runtime) {
		rt.loaderOpts = opts
	}
}

// WithBus overrides the default event bus (e.g. to size buffers).
func WithBus(b *event.Bus) Option {
	return func(rt *Runtime) {
		rt.bus = b
	}
}

// New creates a runtime over a descriptor source.
func New(source plugin.Source, opts ...Option) *Runtime {
	rt := &Runtime{
		source:   source,
		registry: plugin.NewRegistry(),
		services: service.NewRegistry(),
		bus:      event.NewBus(),
		plugins:  make(map[string]*plugin.LoadedPlugin),
		inits:    make(map[string]InitFunc),
		started:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.loader = plugin.NewLoader(rt.registry, rt.loaderOpts...)
	return rt
}

// OnInit registers an initialization hook for a plugin id. Hooks are the
// bridge between loaded plugin code and the service/event fabric; the
// embedding application installs them before Start.
func (rt *Runtime) OnInit(pluginID string, fn InitFunc) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.inits[pluginID] = fn
}

// Load runs the pipeline synchronously, single-threaded, strictly in
// resolved order: source, enabled filter, resolution, then per-plugin
// native loading. Configuration errors (malformed descriptors, missing
// or circular dependencies) are fatal and nothing loads; per-plugin load
// errors skip that plugin only.
func (rt *Runtime) Load(ctx context.Context) error {
	descriptors, err := rt.source.Descriptors()
	if err != nil {
		return err
	}
	enabled := plugin.Enabled(descriptors)

	order, err := plugin.Resolve(enabled)
	if err != nil {
		return err
	}

	loaded := rt.loader.LoadAll(order, enabled)

	rt.mu.Lock()
	rt.order = rt.order[:0]
	for _, p := range loaded {
		rt.plugins[p.ID] = p
		rt.order = append(rt.order, p.ID)
	}
	rt.mu.Unlock()

	// Locked-mode pure frontend payloads bypass the loader: register
	// their bytes directly, without a library handle.
	if locked, ok := rt.source.(*plugin.LockedSource); ok {
		for id, data := range locked.Frontends() {
			if err := rt.registry.RegisterFrontend(id, data); err != nil {
				return err
			}
			rt.mu.Lock()
			if p, ok := rt.plugins[id]; ok {
				p.AttachInlineFrontend(data)
			}
			rt.mu.Unlock()
		}
	}

	if rt.st != nil {
		now := time.Now()
		for _, p := range loaded {
			rec := store.PluginRecord{
				ID:          p.ID,
				Name:        p.Name,
				Version:     p.Version,
				HasBackend:  p.HasBackend,
				HasFrontend: p.HasFrontend,
				LoadedAt:    now,
			}
			if err := rt.st.RecordPlugin(ctx, rec); err != nil {
				// The ledger is bookkeeping; a write failure must not
				// unload a healthy plugin.
				slog.Warn("failed to record plugin in ledger",
					"plugin", p.ID,
					"error", err)
			}
		}
	}

	return nil
}

// Start runs init hooks in load order. The load-order guarantee means a
// later plugin's hook may call an earlier plugin's services. A hook
// failure (typically a migration error) skips that plugin's start only.
func (rt *Runtime) Start(ctx context.Context) error {
	rt.mu.RLock()
	order := append([]string(nil), rt.order...)
	rt.mu.RUnlock()

	for _, id := range order {
		rt.mu.RLock()
		fn := rt.inits[id]
		rt.mu.RUnlock()
		if fn == nil {
			continue
		}

		if err := fn(ctx, &Host{pluginID: id, rt: rt}); err != nil {
			slog.Warn("plugin initialization failed, not starting",
				"plugin", id,
				"error", err)
			continue
		}
		rt.mu.Lock()
		rt.started[id] = true
		rt.mu.Unlock()
		slog.Info("plugin started", "plugin", id)
	}

	rt.ready.Store(true)
	return nil
}

// Ready reports whether loading and startup have finished. Used as the
// observability readiness check.
func (rt *Runtime) Ready() bool {
	return rt.ready.Load()
}

// Plugin returns a loaded plugin by id.
func (rt *Runtime) Plugin(id string) (*plugin.LoadedPlugin, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	p, ok := rt.plugins[id]
	return p, ok
}

// Plugins returns all loaded plugins in load order.
func (rt *Runtime) Plugins() []*plugin.LoadedPlugin {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	out := make([]*plugin.LoadedPlugin, 0, len(rt.order))
	for _, id := range rt.order {
		out = append(out, rt.plugins[id])
	}
	return out
}

// Started reports whether a plugin's init hook completed.
func (rt *Runtime) Started(id string) bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.started[id]
}

// Services exposes the service registry for external triggers (e.g. a
// chat command bridging into plugin logic).
func (rt *Runtime) Services() *service.Registry {
	return rt.services
}

// Bus exposes the event bus.
func (rt *Runtime) Bus() *event.Bus {
	return rt.bus
}

// Registry exposes the library registry.
func (rt *Runtime) Registry() *plugin.Registry {
	return rt.registry
}
