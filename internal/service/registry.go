// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

// Package service implements the cross-plugin service registry: named,
// asynchronous request/response operations callable by plugin id and
// service name, with JSON in and JSON out.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/samber/oops"

	"github.com/warcade/warcade/internal/observability"
)

// Handler is one registered service operation. Handlers may be invoked
// concurrently from multiple callers and are responsible for their own
// internal synchronization; the registry imposes no ordering or mutual
// exclusion between calls, including calls to the same service.
type Handler func(ctx context.Context, request json.RawMessage) (json.RawMessage, error)

type key struct {
	plugin  string
	service string
}

// Registry maps (plugin id, service name) to handlers. Append-mostly:
// registrations happen during plugin initialization, lookups for the
// rest of the process lifetime.
type Registry struct {
	mu       sync.RWMutex
	handlers map[key]Handler
}

// NewRegistry creates an empty service registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[key]Handler),
	}
}

// Register stores a handler under (plugin, service), silently overwriting
// any prior registration under the same key. Last writer wins so that
// idempotent plugin init code stays reload-safe.
func (r *Registry) Register(plugin, service string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{plugin: plugin, service: service}
	if _, exists := r.handlers[k]; exists {
		slog.Debug("service re-registered", "plugin", plugin, "service", service)
	}
	r.handlers[k] = h
}

// Call invokes the handler registered under (plugin, service) and awaits
// completion. An unregistered pair fails with SERVICE_NOT_FOUND. Handler
// failures, including panics, come back to the caller as typed errors —
// never as a process crash. The runtime performs no retries.
func (r *Registry) Call(ctx context.Context, plugin, service string, request json.RawMessage) (response json.RawMessage, err error) {
	r.mu.RLock()
	h, ok := r.handlers[key{plugin: plugin, service: service}]
	r.mu.RUnlock()

	if !ok {
		observability.RecordServiceCall(plugin, service, "not_found")
		return nil, oops.Code("SERVICE_NOT_FOUND").
			With("plugin", plugin).
			With("service", service).
			Errorf("service %s/%s is not registered", plugin, service)
	}

	defer func() {
		if p := recover(); p != nil {
			observability.RecordServiceCall(plugin, service, "error")
			response = nil
			err = oops.Code("SERVICE_PANIC").
				With("plugin", plugin).
				With("service", service).
				Errorf("service handler panicked: %v", p)
		}
	}()

	response, err = h(ctx, request)
	if err != nil {
		observability.RecordServiceCall(plugin, service, "error")
		return nil, oops.Code("SERVICE_FAILED").
			With("plugin", plugin).
			With("service", service).
			Wrap(err)
	}
	observability.RecordServiceCall(plugin, service, "ok")
	return response, nil
}

// Services returns the registered service names for a plugin.
func (r *Registry) Services(plugin string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for k := range r.handlers {
		if k.plugin == plugin {
			names = append(names, k.service)
		}
	}
	return names
}
