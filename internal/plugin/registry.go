// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package plugin

import (
	"sync"

	"github.com/samber/oops"
)

// Registry is the process-wide table of open native library handles and
// inline frontend payloads, keyed by plugin id. Entries live for the
// process lifetime: once registered a handle is never replaced or removed
// while the process is alive, so in-flight native calls stay valid.
//
// Construct one per process (or per test) and hand it by reference to the
// components that need it.
type Registry struct {
	mu        sync.RWMutex
	libraries map[string]Library
	frontends map[string][]byte
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		libraries: make(map[string]Library),
		frontends: make(map[string][]byte),
	}
}

// RegisterLibrary inserts an open library handle. Re-registration is an
// error: handles are immutable for the process lifetime.
func (r *Registry) RegisterLibrary(id string, lib Library) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.libraries[id]; exists {
		return oops.Code("ALREADY_REGISTERED").
			With("plugin", id).
			Errorf("library handle for %q already registered", id)
	}
	r.libraries[id] = lib
	return nil
}

// RegisterFrontend stores an inline frontend payload for a plugin without
// a library handle (locked-mode pure frontend plugins).
func (r *Registry) RegisterFrontend(id string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.frontends[id]; exists {
		return oops.Code("ALREADY_REGISTERED").
			With("plugin", id).
			Errorf("frontend payload for %q already registered", id)
	}
	r.frontends[id] = data
	return nil
}

// Library returns the open handle for a plugin id.
func (r *Registry) Library(id string) (Library, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lib, ok := r.libraries[id]
	return lib, ok
}

// Frontend returns the inline frontend payload for a plugin id.
func (r *Registry) Frontend(id string) ([]byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.frontends[id]
	return data, ok
}

// IDs returns all plugin ids with a registered library handle.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.libraries))
	for id := range r.libraries {
		ids = append(ids, id)
	}
	return ids
}
