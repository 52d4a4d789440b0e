// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package plugin

import (
	"log/slog"
	"path/filepath"

	"github.com/samber/oops"

	"github.com/warcade/warcade/internal/observability"
	"github.com/warcade/warcade/pkg/abi"
)

// LoadedPlugin is the runtime record for one successfully processed
// plugin. Created by the Loader; descriptor-sourced metadata overrides
// are applied immediately after load and the record is never mutated
// afterwards.
type LoadedPlugin struct {
	ID          string
	Name        string
	Version     string
	Description string
	Author      string
	Priority    int
	HasBackend  bool
	HasFrontend bool

	// Routes the plugin self-reported across the ABI boundary.
	Routes []abi.Route

	// FrontendPath is a filesystem frontend asset location from the
	// descriptor; empty when the frontend is served by the library or an
	// inline payload.
	FrontendPath string

	lib      Library
	frontend []byte
}

// Frontend returns the plugin's frontend asset bytes. For native plugins
// the ABI accessors run lazily, on first request, not at load time.
func (p *LoadedPlugin) Frontend() ([]byte, error) {
	if !p.HasFrontend {
		return nil, oops.Code("FRONTEND_MISSING").
			With("plugin", p.ID).
			Errorf("plugin %q has no frontend assets", p.ID)
	}
	if p.frontend != nil {
		return p.frontend, nil
	}
	if p.lib != nil && p.lib.HasFrontend() {
		return p.lib.Frontend()
	}
	return nil, oops.Code("FRONTEND_MISSING").
		With("plugin", p.ID).
		Errorf("plugin %q frontend is served from %q", p.ID, p.FrontendPath)
}

// AttachInlineFrontend stores an in-memory frontend payload on the
// record. Locked-mode pure frontend plugins use this instead of a
// library handle; it is applied immediately after load, never later.
func (p *LoadedPlugin) AttachInlineFrontend(data []byte) {
	p.frontend = data
	p.HasFrontend = true
}

// Loader opens native plugin libraries in resolved order and populates
// the registry. Load errors are fatal to the one plugin only.
type Loader struct {
	registry *Registry
	open     OpenFunc
	baseDir  string
}

// LoaderOption configures the Loader.
type LoaderOption func(*Loader)

// WithOpenFunc overrides the platform dynamic loader. Tests use this to
// substitute in-memory stub libraries.
func WithOpenFunc(open OpenFunc) LoaderOption {
	return func(l *Loader) {
		l.open = open
	}
}

// WithBaseDir resolves relative backend asset paths against dir.
func WithBaseDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.baseDir = dir
	}
}

// NewLoader creates a loader that registers handles in registry.
func NewLoader(registry *Registry, opts ...LoaderOption) *Loader {
	l := &Loader{
		registry: registry,
		open:     OpenLibrary,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadAll processes descriptors strictly in resolved order. A plugin that
// fails to load is skipped with a warning and does not abort the load of
// subsequent plugins; the returned set contains only plugins that loaded
// cleanly, with no partial or half-initialized entries.
func (l *Loader) LoadAll(order []string, descriptors map[string]Descriptor) []*LoadedPlugin {
	loaded := make([]*LoadedPlugin, 0, len(order))
	for _, id := range order {
		d := descriptors[id]
		p, err := l.load(d)
		if err != nil {
			slog.Warn("skipping plugin",
				"plugin", id,
				"error", err)
			observability.RecordPluginSkipped(id)
			continue
		}
		loaded = append(loaded, p)
		observability.RecordPluginLoaded(id)
		slog.Info("loaded plugin",
			"plugin", id,
			"version", p.Version,
			"backend", p.HasBackend,
			"frontend", p.HasFrontend)
	}
	return loaded
}

// load processes a single descriptor.
func (l *Loader) load(d Descriptor) (*LoadedPlugin, error) {
	if !d.HasBackend {
		p := &LoadedPlugin{
			HasBackend:   false,
			HasFrontend:  d.HasFrontend,
			FrontendPath: d.Frontend,
		}
		applyDescriptor(p, d)
		return p, nil
	}

	backend := d.Backend
	if backend == "" {
		backend = d.ID
	}
	path := LibraryPath(backend)
	if l.baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(l.baseDir, path)
	}

	lib, err := l.open(path)
	if err != nil {
		return nil, err
	}

	manifestBytes, err := lib.Manifest()
	if err != nil {
		return nil, err
	}
	manifest, err := ParseManifest(manifestBytes)
	if err != nil {
		return nil, oops.With("plugin", d.ID).With("path", path).Wrap(err)
	}

	p := &LoadedPlugin{
		Name:        manifest.Name,
		Version:     manifest.Version,
		Description: manifest.Description,
		Author:      manifest.Author,
		// The manifest's route list alone decides backend presence,
		// independent of what the descriptor claims.
		HasBackend:  manifest.HasBackend(),
		HasFrontend: lib.HasFrontend(),
		Routes:      manifest.Warcade.Routes,
		lib:         lib,
	}
	applyDescriptor(p, d)
	if d.HasFrontend && d.Frontend != "" {
		// Filesystem frontend assets declared by the descriptor count
		// even when the library ships none of its own.
		p.HasFrontend = true
	}

	if err := l.registry.RegisterLibrary(d.ID, lib); err != nil {
		return nil, err
	}
	return p, nil
}

// applyDescriptor overlays descriptor metadata onto the loaded record.
// Descriptor values always win over anything the plugin self-reports.
func applyDescriptor(p *LoadedPlugin, d Descriptor) {
	p.ID = d.ID
	p.Priority = d.Priority
	if d.Name != "" {
		p.Name = d.Name
	}
	if d.Version != "" {
		p.Version = d.Version
	}
	if d.Description != "" {
		p.Description = d.Description
	}
	if d.Author != "" {
		p.Author = d.Author
	}
	if p.FrontendPath == "" && d.Frontend != "" {
		p.FrontendPath = d.Frontend
	}
}
