// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

// Package abi defines the C ABI contract between the runtime and native
// plugins, and the JSON manifest document a plugin self-reports across it.
package abi

// Exported symbol names every native plugin must or may provide.
//
// The manifest accessors are required: the first returns a raw pointer to a
// UTF-8 JSON buffer, the second its length in bytes. The buffer is owned by
// the plugin; the runtime copies it immediately and never frees it.
const (
	// SymManifest returns a pointer to the manifest buffer. Required.
	SymManifest = "get_plugin_manifest"
	// SymManifestLen returns the manifest buffer length in bytes. Required.
	SymManifestLen = "get_plugin_manifest_len"

	// SymHasFrontend returns non-zero when the plugin ships frontend
	// assets. Optional; absent means no frontend.
	SymHasFrontend = "has_frontend"
	// SymFrontend returns a pointer to the frontend asset bytes. Optional.
	SymFrontend = "get_plugin_frontend"
	// SymFrontendLen returns the frontend asset length in bytes. Optional.
	SymFrontendLen = "get_plugin_frontend_len"
)

// SectionKey is the required top-level key of the manifest document. A
// manifest without this section is rejected.
const SectionKey = "warcade"

// Manifest is the JSON document a native plugin returns through the
// manifest accessors.
type Manifest struct {
	Name        string   `json:"name,omitempty"`
	Version     string   `json:"version,omitempty"`
	Description string   `json:"description,omitempty"`
	Author      string   `json:"author,omitempty"`
	Warcade     *Section `json:"warcade" jsonschema:"required"`
}

// Section is the runtime-namespaced part of the manifest. A non-empty
// route list marks the plugin as backend-bearing regardless of what its
// descriptor claims.
type Section struct {
	Routes []Route `json:"routes"`
}

// Route declares one callable operation the plugin exposes. The runtime
// treats routes as opaque routing metadata; Service names the handler the
// plugin registers with the service registry during initialization.
type Route struct {
	Path    string `json:"path"`
	Method  string `json:"method,omitempty"`
	Service string `json:"service,omitempty"`
}

// HasBackend reports whether the manifest declares any routes.
func (m *Manifest) HasBackend() bool {
	return m.Warcade != nil && len(m.Warcade.Routes) > 0
}
