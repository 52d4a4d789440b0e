// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

// Package plugin implements plugin discovery, ordering, and native loading.
package plugin

import (
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
)

// DefaultPriority is assigned to descriptors that don't declare one.
// Lower priorities load earlier.
const DefaultPriority = 100

// maxIDLength is the maximum allowed length for plugin ids.
const maxIDLength = 64

// idPattern validates plugin ids: must start with a lowercase letter,
// followed by lowercase letters, digits, or hyphens, and not end with a
// hyphen. Single character ids are allowed.
var idPattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// Route is routing metadata a descriptor declares for its plugin. The
// runtime carries it verbatim; interpretation belongs to the UI shell.
type Route struct {
	Path    string `json:"path"`
	Method  string `json:"method,omitempty"`
	Service string `json:"service,omitempty"`
}

// Descriptor describes one plugin independent of whether it has been
// loaded. Produced once by a Source and immutable thereafter.
type Descriptor struct {
	ID           string   `json:"-"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description"`
	Author       string   `json:"author"`
	Backend      string   `json:"backend"`
	Frontend     string   `json:"frontend"`
	HasBackend   bool     `json:"hasBackend"`
	HasFrontend  bool     `json:"hasFrontend"`
	Priority     int      `json:"priority"`
	Enabled      bool     `json:"enabled"`
	Routes       []Route  `json:"routes"`
	Dependencies []string `json:"dependencies"`
}

// newDescriptor returns a descriptor with source-independent defaults
// applied: backend and frontend presumed present, default priority, enabled.
func newDescriptor(id string) Descriptor {
	return Descriptor{
		ID:          id,
		HasBackend:  true,
		HasFrontend: true,
		Priority:    DefaultPriority,
		Enabled:     true,
	}
}

// Validate checks descriptor constraints. The version, when present, must
// parse as semver so ordering and display stay well-defined.
func (d *Descriptor) Validate() error {
	if d.ID == "" || !idPattern.MatchString(d.ID) {
		return oops.Code("DESCRIPTOR_INVALID").
			With("plugin", d.ID).
			Errorf("plugin id %q must start with a-z, contain only a-z, 0-9, hyphens, and not end with a hyphen", d.ID)
	}
	if len(d.ID) > maxIDLength {
		return oops.Code("DESCRIPTOR_INVALID").
			With("plugin", d.ID).
			Errorf("plugin id must be %d characters or less, got %d", maxIDLength, len(d.ID))
	}
	if d.Version != "" {
		if _, err := semver.NewVersion(d.Version); err != nil {
			return oops.Code("DESCRIPTOR_INVALID").
				With("plugin", d.ID).
				With("version", d.Version).
				Wrapf(err, "invalid version")
		}
	}
	for _, dep := range d.Dependencies {
		if dep == "" {
			return oops.Code("DESCRIPTOR_INVALID").
				With("plugin", d.ID).
				Errorf("empty dependency id")
		}
	}
	return nil
}
