// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package plugin

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/samber/oops"
)

// Source produces the descriptor set the rest of the pipeline consumes.
// Implementations: FileSource (human-editable JSON file) and LockedSource
// (descriptors baked into the binary).
type Source interface {
	Descriptors() (map[string]Descriptor, error)
}

// descriptorFile is the on-disk shape of the descriptor document:
// top-level application metadata plus a plugin-id-to-descriptor mapping.
type descriptorFile struct {
	Name    string                     `json:"name"`
	Version string                     `json:"version"`
	Plugins map[string]json.RawMessage `json:"plugins"`
}

// FileSource reads plugin descriptors from a JSON file. An absent file
// yields zero plugins, not an error; a malformed file is a configuration
// error and fails the whole load.
type FileSource struct {
	path string
}

// NewFileSource creates a descriptor file source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Descriptors parses the descriptor file. Duplicate ids cannot survive
// JSON object decoding: the last entry wins, consistently. Descriptors
// that fail validation are rejected, failing the whole set, since an
// unusable descriptor makes the load order unusable.
func (s *FileSource) Descriptors() (map[string]Descriptor, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("descriptor file absent, no plugins configured", "path", s.path)
			return map[string]Descriptor{}, nil
		}
		return nil, oops.Code("CONFIG_INVALID").
			With("path", s.path).
			Wrapf(err, "read descriptor file")
	}

	var doc descriptorFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, oops.Code("CONFIG_INVALID").
			With("path", s.path).
			Wrapf(err, "malformed descriptor file")
	}

	descriptors := make(map[string]Descriptor, len(doc.Plugins))
	for id, raw := range doc.Plugins {
		d := newDescriptor(id)
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, oops.Code("CONFIG_INVALID").
				With("path", s.path).
				With("plugin", id).
				Wrapf(err, "malformed descriptor")
		}
		d.ID = id
		if err := d.Validate(); err != nil {
			return nil, err
		}
		descriptors[id] = d
	}
	return descriptors, nil
}

// Enabled filters a descriptor set down to enabled plugins.
func Enabled(descriptors map[string]Descriptor) map[string]Descriptor {
	enabled := make(map[string]Descriptor, len(descriptors))
	for id, d := range descriptors {
		if d.Enabled {
			enabled[id] = d
		}
	}
	return enabled
}
