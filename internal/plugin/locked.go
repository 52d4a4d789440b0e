// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package plugin

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

// EmbeddedPlugin is one compile-time-baked plugin: raw library bytes for
// native plugins, or a frontend payload otherwise.
type EmbeddedPlugin struct {
	ID     string
	Native bool
	Data   []byte
}

// LockedSource supplies descriptors from plugins baked into the binary.
// Native library bytes are materialized to a scratch directory so the
// platform loader can open them; the manifest-extraction contract is
// otherwise identical to the filesystem path. Pure frontend payloads
// bypass the loader entirely and register their bytes directly.
type LockedSource struct {
	plugins []EmbeddedPlugin
	dir     string
}

// NewLockedSource creates a locked source over the embedded plugin set.
// dir is the scratch directory for materialized libraries; empty uses
// the system temp directory.
func NewLockedSource(plugins []EmbeddedPlugin, dir string) *LockedSource {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "warcade-locked")
	}
	return &LockedSource{plugins: plugins, dir: dir}
}

// Descriptors materializes native library bytes and returns the
// descriptor set. Embedded plugins carry no user-editable metadata, so
// descriptors take defaults; everything else comes from each plugin's
// self-reported manifest. Duplicate embedded ids are a configuration
// error: the baked-in set is produced by the build and must be coherent.
func (s *LockedSource) Descriptors() (map[string]Descriptor, error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return nil, oops.Code("CONFIG_INVALID").
			With("dir", s.dir).
			Wrapf(err, "create locked plugin directory")
	}

	descriptors := make(map[string]Descriptor, len(s.plugins))
	for _, ep := range s.plugins {
		if _, exists := descriptors[ep.ID]; exists {
			return nil, oops.Code("CONFIG_INVALID").
				With("plugin", ep.ID).
				Errorf("duplicate embedded plugin id %q", ep.ID)
		}

		d := newDescriptor(ep.ID)
		if ep.Native {
			path := filepath.Join(s.dir, ep.ID+libraryExt())
			if err := os.WriteFile(path, ep.Data, 0o600); err != nil {
				return nil, oops.Code("CONFIG_INVALID").
					With("plugin", ep.ID).
					With("path", path).
					Wrapf(err, "materialize embedded library")
			}
			d.Backend = path
			d.HasFrontend = false
		} else {
			d.HasBackend = false
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		descriptors[ep.ID] = d
	}
	return descriptors, nil
}

// Frontends returns the inline payloads of non-native embedded plugins,
// for direct registration without a library handle.
func (s *LockedSource) Frontends() map[string][]byte {
	frontends := make(map[string][]byte)
	for _, ep := range s.plugins {
		if !ep.Native {
			frontends[ep.ID] = ep.Data
		}
	}
	return frontends
}
