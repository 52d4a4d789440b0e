// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package plugin

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/samber/oops"

	"github.com/warcade/warcade/pkg/abi"
)

// ParseManifest parses and validates the manifest buffer a native plugin
// returned across the ABI boundary. The bytes must be UTF-8 JSON carrying
// the runtime's namespaced section; anything else is a per-plugin load
// error for the caller to log and skip.
func ParseManifest(data []byte) (*abi.Manifest, error) {
	if len(data) == 0 {
		return nil, oops.Code("MANIFEST_INVALID").Errorf("manifest buffer is empty")
	}
	if !utf8.Valid(data) {
		return nil, oops.Code("MANIFEST_INVALID").Errorf("manifest is not valid UTF-8")
	}

	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	var m abi.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, oops.Code("MANIFEST_INVALID").Wrapf(err, "invalid JSON")
	}
	if m.Warcade == nil {
		return nil, oops.Code("MANIFEST_INVALID").
			Errorf("manifest is missing the %q section", abi.SectionKey)
	}
	return &m, nil
}
