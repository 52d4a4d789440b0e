// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

//go:build !(darwin || freebsd || linux)

package plugin

import "github.com/samber/oops"

// OpenLibrary is unsupported on this platform. Loading fails per-plugin,
// so a runtime built here still serves frontend-only plugins.
func OpenLibrary(path string) (Library, error) {
	return nil, oops.Code("LIBRARY_OPEN_FAILED").
		With("path", path).
		Errorf("native plugins are not supported on this platform")
}
