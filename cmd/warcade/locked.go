// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

//go:build locked

package main

import "github.com/warcade/warcade/internal/plugin"

// Locked builds carry their plugin set inside the binary; the
// descriptor file is ignored. Populate lockedPlugins from go:embed
// directives in a build-specific file alongside this one.
var (
	lockedMode    = true
	lockedPlugins []plugin.EmbeddedPlugin
)
