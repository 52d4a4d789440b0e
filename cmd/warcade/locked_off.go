// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

//go:build !locked

package main

import "github.com/warcade/warcade/internal/plugin"

// Standard builds discover plugins through the descriptor file.
var (
	lockedMode    = false
	lockedPlugins []plugin.EmbeddedPlugin
)
