// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

// Package main implements a hello-world native plugin for Warcade.
//
// Build as a shared library:
//
//	go build -buildmode=c-shared -o hello.so ./plugins/hello
//
// The runtime opens the library with the platform dynamic loader and
// calls the exported accessors below. Buffers stay owned by the plugin;
// the runtime copies them immediately and never frees them.
package main

import "C"

import "unsafe"

var manifest = []byte(`{
	"name": "Hello",
	"version": "1.0.0",
	"description": "Minimal example plugin",
	"author": "Warcade Contributors",
	"warcade": {
		"routes": [
			{"path": "/hello", "method": "GET", "service": "greet"}
		]
	}
}`)

var frontend = []byte(`<!doctype html><h1>Hello from Warcade</h1>`)

//export get_plugin_manifest
func get_plugin_manifest() unsafe.Pointer {
	return unsafe.Pointer(&manifest[0])
}

//export get_plugin_manifest_len
func get_plugin_manifest_len() C.size_t {
	return C.size_t(len(manifest))
}

//export has_frontend
func has_frontend() C.int {
	return 1
}

//export get_plugin_frontend
func get_plugin_frontend() unsafe.Pointer {
	return unsafe.Pointer(&frontend[0])
}

//export get_plugin_frontend_len
func get_plugin_frontend_len() C.size_t {
	return C.size_t(len(frontend))
}

func main() {}
