// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package plugin

import (
	"runtime"
	"strings"
	"unsafe"
)

// Library is an open native plugin library. Implementations sit on top of
// the platform loader; tests substitute in-memory stubs.
//
// Manifest and Frontend return owned copies: the underlying ABI calls
// yield borrowed pointer+length views whose bytes are copied before any
// further processing, and the raw pointers are never retained.
type Library interface {
	// Manifest returns the self-describing manifest bytes.
	Manifest() ([]byte, error)
	// HasFrontend reports whether the plugin ships frontend assets.
	// False when the optional probe export is absent.
	HasFrontend() bool
	// Frontend returns the frontend asset bytes. Called lazily, only when
	// the asset is actually requested.
	Frontend() ([]byte, error)
	// Path is the filesystem location the library was opened from.
	Path() string
}

// OpenFunc opens a native library at path. The default is the platform
// dynamic loader; tests inject stubs.
type OpenFunc func(path string) (Library, error)

// copyBytes copies n bytes at ptr into an owned slice. The source buffer
// is owned by the callee side of the ABI and must not be freed or kept.
func copyBytes(ptr uintptr, n uintptr) []byte {
	if ptr == 0 || n == 0 {
		return nil
	}
	view := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n) //nolint:govet // borrowed ABI view, copied immediately
	out := make([]byte, n)
	copy(out, view)
	return out
}

// LibraryPath resolves a descriptor's backend asset path to the platform
// shared-library file name. Paths that already carry an extension are
// used as-is; file-extension conventions are not part of the public
// contract.
func LibraryPath(backend string) string {
	base := backend[strings.LastIndexByte(backend, '/')+1:]
	if strings.Contains(base, ".") {
		return backend
	}
	return backend + libraryExt()
}

func libraryExt() string {
	switch runtime.GOOS {
	case "windows":
		return ".dll"
	case "darwin":
		return ".dylib"
	default:
		return ".so"
	}
}
