// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

//go:build darwin || freebsd || linux

package plugin

import (
	"github.com/ebitengine/purego"
	"github.com/samber/oops"

	"github.com/warcade/warcade/pkg/abi"
)

// OpenLibrary opens a native plugin with the platform dynamic loader.
// The handle stays open for the process lifetime; plugins are unloaded
// only at process exit, so there is no corresponding close.
func OpenLibrary(path string) (Library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, oops.Code("LIBRARY_OPEN_FAILED").
			With("path", path).
			Wrap(err)
	}
	return &dlopenLibrary{handle: handle, path: path}, nil
}

// dlopenLibrary calls the fixed, versionless ABI exports through dlsym'd
// function pointers.
type dlopenLibrary struct {
	handle uintptr
	path   string
}

func (l *dlopenLibrary) symbol(name string) (uintptr, error) {
	sym, err := purego.Dlsym(l.handle, name)
	if err != nil || sym == 0 {
		return 0, oops.Code("SYMBOL_MISSING").
			With("path", l.path).
			With("symbol", name).
			Errorf("library does not export %q", name)
	}
	return sym, nil
}

// bufferCall invokes a (pointer, length) accessor pair and copies the
// result out before returning.
func (l *dlopenLibrary) bufferCall(ptrSym, lenSym string) ([]byte, error) {
	ptrFn, err := l.symbol(ptrSym)
	if err != nil {
		return nil, err
	}
	lenFn, err := l.symbol(lenSym)
	if err != nil {
		return nil, err
	}

	ptr, _, _ := purego.SyscallN(ptrFn)
	n, _, _ := purego.SyscallN(lenFn)
	if ptr == 0 {
		return nil, oops.Code("MANIFEST_INVALID").
			With("path", l.path).
			With("symbol", ptrSym).
			Errorf("accessor returned a null pointer")
	}
	if n == 0 {
		return nil, oops.Code("MANIFEST_INVALID").
			With("path", l.path).
			With("symbol", lenSym).
			Errorf("accessor returned zero length")
	}
	return copyBytes(ptr, n), nil
}

func (l *dlopenLibrary) Manifest() ([]byte, error) {
	return l.bufferCall(abi.SymManifest, abi.SymManifestLen)
}

func (l *dlopenLibrary) HasFrontend() bool {
	sym, err := purego.Dlsym(l.handle, abi.SymHasFrontend)
	if err != nil || sym == 0 {
		// Probe export absent: native plugins default to no frontend.
		return false
	}
	r, _, _ := purego.SyscallN(sym)
	return r != 0
}

func (l *dlopenLibrary) Frontend() ([]byte, error) {
	return l.bufferCall(abi.SymFrontend, abi.SymFrontendLen)
}

func (l *dlopenLibrary) Path() string { return l.path }
