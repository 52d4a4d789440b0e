// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package plugin

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyBytes(t *testing.T) {
	src := []byte("manifest bytes across the boundary")
	ptr := uintptr(unsafe.Pointer(&src[0]))

	out := copyBytes(ptr, uintptr(len(src)))

	require.Equal(t, src, out)

	// The copy is owned: mutating the source must not leak through.
	src[0] = 'X'
	assert.Equal(t, byte('m'), out[0])
}

func TestCopyBytes_NullAndEmpty(t *testing.T) {
	assert.Nil(t, copyBytes(0, 10))

	src := []byte{1}
	assert.Nil(t, copyBytes(uintptr(unsafe.Pointer(&src[0])), 0))
}

func TestLibraryPath(t *testing.T) {
	ext := ".so"
	switch runtime.GOOS {
	case "windows":
		ext = ".dll"
	case "darwin":
		ext = ".dylib"
	}

	tests := []struct {
		name    string
		backend string
		want    string
	}{
		{"bare name", "notes", "notes" + ext},
		{"relative dir", "build/notes", "build/notes" + ext},
		{"explicit extension kept", "notes.so", "notes.so"},
		{"dotted directory, bare file", "v1.2/notes", "v1.2/notes" + ext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LibraryPath(tt.backend))
		})
	}
}
