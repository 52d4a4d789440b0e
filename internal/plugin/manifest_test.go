// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warcade/warcade/pkg/errutil"
)

const validManifest = `{
	"name": "Notes",
	"version": "1.0.0",
	"description": "A note-taking plugin",
	"author": "warcade",
	"warcade": {
		"routes": [
			{"path": "/notes", "method": "GET", "service": "list"},
			{"path": "/notes", "method": "POST", "service": "create"}
		]
	}
}`

func TestParseManifest_Valid(t *testing.T) {
	m, err := ParseManifest([]byte(validManifest))

	require.NoError(t, err)
	assert.Equal(t, "Notes", m.Name)
	assert.Equal(t, "1.0.0", m.Version)
	assert.Equal(t, "A note-taking plugin", m.Description)
	assert.Equal(t, "warcade", m.Author)
	require.NotNil(t, m.Warcade)
	require.Len(t, m.Warcade.Routes, 2)
	assert.Equal(t, "list", m.Warcade.Routes[0].Service)
	assert.True(t, m.HasBackend())
}

func TestParseManifest_NoRoutes(t *testing.T) {
	m, err := ParseManifest([]byte(`{"name": "ui", "warcade": {"routes": []}}`))

	require.NoError(t, err)
	assert.False(t, m.HasBackend())
}

func TestParseManifest_ExtraFieldsTolerated(t *testing.T) {
	m, err := ParseManifest([]byte(`{
		"name": "ext",
		"homepage": "https://example.com",
		"warcade": {"routes": []}
	}`))

	require.NoError(t, err)
	assert.Equal(t, "ext", m.Name)
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty buffer", nil},
		{"zero length", []byte{}},
		{"not UTF-8", []byte{'{', 0xff, 0xfe, '}'}},
		{"not JSON", []byte("not json at all")},
		{"truncated JSON", []byte(`{"name": "x"`)},
		{"missing runtime section", []byte(`{"name": "x"}`)},
		{"null runtime section", []byte(`{"name": "x", "warcade": null}`)},
		{"wrong section type", []byte(`{"warcade": "yes"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseManifest(tt.data)

			require.Error(t, err)
			assert.Nil(t, m)
			errutil.AssertErrorCode(t, err, "MANIFEST_INVALID")
		})
	}
}
