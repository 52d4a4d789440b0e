// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warcade/warcade/pkg/errutil"
)

func TestDescriptor_Defaults(t *testing.T) {
	d := newDescriptor("hello")

	assert.Equal(t, "hello", d.ID)
	assert.True(t, d.HasBackend)
	assert.True(t, d.HasFrontend)
	assert.True(t, d.Enabled)
	assert.Equal(t, DefaultPriority, d.Priority)
}

func TestDescriptor_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *Descriptor)
		wantErr bool
	}{
		{"minimal valid", func(_ *Descriptor) {}, false},
		{"single character id", func(d *Descriptor) { d.ID = "a" }, false},
		{"hyphenated id", func(d *Descriptor) { d.ID = "hello-world-2" }, false},
		{"valid semver", func(d *Descriptor) { d.Version = "1.2.3" }, false},
		{"prerelease semver", func(d *Descriptor) { d.Version = "2.0.0-rc.1" }, false},
		{"empty id", func(d *Descriptor) { d.ID = "" }, true},
		{"uppercase id", func(d *Descriptor) { d.ID = "Hello" }, true},
		{"leading digit", func(d *Descriptor) { d.ID = "2fast" }, true},
		{"leading hyphen", func(d *Descriptor) { d.ID = "-hello" }, true},
		{"trailing hyphen", func(d *Descriptor) { d.ID = "hello-" }, true},
		{"underscore", func(d *Descriptor) { d.ID = "hello_world" }, true},
		{"dotted id", func(d *Descriptor) { d.ID = "hello.world" }, true},
		{"id too long", func(d *Descriptor) {
			id := "a"
			for len(id) <= maxIDLength {
				id += "x"
			}
			d.ID = id
		}, true},
		{"invalid version", func(d *Descriptor) { d.Version = "not-a-version" }, true},
		{"empty dependency", func(d *Descriptor) { d.Dependencies = []string{"other", ""} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDescriptor("hello")
			tt.mutate(&d)

			err := d.Validate()
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "DESCRIPTOR_INVALID")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDescriptor_ValidateCarriesPluginContext(t *testing.T) {
	d := newDescriptor("hello")
	d.Version = "banana"

	err := d.Validate()
	require.Error(t, err)
	errutil.AssertErrorContext(t, err, "plugin", "hello")
	errutil.AssertErrorContext(t, err, "version", "banana")
}
