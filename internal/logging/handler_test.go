// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warcade/warcade/internal/logging"
)

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Setup("warcade", "1.2.3", "json", &buf)

	logger.Info("plugin started", "plugin", "notes")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "plugin started", record["msg"])
	assert.Equal(t, "notes", record["plugin"])
	assert.Equal(t, "warcade", record["service"])
	assert.Equal(t, "1.2.3", record["version"])
	assert.NotContains(t, record, "trace_id", "no trace context outside a span")
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Setup("warcade", "dev", "text", &buf)

	logger.Warn("events dropped", "topic", "ticks")

	out := buf.String()
	assert.Contains(t, out, "events dropped")
	assert.Contains(t, out, "topic=ticks")
	assert.Contains(t, out, "service=warcade")
}

func TestSetup_UnknownFormatFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Setup("warcade", "dev", "", &buf)

	logger.Info("hello")

	assert.True(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "{"))
}

func TestSetup_DebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Setup("warcade", "dev", "json", &buf)

	logger.Debug("verbose detail")

	assert.NotEmpty(t, buf.String())
}

func TestSetup_WithAttrsKeepsIdentity(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Setup("warcade", "dev", "json", &buf).With("plugin", "notes")

	logger.Info("scoped")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "notes", record["plugin"])
	assert.Equal(t, "warcade", record["service"])
}
