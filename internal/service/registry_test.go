// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warcade/warcade/internal/service"
	"github.com/warcade/warcade/pkg/errutil"
)

func echoHandler(_ context.Context, request json.RawMessage) (json.RawMessage, error) {
	return request, nil
}

func TestRegistry_Call(t *testing.T) {
	r := service.NewRegistry()
	r.Register("notes", "echo", echoHandler)

	resp, err := r.Call(context.Background(), "notes", "echo", json.RawMessage(`{"text":"hi"}`))

	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hi"}`, string(resp))
}

func TestRegistry_CallNotFound(t *testing.T) {
	r := service.NewRegistry()
	r.Register("notes", "echo", echoHandler)

	tests := []struct {
		name            string
		plugin, service string
	}{
		{"unknown plugin", "ghost", "echo"},
		{"unknown service", "notes", "ghost"},
		{"empty registry key", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := make(chan struct{})
			var err error
			go func() {
				defer close(done)
				_, err = r.Call(context.Background(), tt.plugin, tt.service, nil)
			}()

			// An unregistered pair fails immediately; it never blocks
			// waiting for a registration that may not come.
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("call to unregistered service did not return")
			}

			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "SERVICE_NOT_FOUND")
		})
	}
}

func TestRegistry_HandlerError(t *testing.T) {
	r := service.NewRegistry()
	cause := errors.New("boom")
	r.Register("notes", "fail", func(context.Context, json.RawMessage) (json.RawMessage, error) {
		return nil, cause
	})

	resp, err := r.Call(context.Background(), "notes", "fail", nil)

	require.Error(t, err)
	assert.Nil(t, resp)
	errutil.AssertErrorCode(t, err, "SERVICE_FAILED")
	assert.ErrorIs(t, err, cause, "the handler's error stays reachable for the caller")
}

func TestRegistry_HandlerPanicIsIsolated(t *testing.T) {
	r := service.NewRegistry()
	r.Register("notes", "explode", func(context.Context, json.RawMessage) (json.RawMessage, error) {
		panic("handler bug")
	})
	r.Register("notes", "echo", echoHandler)

	resp, err := r.Call(context.Background(), "notes", "explode", nil)

	require.Error(t, err)
	assert.Nil(t, resp)
	errutil.AssertErrorCode(t, err, "SERVICE_PANIC")
	assert.Contains(t, err.Error(), "handler bug")

	// The registry survives; other services keep working.
	_, err = r.Call(context.Background(), "notes", "echo", json.RawMessage(`1`))
	require.NoError(t, err)
}

func TestRegistry_LastWriterWins(t *testing.T) {
	r := service.NewRegistry()
	r.Register("notes", "greet", func(context.Context, json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`"first"`), nil
	})
	r.Register("notes", "greet", func(context.Context, json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`"second"`), nil
	})

	resp, err := r.Call(context.Background(), "notes", "greet", nil)

	require.NoError(t, err)
	assert.Equal(t, `"second"`, string(resp))
}

func TestRegistry_SameNameDifferentPlugins(t *testing.T) {
	r := service.NewRegistry()
	r.Register("a", "status", func(context.Context, json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`"a"`), nil
	})
	r.Register("b", "status", func(context.Context, json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`"b"`), nil
	})

	respA, err := r.Call(context.Background(), "a", "status", nil)
	require.NoError(t, err)
	respB, err := r.Call(context.Background(), "b", "status", nil)
	require.NoError(t, err)

	assert.Equal(t, `"a"`, string(respA))
	assert.Equal(t, `"b"`, string(respB))
}

func TestRegistry_ConcurrentCalls(t *testing.T) {
	r := service.NewRegistry()
	r.Register("notes", "echo", echoHandler)

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := r.Call(context.Background(), "notes", "echo", json.RawMessage(`42`))
			assert.NoError(t, err)
			assert.Equal(t, `42`, string(resp))
		}()
	}
	wg.Wait()
}

func TestRegistry_Services(t *testing.T) {
	r := service.NewRegistry()
	r.Register("notes", "list", echoHandler)
	r.Register("notes", "create", echoHandler)
	r.Register("other", "list", echoHandler)

	names := r.Services("notes")

	assert.ElementsMatch(t, []string{"list", "create"}, names)
	assert.Empty(t, r.Services("ghost"))
}
