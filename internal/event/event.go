// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

// Package event implements the in-process broadcast bus plugins use to
// communicate without compile-time coupling.
package event

import (
	"crypto/rand"
	"encoding/json"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// NewID generates a new event ULID.
func NewID() ulid.ULID {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
}

// Event is one published message. Payloads are JSON; the bus never
// inspects them.
type Event struct {
	ID        ulid.ULID
	Topic     string
	Timestamp time.Time
	// Source is the publishing plugin id, or "" for runtime-originated
	// events.
	Source  string
	Payload json.RawMessage
}
