// Package ident generates node identifiers and timestamps.
package ident

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// New returns a fresh collision-resistant node ID.
func New() string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewAt returns an ID derived from a base ID and a level index. Path
// creation uses one base per call so every level in the created chain
// gets a distinct ID.
func NewAt(base string, level int) string {
	return fmt.Sprintf("%s-%d", base, level)
}

// Now returns the current time as an RFC 3339 UTC timestamp.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
