// Package ident supplies the clock and identifier primitives consumed by the
// shard and pathway engines. The engines never read the wall clock or
// generate identifiers themselves; callers inject a Source.
package ident

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the ISO-8601 layout used for every timestamp string.
const TimestampLayout = time.RFC3339Nano

// Source provides timestamps and fresh unique identifiers on demand.
type Source interface {
	// Now returns the current time as an ISO-8601 string.
	Now() string
	// NewID returns a fresh unique identifier.
	NewID() string
}

// System is the production Source: UTC wall clock and random UUIDs.
type System struct{}

// Now implements Source.
func (System) Now() string {
	return time.Now().UTC().Format(TimestampLayout)
}

// NewID implements Source.
func (System) NewID() string {
	return uuid.New().String()
}

// Fixed is a deterministic Source for tests. Every call to Now advances the
// clock by Step; NewID returns "<Prefix>-<n>" with n counting from 1.
type Fixed struct {
	mu     sync.Mutex
	At     time.Time
	Step   time.Duration
	Prefix string
	n      int
	ticks  int
}

// NewFixed returns a Fixed source starting at the given time with one
// millisecond per tick.
func NewFixed(start time.Time) *Fixed {
	return &Fixed{At: start.UTC(), Step: time.Millisecond, Prefix: "id"}
}

// Now implements Source.
func (f *Fixed) Now() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.At.Add(time.Duration(f.ticks) * f.Step)
	f.ticks++
	return t.Format(TimestampLayout)
}

// NewID implements Source.
func (f *Fixed) NewID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return fmt.Sprintf("%s-%d", f.Prefix, f.n)
}

// IsUUID reports whether s parses as a UUID.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// ParseTimestamp parses a timestamp produced by a Source.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}
