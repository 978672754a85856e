package ident

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixed(t *testing.T) {
	start := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	src := NewFixed(start)

	assert.Equal(t, "2025-04-02T10:00:00Z", src.Now())
	assert.Equal(t, "2025-04-02T10:00:00.001Z", src.Now())
	assert.Equal(t, "id-1", src.NewID())
	assert.Equal(t, "id-2", src.NewID())

	src.Prefix = "snap"
	assert.Equal(t, "snap-3", src.NewID())
}

func TestFixed_ConcurrentIDsAreUnique(t *testing.T) {
	src := NewFixed(time.Unix(0, 0))

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := src.NewID()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 20)
}

func TestSystem(t *testing.T) {
	var src System

	id := src.NewID()
	assert.True(t, IsUUID(id))
	assert.NotEqual(t, id, src.NewID())

	ts, err := ParseTimestamp(src.Now())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestIsUUID(t *testing.T) {
	assert.True(t, IsUUID("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
	assert.False(t, IsUUID("NP-6ba7b810"))
	assert.False(t, IsUUID(""))
}

func TestParseTimestamp_Invalid(t *testing.T) {
	_, err := ParseTimestamp("2025-04-02 10:00")
	assert.Error(t, err)
}
