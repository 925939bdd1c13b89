package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionGetOrCreate(t *testing.T) {
	store := NewSessionStore(DefaultSessionTTL)

	session := store.GetOrCreate("s1", "+254700000001")
	require.NotNil(t, session)
	assert.Equal(t, StateMainMenu, session.State)
	assert.Equal(t, "+254700000001", session.PhoneNumber)

	// Same ID returns the same session with state intact
	session.State = StateLocationInput
	again := store.GetOrCreate("s1", "+254700000001")
	assert.Equal(t, StateLocationInput, again.State)
}

func TestSessionExpiry(t *testing.T) {
	current := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	store := NewSessionStoreWithClock(10*time.Minute, clock)

	session := store.GetOrCreate("s1", "+254700000001")
	session.State = StateDoctorSelection

	// Within the TTL the session survives
	current = current.Add(9 * time.Minute)
	_, ok := store.Get("s1")
	assert.True(t, ok)

	// Past the TTL it is gone, and GetOrCreate starts fresh
	current = current.Add(2 * time.Minute)
	_, ok = store.Get("s1")
	assert.False(t, ok)

	fresh := store.GetOrCreate("s1", "+254700000001")
	assert.Equal(t, StateMainMenu, fresh.State)
}

func TestSessionActivityExtendsTTL(t *testing.T) {
	current := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	store := NewSessionStoreWithClock(10*time.Minute, clock)
	store.GetOrCreate("s1", "+254700000001")

	// Touch the session just before expiry; the deadline moves forward
	current = current.Add(9 * time.Minute)
	store.GetOrCreate("s1", "+254700000001")

	current = current.Add(9 * time.Minute)
	_, ok := store.Get("s1")
	assert.True(t, ok)
}

func TestSessionDelete(t *testing.T) {
	store := NewSessionStore(DefaultSessionTTL)
	store.GetOrCreate("s1", "+254700000001")

	store.Delete("s1")

	_, ok := store.Get("s1")
	assert.False(t, ok)
	assert.Equal(t, 0, store.ActiveCount())
}

func TestSessionSweep(t *testing.T) {
	current := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	store := NewSessionStoreWithClock(10*time.Minute, clock)
	store.GetOrCreate("s1", "+254700000001")
	store.GetOrCreate("s2", "+254700000002")

	current = current.Add(11 * time.Minute)
	store.GetOrCreate("s3", "+254700000003")

	store.sweep()

	assert.Equal(t, 1, store.ActiveCount())
	_, ok := store.Get("s3")
	assert.True(t, ok)
}
