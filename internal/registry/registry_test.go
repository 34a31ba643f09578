package registry_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flipperbot/internal/registry"
)

func TestBeginOAuth(t *testing.T) {
	t.Parallel()

	t.Run("empty user id", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		_, err := reg.BeginOAuth("")
		assert.ErrorIs(t, err, registry.ErrEmptyUserID)
	})

	t.Run("tokens are unique under concurrency", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		const n = 100

		var mu sync.Mutex
		seen := make(map[string]struct{}, n)

		var wg sync.WaitGroup
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				state, err := reg.BeginOAuth("42")
				assert.NoError(t, err)
				mu.Lock()
				seen[state] = struct{}{}
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Len(t, seen, n, "every token must be distinct")
		assert.Equal(t, n, reg.Len())
	})
}

func TestResolveOAuth(t *testing.T) {
	t.Parallel()

	t.Run("consumes exactly once", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		state, err := reg.BeginOAuth("42")
		require.NoError(t, err)

		entry, ok := reg.ResolveOAuth(state)
		require.True(t, ok)
		assert.Equal(t, "42", entry.UserID)
		assert.Equal(t, state, entry.State)

		// Replay of the same state finds nothing.
		_, ok = reg.ResolveOAuth(state)
		assert.False(t, ok)
		assert.Zero(t, reg.Len())
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		_, ok := reg.ResolveOAuth("never-issued")
		assert.False(t, ok)
	})

	t.Run("expired entry is rejected and discarded", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		clock := func() time.Time { return now }
		reg := registry.New(registry.WithClock(func() time.Time { return clock() }))

		state, err := reg.BeginOAuth("42")
		require.NoError(t, err)

		now = now.Add(registry.DefaultTTL + time.Second)
		_, ok := reg.ResolveOAuth(state)
		assert.False(t, ok)
		assert.Zero(t, reg.Len(), "expired entry must be discarded on resolution")
	})
}

func TestResolveOTP(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		reg := registry.New()
		flowID, err := reg.BeginOTP("7", "Bob", "bob@example.com", "SECRETKEY")
		require.NoError(t, err)

		entry, ok := reg.ResolveOTP(flowID)
		require.True(t, ok)
		assert.Equal(t, "7", entry.UserID)
		assert.Equal(t, "Bob", entry.Nickname)
		assert.Equal(t, "bob@example.com", entry.Email)
		assert.Equal(t, "SECRETKEY", entry.Secret)

		_, ok = reg.ResolveOTP(flowID)
		assert.False(t, ok)
	})

	t.Run("abandoned flow expires", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		clock := func() time.Time { return now }
		reg := registry.New(registry.WithClock(func() time.Time { return clock() }))

		flowID, err := reg.BeginOTP("7", "Bob", "bob@example.com", "SECRETKEY")
		require.NoError(t, err)

		now = now.Add(11 * time.Minute)
		_, ok := reg.ResolveOTP(flowID)
		assert.False(t, ok)
	})

	t.Run("just inside the window still resolves", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		clock := func() time.Time { return now }
		reg := registry.New(registry.WithClock(func() time.Time { return clock() }))

		flowID, err := reg.BeginOTP("7", "Bob", "bob@example.com", "SECRETKEY")
		require.NoError(t, err)

		now = now.Add(registry.DefaultTTL)
		_, ok := reg.ResolveOTP(flowID)
		assert.True(t, ok)
	})
}

func TestPeekKind(t *testing.T) {
	t.Parallel()

	reg := registry.New()

	state, err := reg.BeginOAuth("42")
	require.NoError(t, err)
	flowID, err := reg.BeginOTP("7", "Bob", "bob@example.com", "SECRETKEY")
	require.NoError(t, err)

	assert.Equal(t, registry.KindOAuth, reg.PeekKind(state))
	assert.Equal(t, registry.KindOTP, reg.PeekKind(flowID))
	assert.Equal(t, registry.KindUnknown, reg.PeekKind("garbage"))

	// Peeking must not consume.
	assert.Equal(t, registry.KindOAuth, reg.PeekKind(state))
	_, ok := reg.ResolveOAuth(state)
	assert.True(t, ok)
}

func TestCapacityEviction(t *testing.T) {
	t.Parallel()

	t.Run("expired entries evicted first", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		clock := func() time.Time { return now }
		reg := registry.New(
			registry.WithCapacity(2),
			registry.WithClock(func() time.Time { return clock() }),
		)

		stale, err := reg.BeginOAuth("1")
		require.NoError(t, err)

		now = now.Add(11 * time.Minute)
		fresh, err := reg.BeginOAuth("2")
		require.NoError(t, err)

		// Registry is at capacity with one expired entry; the next insert
		// must evict the stale one, not the fresh one.
		_, err = reg.BeginOAuth("3")
		require.NoError(t, err)

		assert.Equal(t, registry.KindUnknown, reg.PeekKind(stale))
		assert.Equal(t, registry.KindOAuth, reg.PeekKind(fresh))
		assert.Equal(t, 2, reg.Len())
	})

	t.Run("oldest evicted when nothing expired", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		clock := func() time.Time { return now }
		reg := registry.New(
			registry.WithCapacity(2),
			registry.WithClock(func() time.Time { return clock() }),
		)

		oldest, err := reg.BeginOAuth("1")
		require.NoError(t, err)
		now = now.Add(time.Minute)
		second, err := reg.BeginOTP("2", "Nick", "n@example.com", "S")
		require.NoError(t, err)
		now = now.Add(time.Minute)

		_, err = reg.BeginOAuth("3")
		require.NoError(t, err)

		assert.Equal(t, registry.KindUnknown, reg.PeekKind(oldest))
		assert.Equal(t, registry.KindOTP, reg.PeekKind(second))
		assert.Equal(t, 2, reg.Len())
	})
}

func TestOptionValidation(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { registry.WithTTL(0) })
	assert.Panics(t, func() { registry.WithCapacity(0) })
	assert.Panics(t, func() { registry.WithClock(nil) })
}
