package discord_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flipperbot/internal/discord"
	"github.com/dmitrymomot/flipperbot/internal/monitoring"
)

func TestStatusReporterPublish(t *testing.T) {
	t.Parallel()

	t.Run("no status channel configured", func(t *testing.T) {
		t.Parallel()

		gw := newFakeGateway("g1")
		store := newSettings(t, "channels: {}\n")
		r, err := discord.NewStatusReporter(gw, store, monitoring.New(monitoring.WithProbes()))
		require.NoError(t, err)

		r.Publish(context.Background())
		assert.Empty(t, gw.sent)
	})

	t.Run("edits the same message on refresh", func(t *testing.T) {
		t.Parallel()

		gw := newFakeGateway("g1")
		store := newSettings(t, "channels:\n  notifications:\n    status: \"status-chan\"\n")
		r, err := discord.NewStatusReporter(gw, store, monitoring.New(monitoring.WithProbes()))
		require.NoError(t, err)

		r.Publish(context.Background())
		require.Len(t, gw.sent["status-chan"], 1)

		r.Publish(context.Background())
		assert.Len(t, gw.sent["status-chan"], 1, "refresh must edit, not resend")
		assert.Len(t, gw.edits, 1)
	})

	t.Run("resends when the tracked message is gone", func(t *testing.T) {
		t.Parallel()

		gw := newFakeGateway("g1")
		store := newSettings(t, "channels:\n  notifications:\n    status: \"status-chan\"\n")
		r, err := discord.NewStatusReporter(gw, store, monitoring.New(monitoring.WithProbes()))
		require.NoError(t, err)

		r.Publish(context.Background())
		gw.mu.Lock()
		gw.editErr = errors.New("unknown message")
		gw.mu.Unlock()

		r.Publish(context.Background())
		assert.Len(t, gw.sent["status-chan"], 2)
	})
}
