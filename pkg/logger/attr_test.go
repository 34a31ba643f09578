package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/flipperbot/pkg/logger"
)

func TestError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns empty attr", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, slog.Attr{}, logger.Error(nil))
	})

	t.Run("non-nil error is recorded under error key", func(t *testing.T) {
		t.Parallel()
		err := errors.New("boom")
		attr := logger.Error(err)
		assert.Equal(t, "error", attr.Key)
		assert.Equal(t, err, attr.Value.Any())
	})
}

func TestRedacted(t *testing.T) {
	t.Parallel()

	t.Run("long values are truncated with ellipsis", func(t *testing.T) {
		t.Parallel()
		attr := logger.Redacted("state", "abcdefghijklmnop")
		assert.Equal(t, "abcdefgh...", attr.Value.String())
	})

	t.Run("short values pass through", func(t *testing.T) {
		t.Parallel()
		attr := logger.Redacted("state", "abc")
		assert.Equal(t, "abc", attr.Value.String())
	})
}

func TestTypedAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "component", logger.Component("msauth").Key)
	assert.Equal(t, "flow_id", logger.FlowID("f-123").Key)
	assert.Equal(t, slog.Attr{}, logger.FlowID(""))
	assert.Equal(t, slog.Attr{}, logger.UserID(nil))
	assert.Equal(t, "user_id", logger.UserID("42").Key)
	assert.Equal(t, slog.Attr{}, logger.GuildID(nil))
}
