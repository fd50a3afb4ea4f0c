package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureLoggerRecordsEntries(t *testing.T) {
	logger, rec := CaptureLogger()

	logger.Debug("first", slog.Int("n", 1))
	logger.Warn("second", slog.String("game", "7"))

	entries := rec.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "DEBUG", entries[0][slog.LevelKey])

	second := rec.Find("second")
	require.NotNil(t, second)
	assert.Equal(t, "WARN", second[slog.LevelKey])
	assert.Equal(t, "7", second["game"])
	assert.Nil(t, rec.Find("missing"))
}
