package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduler_NextRun(t *testing.T) {
	scheduler := NewScheduler(nil, "23:00", "America/New_York", zap.NewNop())

	t.Run("Later today when before the slot", func(t *testing.T) {
		// 15 июня 2024, 10:00 EDT
		now := time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC)

		next, err := scheduler.nextRun(now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 6, 16, 3, 0, 0, 0, time.UTC), next.UTC())
	})

	t.Run("Tomorrow when past the slot", func(t *testing.T) {
		// 15 июня 2024, 23:30 EDT
		now := time.Date(2024, 6, 16, 3, 30, 0, 0, time.UTC)

		next, err := scheduler.nextRun(now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 6, 17, 3, 0, 0, 0, time.UTC), next.UTC())
	})

	t.Run("Invalid schedule", func(t *testing.T) {
		broken := NewScheduler(nil, "99:99", "America/New_York", zap.NewNop())

		_, err := broken.nextRun(time.Now())
		assert.Error(t, err)
	})

	t.Run("Invalid timezone", func(t *testing.T) {
		broken := NewScheduler(nil, "23:00", "Atlantis/Sunken_City", zap.NewNop())

		_, err := broken.nextRun(time.Now())
		assert.Error(t, err)
	})
}
