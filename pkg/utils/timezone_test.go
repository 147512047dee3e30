package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePublishTime(t *testing.T) {
	t.Run("dcard iso", func(t *testing.T) {
		got, ok := ParsePublishTime("2024-03-01T10:20:30.123Z")
		require.True(t, ok)
		assert.Equal(t, time.Date(2024, 3, 1, 10, 20, 30, 123000000, time.UTC), got.UTC())
	})

	t.Run("ptt ansic in taipei", func(t *testing.T) {
		got, ok := ParsePublishTime("Fri Mar  1 18:20:30 2024")
		require.True(t, ok)
		assert.Equal(t, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC), got.UTC())
	})

	t.Run("sql datetime", func(t *testing.T) {
		got, ok := ParsePublishTime("2024-03-01 18:20:30")
		require.True(t, ok)
		assert.Equal(t, 10, got.UTC().Hour())
	})

	t.Run("unparsable", func(t *testing.T) {
		for _, s := range []string{"", "   ", "unknown", "昨天"} {
			_, ok := ParsePublishTime(s)
			assert.False(t, ok, s)
		}
	})
}
