package jwtx_test

import (
	"testing"
	"time"

	"github.com/classtrack/gatehouse/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestReplayMonitor(t *testing.T) {
	t.Run("counts uses per token id", func(t *testing.T) {
		clock := newFakeClock()
		m := jwtx.NewReplayMonitor(jwtx.ReplayMonitorConfig{Now: clock.Now})

		for range 3 {
			m.RecordUse("jti-1")
		}
		m.RecordUse("jti-2")

		require.Equal(t, 3, m.Count("jti-1"))
		require.Equal(t, 1, m.Count("jti-2"))
		require.Equal(t, 0, m.Count("jti-3"))
	})

	t.Run("signals on crossing the high-water mark", func(t *testing.T) {
		clock := newFakeClock()

		var suspectJTI string
		var suspectCount int
		m := jwtx.NewReplayMonitor(jwtx.ReplayMonitorConfig{
			HighWater: 5,
			Now:       clock.Now,
			OnSuspect: func(jti string, count int) {
				suspectJTI = jti
				suspectCount = count
			},
		})

		for range 4 {
			m.RecordUse("hot-token")
		}
		require.Empty(t, suspectJTI)

		m.RecordUse("hot-token")
		require.Equal(t, "hot-token", suspectJTI)
		require.Equal(t, 5, suspectCount)
	})

	t.Run("forget drops the counter", func(t *testing.T) {
		m := jwtx.NewReplayMonitor(jwtx.ReplayMonitorConfig{})

		m.RecordUse("jti-1")
		m.Forget("jti-1")
		require.Equal(t, 0, m.Count("jti-1"))
	})

	t.Run("sweep drops idle counters only", func(t *testing.T) {
		clock := newFakeClock()
		m := jwtx.NewReplayMonitor(jwtx.ReplayMonitorConfig{
			Staleness: time.Hour,
			Now:       clock.Now,
		})

		m.RecordUse("old")
		clock.Advance(45 * time.Minute)
		m.RecordUse("fresh")
		clock.Advance(30 * time.Minute)

		require.Equal(t, 1, m.Sweep())
		require.Equal(t, 0, m.Count("old"))
		require.Equal(t, 1, m.Count("fresh"))
	})

	t.Run("ignores empty token ids", func(t *testing.T) {
		m := jwtx.NewReplayMonitor(jwtx.ReplayMonitorConfig{})
		m.RecordUse("")
		require.Equal(t, 0, m.Sweep())
	})
}
