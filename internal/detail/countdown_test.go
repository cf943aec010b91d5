package detail

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeProgress(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		next time.Time
		want Progress
	}{
		{"exactly now is departed", now, Progress{Percent: 100, Departed: true}},
		{"in the past", now.Add(-90 * time.Second), Progress{Percent: 100, Departed: true}},
		{"thirty seconds rounds up", now.Add(30 * time.Second), Progress{Minutes: 1, Percent: 95}},
		{"five minutes", now.Add(5 * time.Minute), Progress{Minutes: 5, Percent: 50}},
		{"ten minutes", now.Add(10 * time.Minute), Progress{Minutes: 10, Percent: 0}},
		{"beyond the window clamps", now.Add(25 * time.Minute), Progress{Minutes: 25, Percent: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeProgress(tt.next, now)
			assert.Equal(t, tt.want.Minutes, got.Minutes)
			assert.Equal(t, tt.want.Departed, got.Departed)
			assert.InDelta(t, tt.want.Percent, got.Percent, 1e-9)
			assert.GreaterOrEqual(t, got.Minutes, 0)
		})
	}
}

func TestParseGTFSTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)

	got, err := parseGTFSTime("08:15:30", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 8, 15, 30, 0, time.UTC), got)

	got, err = parseGTFSTime("24:05:00", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 5, 0, 0, time.UTC), got)

	_, err = parseGTFSTime("soon", now)
	assert.Error(t, err)
}

func TestCountdown_TicksUntilStopped(t *testing.T) {
	var ticks atomic.Int32
	next := time.Now().Add(3 * time.Minute)
	c := NewCountdown(next, 5*time.Millisecond, nil, func(Progress) { ticks.Add(1) })

	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)
	assert.Equal(t, 3, c.Current().Minutes)

	c.Stop()
	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, ticks.Load(), "no tick after Stop returns")

	c.Stop() // idempotent
}

func TestCountdown_Reset(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	got := make(chan Progress, 16)
	c := NewCountdown(now.Add(2*time.Minute), time.Hour, clock, func(p Progress) {
		select {
		case got <- p:
		default:
		}
	})
	defer c.Stop()

	first := <-got
	assert.Equal(t, 2, first.Minutes)

	c.Reset(now)
	assert.True(t, c.Current().Departed)
	select {
	case p := <-got:
		assert.True(t, p.Departed, "reset delivers a fresh tick")
	case <-time.After(time.Second):
		t.Fatal("no tick after Reset")
	}
}
