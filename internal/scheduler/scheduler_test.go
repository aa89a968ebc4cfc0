package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextTickAlignment(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "mid bucket waits for the next boundary",
			now:  time.Date(2024, 5, 1, 12, 3, 27, 0, time.UTC),
			want: time.Date(2024, 5, 1, 12, 5, 10, 0, time.UTC),
		},
		{
			name: "just past the boundary fires at second 10",
			now:  time.Date(2024, 5, 1, 12, 5, 2, 0, time.UTC),
			want: time.Date(2024, 5, 1, 12, 5, 10, 0, time.UTC),
		},
		{
			name: "exactly on the tick moves to the next bucket",
			now:  time.Date(2024, 5, 1, 12, 5, 10, 0, time.UTC),
			want: time.Date(2024, 5, 1, 12, 10, 10, 0, time.UTC),
		},
		{
			name: "past second 10 moves to the next bucket",
			now:  time.Date(2024, 5, 1, 12, 5, 11, 0, time.UTC),
			want: time.Date(2024, 5, 1, 12, 10, 10, 0, time.UTC),
		},
		{
			name: "hour boundary",
			now:  time.Date(2024, 5, 1, 12, 59, 59, 0, time.UTC),
			want: time.Date(2024, 5, 1, 13, 0, 10, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextTick(tt.now)
			require.True(t, got.Equal(tt.want), "nextTick(%s) = %s, want %s", tt.now, got, tt.want)
			require.True(t, got.After(tt.now))
		})
	}
}

type countingCollector struct {
	complete bool
	calls    int
}

func (c *countingCollector) Collect(ctx context.Context) error {
	c.calls++
	return nil
}

func (c *countingCollector) BackfillComplete() bool { return c.complete }

func TestTickGatedOnBackfill(t *testing.T) {
	c := &countingCollector{}
	s := New(c)

	s.tick()
	require.Zero(t, c.calls, "tick must not collect before backfill completes")

	c.complete = true
	s.tick()
	require.Equal(t, 1, c.calls)
}
