package index

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const bucketMs = 5 * 60 * 1000

func TestGroupRunsContiguous(t *testing.T) {
	missing := []int64{0, bucketMs, 2 * bucketMs}
	runs := groupRuns(missing)
	require.Equal(t, []bucketRun{{startMs: 0, endMs: 2 * bucketMs}}, runs)
}

func TestGroupRunsSplitsOnGap(t *testing.T) {
	missing := []int64{
		0, bucketMs, // first run
		4 * bucketMs,                  // isolated bucket
		10 * bucketMs, 11 * bucketMs, // second run
	}
	runs := groupRuns(missing)
	require.Equal(t, []bucketRun{
		{startMs: 0, endMs: bucketMs},
		{startMs: 4 * bucketMs, endMs: 4 * bucketMs},
		{startMs: 10 * bucketMs, endMs: 11 * bucketMs},
	}, runs)
}

func TestGroupRunsSingleAndEmpty(t *testing.T) {
	require.Nil(t, groupRuns(nil))
	require.Equal(t, []bucketRun{{startMs: bucketMs, endMs: bucketMs}}, groupRuns([]int64{bucketMs}))
}
