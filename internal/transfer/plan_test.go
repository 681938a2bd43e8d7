package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanRanges(t *testing.T) {
	tests := []struct {
		name      string
		totalSize uint64
		workers   int
		want      []byteRange
	}{
		{
			name:      "ten bytes across three workers",
			totalSize: 10,
			workers:   3,
			want:      []byteRange{{0, 3}, {4, 7}, {8, 9}},
		},
		{
			name:      "even split",
			totalSize: 100,
			workers:   4,
			want:      []byteRange{{0, 24}, {25, 49}, {50, 74}, {75, 99}},
		},
		{
			name:      "single worker",
			totalSize: 42,
			workers:   1,
			want:      []byteRange{{0, 41}},
		},
		{
			name:      "more workers than bytes",
			totalSize: 2,
			workers:   8,
			want:      []byteRange{{0, 0}, {1, 1}},
		},
		{
			name:      "zero workers clamps to one",
			totalSize: 5,
			workers:   0,
			want:      []byteRange{{0, 4}},
		},
		{
			name:      "zero size",
			totalSize: 0,
			workers:   4,
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, planRanges(tt.totalSize, tt.workers))
		})
	}
}

// Ranges must partition [0, totalSize) exactly: contiguous, non-overlapping,
// ascending.
func TestPlanRangesPartitionInvariant(t *testing.T) {
	sizes := []uint64{1, 2, 7, 10, 1024, 1<<20 + 3, 1<<20 - 1}
	workerCounts := []int{1, 2, 3, 8, 16, 100}

	for _, size := range sizes {
		for _, workers := range workerCounts {
			ranges := planRanges(size, workers)
			require.NotEmpty(t, ranges)
			assert.LessOrEqual(t, len(ranges), workers)

			var next uint64
			for _, rng := range ranges {
				assert.Equal(t, next, rng.start, "size=%d workers=%d", size, workers)
				assert.GreaterOrEqual(t, rng.end, rng.start)
				next = rng.end + 1
			}
			assert.Equal(t, size, next, "union must cover [0, size)")
		}
	}
}
