package sketch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitmix64Deterministic(t *testing.T) {
	for _, v := range []uint64{0, 1, 2, 3, 42, 1 << 40} {
		require.Equal(t, splitmix64(v), splitmix64(v), "hash must be a pure function of v")
	}
}

func TestHotFilterBucketIndexDeterministic(t *testing.T) {
	f := newHotFilter(7, 2, 4)
	for _, v := range []uint64{1, 2, 3, 100, 999999} {
		first := f.bucketIndex(v)
		second := f.bucketIndex(v)
		require.Equal(t, first, second)
		require.GreaterOrEqual(t, first, 0)
		require.Less(t, first, 7)
	}
}

// TestHotFilterEvictionScenario2 reproduces spec.md's worked example:
// NB=1, B=1, E=1. Inserting 7 then 9 fills the bucket with 7, then
// the eviction ratio (vote=1, min=1, ratio=1) meets the E=1 threshold
// and 7 is cooled into the KLL with count 1; the bucket ends up
// holding (9, 1).
func TestHotFilterEvictionScenario2(t *testing.T) {
	sk, err := NewCooledSketch(Params{NB: 1, B: 1, E: 1, K: 10, C: 0.6})
	require.NoError(t, err)

	sk.Insert(7)
	sk.Insert(9)

	require.Equal(t, uint64(1), sk.Rank(7))
	require.Equal(t, uint64(2), sk.Rank(9))

	require.Equal(t, []uint64{9}, sk.hot.buckets[0].items)
	require.Equal(t, []uint64{1}, sk.hot.buckets[0].counts)
	require.Equal(t, uint64(0), sk.hot.buckets[0].vote)
}

// TestHotFilterPassThroughScenario3 reproduces spec.md's worked
// example: NB=1, B=1, E=1000. Since the ratio (1) stays below the
// threshold, 9 is cooled directly to the KLL without disturbing the
// bucket, which keeps holding (7, 1).
func TestHotFilterPassThroughScenario3(t *testing.T) {
	sk, err := NewCooledSketch(Params{NB: 1, B: 1, E: 1000, K: 10, C: 0.6})
	require.NoError(t, err)

	sk.Insert(7)
	sk.Insert(9)

	require.Equal(t, uint64(2), sk.Rank(9))
	require.Equal(t, []uint64{7}, sk.hot.buckets[0].items)
	require.Equal(t, []uint64{1}, sk.hot.buckets[0].counts)
	require.Equal(t, uint64(1), sk.hot.buckets[0].vote)
}

func TestBucketInvariantsAfterMixedInserts(t *testing.T) {
	f := newHotFilter(4, 2, 4)
	k := newKLL(10, 0.6)

	for v := uint64(1); v <= 200; v++ {
		f.insert(v, 3, k)
	}

	for i := range f.buckets {
		b := &f.buckets[i]
		require.LessOrEqual(t, len(b.items), b.cap)
		require.Equal(t, len(b.items), len(b.counts))

		seen := map[uint64]bool{}
		for j, v := range b.items {
			require.False(t, seen[v], "duplicate value within a bucket")
			seen[v] = true
			require.GreaterOrEqual(t, b.counts[j], uint64(1))
		}
		if len(b.items) < b.cap {
			require.Equal(t, uint64(0), b.vote)
		}
	}
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{0.4, 0},
		{0.5, 1},
		{1.5, 2},
		{2.5, 3},
		{-0.5, -1},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, roundHalfAwayFromZero(tt.in))
	}
}
