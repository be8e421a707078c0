package sketch

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

// kll is the Classic KLL compactor stack: a growable stack of sorted
// buffers, level 0 at the top (largest capacity, heaviest weight) and
// level height at the bottom (smallest capacity, weight 1, the
// current insertion point). levels[0] never moves once allocated;
// growth happens by appending new, empty bottom levels.
type kll struct {
	levels      [][]uint64
	k           int
	c           float64
	rng         *rand.Rand
	totalWeight uint64
}

// newKLL constructs an empty KLL stack with a single top-and-bottom
// level. Params must already be validated by the caller.
func newKLL(k int, c float64) *kll {
	return &kll{
		levels: [][]uint64{make([]uint64, 0, capacityForLevel(k, c, 0))},
		k:      k,
		c:      c,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// height is h, the index of the bottom compactor.
func (s *kll) height() int {
	return len(s.levels) - 1
}

// capacityForLevel returns cap(L) = max(2, round(k*c^L)). The
// capacity of a level depends only on its own index, not on the
// current height: level 0 always targets capacity k (c^0 = 1) and
// capacities shrink geometrically for deeper levels. This matches
// the reference implementation's compactorCapacity, which evaluates
// to exactly this once its "distance from the bottom" loop index is
// rewritten in terms of the level's own (fixed) array position; it is
// the form consistent with this sketch's own invariant that level 0
// carries the largest capacity.
func capacityForLevel(k int, c float64, level int) int {
	cap := int(math.Round(float64(k) * math.Pow(c, float64(level))))
	if cap < 2 {
		cap = 2
	}
	return cap
}

func (s *kll) capacity(level int) int {
	return capacityForLevel(s.k, s.c, level)
}

// weight returns the contribution of a single element at level L,
// given the current height h: 2^(h-L).
func weight(h, level int) uint64 {
	return uint64(1) << uint(h-level)
}

// parityBit draws 0 or 1 with probability ~1/2, independently per
// call, from the stack's single long-lived generator. This is the
// correctness-relevant randomness source behind compaction (spec
// §4.1, §9): reseeding per call or drawing from a low-resolution
// clock would bias compactions that land in the same tick.
func (s *kll) parityBit() int {
	return s.rng.Intn(2)
}

// compact walks interior and bottom levels once, bottom-to-top,
// sorting and halving any level that has reached capacity.
// compactLevel always fully drains its source level to empty and
// pushes every survivor up, so a level visited later in the same pass
// correctly sees whatever cascaded into it from below; one pass
// suffices for every level except level 0.
//
// Level 0 has no level above it to drain into, so promote only
// halves it in place. A single bulk InsertMany can push far more
// than capacity(0) elements onto a low-height stack in one call
// (weight is large when height is small), and one halving may not be
// enough to bring it back under capacity. The reference implementation
// handles this by re-checking level 0 after every promotion (its
// compaction loop bound grows along with the height it is walking);
// here that is simply a loop that keeps promoting while level 0 is
// still at or over capacity(0), which never changes with height.
func (s *kll) compact() {
	h := s.height()
	for level := h; level >= 1; level-- {
		if len(s.levels[level]) < s.capacity(level) {
			continue
		}
		s.sortLevel(level)
		s.compactLevel(level)
	}
	for len(s.levels[0]) >= s.capacity(0) {
		s.sortLevel(0)
		s.promote()
	}
}

func (s *kll) sortLevel(level int) {
	sort.Slice(s.levels[level], func(i, j int) bool {
		return s.levels[level][i] < s.levels[level][j]
	})
}

// promote handles overflow of the top level: height grows by one, a
// fresh empty level is appended at the new bottom, and the old top
// (level 0, which has no level above it to send survivors to) is
// halved in place. Its surviving elements automatically double in
// weight because weight is computed from the now-larger height, not
// stored per element.
func (s *kll) promote() {
	survivors := s.halve(s.levels[0])
	s.levels[0] = survivors
	s.levels = append(s.levels, make([]uint64, 0, s.capacity(s.height()+1)))
}

// compactLevel halves an interior (or bottom) level and moves the
// surviving half up into the level above it, clearing this level.
func (s *kll) compactLevel(level int) {
	survivors := s.halve(s.levels[level])
	s.levels[level-1] = append(s.levels[level-1], survivors...)
	s.levels[level] = s.levels[level][:0]
}

// halve keeps every element at even or odd positions (chosen by a
// fresh parity bit) of an already-sorted slice and discards the rest.
func (s *kll) halve(sorted []uint64) []uint64 {
	start := s.parityBit()
	out := make([]uint64, 0, (len(sorted)+1)/2)
	for i := start; i < len(sorted); i += 2 {
		out = append(out, sorted[i])
	}
	return out
}
