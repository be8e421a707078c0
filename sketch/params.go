package sketch

// Params holds the five construction parameters of a CooledSketch.
// Immutable once passed to NewCooledSketch.
type Params struct {
	// NB is the number of buckets in the Hot Filter.
	NB int
	// B is the per-bucket capacity.
	B int
	// E is the eviction threshold: the minimum integer-rounded
	// vote/min-count ratio that triggers eviction of a bucket's
	// minimum-frequency entry.
	E int
	// K is the target capacity of the top (largest) KLL compactor.
	K int
	// C is the geometric decay factor shrinking compactor capacities
	// from the top downward. Must satisfy 0.5 < C < 1.
	C float64
}

// DefaultParams returns the parameters used in the worked example of
// spec.md's end-to-end scenarios: a small Hot Filter cooling onto a
// KLL stack with k=10, c=0.6.
func DefaultParams() Params {
	return Params{
		NB: 4,
		B:  2,
		E:  4,
		K:  10,
		C:  0.6,
	}
}

// Validate checks that every parameter is within its documented
// domain, returning an InvalidArgumentError describing the first
// violation found.
func (p Params) Validate() error {
	if p.NB <= 0 {
		return newInvalidArgument("NB must be > 0, got %d", p.NB)
	}
	if p.B <= 0 {
		return newInvalidArgument("B must be > 0, got %d", p.B)
	}
	if p.E <= 0 {
		return newInvalidArgument("E must be > 0, got %d", p.E)
	}
	if p.K <= 0 {
		return newInvalidArgument("K must be > 0, got %d", p.K)
	}
	if !(p.C > 0.5 && p.C < 1) {
		return newInvalidArgument("C must belong to (0.5, 1), got %v", p.C)
	}
	return nil
}
