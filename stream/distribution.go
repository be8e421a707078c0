// Package stream produces synthetic and file-backed value streams for
// exercising a sketch.CooledSketch: value distributions that mimic the
// spec's heavy-tailed workload, and a FASTA/k-mer reader adapted from
// the project's original C++ producer.
package stream

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
)

// DistributionType names a value distribution, generalizing the
// teacher's DistributionType (which picked a file-overlap count) to
// picking a stream value. Kept JSON-roundtrippable the same way: it
// marshals to and from its string name.
type DistributionType int

const (
	DistUniform DistributionType = iota
	DistZipfian
	DistExponential
	DistGeometric
)

func (dt DistributionType) String() string {
	switch dt {
	case DistUniform:
		return "uniform"
	case DistZipfian:
		return "zipfian"
	case DistExponential:
		return "exponential"
	case DistGeometric:
		return "geometric"
	default:
		return fmt.Sprintf("unknown(%d)", int(dt))
	}
}

// ParseDistributionType parses a string into a DistributionType.
func ParseDistributionType(s string) (DistributionType, error) {
	switch s {
	case "uniform":
		return DistUniform, nil
	case "zipfian":
		return DistZipfian, nil
	case "exponential":
		return DistExponential, nil
	case "geometric":
		return DistGeometric, nil
	default:
		return DistZipfian, fmt.Errorf("invalid DistributionType: %s (must be 'uniform', 'zipfian', 'exponential', or 'geometric')", s)
	}
}

func (dt DistributionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(dt.String())
}

func (dt *DistributionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDistributionType(s)
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}

// ValueSource draws values from [0, Max] with replacement, biased
// according to the distribution it implements. Unlike the teacher's
// Distribution (which took the *rand.Rand per call, since it only ever
// needed rng.Intn), a ValueSource owns its generator: Zipfian sampling
// needs a *rand.Zipf built once against a fixed *rand.Rand, not
// reconstructed per draw.
type ValueSource interface {
	Sample() uint64
}

// UniformSource samples uniformly over [0, Max].
type UniformSource struct {
	rng *rand.Rand
	max uint64
}

func (s *UniformSource) Sample() uint64 {
	if s.max == 0 {
		return 0
	}
	return uint64(s.rng.Int63n(int64(s.max) + 1))
}

// ZipfianSource wraps math/rand's Zipf generator: the "small fraction
// of values dominate by frequency" side of spec.md §1's heavy-tailed
// stream description. S > 1 controls skew (closer to 1 is heavier
// tailed); V shifts the distribution's low end.
type ZipfianSource struct {
	z *rand.Zipf
}

// NewZipfianSource requires s > 1 and v >= 1 (math/rand.NewZipf's own
// preconditions). They are not checked here: for other values
// rand.NewZipf returns nil, and Sample on the resulting source panics.
func NewZipfianSource(rng *rand.Rand, s, v float64, max uint64) *ZipfianSource {
	return &ZipfianSource{z: rand.NewZipf(rng, s, v, max)}
}

func (s *ZipfianSource) Sample() uint64 {
	return s.z.Uint64()
}

// ExponentialSource samples with exponential bias toward 0, adapted
// from the teacher's ExponentialDistribution (min/max ints) to a
// uint64 domain anchored at 0.
type ExponentialSource struct {
	rng    *rand.Rand
	lambda float64
	max    uint64
}

func (s *ExponentialSource) Sample() uint64 {
	if s.max == 0 {
		return 0
	}
	u := s.rng.Float64()
	if u == 0 {
		u = 1e-10
	}
	x := -math.Log(u) / s.lambda
	maxVal := 6.0 / s.lambda
	normalized := x / maxVal
	if normalized > 1.0 {
		normalized = 1.0
	}
	return uint64(normalized * float64(s.max))
}

// GeometricSource samples with geometric decay, adapted from the
// teacher's GeometricDistribution.
type GeometricSource struct {
	rng *rand.Rand
	p   float64
	max uint64
}

func (s *GeometricSource) Sample() uint64 {
	if s.max == 0 {
		return 0
	}
	u := s.rng.Float64()
	if u == 0 {
		u = 1e-10
	}
	if u >= 1.0 {
		u = 0.999999
	}
	trials := uint64(0)
	if s.p > 0 && s.p < 1 {
		t := int64(math.Log(1-u) / math.Log(1-s.p))
		if t > 0 {
			trials = uint64(t)
		}
	}
	if trials > s.max {
		trials = s.max
	}
	return trials
}

// NewValueSource builds the ValueSource named by distType, sampling
// over [0, max], driven by rng. s and v are only meaningful for
// DistZipfian (see NewZipfianSource); other distributions ignore them.
func NewValueSource(distType DistributionType, rng *rand.Rand, max uint64, s, v float64) ValueSource {
	switch distType {
	case DistUniform:
		return &UniformSource{rng: rng, max: max}
	case DistZipfian:
		return NewZipfianSource(rng, s, v, max)
	case DistExponential:
		return &ExponentialSource{rng: rng, lambda: 0.5, max: max}
	case DistGeometric:
		return &GeometricSource{rng: rng, p: 0.3, max: max}
	default:
		return &UniformSource{rng: rng, max: max}
	}
}
