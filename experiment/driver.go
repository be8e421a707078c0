// Package experiment reproduces the accuracy/memory comparison the
// original CooledKLL project ran over k-mer frequency data
// (include/experiments.hpp's frequencyExperiments/kmersExperiments):
// insert a known dataset into a sketch.CooledSketch, compare its
// rank/quantile answers against the exact ground truth computed from
// the raw data, and report how much smaller the sketch is than the
// data it approximates.
package experiment

import (
	"math"
	"sort"

	"github.com/cooledkll/cooledkll/sketch"
)

// Sample is one (value, multiplicity) input record: a k-mer's
// canonical encoding and how many times it was observed, or any other
// source of (uint64, uint64) pairs the core treats as an opaque value
// stream (spec.md §6).
type Sample struct {
	Value uint64
	Count uint64
}

// QuantileRow is one line of the per-delta accuracy report: the
// ground truth quantile/rank at delta, beside the sketch's estimate
// of the same pair, matching experiments.hpp's CSV columns exactly
// (quantile,real_quantile,estimated_quantile,rank,real_rank,estimated_rank).
type QuantileRow struct {
	Delta             float64
	RealQuantile      uint64
	EstimatedQuantile uint64
	Rank              uint64
	RealRank          uint64
	EstimatedRank     uint64
}

// MemoryRow is the one-row memory comparison, matching
// experiments.hpp's second CSV
// (elements,unique_elements,sketch_memory,vector_memory,compressed_vector_memory,n_buckets,b_capacity,comp_size,comp_factor).
type MemoryRow struct {
	Elements              uint64
	UniqueElements        uint64
	SketchMemoryBytes     uint64
	VectorMemoryBytes     uint64
	CompressedVectorBytes uint64
	NBuckets              int
	BucketCapacity        int
	CompactorSize         int
	CompressionFactor     float64
}

// Result is the full output of a Run: the accuracy table and the
// memory comparison row.
type Result struct {
	Quantiles []QuantileRow
	Memory    MemoryRow
}

// Run treats samples as a run-length-encoded multiset (it never
// expands them), computes exact quantiles/ranks at every multiple of
// step in [0,1],
// inserts the same data into a fresh sketch built from params, and
// compares. It mirrors frequencyExperiments/kmersExperiments: the
// samples are sorted by value first (so "quantile" and "rank" track
// the value's own magnitude, exactly as the original's
// std::sort-by-second then walk-by-index does).
func Run(samples []Sample, params sketch.Params, step float64) (*Result, error) {
	if step <= 0 || step > 1 {
		return nil, newInvalidArgument("step must be in (0, 1], got %v", step)
	}

	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })

	total := uint64(0)
	for _, s := range sorted {
		total += s.Count
	}

	sk, err := sketch.NewCooledSketch(params)
	if err != nil {
		return nil, err
	}
	for _, s := range sorted {
		sk.InsertMany(s.Value, s.Count)
	}

	var rows []QuantileRow
	for delta := 0.0; delta <= 1.0000001; delta += step {
		d := delta
		if d > 1 {
			d = 1
		}
		realQuantile, realRank := realQuantileAndRank(sorted, total, d)

		estimatedQuantile, err := sk.Quantile(d)
		if err != nil {
			return nil, err
		}
		estimatedRank := sk.Rank(realQuantile)

		rows = append(rows, QuantileRow{
			Delta:             d,
			RealQuantile:      realQuantile,
			EstimatedQuantile: estimatedQuantile,
			Rank:              realQuantile,
			RealRank:          realRank,
			EstimatedRank:     estimatedRank,
		})
	}

	// The raw vector would store total elements as 8-byte values; the
	// run-length-encoded form stores one (value, count) pair per
	// unique value instead (16 bytes each). Samples are already
	// aggregated per unique value, so len(sorted) is that RLE length
	// directly — no separate compression pass is needed.
	vectorMemory := total * 8
	compressedMemory := uint64(len(sorted)) * 16

	mem := MemoryRow{
		Elements:              total,
		UniqueElements:        uint64(len(sorted)),
		SketchMemoryBytes:     sk.Memory(),
		VectorMemoryBytes:     vectorMemory,
		CompressedVectorBytes: compressedMemory,
		NBuckets:              params.NB,
		BucketCapacity:        params.B,
		CompactorSize:         params.K,
		CompressionFactor:     params.C,
	}

	return &Result{Quantiles: rows, Memory: mem}, nil
}

// realQuantileAndRank finds the exact value at position
// ceil(total*delta) of the expanded, value-sorted multiset (without
// materializing it), and the rank (1-based count of elements <= that
// value) at the end of its run of equal values, the same two-pass walk
// experiments.hpp does over its std::sort'd vector.
func realQuantileAndRank(sorted []Sample, total uint64, delta float64) (uint64, uint64) {
	if total == 0 {
		return 0, 0
	}
	target := uint64(math.Ceil(float64(total) * delta))
	if target == 0 {
		target = 1
	}
	if target > total {
		target = total
	}

	var cumulative uint64
	for _, s := range sorted {
		cumulative += s.Count
		if cumulative >= target {
			return s.Value, cumulative
		}
	}
	last := sorted[len(sorted)-1]
	return last.Value, total
}
