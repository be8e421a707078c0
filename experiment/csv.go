package experiment

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteQuantileCSV writes the per-delta accuracy table in the exact
// column order experiments.hpp's frequencyExperiments/kmersExperiments
// write to <k>mers_distribution.csv.
func WriteQuantileCSV(w io.Writer, rows []QuantileRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"quantile", "real_quantile", "estimated_quantile", "rank", "real_rank", "estimated_rank"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{
			strconv.FormatFloat(r.Delta, 'g', -1, 64),
			strconv.FormatUint(r.RealQuantile, 10),
			strconv.FormatUint(r.EstimatedQuantile, 10),
			strconv.FormatUint(r.Rank, 10),
			strconv.FormatUint(r.RealRank, 10),
			strconv.FormatUint(r.EstimatedRank, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return cw.Error()
}

// WriteMemoryCSV writes the single-row memory comparison, matching
// experiments.hpp's <k>mers_memory.csv column order.
func WriteMemoryCSV(w io.Writer, m MemoryRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"elements", "unique_elements", "sketch_memory", "vector_memory",
		"compressed_vector_memory", "n_buckets", "b_capacity", "comp_size", "comp_factor",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := []string{
		strconv.FormatUint(m.Elements, 10),
		strconv.FormatUint(m.UniqueElements, 10),
		strconv.FormatUint(m.SketchMemoryBytes, 10),
		strconv.FormatUint(m.VectorMemoryBytes, 10),
		strconv.FormatUint(m.CompressedVectorBytes, 10),
		strconv.Itoa(m.NBuckets),
		strconv.Itoa(m.BucketCapacity),
		strconv.Itoa(m.CompactorSize),
		strconv.FormatFloat(m.CompressionFactor, 'g', -1, 64),
	}
	return cw.Write(record)
}
