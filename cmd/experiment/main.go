// Command experiment reruns the accuracy/memory comparison
// estimar_distribucion.cpp performs: read a dataset of (value, count)
// pairs (either a CSV of precomputed k-mer frequencies, or a directory
// of FASTA files to count directly), insert it into a sketch.CooledSketch,
// and write the two comparison CSVs experiments.hpp produces.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/cooledkll/cooledkll/experiment"
	"github.com/cooledkll/cooledkll/sketch"
	"github.com/cooledkll/cooledkll/stream"
)

func main() {
	kmersCSV := flag.String("kmers-csv", "", "path to a kmer,frequency CSV (mutually exclusive with -kmers-dir)")
	kmersDir := flag.String("kmers-dir", "", "directory of FASTA files to count canonical k-mers from (mutually exclusive with -kmers-csv)")
	k := flag.Int("k", 21, "k-mer length, used only with -kmers-dir")
	paramsConfig := flag.String("params-config", "", "path to a JSON file overriding the default sketch.Params")
	nb := flag.Int("nb", 0, "Hot Filter bucket count (0 = use default or -params-config)")
	b := flag.Int("b", 0, "Hot Filter per-bucket capacity (0 = use default or -params-config)")
	e := flag.Int("e", 0, "Hot Filter eviction threshold (0 = use default or -params-config)")
	compactorSize := flag.Int("compactor-size", 0, "KLL top compactor capacity (0 = use default or -params-config)")
	compressionFactor := flag.Float64("compression-factor", 0, "KLL geometric decay factor (0 = use default or -params-config)")
	step := flag.Float64("quantile-step", 0.001, "delta increment for the per-quantile accuracy table")
	outputPrefix := flag.String("output", "experiment", "prefix for the two output CSV files (<prefix>_distribution.csv, <prefix>_memory.csv)")
	flag.Parse()

	if (*kmersCSV == "") == (*kmersDir == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -kmers-csv or -kmers-dir must be given")
		flag.Usage()
		os.Exit(1)
	}

	params := sketch.DefaultParams()
	if *paramsConfig != "" {
		data, err := os.ReadFile(*paramsConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading params config: %v\n", err)
			os.Exit(1)
		}
		if err := json.Unmarshal(data, &params); err != nil {
			fmt.Fprintf(os.Stderr, "error parsing params config JSON: %v\n", err)
			os.Exit(1)
		}
	}
	if *nb > 0 {
		params.NB = *nb
	}
	if *b > 0 {
		params.B = *b
	}
	if *e > 0 {
		params.E = *e
	}
	if *compactorSize > 0 {
		params.K = *compactorSize
	}
	if *compressionFactor > 0 {
		params.C = *compressionFactor
	}
	if err := params.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid sketch parameters: %v\n", err)
		os.Exit(1)
	}

	var samples []experiment.Sample
	var err error
	if *kmersCSV != "" {
		fmt.Fprintf(os.Stderr, "reading k-mer frequencies from %s\n", *kmersCSV)
		samples, err = readKmerCSV(*kmersCSV)
	} else {
		fmt.Fprintf(os.Stderr, "counting canonical %d-mers under %s\n", *k, *kmersDir)
		samples, err = countKmerDir(*kmersDir, *k)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading k-mer data: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "running experiment over %d unique values (NB=%d B=%d E=%d K=%d C=%v)\n",
		len(samples), params.NB, params.B, params.E, params.K, params.C)

	result, err := experiment.Run(samples, params, *step)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running experiment: %v\n", err)
		os.Exit(1)
	}

	distPath := *outputPrefix + "_distribution.csv"
	distFile, err := os.Create(distPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating %s: %v\n", distPath, err)
		os.Exit(1)
	}
	defer distFile.Close()
	if err := experiment.WriteQuantileCSV(distFile, result.Quantiles); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", distPath, err)
		os.Exit(1)
	}

	memPath := *outputPrefix + "_memory.csv"
	memFile, err := os.Create(memPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating %s: %v\n", memPath, err)
		os.Exit(1)
	}
	defer memFile.Close()
	if err := experiment.WriteMemoryCSV(memFile, result.Memory); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", memPath, err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "wrote %s and %s\n", distPath, memPath)
}

// readKmerCSV reads a "kmer,frequency" CSV with a header line, the
// same format leerKmers parses in estimar_distribucion.cpp.
func readKmerCSV(path string) ([]experiment.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return nil, nil
	}

	samples := make([]experiment.Sample, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 2 {
			continue
		}
		value, err := strconv.ParseUint(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid kmer value %q: %w", rec[0], err)
		}
		count, err := strconv.ParseUint(rec[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid kmer frequency %q: %w", rec[1], err)
		}
		samples = append(samples, experiment.Sample{Value: value, Count: count})
	}
	return samples, nil
}

// countKmerDir counts canonical k-mers across every FASTA file in dir.
func countKmerDir(dir string, k int) ([]experiment.Sample, error) {
	reader, err := stream.NewKmerReader(k)
	if err != nil {
		return nil, err
	}
	counts, err := reader.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	samples := make([]experiment.Sample, len(counts))
	for i, c := range counts {
		samples[i] = experiment.Sample{Value: c.Value, Count: c.Count}
	}
	return samples, nil
}
