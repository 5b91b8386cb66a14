package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/hsn0918/codegraph/pkg/bench"
	"github.com/hsn0918/codegraph/pkg/bundle"
	"github.com/hsn0918/codegraph/pkg/candidates"
	"github.com/hsn0918/codegraph/pkg/codegraph"
)

// benchmarkFixture is the on-disk shape --input reads: the same
// FunctionEmbedding set internal/httpapi's benchmark route accepts in
// its request body, so a fixture captured from one surface replays on
// the other.
type benchmarkFixture struct {
	FunctionEmbeddings []codegraph.FunctionEmbedding `json:"functionEmbeddings"`
}

func newBenchmarkSimilarityCmd() *cobra.Command {
	var inputPath string
	var iterations int
	var approxJSON string

	cmd := &cobra.Command{
		Use:   "benchmark-similarity",
		Short: "Benchmark exact vs approximate similarity-edge computation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmarkSimilarity(cmd, inputPath, iterations, approxJSON)
		},
	}
	cmd.Flags().StringVar(&inputPath, "input", "", "path to a JSON fixture of FunctionEmbeddings (required)")
	cmd.Flags().IntVar(&iterations, "iterations", 1, "iterations per approximate variant")
	cmd.Flags().StringVar(&approxJSON, "approx", "", "JSON array of bench.Variant overrides; defaults to one approximate variant")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runBenchmarkSimilarity(cmd *cobra.Command, inputPath string, iterations int, approxJSON string) error {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "❌ reading %s: %v\n", inputPath, err)
		os.Exit(1)
		return nil
	}

	var fixture benchmarkFixture
	if err := sonic.Unmarshal(raw, &fixture); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "❌ parsing %s: %v\n", inputPath, err)
		os.Exit(1)
		return nil
	}

	variants, err := resolveVariants(approxJSON, iterations)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "❌ parsing --approx: %v\n", err)
		os.Exit(1)
		return nil
	}

	report, err := bench.Run(context.Background(), fixture.FunctionEmbeddings, bundle.Config{}, variants)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "❌ benchmark failed: %v\n", err)
		os.Exit(1)
		return nil
	}

	printBenchmarkReport(cmd.OutOrStdout(), report)
	return nil
}

func resolveVariants(approxJSON string, iterations int) ([]bench.Variant, error) {
	if approxJSON == "" {
		return []bench.Variant{{
			Label:      "approximate",
			Config:     candidates.Config{Approximate: true},
			Iterations: iterations,
		}}, nil
	}

	var variants []bench.Variant
	if err := sonic.Unmarshal([]byte(approxJSON), &variants); err != nil {
		return nil, err
	}
	for i := range variants {
		if variants[i].Iterations == 0 {
			variants[i].Iterations = iterations
		}
	}
	return variants, nil
}

func printBenchmarkReport(w io.Writer, report codegraph.BenchmarkReport) {
	fmt.Fprintf(w, "✅ exact baseline: %d edges in %dns\n", report.ExactEdgeCount, report.ExactElapsedNS)
	for _, v := range report.Variants {
		fmt.Fprintf(w, "  - %s: %d edges, precision=%.3f recall=%.3f f1=%.3f jaccard=%.3f speedup=%.2fx\n",
			v.Label, v.EdgeCount, v.Precision, v.Recall, v.F1, v.Jaccard, v.Speedup)
	}
}
