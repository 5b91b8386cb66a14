// Command codegraph is the CLI surface from §4.15/§6: benchmark and
// validation tools built on spf13/cobra, the CLI library
// Tejas242-sift, ehrlich-b-wingthing, and vvoland-cagent all converge
// on across the retrieval pack.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "codegraph",
		Short: "Benchmark and validation tools for the codegraph similarity pipeline",
	}

	root.AddCommand(newBenchmarkSimilarityCmd())
	root.AddCommand(newValidateParserOutputCmd())
	root.AddCommand(newValidateNetworkAnalysisCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
