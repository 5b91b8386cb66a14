package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/hsn0918/codegraph/pkg/codegraph"
)

func newValidateNetworkAnalysisCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "validate-network-analysis [payload.json]",
		Short: "Validate a serialized GraphPayload's structural invariants",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var paths []string
			switch {
			case dir != "":
				entries, err := os.ReadDir(dir)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "❌ reading %s: %v\n", dir, err)
					os.Exit(1)
					return nil
				}
				for _, e := range entries {
					if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
						paths = append(paths, filepath.Join(dir, e.Name()))
					}
				}
			case len(args) == 1:
				paths = []string{args[0]}
			default:
				fmt.Fprintln(cmd.ErrOrStderr(), "❌ provide a payload.json path or --dir")
				os.Exit(1)
				return nil
			}

			return runValidateNetworkAnalysis(cmd, paths)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "validate every *.json file in this directory")

	return cmd
}

func runValidateNetworkAnalysis(cmd *cobra.Command, paths []string) error {
	anyFailed := false
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "❌ %s: %v\n", p, err)
			anyFailed = true
			continue
		}

		var graphPayload codegraph.GraphPayload
		if err := sonic.Unmarshal(raw, &graphPayload); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "❌ %s: invalid JSON: %v\n", p, err)
			anyFailed = true
			continue
		}

		issues := validateGraphPayload(graphPayload)
		if len(issues) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is valid\n", p)
			continue
		}

		anyFailed = true
		fmt.Fprintf(cmd.ErrOrStderr(), "❌ %s has validation issues:\n", p)
		for _, issue := range issues {
			fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", issue)
		}
	}

	if anyFailed {
		os.Exit(1)
	}
	return nil
}

// validateGraphPayload checks the structural invariants §8 expects of
// a serialized analysis output: every edge endpoint resolves to a
// node, edge types are one of the two known kinds, similarity values
// stay within [-1,1], and no NaN/Inf leaked through from analysis.
func validateGraphPayload(g codegraph.GraphPayload) []string {
	var issues []string

	nodeIDs := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.FnID == "" {
			issues = append(issues, "node has empty fnId")
			continue
		}
		if nodeIDs[n.FnID] {
			issues = append(issues, fmt.Sprintf("duplicate node fnId %q", n.FnID))
		}
		nodeIDs[n.FnID] = true
	}

	for i, e := range g.Edges {
		if !nodeIDs[e.Source] {
			issues = append(issues, fmt.Sprintf("edge[%d] source %q has no matching node", i, e.Source))
		}
		if !nodeIDs[e.Target] {
			issues = append(issues, fmt.Sprintf("edge[%d] target %q has no matching node", i, e.Target))
		}
		if e.Type != codegraph.EdgeTypeCall && e.Type != codegraph.EdgeTypeSimilarity {
			issues = append(issues, fmt.Sprintf("edge[%d] has unknown type %q", i, e.Type))
		}
		if e.Type == codegraph.EdgeTypeSimilarity && (e.Similarity < -1 || e.Similarity > 1) {
			issues = append(issues, fmt.Sprintf("edge[%d] similarity %f out of [-1,1]", i, e.Similarity))
		}
		if math.IsNaN(e.Similarity) || math.IsInf(e.Similarity, 0) {
			issues = append(issues, fmt.Sprintf("edge[%d] similarity is NaN/Inf", i))
		}
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
			issues = append(issues, fmt.Sprintf("edge[%d] weight is NaN/Inf", i))
		}
	}

	return issues
}
