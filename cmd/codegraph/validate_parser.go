package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hsn0918/codegraph/pkg/codegraph"
	"github.com/hsn0918/codegraph/pkg/payload"
)

func newValidateParserOutputCmd() *cobra.Command {
	var strict bool
	var inputPath string

	cmd := &cobra.Command{
		Use:   "validate-parser-output",
		Short: "Validate a parser-payload JSON document against the §3 shape",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateParserOutput(cmd, strict, inputPath)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "reject unknown top-level keys")
	cmd.Flags().StringVar(&inputPath, "input", "-", "path to the parser-payload JSON, or - for stdin")

	return cmd
}

func runValidateParserOutput(cmd *cobra.Command, strict bool, inputPath string) error {
	raw, err := readInput(inputPath, cmd.InOrStdin())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "❌ reading %s: %v\n", inputPath, err)
		os.Exit(1)
		return nil
	}

	issues, err := validateParserPayload(raw, strict)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "❌ decoding parser payload: %v\n", err)
		os.Exit(1)
		return nil
	}

	if len(issues) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "✅ parser payload is valid")
		return nil
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "❌ parser payload has validation issues:")
	for _, issue := range issues {
		fmt.Fprintf(cmd.ErrOrStderr(), "  - %s: %s\n", issue.Path, issue.Message)
	}
	os.Exit(1)
	return nil
}

// validateParserPayload decodes raw against the §3 wire shape, then
// runs the §4.8 semantic rules (required fields, unique fn_id, and the
// S5 unresolved-target exemption) via ValidateAndMerge with an empty
// embeddings payload, so only the parser-side rules apply.
// DecodeParserPayload alone only checks shape and, in strict mode,
// unknown top-level keys — it never enforces S5 on its own.
func validateParserPayload(raw []byte, strict bool) ([]codegraph.ValidationIssue, error) {
	parser, issues, err := payload.DecodeParserPayload(raw, payload.Options{Strict: strict})
	if err != nil {
		return nil, err
	}
	_, mergeIssues := payload.ValidateAndMerge(parser, codegraph.EmbeddingsPayload{}, payload.Options{Strict: strict})
	return append(issues, mergeIssues...), nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
