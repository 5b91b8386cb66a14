// Package payload implements C8: structural/semantic validation and
// merging of the parser payload and the embeddings payload into one
// normalized record. Validation never throws — violations accumulate
// into ValidationIssue records, matching the discipline of the
// teacher's pkg/middleware/validator.go (collect, format, never panic)
// generalized away from protobuf/connect onto plain JSON payloads.
package payload

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/hsn0918/codegraph/pkg/codegraph"
)

// Options controls strictness. Non-strict is the default; strict mode
// additionally rejects unknown top-level keys.
type Options struct {
	Strict bool
}

var parserPayloadKeys = map[string]bool{"functions": true, "callEdges": true, "stats": true, "symbolTables": true}
var embeddingsPayloadKeys = map[string]bool{"similarityEdges": true, "metadata": true, "stats": true}

func checkUnknownKeys(raw []byte, known map[string]bool, path string) ([]codegraph.ValidationIssue, error) {
	var asMap map[string]json.RawMessage
	if err := sonic.Unmarshal(raw, &asMap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", codegraph.ErrInvalidPayload, path, err)
	}
	var issues []codegraph.ValidationIssue
	for key := range asMap {
		if !known[key] {
			issues = append(issues, codegraph.ValidationIssue{Path: path + "." + key, Message: "unknown top-level key in strict mode"})
		}
	}
	return issues, nil
}

// DecodeParserPayload decodes raw JSON via sonic, matching the
// teacher's JSON codec choice throughout pkg/redis/json.go and
// pkg/clients/embedding/client.go. In strict mode, unknown top-level
// keys are reported as issues rather than silently ignored.
func DecodeParserPayload(raw []byte, opts Options) (codegraph.ParserPayload, []codegraph.ValidationIssue, error) {
	var p codegraph.ParserPayload
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return p, nil, fmt.Errorf("%w: decode parser payload: %v", codegraph.ErrInvalidPayload, err)
	}
	if !opts.Strict {
		return p, nil, nil
	}
	issues, err := checkUnknownKeys(raw, parserPayloadKeys, "parserPayload")
	return p, issues, err
}

// DecodeEmbeddingsPayload decodes raw JSON into an EmbeddingsPayload,
// applying the same strict-mode unknown-key check.
func DecodeEmbeddingsPayload(raw []byte, opts Options) (codegraph.EmbeddingsPayload, []codegraph.ValidationIssue, error) {
	var p codegraph.EmbeddingsPayload
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return p, nil, fmt.Errorf("%w: decode embeddings payload: %v", codegraph.ErrInvalidPayload, err)
	}
	if !opts.Strict {
		return p, nil, nil
	}
	issues, err := checkUnknownKeys(raw, embeddingsPayloadKeys, "embeddingsPayload")
	return p, issues, err
}

// ValidateAndMerge applies the §4.8 rules and normalizes both payloads
// into one MergedPayload. It never returns an error for malformed
// input — violations are returned as issues, and the merge proceeds
// on whatever is structurally usable.
func ValidateAndMerge(parser codegraph.ParserPayload, embeddings codegraph.EmbeddingsPayload, opts Options) (codegraph.MergedPayload, []codegraph.ValidationIssue) {
	var issues []codegraph.ValidationIssue

	if len(parser.Functions) == 0 {
		issues = append(issues, codegraph.ValidationIssue{Path: "functions", Message: "functions is required and must be non-empty"})
	}

	seen := make(map[string]bool, len(parser.Functions))
	for i, fn := range parser.Functions {
		path := fmt.Sprintf("functions[%d]", i)
		if fn.FnID == "" {
			issues = append(issues, codegraph.ValidationIssue{Path: path + ".id", Message: "id is required"})
		}
		if fn.Name == "" {
			issues = append(issues, codegraph.ValidationIssue{Path: path + ".name", Message: "name is required"})
		}
		if fn.FilePath == "" {
			issues = append(issues, codegraph.ValidationIssue{Path: path + ".filePath", Message: "filePath is required"})
		}
		if fn.Lang == "" {
			issues = append(issues, codegraph.ValidationIssue{Path: path + ".lang", Message: "lang is required"})
		}
		if fn.StartLine == 0 && fn.EndLine == 0 {
			issues = append(issues, codegraph.ValidationIssue{Path: path, Message: "startLine/endLine are required"})
		}
		if fn.FnID != "" {
			if seen[fn.FnID] {
				issues = append(issues, codegraph.ValidationIssue{Path: path + ".id", Message: "duplicate fn_id: " + fn.FnID})
			}
			seen[fn.FnID] = true
		}
	}

	for i, ce := range parser.CallEdges {
		path := fmt.Sprintf("callEdges[%d]", i)
		if !seen[ce.Source] {
			issues = append(issues, codegraph.ValidationIssue{Path: path + ".source", Message: "unknown fn_id: " + ce.Source})
		}
		if !seen[ce.Target] && ce.ResolutionStatus != codegraph.ResolutionUnresolved {
			issues = append(issues, codegraph.ValidationIssue{Path: path + ".target", Message: "unknown fn_id and resolution.status is not unresolved: " + ce.Target})
		}
	}

	for i, se := range embeddings.SimilarityEdges {
		path := fmt.Sprintf("similarityEdges[%d]", i)
		if se.Source == se.Target {
			issues = append(issues, codegraph.ValidationIssue{Path: path, Message: "source and target must be distinct"})
		}
		if !seen[se.Source] {
			issues = append(issues, codegraph.ValidationIssue{Path: path + ".source", Message: "unknown fn_id: " + se.Source})
		}
		if !seen[se.Target] {
			issues = append(issues, codegraph.ValidationIssue{Path: path + ".target", Message: "unknown fn_id: " + se.Target})
		}
		if se.Similarity < -1 || se.Similarity > 1 {
			issues = append(issues, codegraph.ValidationIssue{Path: path + ".similarity", Message: "similarity must be within [-1,1]"})
		}
	}

	merged := codegraph.MergedPayload{
		Functions:       parser.Functions,
		CallEdges:       parser.CallEdges,
		SimilarityEdges: embeddings.SimilarityEdges,
		Extras:          map[string]any{},
	}
	if parser.Stats != nil {
		merged.Extras["parserStats"] = parser.Stats
	}
	if parser.SymbolTables != nil {
		merged.Extras["symbolTables"] = parser.SymbolTables
	}
	if embeddings.Metadata != nil {
		merged.Extras["embeddingsMetadata"] = embeddings.Metadata
	}
	if embeddings.Stats != nil {
		merged.Extras["embeddingsStats"] = embeddings.Stats
	}

	return merged, issues
}
