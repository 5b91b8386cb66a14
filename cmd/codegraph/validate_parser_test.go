package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateParserPayloadAcceptsWellFormedPayload(t *testing.T) {
	raw := []byte(`{"functions":[
		{"fn_id":"a","name":"a","filePath":"a.go","lang":"go","startLine":1,"endLine":2},
		{"fn_id":"b","name":"b","filePath":"a.go","lang":"go","startLine":3,"endLine":4}
	]}`)
	issues, err := validateParserPayload(raw, false)
	require.NoError(t, err)
	require.Empty(t, issues)
}

func TestValidateParserPayloadCatchesMissingRequiredFields(t *testing.T) {
	raw := []byte(`{"functions":[{"fn_id":"a"}]}`)
	issues, err := validateParserPayload(raw, false)
	require.NoError(t, err)
	require.NotEmpty(t, issues, "expected issues for missing name/filePath/lang/lines")
}

func TestValidateParserPayloadCatchesDuplicateFnID(t *testing.T) {
	raw := []byte(`{"functions":[
		{"fn_id":"a","name":"a","filePath":"a.go","lang":"go","startLine":1,"endLine":2},
		{"fn_id":"a","name":"a2","filePath":"a.go","lang":"go","startLine":3,"endLine":4}
	]}`)
	issues, err := validateParserPayload(raw, false)
	require.NoError(t, err)
	require.NotEmpty(t, issues, "expected an issue for the duplicate fn_id")
}

func TestValidateParserPayloadCatchesUnresolvedTargetViolation(t *testing.T) {
	raw := []byte(`{
		"functions":[{"fn_id":"a","name":"a","filePath":"a.go","lang":"go","startLine":1,"endLine":2}],
		"callEdges":[{"source":"a","target":"missing","resolutionStatus":"resolved"}]
	}`)
	issues, err := validateParserPayload(raw, false)
	require.NoError(t, err)
	require.NotEmpty(t, issues, "expected an S5 issue: unknown target with resolution.status != unresolved")
}

func TestValidateParserPayloadAllowsUnresolvedTarget(t *testing.T) {
	raw := []byte(`{
		"functions":[{"fn_id":"a","name":"a","filePath":"a.go","lang":"go","startLine":1,"endLine":2}],
		"callEdges":[{"source":"a","target":"missing","resolutionStatus":"unresolved"}]
	}`)
	issues, err := validateParserPayload(raw, false)
	require.NoError(t, err)
	require.Empty(t, issues, "an unresolved call-edge target is exempt from the unknown-fn_id rule")
}

func TestValidateParserPayloadRejectsMalformedJSON(t *testing.T) {
	_, err := validateParserPayload([]byte("not json"), false)
	require.Error(t, err)
}
