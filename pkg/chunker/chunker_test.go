package chunker

import (
	"testing"

	"github.com/hsn0918/codegraph/pkg/codegraph"
)

func fn(source string) codegraph.Function {
	return codegraph.Function{
		FnID:      "f1",
		Source:    source,
		Start:     0,
		End:       len(source),
		StartLine: 1,
		EndLine:   1 + len(splitLines(source)),
		StartCol:  0,
		EndCol:    0,
	}
}

func TestChunkWithinFunctionBounds(t *testing.T) {
	source := "func a() {\n\treturn 1\n}\n\nfunc b() {\n\treturn 2\n}\n"
	f := fn(source)
	chunks, err := Chunk(f, Config{MaxTokens: 4, MinTokens: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for _, c := range chunks {
		if c.Start < f.Start || c.End > f.End {
			t.Errorf("chunk %+v out of function bounds %v-%v", c, f.Start, f.End)
		}
		if c.Start >= c.End {
			t.Errorf("chunk has non-positive span: %+v", c)
		}
	}
}

func TestChunkMergesBelowMinTokens(t *testing.T) {
	source := "one two three four five six seven\neight"
	f := fn(source)
	chunks, err := Chunk(f, Config{MaxTokens: 40, MinTokens: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected single merged chunk, got %d", len(chunks))
	}
}

func TestChunkEmptySource(t *testing.T) {
	f := fn("")
	chunks, err := Chunk(f, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for empty source, got %d", len(chunks))
	}
}

func TestConfigValidateFloorsAndOrdering(t *testing.T) {
	c := Config{MaxTokens: 5, MinTokens: 100}
	if err := c.Validate(); err == nil {
		t.Error("expected error when minTokens > maxTokens after floor clamping")
	}
}

func TestConfigValidateDefaults(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.MaxTokens != DefaultMaxTokens || c.MinTokens != DefaultMinTokens {
		t.Errorf("expected defaults, got %+v", c)
	}
}

func TestChunkIDFormat(t *testing.T) {
	source := "alpha beta gamma"
	f := fn(source)
	chunks, err := Chunk(f, Config{MaxTokens: 180, MinTokens: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0].ChunkID != "f1:chunk-0" {
		t.Errorf("unexpected chunk id: %+v", chunks)
	}
}
