package store

import "testing"

func TestFileIDForMatchesByPath(t *testing.T) {
	files := []FileRecord{
		{FileID: "f1", Path: "a.go"},
		{FileID: "f2", Path: "b.go"},
	}
	if got := fileIDFor(files, "b.go"); got != "f2" {
		t.Errorf("expected f2, got %q", got)
	}
	if got := fileIDFor(files, "missing.go"); got != "" {
		t.Errorf("expected empty string for unknown path, got %q", got)
	}
}
