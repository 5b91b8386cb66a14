package config

import "testing"

func TestValidateAppliesDefaults(t *testing.T) {
	c := &Config{Database: DatabaseConfig{Dimension: 768}}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Graph.MaxNeighbors != 8 {
		t.Errorf("expected default maxNeighbors=8, got %d", c.Graph.MaxNeighbors)
	}
	if c.Graph.SimilarityThreshold != 0.65 {
		t.Errorf("expected default similarityThreshold=0.65, got %v", c.Graph.SimilarityThreshold)
	}
	if c.Chunker.MaxTokens != 180 || c.Chunker.MinTokens != 60 {
		t.Errorf("expected chunker defaults 180/60, got %+v", c.Chunker)
	}
}

func TestValidateApproximateThresholdZeroIsPreserved(t *testing.T) {
	c := &Config{Database: DatabaseConfig{Dimension: 4}, Graph: GraphConfig{ApproximateThreshold: 0}}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Graph.ApproximateThreshold != 0 {
		t.Errorf("expected approximateThreshold to remain 0 (never auto-enable), got %d", c.Graph.ApproximateThreshold)
	}
}

func TestValidateRejectsChunkerMinGreaterThanMax(t *testing.T) {
	c := &Config{Database: DatabaseConfig{Dimension: 4}, Chunker: ChunkerConfig{MaxTokens: 50, MinTokens: 100}}
	if err := c.Validate(); err == nil {
		t.Error("expected error when minTokens > maxTokens")
	}
}

func TestValidateRejectsNonPositiveDimension(t *testing.T) {
	c := &Config{}
	if err := c.Validate(); err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestValidateRejectsOutOfRangeThreshold(t *testing.T) {
	c := &Config{Database: DatabaseConfig{Dimension: 4}, Graph: GraphConfig{SimilarityThreshold: 2}}
	if err := c.Validate(); err == nil {
		t.Error("expected error for out-of-range similarityThreshold")
	}
}
