package core

import (
	"github.com/hsn0918/codegraph/pkg/analysis"
	"github.com/hsn0918/codegraph/pkg/bundle"
	"github.com/hsn0918/codegraph/pkg/candidates"
	"github.com/hsn0918/codegraph/pkg/chunker"
	"github.com/hsn0918/codegraph/pkg/graphbuild"
	"github.com/hsn0918/codegraph/pkg/payload"
)

// RunOptions configures one Core.Run call. Zero values fill in the
// same defaults each component's own Validate() would apply.
type RunOptions struct {
	Dimension  int
	Chunker    chunker.Config
	Candidates candidates.Config
	Bundle     bundle.Config
	Graph      graphbuild.Config
	Analysis   analysis.Options
	Payload    payload.Options

	Model   string
	Backend string
}
