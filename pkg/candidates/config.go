package candidates

// Config controls candidate-generation dispatch and the approximate
// random-projection banded LSH path. Defaults and clamp ranges mirror
// spec §4.4 exactly.
type Config struct {
	Approximate          bool
	ApproximateThreshold int // n >= threshold auto-enables approximate; 0 means "never auto-enable"
	CandidateLimit       int

	ProjectionCount  int // P
	BandSize         int // B
	OversampleFactor int // O
	Seed             uint32
}

const (
	DefaultApproximateThreshold = 600
	DefaultCandidateLimit       = 20
	DefaultProjectionCount      = 12
	DefaultBandSize             = 24
	DefaultOversampleFactor     = 2
	DefaultSeed                 = 1337
)

// Validate fills in defaults and clamps to the ranges in spec §4.4's
// configuration table. n is the corpus size, needed to clamp BandSize
// to [1, n-1].
func (c *Config) Validate(n int) {
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = DefaultCandidateLimit
	}
	if c.ProjectionCount <= 0 {
		c.ProjectionCount = DefaultProjectionCount
	}
	if c.ProjectionCount > 64 {
		c.ProjectionCount = 64
	}
	if c.BandSize <= 0 {
		c.BandSize = DefaultBandSize
	}
	if n > 1 && c.BandSize > n-1 {
		c.BandSize = n - 1
	}
	if c.OversampleFactor <= 0 {
		c.OversampleFactor = DefaultOversampleFactor
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	// ApproximateThreshold is intentionally NOT defaulted when the
	// caller explicitly sets it to 0: per spec §9 this means "never
	// auto-enable" and must be honored, not treated as unset.
}

// ShouldUseApproximate implements the §4.4 dispatch rule, including
// the approximateThreshold == 0 "never auto-enable" edge case.
func ShouldUseApproximate(cfg Config, n int) bool {
	if cfg.Approximate {
		return true
	}
	if cfg.ApproximateThreshold == 0 {
		return false
	}
	return n >= cfg.ApproximateThreshold
}
