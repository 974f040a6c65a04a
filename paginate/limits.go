package paginate

// Limits is the per-resource page size configuration. Requests above
// Max are clamped, never rejected; requests without an explicit size
// get Default.
type Limits struct {
	Default int `yaml:"default"`
	Max     int `yaml:"max"`
}

// DefaultLimits is used when no per-resource configuration applies.
var DefaultLimits = Limits{Default: 25, Max: 1000}

// Clamp resolves a requested page size against the limits.
func (l Limits) Clamp(requested int) int {
	def, max := l.Default, l.Max
	if def <= 0 {
		def = DefaultLimits.Default
	}
	if max <= 0 {
		max = DefaultLimits.Max
	}
	switch {
	case requested <= 0:
		return def
	case requested > max:
		return max
	default:
		return requested
	}
}
