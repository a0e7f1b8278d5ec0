// SPDX-License-Identifier: MPL-2.0

package discovery

const (
	// DefaultMinDepth is the shallowest level searched; files directly in the root are at depth 1.
	DefaultMinDepth = 1
	// DefaultMaxDepth is the deepest level searched.
	DefaultMaxDepth = 5
)

// DefaultIgnore prunes version control metadata from the walk.
var DefaultIgnore = []string{"**/.git", "**/.hg", "**/.svn"}

type (
	// Option configures a Locator or a Build.
	Option func(*options)

	options struct {
		minDepth int
		maxDepth int
		ignore   []string
		report   func(Diagnostic)
	}
)

func newOptions(opts []Option) options {
	o := options{
		minDepth: DefaultMinDepth,
		maxDepth: DefaultMaxDepth,
		ignore:   DefaultIgnore,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.minDepth < 1 {
		o.minDepth = 1
	}
	if o.maxDepth < o.minDepth {
		o.maxDepth = o.minDepth
	}
	return o
}

// WithDepth sets the inclusive depth bounds. Values below 1 are raised to 1
// and a max below min is raised to min.
func WithDepth(minDepth, maxDepth int) Option {
	return func(o *options) {
		o.minDepth = minDepth
		o.maxDepth = maxDepth
	}
}

// WithIgnore replaces the doublestar patterns, matched against slash
// separated paths relative to the root, of entries the walk skips.
func WithIgnore(patterns ...string) Option {
	return func(o *options) {
		o.ignore = patterns
	}
}

// WithDiagnostics registers a sink for entries skipped during the walk.
func WithDiagnostics(fn func(Diagnostic)) Option {
	return func(o *options) {
		o.report = fn
	}
}
