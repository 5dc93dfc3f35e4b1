// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package pick

import (
	"net/http"
	"net/url"
	"time"

	"github.com/siemens/proxypick/addr"
	"github.com/siemens/proxypick/probe"
)

// Defaults applied to any option left unset when constructing an Engine.
const (
	// DefaultPingURL is the reference endpoint used to judge proxy
	// reachability unless overridden with [WithPingURL].
	DefaultPingURL = "https://www.google.com"

	// DefaultMaxTimeout is the per-probe budget unless overridden with
	// [WithMaxTimeout].
	DefaultMaxTimeout = probe.DefaultTimeout

	// DefaultVerboseIdentifier prefixes diagnostic log lines unless
	// overridden with [WithVerboseIdentifier].
	DefaultVerboseIdentifier = "proxypick"
)

// Logger is an optional line-oriented diagnostic sink. A nil Logger is a
// no-op, never an error.
type Logger func(format string, args ...interface{})

// options collects the validated engine configuration; no field is ever
// observed in a partially-defaulted state, as New defaults and validates the
// complete set before the Engine comes into existence.
type options struct {
	verbose        bool
	verboseID      string
	maxTimeout     time.Duration
	pingURL        string
	forceRetry     bool
	maxRetryCycles int
	icmpPrecheck   bool
	resolver       addr.Resolver
	logger         Logger
	transport      func(proxy *url.URL) http.RoundTripper
}

// Option can be passed to New when creating new Engine objects.
type Option func(*options)

// WithVerbose enables diagnostic logging of draws, probes, and retry cycles
// through the configured [Logger].
func WithVerbose(verbose bool) Option {
	return func(o *options) {
		o.verbose = verbose
	}
}

// WithVerboseIdentifier sets the prefix identifying this engine instance in
// diagnostic log lines.
func WithVerboseIdentifier(id string) Option {
	return func(o *options) {
		o.verboseID = id
	}
}

// WithMaxTimeout sets the per-probe budget; each connectivity probe must
// fully complete within this duration. The duration must be positive.
func WithMaxTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.maxTimeout = timeout
	}
}

// WithPingURL sets the reference URL probed through each candidate proxy.
// It must be an absolute http(s) URL.
func WithPingURL(pingURL string) Option {
	return func(o *options) {
		o.pingURL = pingURL
	}
}

// WithForceRetry controls the exhaustion recovery policy: when set, an
// engine that has probed every distinct candidate without success clears its
// tested-cache and starts over instead of failing with
// [ErrAllProxiesFailed].
//
// ⚠ With force-retry enabled and no candidate ever succeeding, GetProxy does
// not terminate on its own; bound it with a context deadline or
// [WithMaxRetryCycles].
func WithForceRetry(forceRetry bool) Option {
	return func(o *options) {
		o.forceRetry = forceRetry
	}
}

// WithMaxRetryCycles bounds the number of full-retry cycles run under
// [WithForceRetry] before GetProxy gives up with [ErrAllProxiesFailed]. Zero
// (the default) means unlimited cycles. Negative values are a configuration
// error.
func WithMaxRetryCycles(cycles int) Option {
	return func(o *options) {
		o.maxRetryCycles = cycles
	}
}

// WithICMPPrecheck enables the prober's ICMP reachability precheck of proxy
// hosts, fast-failing proxies on unreachable hosts.
func WithICMPPrecheck() Option {
	return func(o *options) {
		o.icmpPrecheck = true
	}
}

// WithResolver sets the DNS resolver used for candidates whose host part is
// a hostname instead of an IPv4 literal. Without this option the engine
// creates its own resolver pool talking to the system's configured
// nameserver, shut down again by [Engine.Close].
func WithResolver(resolver addr.Resolver) Option {
	return func(o *options) {
		o.resolver = resolver
	}
}

// WithLogger sets the diagnostic sink invoked (only in verbose operation)
// with the verbose identifier prefix. A nil logger is a no-op.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTransport overrides how probes build the HTTP transport for a given
// proxy URL. Intended for tests.
func WithTransport(factory func(proxy *url.URL) http.RoundTripper) Option {
	return func(o *options) {
		o.transport = factory
	}
}
