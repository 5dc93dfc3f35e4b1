// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package pick

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/siemens/proxypick/addr"
	"github.com/siemens/proxypick/probe"
	"github.com/siemens/proxypick/resolve"
	"github.com/siemens/proxypick/types"
)

// systemResolverPoolSize limits the DNS connections of an engine-owned
// resolver pool.
const systemResolverPoolSize = 2

// Engine selects a working proxy from a list of raw candidate strings by
// probing randomly drawn, yet-untested candidates against the reference URL
// until one succeeds, caching failed candidates (by their normalized form)
// so they are not retried within the same exhaustion cycle.
//
// An Engine is a single logical thread of control: its operations never run
// internally in parallel and must not be called concurrently from multiple
// goroutines. Callers either serialize calls to a single instance or
// construct separate instances for concurrent use; there is consequently no
// lock anywhere in the Engine.
type Engine struct {
	opts       options
	candidates []string                   // the raw candidate list, append-only between resets.
	tested     map[string]struct{}        // tested-cache keyed by normalized form.
	normMemo   map[string]types.ProxyAddr // raw candidate -> normalized form, once known.
	norm       *addr.Normalizer
	prober     *probe.Prober
	ownedPool  *resolve.Pool // non-nil if the engine created its own resolver.
}

// New returns a new Engine drawing from the specified candidate list, which
// may be empty and can later be extended with [Engine.AddProxies]. All
// options are defaulted and validated here, eagerly and before any network
// activity: an invalid option value fails with a [ConfigurationError].
//
// An Engine without a [WithResolver] option owns a resolver pool talking to
// the system nameserver; call [Engine.Close] when done with such an engine
// to release the pool's connections.
func New(candidates []string, opts ...Option) (*Engine, error) {
	o := options{
		verboseID:  DefaultVerboseIdentifier,
		maxTimeout: DefaultMaxTimeout,
		pingURL:    DefaultPingURL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxTimeout <= 0 {
		return nil, &ConfigurationError{
			Option: "MaxTimeout",
			Reason: fmt.Sprintf("must be positive, got %v", o.maxTimeout),
		}
	}
	if o.maxRetryCycles < 0 {
		return nil, &ConfigurationError{
			Option: "MaxRetryCycles",
			Reason: fmt.Sprintf("must not be negative, got %d", o.maxRetryCycles),
		}
	}
	e := &Engine{
		opts:       o,
		candidates: append([]string(nil), candidates...),
		tested:     map[string]struct{}{},
		normMemo:   map[string]types.ProxyAddr{},
	}
	proberOpts := []probe.Option{
		probe.WithTimeout(o.maxTimeout),
		probe.WithLogf(e.logf),
	}
	if o.icmpPrecheck {
		proberOpts = append(proberOpts, probe.WithICMPPrecheck())
	}
	if o.transport != nil {
		proberOpts = append(proberOpts, probe.WithTransport(o.transport))
	}
	prober, err := probe.New(o.pingURL, proberOpts...)
	if err != nil {
		return nil, &ConfigurationError{Option: "PingURL", Reason: err.Error()}
	}
	e.prober = prober
	resolver := o.resolver
	if resolver == nil {
		pool, err := resolve.NewSystem(context.Background(), systemResolverPoolSize)
		if err != nil {
			return nil, fmt.Errorf("cannot set up system resolver: %w", err)
		}
		e.ownedPool = pool
		resolver = pool
	}
	e.norm = addr.NewNormalizer(resolver)
	return e, nil
}

// Close releases the engine-owned resolver pool, if any. Engines created
// with [WithResolver] have nothing to release; closing them is a no-op.
func (e *Engine) Close() {
	if e.ownedPool != nil {
		e.ownedPool.StopWait()
		e.ownedPool = nil
	}
}

// ResetList clears the candidate list (and the normalization memo going with
// it). It returns false if the list already was empty, reporting a no-op
// rather than an error.
func (e *Engine) ResetList() bool {
	if len(e.candidates) == 0 {
		return false
	}
	e.candidates = nil
	e.normMemo = map[string]types.ProxyAddr{}
	return true
}

// AddProxies appends the specified raw candidates to the candidate list. It
// rejects nil and empty lists, returning false and leaving the candidate
// list unchanged; otherwise it appends and returns true.
func (e *Engine) AddProxies(list []string) bool {
	if len(list) == 0 {
		return false
	}
	e.candidates = append(e.candidates, list...)
	return true
}

// ResetCache clears the tested-cache, so that all candidates count as
// untested again. It always returns true.
func (e *Engine) ResetCache() bool {
	e.tested = map[string]struct{}{}
	return true
}

// CandidateCount returns the current length of the candidate list,
// duplicates included.
func (e *Engine) CandidateCount() int {
	return len(e.candidates)
}

// TestedCount returns the number of distinct normalized addresses in the
// tested-cache.
func (e *Engine) TestedCount() int {
	return len(e.tested)
}

// Ping measures the round-trip to the reference URL without any proxy in
// between, subject to the engine's probe budget.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	return e.prober.Ping(ctx)
}

// TestProxy normalizes and probes the single specified raw candidate,
// independently of the candidate list and without touching the
// tested-cache. Ordinary connectivity failures reduce to false; only
// normalization failures — an [addr.InvalidFormatError] or an
// [addr.ResolutionError] — surface as errors.
func (e *Engine) TestProxy(ctx context.Context, raw string) (bool, error) {
	pa, err := e.normalize(ctx, raw)
	if err != nil {
		return false, err
	}
	return e.prober.Probe(ctx, pa), nil
}

// GetProxy draws untested candidates uniformly at random, probes them one at
// a time, and returns the normalized address string of the first candidate
// passing its probe. Failed candidates enter the tested-cache and are not
// drawn again within the same exhaustion cycle.
//
// Once every distinct candidate has been probed without success, GetProxy
// fails with an [AllProxiesFailedError] — unless force-retry is on, in which
// case the tested-cache is cleared and the whole selection starts over. With
// force-retry and no candidate ever succeeding GetProxy does not terminate
// on its own, so callers wanting an upper bound pass a context deadline or
// configure [WithMaxRetryCycles].
//
// Drawing a malformed or unresolvable candidate aborts the whole selection
// with the normalization error instead of skipping the one candidate: a
// broken entry in the candidate list is a caller-side defect worth
// surfacing, not a connectivity failure to route around.
func (e *Engine) GetProxy(ctx context.Context) (string, error) {
	if len(e.candidates) == 0 {
		return "", &AllProxiesFailedError{}
	}
	attempts, cycles := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		remaining := e.remaining()
		if len(remaining) == 0 {
			if e.opts.forceRetry && (e.opts.maxRetryCycles == 0 || cycles < e.opts.maxRetryCycles) {
				cycles++
				e.tested = map[string]struct{}{}
				e.logf("all %d candidates failed, clearing cache for retry cycle %d",
					len(e.candidates), cycles)
				continue
			}
			return "", &AllProxiesFailedError{Attempts: attempts, Cycles: cycles}
		}
		raw := remaining[rand.Intn(len(remaining))]
		pa, err := e.normalize(ctx, raw)
		if err != nil {
			return "", err
		}
		key := pa.String()
		if _, dup := e.tested[key]; dup {
			// A duplicate raw candidate normalizing to an already-tested
			// address; now that its normalization is memoized, the next draw
			// skips it.
			continue
		}
		// Optimistically mark the candidate as tested before probing it.
		e.tested[key] = struct{}{}
		attempts++
		e.logf("probing proxy %s (%d/%d tested)", key, len(e.tested), len(e.candidates))
		if e.prober.Probe(ctx, pa) {
			return key, nil
		}
	}
}

// remaining returns the raw candidates not yet excluded by the tested-cache.
// Exclusion works on the normalized form: raw candidates that have never
// been normalized so far cannot be excluded yet and thus always count as
// remaining.
func (e *Engine) remaining() []string {
	remaining := make([]string, 0, len(e.candidates))
	for _, raw := range e.candidates {
		if pa, ok := e.normMemo[raw]; ok {
			if _, tested := e.tested[pa.String()]; tested {
				continue
			}
		}
		remaining = append(remaining, raw)
	}
	return remaining
}

// normalize memoizes successful candidate normalizations, so that hostnames
// are resolved at most once per raw candidate over the engine's lifetime.
func (e *Engine) normalize(ctx context.Context, raw string) (types.ProxyAddr, error) {
	if pa, ok := e.normMemo[raw]; ok {
		return pa, nil
	}
	pa, err := e.norm.Normalize(ctx, raw)
	if err != nil {
		return types.ProxyAddr{}, err
	}
	e.normMemo[raw] = pa
	return pa, nil
}

// logf writes a diagnostic line with the verbose identifier prefix, if (and
// only if) verbose operation with a logger is configured.
func (e *Engine) logf(format string, args ...interface{}) {
	if !e.opts.verbose || e.opts.logger == nil {
		return
	}
	e.opts.logger("["+e.opts.verboseID+"] "+format, args...)
}
