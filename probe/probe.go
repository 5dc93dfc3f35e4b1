// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/siemens/proxypick/types"

	"github.com/go-ping/ping"
)

// DefaultTimeout is the probe budget used unless overridden with
// [WithTimeout].
const DefaultTimeout = 5 * time.Second

// Prober issues single bounded-latency GET requests against a fixed
// reference URL, routed through a candidate proxy, in order to judge whether
// the proxy actually forwards traffic.
//
// Two independent timeout mechanisms race against each in-flight request:
// the HTTP client's own timeout and an outer context deadline of the same
// duration. Whichever fires first cancels the underlying connection, so no
// sockets are leaked on dead proxies. A post-completion wall-clock check
// additionally catches requests where the client-level timeout fired late.
type Prober struct {
	pingURL   *url.URL      // the reference endpoint judging reachability.
	timeout   time.Duration // per-probe budget.
	icmpCheck bool          // if true, ICMP-ping the proxy host before the HTTP probe.
	logf      func(format string, args ...interface{})
	transport func(proxy *url.URL) http.RoundTripper // overridable for testing.
}

// Option can be passed to New when creating new Prober objects.
type Option func(*Prober)

// New returns a new [Prober] probing against the specified reference URL.
// The URL must be absolute with an http or https scheme, otherwise New
// fails.
//
// The new prober defaults to a probe budget of [DefaultTimeout] and can be
// configured during creation using several options:
//   - [WithTimeout]
//   - [WithICMPPrecheck]
//   - [WithLogf]
func New(pingURL string, options ...Option) (*Prober, error) {
	u, err := url.Parse(pingURL)
	if err != nil {
		return nil, fmt.Errorf("invalid reference URL %q: %w", pingURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("invalid reference URL %q: must be absolute http(s)", pingURL)
	}
	p := &Prober{
		pingURL: u,
		timeout: DefaultTimeout,
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

// WithTimeout sets the per-probe budget: the single GET request through the
// candidate proxy must fully complete within this duration.
func WithTimeout(timeout time.Duration) Option {
	if timeout <= 0 {
		panic(fmt.Errorf("Prober: timeout must be positive, got: %v", timeout))
	}
	return func(p *Prober) {
		p.timeout = timeout
	}
}

// WithICMPPrecheck tells the Prober to first ping the proxy host (a single
// unprivileged UDP-based ping) before attempting the HTTP probe, fast-failing
// proxies on unreachable hosts without spending the full HTTP budget.
func WithICMPPrecheck() Option {
	return func(p *Prober) {
		p.icmpCheck = true
	}
}

// WithLogf sets an optional line-oriented diagnostic logger. A nil logger is
// a no-op.
func WithLogf(logf func(format string, args ...interface{})) Option {
	return func(p *Prober) {
		p.logf = logf
	}
}

// WithTransport overrides how the Prober builds the HTTP transport routing
// through a given proxy URL; a nil proxy URL requests a direct,
// unproxied transport. Intended for tests.
func WithTransport(factory func(proxy *url.URL) http.RoundTripper) Option {
	return func(p *Prober) {
		p.transport = factory
	}
}

// Probe issues one GET request to the reference URL through the specified
// proxy address, serving as proxy for both the http and https schemes. It
// returns true only if the request completed within the probe budget with no
// transport error. Ordinary network failures — connection refused, timeouts,
// resets, proxy errors — all reduce to false; Probe never needs error
// handling by its callers.
//
// Passing a zero proxy address is a precondition violation and panics.
func (p *Prober) Probe(ctx context.Context, proxy types.ProxyAddr) bool {
	_, ok := p.ProbeLatency(ctx, proxy)
	return ok
}

// ProbeLatency works like [Probe], but additionally reports the observed
// wall-clock duration of the probe attempt.
func (p *Prober) ProbeLatency(ctx context.Context, proxy types.ProxyAddr) (time.Duration, bool) {
	if proxy.IsZero() {
		panic("Prober: proxy address must not be the zero value")
	}
	if p.icmpCheck && !p.hostAlive(ctx, proxy.Host) {
		p.log("proxy host %s unreachable (ICMP precheck)", proxy.Host)
		return 0, false
	}
	elapsed, err := p.get(ctx, proxy.URL())
	if err != nil {
		p.log("proxy %s dead: %s", proxy, err)
		return elapsed, false
	}
	// The client-level timeout may fire late under scheduling pressure; a
	// request that formally succeeded but overran the budget still counts as
	// a failure.
	if elapsed > p.timeout {
		p.log("proxy %s dead: answered after %v, budget was %v", proxy, elapsed, p.timeout)
		return elapsed, false
	}
	p.log("proxy %s alive (%v)", proxy, elapsed)
	return elapsed, true
}

// Ping measures the unproxied round-trip to the reference URL, subject to
// the same probe budget. It returns the observed duration, or an error if
// the reference URL cannot be reached directly.
func (p *Prober) Ping(ctx context.Context) (time.Duration, error) {
	return p.get(ctx, nil)
}

// get issues a single GET request to the reference URL, optionally routed
// through the specified proxy URL, under both the client-level timeout and
// an outer context deadline of the same duration.
func (p *Prober) get(ctx context.Context, proxy *url.URL) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	var rt http.RoundTripper
	if p.transport != nil {
		rt = p.transport(proxy)
	} else {
		tr := &http.Transport{}
		if proxy != nil {
			tr.Proxy = http.ProxyURL(proxy)
		}
		defer tr.CloseIdleConnections()
		rt = tr
	}
	client := &http.Client{
		Transport: rt,
		Timeout:   p.timeout,
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.pingURL.String(), nil)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return elapsed, err
	}
	resp.Body.Close()
	return elapsed, nil
}

// hostAlive pings the specified host once, reporting whether a reply came
// back within the probe budget. The ping is automatically aborted when the
// specified context either meets its deadline or gets cancelled.
func (p *Prober) hostAlive(ctx context.Context, host string) bool {
	pinger, err := ping.NewPinger(host)
	if err != nil {
		return false
	}
	pinger.SetPrivileged(false)
	pinger.Count = 1
	pinger.Timeout = p.timeout
	// While the ping will be running, we need to monitor the context in case
	// it becomes "done" by either getting cancelled or reaching its deadline.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pinger.Stop()
		case <-done:
		}
	}()
	if err := pinger.Run(); err != nil {
		return false
	}
	if ctx.Err() != nil {
		return false
	}
	return pinger.Statistics().PacketsRecv > 0
}

func (p *Prober) log(format string, args ...interface{}) {
	if p.logf == nil {
		return
	}
	p.logf(format, args...)
}
