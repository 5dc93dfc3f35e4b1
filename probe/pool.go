// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"sync"

	"github.com/siemens/proxypick/addr"
	"github.com/siemens/proxypick/types"

	"github.com/gammazero/workerpool"
)

// Pool checks whole lists of raw proxy candidates concurrently, streaming
// intermediate and final [types.CheckedProxy] verdicts to a result/output
// channel. Pools use a goroutine-limited worker pool.
//
// The Pool is a bulk-checking facility; the sequential one-at-a-time proxy
// selection lives in the pick package and does not use it.
type Pool struct {
	prober   *Prober
	norm     *addr.Normalizer
	workers  *workerpool.WorkerPool
	verdicts chan types.CheckedProxy
	stopOnce sync.Once
}

// NewPool returns a new [Pool] with a maximum worker pool of the specified
// size as well as a verdict stream. The verdict channel will not only send
// the final candidate verdicts, but also the initial and yet untested
// candidates as they get submitted for checking, so that interactive clients
// can early display all enqueued checks.
func NewPool(size int, prober *Prober, norm *addr.Normalizer) (*Pool, <-chan types.CheckedProxy) {
	verdicts := make(chan types.CheckedProxy, size)
	return &Pool{
		prober:   prober,
		norm:     norm,
		workers:  workerpool.New(size),
		verdicts: verdicts,
	}, verdicts
}

// Check normalizes and probes the specified raw candidate string. The
// verdict is then sent to the channel returned together with the newly
// created [Pool]. Additionally, an initial notice for the candidate to be
// checked is also sent beforehand.
//
// Candidates failing normalization end up Dead with the normalization error
// attached; they are never probed.
//
// If the specified context gets cancelled the pending checks won't be echoed
// to the verdict stream at all. However, spurious verdicts might still
// appear on the verdict stream due to uncontrollable order of verdict
// sending and context cancellation detection.
func (p *Pool) Check(ctx context.Context, raw string) {
	// Allow cancelling a blocked verdict send to avoid leaking goroutines.
	select {
	case p.verdicts <- types.NewCheckedProxy(raw):
	case <-ctx.Done():
		return
	}
	p.workers.Submit(func() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		cp := types.NewCheckedProxy(raw)
		pa, err := p.norm.Normalize(ctx, raw)
		if err != nil {
			select {
			case p.verdicts <- cp.WithVerdict(types.Dead, err):
			case <-ctx.Done():
			}
			return
		}
		cp.Proxy = pa
		select {
		case p.verdicts <- cp.WithVerdict(types.Probing, nil):
		case <-ctx.Done():
			return
		}
		latency, ok := p.prober.ProbeLatency(ctx, pa)
		verdict := cp.WithVerdict(types.Dead, nil)
		if ok {
			verdict = cp.WithVerdict(types.Alive, nil)
			verdict.Latency = latency
		}
		select {
		case p.verdicts <- verdict:
		case <-ctx.Done():
		}
	})
}

// CheckStream reads raw candidates to be checked from a channel until the
// channel is closed or the specified context gets cancelled. It does not
// return until then, so callers typically might run CheckStream in a
// separate goroutine.
func (p *Pool) CheckStream(ctx context.Context, ch <-chan string) {
	for {
		select {
		case raw, ok := <-ch:
			if !ok {
				return
			}
			p.Check(ctx, raw)
		case <-ctx.Done():
			return
		}
	}
}

// StopWait waits for all queued check tasks to get processed and then
// finally closes the verdict channel.
func (p *Pool) StopWait() {
	p.stopOnce.Do(func() {
		p.workers.StopWait()
		close(p.verdicts)
	})
}
