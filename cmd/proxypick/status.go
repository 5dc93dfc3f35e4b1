// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"sync"

	"github.com/siemens/proxypick/types"
)

// statusMap tracks the most recent verdict for each raw proxy candidate,
// keyed by the raw candidate string and remembering submission order for
// stable rendering. A typical use case is to consume checked-proxy
// information from an event stream (channel) sending updates as candidates
// are submitted, probed, and finally judged.
type statusMap struct {
	mu    sync.Mutex
	order []string // raw candidates in order of first appearance.
	m     map[string]types.CheckedProxy
}

// newStatusMap returns a new and properly initialized statusMap.
func newStatusMap() *statusMap {
	return &statusMap{
		m: map[string]types.CheckedProxy{},
	}
}

// Update the map with checked-proxy information, never downgrading a final
// verdict back into a pending one: spurious late stream elements for an
// already-judged candidate are dropped.
func (m *statusMap) Update(cp types.CheckedProxy) {
	if cp.Raw == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	known, ok := m.m[cp.Raw]
	if !ok {
		m.order = append(m.order, cp.Raw)
		m.m[cp.Raw] = cp
		return
	}
	if known.Verdict.IsFinal() && !cp.Verdict.IsFinal() {
		return
	}
	m.m[cp.Raw] = cp
}

// Get returns all checked proxies in order of first appearance.
func (m *statusMap) Get() []types.CheckedProxy {
	m.mu.Lock()
	defer m.mu.Unlock()
	cps := make([]types.CheckedProxy, 0, len(m.order))
	for _, raw := range m.order {
		cps = append(cps, m.m[raw])
	}
	return cps
}

// Track checked-proxy updates received from the specified verdict channel
// until the channel is closed or the context done. Track only returns after
// processing all updates or when the context is done.
func (m *statusMap) Track(ctx context.Context, verdicts <-chan types.CheckedProxy) error {
	for {
		select {
		case cp, ok := <-verdicts:
			if !ok {
				return nil
			}
			m.Update(cp)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
