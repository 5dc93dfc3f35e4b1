// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Yet another (braille) spinner.

package main

import (
	"sync/atomic"
	"time"
)

// spinnerPhases are the successive spinner glyphs, cycled through one per
// tick.
var spinnerPhases = []string{"⠉ ", "⠘ ", "⠰ ", "⠤ ", "⠆ ", "⠃ "}

// spinner is yet another blindingly simple spinner; just enough to get the
// job done, no bells, no frills.
type spinner struct {
	ticker *time.Ticker
	done   chan struct{}
	phase  atomic.Uint32
}

// newSpinner returns a new spinner; later call the Start method to make it
// spinning, and the Stop method to stop it and release background resources.
func newSpinner() *spinner {
	return &spinner{
		done: make(chan struct{}),
	}
}

// Spinner returns the spinner string for the current phase.
func (s *spinner) Spinner() string {
	return spinnerPhases[int(s.phase.Load())%len(spinnerPhases)]
}

// Start the spinner to spin in steps every specified interval.
func (s *spinner) Start(interval time.Duration) {
	s.ticker = time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.phase.Add(1)
			case <-s.done:
				s.ticker.Stop()
				return
			}
		}
	}()
}

// Stop the spinner and release the background resources.
func (s *spinner) Stop() {
	close(s.done)
}
