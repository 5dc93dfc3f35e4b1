// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"fmt"
	"time"
)

// Verdict indicates how far a proxy candidate has come in its connectivity
// check, such as untested, probing, et cetera.
type Verdict int

// The connectivity verdicts of a proxy candidate.
const (
	Untested Verdict = iota // candidate neither in probing nor probed.
	Probing                 // candidate probe in flight.
	Dead                    // candidate failed its connectivity probe.
	Alive                   // candidate passed its connectivity probe.
)

// String returns the clear-text representation of a Verdict value.
func (v Verdict) String() string {
	switch v {
	case Untested:
		return "untested"
	case Probing:
		return "probing"
	case Dead:
		return "dead"
	case Alive:
		return "alive"
	}
	return fmt.Sprintf("Verdict(%d)", v)
}

// IsFinal returns true once a candidate has been either successfully or
// unsuccessfully probed.
func (v Verdict) IsFinal() bool {
	switch v {
	case Dead, Alive:
		return true
	default:
		return false
	}
}

// CheckedProxy carries a proxy candidate together with its current probe
// verdict through a verdict stream. Raw is the original candidate string as
// supplied by the caller; Proxy is its normalized form, which is the zero
// value while the candidate merely awaits normalization. Latency is the
// observed probe round-trip and only meaningful for Alive verdicts.
type CheckedProxy struct {
	Raw     string        `json:"raw"`
	Proxy   ProxyAddr     `json:"proxy"`
	Verdict Verdict       `json:"verdict"`
	Latency time.Duration `json:"latency"`
	err     error         // optional error details for dead candidates
}

// NewCheckedProxy returns checked-proxy information for the specified raw
// candidate string in its initial untested state.
func NewCheckedProxy(raw string) CheckedProxy {
	return CheckedProxy{Raw: raw, Verdict: Untested}
}

// Err returns an optional error that occurred while normalizing or probing
// the candidate.
func (cp CheckedProxy) Err() error { return cp.err }

// WithVerdict returns a copy of the checked proxy updated to the specified
// verdict and optional error detail.
func (cp CheckedProxy) WithVerdict(v Verdict, err error) CheckedProxy {
	cp.Verdict = v
	cp.err = err
	return cp
}
