// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package pick

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the pick package; matched with [errors.Is].
var (
	// ErrAllProxiesFailed indicates that every distinct candidate has been
	// probed and failed within the current cache epoch, with no retry policy
	// (left) to fall back on.
	ErrAllProxiesFailed = errors.New("all proxies failed")

	// ErrConfiguration indicates an engine option with an invalid value,
	// detected eagerly at construction before any network activity.
	ErrConfiguration = errors.New("invalid engine configuration")
)

// AllProxiesFailedError is returned by GetProxy when the candidate list has
// been exhausted. It wraps ErrAllProxiesFailed so that errors.Is(err,
// ErrAllProxiesFailed) still works.
type AllProxiesFailedError struct {
	// Attempts is the total number of probe attempts made.
	Attempts int
	// Cycles is the number of full-retry cycles run before giving up.
	Cycles int
}

func (e *AllProxiesFailedError) Error() string {
	if e.Cycles > 0 {
		return fmt.Sprintf("%s after %d probes in %d retry cycles",
			ErrAllProxiesFailed.Error(), e.Attempts, e.Cycles)
	}
	return fmt.Sprintf("%s after %d probes", ErrAllProxiesFailed.Error(), e.Attempts)
}

func (e *AllProxiesFailedError) Unwrap() error {
	return ErrAllProxiesFailed
}

// ConfigurationError is returned by New when an option value is invalid. It
// wraps ErrConfiguration so that errors.Is(err, ErrConfiguration) still
// works.
type ConfigurationError struct {
	// Option names the offending option.
	Option string
	// Reason explains what is wrong with its value.
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration.Error(), e.Option, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}
