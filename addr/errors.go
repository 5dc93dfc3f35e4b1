// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package addr

import (
	"errors"
	"fmt"
)

// Sentinel errors of candidate normalization; matched with [errors.Is].
var (
	// ErrInvalidFormat indicates a raw candidate string matching neither of
	// the supported surface forms.
	ErrInvalidFormat = errors.New("invalid proxy candidate format")

	// ErrResolutionFailure indicates a candidate hostname that could not be
	// resolved into an IPv4 address.
	ErrResolutionFailure = errors.New("cannot resolve proxy hostname")
)

// InvalidFormatError is returned when a raw candidate string is classified
// as invalid. It wraps ErrInvalidFormat so that errors.Is(err,
// ErrInvalidFormat) still works.
type InvalidFormatError struct {
	// Raw is the offending candidate string.
	Raw string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidFormat.Error(), e.Raw)
}

func (e *InvalidFormatError) Unwrap() error {
	return ErrInvalidFormat
}

// ResolutionError is returned when the host part of a candidate is not an
// IPv4 literal and resolving it failed. It wraps ErrResolutionFailure so
// that errors.Is(err, ErrResolutionFailure) still works.
type ResolutionError struct {
	// Host is the hostname that could not be resolved.
	Host string
	// Err is the underlying resolver error.
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrResolutionFailure.Error(), e.Host, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return ErrResolutionFailure
}
