// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package addr

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/siemens/proxypick/types"
)

// Kind classifies the surface form of a raw proxy candidate string.
type Kind int

// The surface forms a raw candidate string can take.
const (
	Invalid Kind = iota // candidate matches neither surface form.
	Direct              // "host:port"
	Auth                // "user:pass@host:port"
)

// String returns the clear-text representation of a Kind value.
func (k Kind) String() string {
	switch k {
	case Direct:
		return "direct"
	case Auth:
		return "auth"
	case Invalid:
		return "invalid"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// The anchored structural patterns deciding candidate classification. A
// candidate must match one of them end-to-end, anything else is Invalid.
var (
	directRe = regexp.MustCompile(`^[\w.]+:\d+$`)
	authRe   = regexp.MustCompile(`^[^:@]+:[^:@]+@[^\s:@]+:\d+$`)
	ipv4Re   = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})$`)
)

// Classify determines the surface form of a raw candidate string: Direct for
// "host:port", Auth for "user:pass@host:port", and Invalid for everything
// else. User and password must not contain ":" or "@"; the host part of an
// authenticating candidate must not contain whitespace, ":", or "@".
func Classify(raw string) Kind {
	switch {
	case directRe.MatchString(raw):
		return Direct
	case authRe.MatchString(raw):
		return Auth
	}
	return Invalid
}

// isIPv4Literal reports whether host is a dotted-quad IPv4 literal with each
// octet in range 0–255.
func isIPv4Literal(host string) bool {
	m := ipv4Re.FindStringSubmatch(host)
	if m == nil {
		return false
	}
	for _, octet := range m[1:] {
		n, err := strconv.Atoi(octet)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}

// Resolver resolves a DNS hostname into a single IPv4 address literal. It is
// the narrow DNS collaborator interface of the normalizer; the mechanics of
// resolution live elsewhere (see the resolve package for the production
// implementation).
type Resolver interface {
	LookupIPv4(ctx context.Context, host string) (string, error)
}

// Normalizer turns raw candidate strings into normalized [types.ProxyAddr]
// values, resolving hostnames into IPv4 literals through a Resolver where
// necessary.
type Normalizer struct {
	resolver Resolver
}

// NewNormalizer returns a new Normalizer resolving hostnames through the
// specified resolver. The resolver may be nil, in which case any candidate
// requiring resolution fails with a [ResolutionError].
func NewNormalizer(resolver Resolver) *Normalizer {
	return &Normalizer{resolver: resolver}
}

// Normalize parses and validates the raw candidate string, resolving its
// host into an IPv4 literal if it isn't one already. It fails with an
// [InvalidFormatError] for candidates classified as Invalid and with a
// [ResolutionError] if the hostname cannot be resolved.
//
// Normalize is idempotent on its own output: re-normalizing the String form
// of a returned ProxyAddr yields the same value.
func (n *Normalizer) Normalize(ctx context.Context, raw string) (types.ProxyAddr, error) {
	var host, port string
	var creds *types.Credentials
	switch Classify(raw) {
	case Direct:
		host, port, _ = strings.Cut(raw, ":")
	case Auth:
		userinfo, hostport, _ := strings.Cut(raw, "@")
		user, pass, _ := strings.Cut(userinfo, ":")
		host, port, _ = strings.Cut(hostport, ":")
		creds = &types.Credentials{User: user, Pass: pass}
	default:
		return types.ProxyAddr{}, &InvalidFormatError{Raw: raw}
	}
	portno, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		// digits-only per classification, but out of port range.
		return types.ProxyAddr{}, &InvalidFormatError{Raw: raw}
	}
	if !isIPv4Literal(host) {
		if n.resolver == nil {
			return types.ProxyAddr{}, &ResolutionError{
				Host: host, Err: fmt.Errorf("no resolver available"),
			}
		}
		ip, err := n.resolver.LookupIPv4(ctx, host)
		if err != nil {
			return types.ProxyAddr{}, &ResolutionError{Host: host, Err: err}
		}
		host = ip
	}
	return types.ProxyAddr{
		Host:  host,
		Port:  uint16(portno),
		Creds: creds,
	}, nil
}
