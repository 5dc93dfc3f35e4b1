// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"net"
	"net/url"
	"strconv"
)

// Credentials are the inline username and password of an authenticating
// forward proxy. Both fields come verbatim from the raw candidate string.
type Credentials struct {
	User string `json:"user"`
	Pass string `json:"pass"`
}

// ProxyAddr is a normalized proxy address: the host is always an IPv4
// address literal (hostnames have been resolved before a ProxyAddr comes
// into existence), the port is the numeric port from the raw candidate, and
// credentials are optional.
//
// ProxyAddr values are immutable by convention; they are passed around by
// value through channels and caches without any locking.
type ProxyAddr struct {
	Host  string       `json:"host"` // IPv4 literal
	Port  uint16       `json:"port"`
	Creds *Credentials `json:"creds,omitempty"`
}

// IsZero reports whether the proxy address is the zero value, that is, has
// never been produced by normalization.
func (pa ProxyAddr) IsZero() bool {
	return pa.Host == ""
}

// String reassembles the proxy address in the same positional format the raw
// candidate used: "user:pass@ip:port" for authenticating proxies, plain
// "ip:port" otherwise.
func (pa ProxyAddr) String() string {
	hostport := net.JoinHostPort(pa.Host, strconv.Itoa(int(pa.Port)))
	if pa.Creds == nil {
		return hostport
	}
	return pa.Creds.User + ":" + pa.Creds.Pass + "@" + hostport
}

// URL returns the proxy address as an "http" scheme URL, suitable for
// routing requests through the proxy via an HTTP transport. Credentials, if
// present, become the URL's user information.
func (pa ProxyAddr) URL() *url.URL {
	u := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(pa.Host, strconv.Itoa(int(pa.Port))),
	}
	if pa.Creds != nil {
		u.User = url.UserPassword(pa.Creds.User, pa.Creds.Pass)
	}
	return u
}
