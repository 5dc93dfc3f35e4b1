// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

/*
Package resolve implements the DNS resolver collaborator used when
normalizing proxy candidates whose host part is a hostname instead of an
IPv4 literal.

[Pool] is a simple limiting DNS client-request execution pool: a set of
pre-dialed DNS client connections, with concurrent lookups bounded by the
pool size. A Pool satisfies the normalizer's resolver interface through
[Pool.LookupIPv4]; lower-level asynchronous access is available via
[Pool.Resolve] and [Pool.Submit].

Usage

	pool, err := resolve.New(
	    context.Background(),
	    4,                     // number of parallel DNS connections and thus workers
	    &dns.Client{},         // DNS client
	    "127.0.0.1:53",        // address of server/resolver
	)
	ip, err := pool.LookupIPv4(ctx, "proxy.example.org")

[Static] is a fixed map-backed resolver for tests and offline use.

# Acknowledgements

Under its hood, [Pool] leverages [gammazero/workerpool] as the limiting
goroutine pool, and [miekg/dns] for the resolution itself.

[gammazero/workerpool]: https://github.com/gammazero/workerpool
[miekg/dns]: https://github.com/miekg/dns
*/
package resolve
