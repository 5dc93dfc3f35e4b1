// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

/*
Package probe implements the HTTP(S) connectivity prober judging whether a
forward proxy actually forwards traffic to a fixed reference URL.

A [Prober] issues exactly one GET request per probe, routed through the
candidate proxy for both http and https targets, under a strict latency
budget. The budget is enforced three times over: by the HTTP client's own
timeout, by an outer context deadline that independently cancels the
in-flight request, and by a final wall-clock check covering the race where
the client-level timeout fires late. Ordinary network failures never surface
as errors — a probe answers a plain yes or no.

	              +---+
	ProxyAddr --> | P | --> bool
	              +---+

[Pool] bulk-checks whole candidate lists with a limited number of concurrent
workers, streaming [types.CheckedProxy] verdicts as they are decided:

	             +---+
	ch string--> | P | --> ch CheckedProxy
	             +---+

⚠ Please note that a [Pool] initially emits any newly submitted candidate
before it undergoes checking, as well as later the final verdict. The
rationale is that especially interactive clients can more easily manage their
display so that all enqueued checks are early visible.

# Acknowledgements

Under its hood, [Pool] leverages [gammazero/workerpool] as the limiting
goroutine pool; the optional ICMP precheck of [Prober] builds on
[go-ping/ping].

[gammazero/workerpool]: https://github.com/gammazero/workerpool
[go-ping/ping]: https://github.com/go-ping/ping
*/
package probe
