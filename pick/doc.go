// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

/*
Package pick implements the stateful selection engine that picks a working
HTTP/HTTPS forward proxy from a list of raw candidate strings.

The [Engine] owns the candidate list and the tested-cache. A selection via
[Engine.GetProxy] repeatedly draws a random untested candidate, normalizes
it (resolving hostnames into IPv4 literals where needed), probes it against
the reference URL within the configured budget, and returns the first
candidate whose probe succeeds. Failed candidates are cached by their
normalized form, so duplicates in the raw list collapse behaviorally and no
address is probed twice within one exhaustion cycle.

# Termination

With force-retry off, GetProxy terminates after at most as many probes as
there are distinct candidates: either with a working proxy or with an
[AllProxiesFailedError]. With force-retry on, exhaustion clears the cache
and restarts the selection; should no candidate ever succeed, GetProxy then
loops indefinitely. That is the documented contract, not a bug — callers
wanting an upper bound impose one via the context deadline or
[WithMaxRetryCycles].

# Concurrency

Engines are intentionally free of locks: per contract there is never a
concurrent writer, as callers serialize calls to one instance or use one
instance per goroutine. The only suspension point is the network probe
itself, which honors context cancellation in every engine state.
*/
package pick
