// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

/*
Package types defines proxypick's information model. Which is rather simple
and mainly revolves around [ProxyAddr] — a proxy candidate after format
validation and hostname-to-IP resolution — as well as the probe [Verdict] of
candidates.

A [ProxyAddr] always carries an IPv4 address literal as its host: raw
candidate strings with a DNS hostname get their hostname resolved during
normalization, before any ProxyAddr is ever created. The [ProxyAddr.String]
form is the canonical cache key used by the selection engine: duplicate raw
candidates that normalize to the same address collapse onto one cache entry.

[CheckedProxy] pairs a candidate with its current [Verdict] so that batch
checkers can stream intermediate and final probe results through a channel,
with value semantics and immutability avoiding any locking mess. A candidate
enters the stream as [Untested], is echoed as [Probing] when its probe is
submitted, and finally ends up either [Alive] or [Dead].
*/
package types
