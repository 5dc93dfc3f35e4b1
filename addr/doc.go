// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

/*
Package addr normalizes raw proxy candidate strings into structured,
IP-literal proxy addresses.

Candidates come in exactly two surface forms, "host:port" and
"user:pass@host:port"; [Classify] decides which one (or [Invalid]) by
anchored structural patterns. [Normalizer.Normalize] then splits a
well-formed candidate into its parts and, whenever the host is not already a
dotted-quad IPv4 literal, resolves the hostname through the configured
[Resolver] collaborator. Malformed candidates never reach resolution; they
fail early with an [InvalidFormatError].
*/
package addr
