// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package addr

import (
	"context"
	"time"

	"github.com/siemens/proxypick/resolve"
	"github.com/siemens/proxypick/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

var _ = Describe("candidate classification and normalization", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(2 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	DescribeTable("classifies raw candidate strings",
		func(raw string, kind Kind) {
			Expect(Classify(raw)).To(Equal(kind))
		},
		Entry("IPv4 literal with port", "10.0.0.1:8080", Direct),
		Entry("hostname with port", "proxy.example.org:3128", Direct),
		Entry("credentials before IPv4 literal", "alice:s3cret@10.0.0.1:8080", Auth),
		Entry("credentials before hostname", "bob:hunter2@proxy.example.org:3128", Auth),
		Entry("free-form text", "not-a-proxy", Invalid),
		Entry("too many colons", "a:b:c", Invalid),
		Entry("stray at signs", "bad@@format", Invalid),
		Entry("colon inside password", "user:pa:ss@host:80", Invalid),
		Entry("at sign inside host", "user:pass@ho@st:80", Invalid),
		Entry("whitespace inside host", "user:pass@ho st:80", Invalid),
		Entry("non-numeric port", "10.0.0.1:http", Invalid),
		Entry("leading whitespace", " 10.0.0.1:8080", Invalid),
		Entry("trailing whitespace", "10.0.0.1:8080 ", Invalid),
		Entry("missing port", "10.0.0.1", Invalid),
		Entry("empty string", "", Invalid),
	)

	It("normalizes an IPv4-literal candidate without touching the resolver", func(ctx context.Context) {
		n := NewNormalizer(nil) // no resolver: any resolution attempt would fail
		pa := Successful(n.Normalize(ctx, "10.0.0.1:8080"))
		Expect(pa).To(Equal(types.ProxyAddr{Host: "10.0.0.1", Port: 8080}))
		Expect(pa.String()).To(Equal("10.0.0.1:8080"))
	})

	It("is idempotent on its own output", func(ctx context.Context) {
		n := NewNormalizer(resolve.Static{"proxy.example.org": "192.0.2.10"})
		pa := Successful(n.Normalize(ctx, "proxy.example.org:3128"))
		again := Successful(n.Normalize(ctx, pa.String()))
		Expect(again).To(Equal(pa))
	})

	It("resolves hostnames and reassembles credentials positionally", func(ctx context.Context) {
		n := NewNormalizer(resolve.Static{"proxy.example.org": "192.0.2.10"})
		pa := Successful(n.Normalize(ctx, "alice:s3cret@proxy.example.org:3128"))
		Expect(pa.String()).To(Equal("alice:s3cret@192.0.2.10:3128"))
		Expect(pa.Creds).To(HaveValue(Equal(types.Credentials{User: "alice", Pass: "s3cret"})))
	})

	It("fails malformed candidates with the invalid-format error", func(ctx context.Context) {
		n := NewNormalizer(nil)
		for _, raw := range []string{"not-a-proxy", "a:b:c", "bad@@format"} {
			_, err := n.Normalize(ctx, raw)
			Expect(err).To(MatchError(ErrInvalidFormat), "candidate %q", raw)
			var iferr *InvalidFormatError
			Expect(err).To(BeAssignableToTypeOf(iferr))
		}
	})

	It("rejects ports beyond the 16 bit range as malformed", func(ctx context.Context) {
		n := NewNormalizer(nil)
		_, err := n.Normalize(ctx, "10.0.0.1:99999")
		Expect(err).To(MatchError(ErrInvalidFormat))
	})

	It("treats out-of-range octets as hostnames needing resolution", func(ctx context.Context) {
		n := NewNormalizer(resolve.Static{"999.0.0.1": "192.0.2.99"})
		pa := Successful(n.Normalize(ctx, "999.0.0.1:80"))
		Expect(pa.Host).To(Equal("192.0.2.99"))
	})

	It("reports resolution failures naming the host", func(ctx context.Context) {
		n := NewNormalizer(resolve.Static{})
		_, err := n.Normalize(ctx, "nx.example.org:8080")
		Expect(err).To(MatchError(ErrResolutionFailure))
		Expect(err.Error()).To(ContainSubstring("nx.example.org"))
	})

	It("fails resolution when no resolver is available", func(ctx context.Context) {
		n := NewNormalizer(nil)
		_, err := n.Normalize(ctx, "proxy.example.org:8080")
		Expect(err).To(MatchError(ErrResolutionFailure))
	})

})
