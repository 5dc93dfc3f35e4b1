// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/siemens/proxypick/addr"
	"github.com/siemens/proxypick/resolve"
	"github.com/siemens/proxypick/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

var _ = Describe("bulk-check pool", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	// aliveOnly fakes the proxy transport so that only the proxy at the
	// specified host forwards successfully.
	aliveOnly := func(alivehost string) Option {
		return WithTransport(func(proxy *url.URL) http.RoundTripper {
			return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
				if proxy != nil && proxy.Hostname() == alivehost {
					return okResponse(req), nil
				}
				return nil, errors.New("connection refused")
			})
		})
	}

	It("handles multiple stops", func() {
		prober := Successful(New("http://ping.test"))
		pool, _ := NewPool(1, prober, addr.NewNormalizer(nil))
		for i := 0; i < 2; i++ {
			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				pool.StopWait()
				close(done)
			}()
			Eventually(done).WithTimeout(1 * time.Second).Should(BeClosed())
		}
	})

	It("streams verdicts for a mixed candidate list", NodeTimeout(30*time.Second), func(ctx context.Context) {
		prober := Successful(New("http://ping.test",
			WithTimeout(time.Second), aliveOnly("192.0.2.1")))
		norm := addr.NewNormalizer(resolve.Static{"good.test": "192.0.2.1"})
		pool, verdicts := NewPool(2, prober, norm)

		candidates := []string{"good.test:8080", "192.0.2.66:3128", "bad@@format"}
		go func() {
			for _, raw := range candidates {
				pool.Check(ctx, raw)
			}
			pool.StopWait()
		}()

		finals := map[string]types.CheckedProxy{}
		for cp := range verdicts {
			if cp.Verdict.IsFinal() {
				finals[cp.Raw] = cp
			}
		}
		Expect(finals).To(HaveLen(3))
		Expect(finals["good.test:8080"].Verdict).To(Equal(types.Alive))
		Expect(finals["good.test:8080"].Proxy.String()).To(Equal("192.0.2.1:8080"))
		Expect(finals["192.0.2.66:3128"].Verdict).To(Equal(types.Dead))
		Expect(finals["bad@@format"].Verdict).To(Equal(types.Dead))
		Expect(finals["bad@@format"].Err()).To(MatchError(addr.ErrInvalidFormat))
	})

	It("checks candidates read from a stream", NodeTimeout(30*time.Second), func(ctx context.Context) {
		prober := Successful(New("http://ping.test",
			WithTimeout(time.Second), aliveOnly("192.0.2.1")))
		pool, verdicts := NewPool(2, prober, addr.NewNormalizer(nil))

		in := make(chan string)
		go func() {
			for _, raw := range []string{"192.0.2.1:80", "192.0.2.2:80"} {
				in <- raw
			}
			close(in)
		}()
		go func() {
			pool.CheckStream(ctx, in)
			pool.StopWait()
		}()

		finals := map[string]types.Verdict{}
		for cp := range verdicts {
			if cp.Verdict.IsFinal() {
				finals[cp.Raw] = cp.Verdict
			}
		}
		Expect(finals).To(Equal(map[string]types.Verdict{
			"192.0.2.1:80": types.Alive,
			"192.0.2.2:80": types.Dead,
		}))
	})

})
