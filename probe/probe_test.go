// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"time"

	"github.com/siemens/proxypick/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

// serveReference starts a reference endpoint answering any GET with 200 and
// registers its teardown.
func serveReference() *httptest.Server {
	GinkgoHelper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "pong")
	}))
	DeferCleanup(srv.Close)
	return srv
}

// serveForwardProxy starts a minimalist HTTP forward proxy: it re-issues the
// absolute-URI GET requests a proxied client sends and copies the upstream
// response back. Plain http targets only, which is all the probe tests need.
func serveForwardProxy() types.ProxyAddr {
	GinkgoHelper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !r.URL.IsAbs() {
			http.Error(w, "not a proxy request", http.StatusBadRequest)
			return
		}
		upstream, err := http.Get(r.URL.String())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		defer upstream.Body.Close()
		w.WriteHeader(upstream.StatusCode)
		_, _ = io.Copy(w, upstream.Body)
	}))
	DeferCleanup(srv.Close)
	return proxyAddrOf(srv)
}

// serveBlackholeProxy starts a proxy that accepts connections but never
// answers until the client gives up.
func serveBlackholeProxy() types.ProxyAddr {
	GinkgoHelper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	DeferCleanup(srv.Close)
	return proxyAddrOf(srv)
}

// proxyAddrOf turns a test server's listening address into a ProxyAddr.
func proxyAddrOf(srv *httptest.Server) types.ProxyAddr {
	GinkgoHelper()

	u := Successful(url.Parse(srv.URL))
	port := Successful(strconv.ParseUint(u.Port(), 10, 16))
	return types.ProxyAddr{Host: u.Hostname(), Port: uint16(port)}
}

// deadEndAddr returns an address nothing is listening on (anymore).
func deadEndAddr() types.ProxyAddr {
	GinkgoHelper()

	l := Successful(net.Listen("tcp", "127.0.0.1:0"))
	port := uint16(l.Addr().(*net.TCPAddr).Port)
	Expect(l.Close()).To(Succeed())
	return types.ProxyAddr{Host: "127.0.0.1", Port: port}
}

var _ = Describe("prober", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	It("rejects unusable reference URLs", func() {
		_, err := New("::not-an-url")
		Expect(err).To(HaveOccurred())
		_, err = New("ftp://old.example.org")
		Expect(err).To(HaveOccurred())
		_, err = New("/just/a/path")
		Expect(err).To(HaveOccurred())
	})

	It("panics on non-positive timeouts and zero proxy addresses", func() {
		Expect(func() { WithTimeout(0) }).To(Panic())
		prober := Successful(New("http://ping.test"))
		Expect(func() { prober.Probe(context.Background(), types.ProxyAddr{}) }).To(Panic())
	})

	It("judges a forwarding proxy alive", NodeTimeout(30*time.Second), func(ctx context.Context) {
		ref := serveReference()
		proxy := serveForwardProxy()
		prober := Successful(New(ref.URL, WithTimeout(5*time.Second)))
		Expect(prober.Probe(ctx, proxy)).To(BeTrue())
	})

	It("judges a refused connection dead without erroring", NodeTimeout(30*time.Second), func(ctx context.Context) {
		ref := serveReference()
		prober := Successful(New(ref.URL, WithTimeout(time.Second)))
		Expect(prober.Probe(ctx, deadEndAddr())).To(BeFalse())
	})

	It("gives up on a black-hole proxy within the budget", NodeTimeout(30*time.Second), func(ctx context.Context) {
		ref := serveReference()
		proxy := serveBlackholeProxy()
		prober := Successful(New(ref.URL, WithTimeout(100*time.Millisecond)))
		start := time.Now()
		Expect(prober.Probe(ctx, proxy)).To(BeFalse())
		Expect(time.Since(start)).To(BeNumerically("<", time.Second),
			"probe must give up at the budget, not wait for the proxy")
	})

	It("treats late completion beyond the budget as failure", func(ctx context.Context) {
		// A transport that ignores cancellation and only answers after the
		// budget has long passed exercises the wall-clock backstop.
		prober := Successful(New("http://ping.test",
			WithTimeout(20*time.Millisecond),
			WithTransport(func(_ *url.URL) http.RoundTripper {
				return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
					time.Sleep(60 * time.Millisecond)
					return okResponse(req), nil
				})
			})))
		Expect(prober.Probe(ctx, types.ProxyAddr{Host: "10.0.0.1", Port: 8080})).To(BeFalse())
	})

	It("measures the unproxied round-trip to the reference URL", NodeTimeout(30*time.Second), func(ctx context.Context) {
		ref := serveReference()
		prober := Successful(New(ref.URL, WithTimeout(5*time.Second)))
		rtt := Successful(prober.Ping(ctx))
		Expect(rtt).To(BeNumerically(">", 0))
	})

	It("reports unreachable reference URLs from pings", NodeTimeout(30*time.Second), func(ctx context.Context) {
		dead := deadEndAddr()
		prober := Successful(New("http://"+dead.String(), WithTimeout(time.Second)))
		_, err := prober.Ping(ctx)
		Expect(err).To(HaveOccurred())
	})

	It("emits diagnostics through the configured sink", NodeTimeout(30*time.Second), func(ctx context.Context) {
		ref := serveReference()
		var lines []string
		prober := Successful(New(ref.URL,
			WithTimeout(time.Second),
			WithLogf(func(format string, args ...interface{}) {
				lines = append(lines, fmt.Sprintf(format, args...))
			})))
		Expect(prober.Probe(ctx, deadEndAddr())).To(BeFalse())
		Expect(lines).NotTo(BeEmpty())
		Expect(lines[0]).To(ContainSubstring("dead"))
	})

})

// roundTripperFunc adapts a plain function into an http.RoundTripper.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// okResponse fabricates a minimal 200 response for transport fakes.
func okResponse(req *http.Request) *http.Response {
	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
		Body:       http.NoBody,
		Request:    req,
	}
}
