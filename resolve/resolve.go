// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package resolve

import (
	"context"
	"fmt"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/miekg/dns"
)

// Pool is a (size-limited) pool of DNS client connections talking with the
// same DNS resolver address, for resolving proxy hostnames into IPv4
// address literals.
type Pool struct {
	workers *workerpool.WorkerPool
	mu      sync.Mutex // protects the pool of DNS connections
	free    []*dns.Conn
}

// New returns a pool of the specified size of DNS client connections, with
// each connection using the specified context and talking to the same DNS
// resolver address.
//
// DNS tasks are submitted either through the synchronous convenience
// [Pool.LookupIPv4] or asynchronously via [Pool.Resolve] and [Pool.Submit].
//
// The passed context is used for creating (dialing) the DNS client
// connections only. It is not directly passed to the submitted DNS tasks, so
// task submitters are themselves responsible for capturing the necessary
// context in their task function closure.
func New(ctx context.Context, size int, dnsclnt *dns.Client, addr string) (*Pool, error) {
	pool := &Pool{
		workers: workerpool.New(size),
	}
	free := make([]*dns.Conn, 0, size)
	for i := 0; i < size; i++ {
		conn, err := dnsclnt.DialContext(ctx, addr)
		if err != nil {
			// Immediately release all connections created so far.
			for _, conn := range free {
				conn.Close()
			}
			return nil, err
		}
		free = append(free, conn)
	}
	pool.free = free
	return pool, nil
}

// NewSystem returns a pool of the specified size talking to the first
// nameserver configured in /etc/resolv.conf, over UDP.
func NewSystem(ctx context.Context, size int) (*Pool, error) {
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil {
		return nil, fmt.Errorf("cannot determine system resolver: %w", err)
	}
	if len(conf.Servers) == 0 {
		return nil, fmt.Errorf("no nameservers configured in /etc/resolv.conf")
	}
	dnsclnt := dns.Client{Net: "udp"}
	return New(ctx, size, &dnsclnt, conf.Servers[0]+":"+conf.Port)
}

// Submit a task to the DNS client connection pool, where it gets enqueued to
// be executed on an available DNS client connection.
func (p *Pool) Submit(task func(conn *dns.Conn)) {
	p.workers.Submit(func() { p.task(task) })
}

// Resolve submits an A query for the specified hostname and passes the
// resolved IPv4 addresses (in textual format), or an error if resolution
// failed, to the specified callback function fn.
//
// Please note that when the passed context is cancelled this will cancel all
// in-flight as well as scheduled name resolution jobs.
func (p *Pool) Resolve(ctx context.Context, name string, fn func([]string, error)) {
	p.Submit(func(conn *dns.Conn) {
		var addrs []string
		var err error
		defer func() { fn(addrs, err) }() // ...ensure triggering the result callback on our way out

		// don't try to resolve the name if the context has been cancelled;
		// trigger the callback immediately with the context error.
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		default:
		}

		dnsclnt := dns.Client{}
		msg := dns.Msg{
			MsgHdr: dns.MsgHdr{Id: dns.Id()},
		}
		msg.SetQuestion(dns.Fqdn(name), dns.TypeA)
		var r *dns.Msg
		r, _, err = dnsclnt.ExchangeWithConn(&msg, conn)
		if err != nil {
			return
		}
		for _, rr := range r.Answer {
			if addrRR, ok := rr.(*dns.A); ok {
				addrs = append(addrs, addrRR.A.String())
			}
		}
		// If we got no A answers then we consider this to be an error. This
		// ensures to send an error to the callback together with the nil list
		// of resolved IP addresses.
		if len(addrs) == 0 {
			err = fmt.Errorf("query for %q yields no A answers", name)
		}
	})
}

// LookupIPv4 resolves the specified hostname into a single IPv4 address
// literal, waiting for the enqueued resolution to complete or the context to
// be done. When the name resolves into multiple A records, the first one
// wins.
//
// LookupIPv4 makes a Pool satisfy the normalizer's resolver collaborator
// interface.
func (p *Pool) LookupIPv4(ctx context.Context, host string) (string, error) {
	type result struct {
		addrs []string
		err   error
	}
	ch := make(chan result, 1)
	p.Resolve(ctx, host, func(addrs []string, err error) {
		ch <- result{addrs: addrs, err: err}
	})
	select {
	case res := <-ch:
		if res.err != nil {
			return "", res.err
		}
		return res.addrs[0], nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// task grabs the next free DNS client and passes it to the specified
// function. After the function returns, the connection is put back into the
// free list.
func (p *Pool) task(task func(conn *dns.Conn)) {
	// pop off a free DNS client connection,
	// https://ueokande.github.io/go-slice-tricks/,
	p.mu.Lock()
	if len(p.free) == 0 {
		panic("no free DNS client connection available")
	}
	last := len(p.free) - 1
	conn := p.free[last]
	p.free = p.free[:last]
	p.mu.Unlock()
	// run the task with its assigned DNS client connection...
	task(conn)
	// ...and push the DNS client connection back into the free list.
	p.mu.Lock()
	p.free = append(p.free, conn)
	p.mu.Unlock()
}

// StopWait waits for all enqueued resolution or generic DNS request tasks to
// finish, and then shuts down the pool.
func (p *Pool) StopWait() {
	p.workers.StopWait()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, conn := range p.free {
		conn.Close()
	}
	p.free = nil
}
