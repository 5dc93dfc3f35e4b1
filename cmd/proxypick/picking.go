// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/siemens/proxypick/addr"
	"github.com/siemens/proxypick/pick"
	"github.com/siemens/proxypick/probe"
	"github.com/siemens/proxypick/resolve"

	"github.com/gosuri/uilive"
)

// gatherCandidates combines the command line candidates with those read from
// an optional candidate file, one candidate per line, with blank lines and
// "#" comments skipped.
func gatherCandidates(args []string, file string) ([]string, error) {
	candidates := append([]string(nil), args...)
	if file == "" {
		return candidates, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("cannot read proxy candidates: %w", err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		candidates = append(candidates, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read proxy candidates: %w", err)
	}
	return candidates, nil
}

// PickAndReport runs a single proxy selection over the specified candidates
// and prints the normalized address of the first working proxy to stdout.
func PickAndReport(ctx context.Context, candidates []string) error {
	engine, err := pick.New(candidates,
		pick.WithPingURL(*pingURL),
		pick.WithMaxTimeout(*maxTimeout),
		pick.WithForceRetry(*forceRetry),
		pick.WithMaxRetryCycles(int(*retryCycles)),
		pick.WithVerbose(*verbose),
		pick.WithLogger(func(format string, args ...interface{}) {
			log.Debugf(format, args...)
		}),
	)
	if err != nil {
		return err
	}
	defer engine.Close()

	if rtt, err := engine.Ping(ctx); err != nil {
		log.Warnf("reference URL %s not directly reachable: %s", *pingURL, err)
	} else {
		log.Infof("reference URL %s answers unproxied within %v", *pingURL, rtt)
	}

	proxy, err := engine.GetProxy(ctx)
	if err != nil {
		return err
	}
	fmt.Println(proxy)
	return nil
}

// CheckAndReport probes all specified candidates concurrently, live-updating
// a verdict table on the terminal until every candidate has been judged.
func CheckAndReport(ctx context.Context, candidates []string) error {
	pool, err := resolve.NewSystem(ctx, int(*workerNumber))
	if err != nil {
		return fmt.Errorf("cannot set up system resolver: %w", err)
	}
	defer pool.StopWait()
	prober, err := probe.New(*pingURL,
		probe.WithTimeout(*maxTimeout),
		probe.WithLogf(func(format string, args ...interface{}) {
			log.Debugf(format, args...)
		}))
	if err != nil {
		return err
	}

	// Create an empty (concurrency-safe) status map and immediately fire off
	// the rendering goroutine. The rendering will only stop after tracking
	// has finished because the verdict stream channel has been closed. We
	// then render a final update and end rendering, signalling the end of
	// our activities via renderingDone.
	statuses := newStatusMap()
	trackingDone := make(chan struct{})
	renderingDone := make(chan struct{})

	go func() {
		// uilive's background updating mode using Start() may trigger anytime
		// with the rendering into the buffer not yet complete, making the
		// terminal output very flickery. So we avoid Start() and instead
		// trigger an explicit flush to the terminal after having completed
		// the rendering.
		term := uilive.New()
		renderer := newRenderer(term)
		defer func() {
			renderData(term, renderer, statuses)
			renderer.Stop()
			close(renderingDone)
		}()
		renderData(term, renderer, statuses)
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				renderData(term, renderer, statuses)
			case <-trackingDone:
				return
			}
		}
	}()

	// Now lets put the required processing elements and their plumbing in
	// place.
	//
	//   - Pool normalizing and probing raw candidates, producing verdicts.
	//   - statusMap consuming these verdicts.
	//
	// Rendering is done on the information collected by the statusMap.
	checker, verdicts := probe.NewPool(int(*workerNumber), prober, addr.NewNormalizer(pool))
	go func() {
		_ = statuses.Track(ctx, verdicts)
		close(trackingDone)
	}()

	// Finally feed the candidates into the checker, so they can be processed
	// and move through the different stages. Then close the verdict stream
	// and wait for all the data to pass the stages and finally get rendered a
	// last time.
	go func() {
		for _, raw := range candidates {
			checker.Check(ctx, raw)
		}
		checker.StopWait()
	}()
	<-renderingDone

	return nil
}

// renderData gets the current verdict data and then renders (and flushes) it
// to the terminal.
func renderData(term *uilive.Writer, r *renderer, data *statusMap) {
	r.Render(data.Get())
	term.Flush()
}
