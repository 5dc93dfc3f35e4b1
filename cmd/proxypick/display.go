// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/siemens/proxypick/types"
)

// renderer renders the terminal display, based on the checked-proxy
// information passed to its Render method.
type renderer struct {
	w       io.Writer
	spinner *spinner
}

// newRenderer returns a renderer object rendering to the specified
// io.Writer.
func newRenderer(w io.Writer) *renderer {
	sp := newSpinner()
	sp.Start(*spinnerInterval)
	return &renderer{
		w:       w,
		spinner: sp,
	}
}

// Stop the renderer's background ticker.
func (r *renderer) Stop() {
	r.spinner.Stop()
}

// Render the given checked proxies, one line per raw candidate, preceded by
// a summary line.
func (r *renderer) Render(cps []types.CheckedProxy) {
	// If no candidates have entered the stream yet, show a placeholder
	// message.
	if len(cps) == 0 {
		fmt.Fprintf(r.w, "checking proxy candidates against %s...\n", *pingURL)
		return
	}
	// For neat display, determine the length of the longest raw candidate so
	// that the verdict column doesn't zig-zag around.
	maxlen := 0
	alive, judged := 0, 0
	for _, cp := range cps {
		if l := len(cp.Raw); l > maxlen {
			maxlen = l
		}
		if cp.Verdict.IsFinal() {
			judged++
		}
		if cp.Verdict == types.Alive {
			alive++
		}
	}
	fmt.Fprintf(r.w, "%s: %d/%d candidates checked, %d alive\n",
		summaryStyle.Styled("proxy candidates"), judged, len(cps), alive)
	for _, cp := range cps {
		r.renderCandidate(maxlen, cp)
	}
}

// renderCandidate renders one candidate's verdict line.
func (r *renderer) renderCandidate(labelwidth int, cp types.CheckedProxy) {
	fmt.Fprintf(r.w, "   %-*s ", labelwidth, cp.Raw)
	switch cp.Verdict {
	case types.Untested:
		fmt.Fprint(r.w, " ? untested")
	case types.Probing:
		fmt.Fprint(r.w, probingStyle.Styled(" "+r.spinner.Spinner()+"probing "+cp.Proxy.String()))
	case types.Alive:
		fmt.Fprint(r.w, aliveStyle.Styled(
			fmt.Sprintf(" ✔ %s (%v)", cp.Proxy, cp.Latency.Round(time.Millisecond))))
	case types.Dead:
		detail := "probe failed"
		if err := cp.Err(); err != nil {
			detail = err.Error()
		}
		if !cp.Proxy.IsZero() {
			detail = cp.Proxy.String() + ": " + detail
		}
		fmt.Fprint(r.w, deadStyle.Styled(" × "+detail))
	}
	fmt.Fprintln(r.w)
}
