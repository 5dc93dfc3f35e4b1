// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	pingURL         *string
	maxTimeout      *time.Duration
	forceRetry      *bool
	retryCycles     *uint
	checkAll        *bool
	proxyFile       *string
	spinnerInterval *time.Duration
	workerNumber    *uint
	verbose         *bool
)

// log is the CLI-wide structured logger; the selection engine's diagnostic
// sink is wired into it at debug level.
var log = logrus.New()

func newRootCmd() (rootCmd *cobra.Command) {
	rootCmd = &cobra.Command{
		Use:     "proxypick [flags] [proxy ...]",
		Short:   "proxypick picks a working HTTP/HTTPS forward proxy from a candidate list",
		Long: `proxypick picks a working HTTP/HTTPS forward proxy from a candidate list,
probing randomly drawn candidates against a reference URL until one of them
forwards traffic. Candidates take the form "host:port" or
"user:pass@host:port"; hostnames get resolved into IPv4 literals first.`,
		Version: "1.0",
		Args:    cobra.ArbitraryArgs,
		PersistentPreRunE: func(_ *cobra.Command, args []string) error {
			if *maxTimeout < 10*time.Millisecond {
				return fmt.Errorf("--timeout must be at least 10ms")
			}
			if *workerNumber < 1 || *workerNumber > 32 {
				return fmt.Errorf("--workers out of range [1..32]")
			}
			if *spinnerInterval < 10*time.Millisecond {
				return fmt.Errorf("--spinner must be at least 10ms")
			}
			if len(args) == 0 && *proxyFile == "" {
				return fmt.Errorf("no proxy candidates: pass them as arguments or via --file")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if *verbose {
				log.SetLevel(logrus.DebugLevel)
				log.Debugf("verbose diagnostics enabled")
			}
			candidates, err := gatherCandidates(args, *proxyFile)
			if err != nil {
				return err
			}
			if *checkAll {
				return CheckAndReport(context.Background(), candidates)
			}
			return PickAndReport(context.Background(), candidates)
		},
	}
	// Sets up the flags.
	pingURL = rootCmd.PersistentFlags().String(
		"ping-url", "https://www.google.com", "reference URL judging proxy reachability")
	maxTimeout = rootCmd.PersistentFlags().Duration(
		"timeout", 5*time.Second, "per-probe budget")
	forceRetry = rootCmd.PersistentFlags().Bool(
		"force-retry", false, "on exhaustion, clear the tested-cache and start over")
	retryCycles = rootCmd.PersistentFlags().Uint(
		"retry-cycles", 0, "bound on force-retry cycles, 0 meaning unlimited")
	checkAll = rootCmd.PersistentFlags().Bool(
		"check", false, "check all candidates instead of picking the first working one")
	proxyFile = rootCmd.PersistentFlags().StringP(
		"file", "f", "", "file with one proxy candidate per line")
	spinnerInterval = rootCmd.PersistentFlags().Duration(
		"spinner", 100*time.Millisecond, "spinner interval")
	workerNumber = rootCmd.PersistentFlags().Uint(
		"workers", 5, "number of concurrent probe workers with --check")
	verbose = rootCmd.PersistentFlags().BoolP(
		"verbose", "v", false, "enable diagnostic output")
	return
}
