//go:build linux || freebsd

package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// sendCoverage is the checksum coverage for sent datagrams
	// ("full" or a payload byte count).
	sendCoverage string

	// recvFilter is the minimum coverage accepted on replies.
	recvFilter string

	// timeout bounds each network operation.
	timeout time.Duration
)

// rootCmd is the top-level cobra command for udplitectl.
var rootCmd = &cobra.Command{
	Use:   "udplitectl",
	Short: "CLI utility for UDP-Lite endpoints",
	Long:  "udplitectl sends UDP-Lite datagrams with configurable checksum coverage, for probing echo servers and checksum filters.",
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sendCoverage, "coverage", "full",
		`checksum coverage for sent datagrams ("full" or payload bytes)`)
	rootCmd.PersistentFlags().StringVar(&recvFilter, "recv-filter", "full",
		`minimum checksum coverage accepted on replies ("full" or payload bytes)`)
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second,
		"timeout per network operation")

	rootCmd.AddCommand(pingCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
