package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the crawl command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url]",
		Short: "Concurrent robots-aware web crawler",
		Long: `crawl starts at a seed URL and follows every absolute or root-relative
link it finds, visiting each address once. Hosts' robots.txt Disallow rules
are honoured. Events are appended to a log file while a status line shows
progress.

In interactive mode the arrow keys adjust the concurrency bound:
Up/Down change it by the step, Right/Left change the step by 10, q quits.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCrawl,
	}

	f := cmd.Flags()
	f.String("config", "", "Path to a YAML configuration file")
	f.String("log-file", "", "Event log path (default crawl.log)")
	f.IntP("concurrency", "c", 0, "Initial maximum concurrent fetches (default 20)")
	f.Bool("headless", false, "Disable the interactive display and keyboard controls")
	f.Duration("timeout", 0, "Per-page fetch timeout (default 4s)")
	f.Duration("robots-timeout", 0, "robots.txt fetch timeout (default 5s)")
	f.String("user-agent", "", "User-Agent header for page and robots requests")
	f.String("robots-mode", "", "robots.txt matching: prefix or agent")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	f.String("archive", "", "Archive fetched pages: none, mongo or sqlite")
	f.String("archive-dsn", "", "MongoDB URI or SQLite file for the archive")
	f.BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
