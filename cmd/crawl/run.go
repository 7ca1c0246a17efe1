package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"crawly/internal/config"
	"crawly/internal/crawler"
	"crawly/internal/display"
	"crawly/internal/eventlog"
	"crawly/internal/fetch"
	"crawly/internal/metrics"
	"crawly/internal/robots"
	"crawly/internal/storage"
)

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	n, err := crawl(cmd.Context(), cfg, streams{
		in:  cmd.InOrStdin(),
		out: cmd.OutOrStdout(),
		err: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Crawled %d pages\n", n)
	return nil
}

// loadConfig layers defaults, the YAML file, .env and the environment, the
// positional seed and finally any flags that were set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	f := cmd.Flags()

	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := new(config.Config)
	if path, _ := f.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		*cfg = config.Default()
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if len(args) > 0 {
		cfg.Seed = args[0]
	}
	if f.Changed("log-file") {
		cfg.LogFile, _ = f.GetString("log-file")
	}
	if f.Changed("concurrency") {
		cfg.Concurrency, _ = f.GetInt("concurrency")
	}
	if headless, _ := f.GetBool("headless"); headless {
		cfg.Interactive = false
	}
	if f.Changed("timeout") {
		d, _ := f.GetDuration("timeout")
		cfg.FetchTimeout = config.DurationFrom(d)
	}
	if f.Changed("robots-timeout") {
		d, _ := f.GetDuration("robots-timeout")
		cfg.RobotsTimeout = config.DurationFrom(d)
	}
	if f.Changed("user-agent") {
		cfg.UserAgent, _ = f.GetString("user-agent")
	}
	if f.Changed("robots-mode") {
		cfg.RobotsMode, _ = f.GetString("robots-mode")
	}
	if f.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = f.GetString("metrics-addr")
	}
	if f.Changed("archive") {
		cfg.Archive.Backend, _ = f.GetString("archive")
	}
	if f.Changed("archive-dsn") {
		cfg.Archive.DSN, _ = f.GetString("archive-dsn")
	}
	if verbose, _ := f.GetBool("verbose"); verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// crawl wires the engine, status display, keyboard listener and metrics
// endpoint, and returns the number of distinct addresses admitted.
func crawl(ctx context.Context, cfg *config.Config, s streams) (int, error) {
	inFd, inTTY := terminal(s.in)
	_, outTTY := terminal(s.out)
	interactive := cfg.Interactive && outTTY

	level, err := cfg.LogLevel()
	if err != nil {
		return 0, err
	}
	if interactive {
		// keep stderr off the status screen
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(s.err, &slog.HandlerOptions{Level: level}))

	events, err := eventlog.Open(cfg.LogFile)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := events.Close(); err != nil {
			logger.Error("closing event log", "path", cfg.LogFile, "error", err)
		}
	}()

	archive, err := storage.Open(ctx, cfg.Archive.Backend, cfg.Archive.DSN)
	if err != nil {
		return 0, fmt.Errorf("archive: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := archive.Close(closeCtx); err != nil {
			logger.Error("closing archive", "backend", cfg.Archive.Backend, "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	counters := metrics.New(reg)

	policy := robots.New(
		robots.WithUserAgent(cfg.UserAgent),
		robots.WithTimeout(cfg.RobotsTimeout.Duration),
		robots.WithMode(robots.Mode(cfg.RobotsMode)),
		robots.WithLogger(logger),
	)

	engine := crawler.New(crawler.Options{
		Fetcher:      fetch.NewClient(nil, cfg.FetchTimeout.Duration, cfg.UserAgent, cfg.MaxBodyBytes),
		Robots:       policy,
		Sink:         eventlog.Multi{events, eventlog.Slog{Logger: logger}},
		Archive:      archive,
		Counters:     counters,
		FetchTimeout: cfg.FetchTimeout.Duration,
		Logger:       logger,
	})
	// zero is a valid starting bound; the keyboard can raise it
	engine.SetConcurrency(cfg.Concurrency)

	crawlCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(crawlCtx)

	var total int
	g.Go(func() error {
		defer cancel()
		n, err := engine.Run(gctx, cfg.Seed)
		total = n
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	renderer := &display.Renderer{
		Out:         s.out,
		Source:      engine,
		Seed:        cfg.Seed,
		LogFile:     cfg.LogFile,
		Interactive: interactive,
		Interval:    cfg.Display.Interval.Duration,
		SampleWidth: cfg.Display.SampleWidth,
	}
	g.Go(func() error {
		return renderer.Run(gctx)
	})

	var restore func()
	if interactive && inTTY {
		state, err := term.MakeRaw(inFd)
		if err != nil {
			logger.Warn("keyboard controls disabled", "error", err)
		} else {
			restore = func() { _ = term.Restore(inFd, state) }
			input := &display.Input{
				In:       s.in,
				Controls: engine,
				Quit:     cancel,
				Step:     cfg.Display.Step,
			}
			g.Go(func() error {
				return input.Run(gctx)
			})
		}
	}

	if cfg.MetricsAddr != "" {
		logger.Info("serving metrics", "addr", cfg.MetricsAddr)
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.MetricsAddr, reg)
		})
	}

	err = g.Wait()
	if restore != nil {
		restore()
	}
	if interactive {
		fmt.Fprint(s.out, "\r\n")
	}
	return total, err
}

// terminal reports the descriptor behind v and whether it is a terminal.
func terminal(v any) (int, bool) {
	f, ok := v.(*os.File)
	if !ok {
		return 0, false
	}
	fd := f.Fd()
	return int(fd), isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
