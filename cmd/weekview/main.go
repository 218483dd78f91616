package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"weekview/internal/calendar"
	"weekview/internal/capture"
	"weekview/internal/config"
	"weekview/internal/dateutil"
	appLog "weekview/internal/log"
	"weekview/internal/source"
	"weekview/internal/tui"
	"weekview/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values; they override the config file.
type flagConfig struct {
	configPath string
	listen     string
	mode       string
	logLevel   string
	logFile    string
	once       bool

	snapshot     string
	snapshotDate string
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.logLevel != "" {
		conf.LogLevel = flags.logLevel
	}

	closeLog, err := setupLogging(conf, flags)
	if err != nil {
		appLog.Error("failed to set up logging", err, "log_file", flags.logFile)
		os.Exit(1)
	}
	defer closeLog()

	appLog.Info("weekview starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"backfill_days", conf.BackfillDays,
		"number_of_days", conf.View.NumberOfDays,
		"ics_count", len(conf.ICS),
		"mode", flags.mode,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := run(ctx, conf, flags); err != nil {
		appLog.Error("weekview failed", err, "mode", flags.mode)
		os.Exit(1)
	}
	appLog.Info("weekview exiting")
}

func run(ctx context.Context, conf *config.Config, flags flagConfig) error {
	loader, err := source.NewLoader(conf)
	if err != nil {
		return err
	}
	store := source.NewStore()
	refresher := source.NewRefresher(loader, store, nil)

	// A failed first load is not fatal: cached or later refreshes may
	// recover, and the grid renders empty meanwhile.
	_ = refresher.Refresh(ctx)

	if flags.once {
		return printCurrentPage(os.Stdout, conf, store)
	}
	if flags.snapshot != "" {
		return snapshot(ctx, conf, store, flags)
	}

	if err := refresher.Start(ctx, conf.RefreshCron); err != nil {
		return err
	}
	defer refresher.Stop()

	switch flags.mode {
	case "serve":
		return web.NewServer(conf, store).Serve(ctx)
	case "tui":
		opts, err := conf.ViewOptions(time.Now())
		if err != nil {
			return err
		}
		return tui.Run(ctx, opts, store)
	default:
		return fmt.Errorf("unknown mode %q (want serve or tui)", flags.mode)
	}
}

// printCurrentPage writes the configured page as plain text, one day per
// block.
func printCurrentPage(w io.Writer, conf *config.Config, store *source.Store) error {
	opts, err := conf.ViewOptions(time.Now())
	if err != nil {
		return err
	}
	cal, err := calendar.New(opts, nil)
	if err != nil {
		return err
	}
	defer cal.Close()

	events, v := store.Snapshot()
	if err := cal.SetEvents(events, v); err != nil {
		return err
	}
	page, err := cal.CurrentPage()
	if err != nil {
		return err
	}

	for i, day := range page.Days {
		fmt.Fprintf(w, "%s %s\n", day.Key, page.Columns[i].Label)
		for _, ev := range day.AllDay {
			fmt.Fprintf(w, "  all-day      %s\n", ev.Name)
		}
		for _, ev := range day.Events {
			fmt.Fprintf(w, "  %s-%s  %s\n", ev.Start.Format("15:04"), ev.End.Format("15:04"), ev.Name)
		}
	}
	fmt.Fprintf(w, "(%d events, window %s, generated %s)\n",
		len(events), dateutil.Key(cal.Anchor()), time.Now().Format(time.RFC3339))
	return nil
}

// snapshot serves the HTML week page on a loopback listener, captures it
// with headless Chromium and exits. "-" writes to the cache dir preview.
func snapshot(ctx context.Context, conf *config.Config, store *source.Store, flags flagConfig) error {
	out := flags.snapshot
	if out == "-" {
		out = filepath.Join(conf.CacheDir, web.PreviewFile)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("snapshot: listen: %w", err)
	}
	// The listener is loopback-only and lives for one capture; basic auth
	// is left off so Chromium needs no credentials.
	local := *conf
	local.BasicAuth = nil
	srv := &http.Server{
		Handler:           web.NewServer(&local, store).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("snapshot server failed", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	date := flags.snapshotDate
	if date == "" {
		loc, err := conf.Location()
		if err != nil {
			return err
		}
		date = dateutil.Key(time.Now().In(loc))
	}

	u := fmt.Sprintf("http://%s/week?date=%s", ln.Addr().String(), date)
	return capture.WeekPNG(ctx, capture.Options{URL: u, OutputPath: out})
}

// setupLogging applies level and format. In TUI mode the terminal belongs to
// the grid, so logs go to --log-file or nowhere.
func setupLogging(conf *config.Config, flags flagConfig) (func(), error) {
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	appLog.SetFormat(conf.LogFormat)

	closeFn := func() {}
	switch {
	case flags.logFile != "":
		f, err := os.OpenFile(flags.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return closeFn, err
		}
		appLog.SetOutput(f)
		closeFn = func() { _ = f.Close() }
	case flags.mode == "tui" && !flags.once:
		appLog.SetOutput(io.Discard)
	}
	return closeFn, nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./weekview.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.mode, "mode", "serve", "Front end: serve (HTTP API) or tui (terminal)")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Log level: debug, info, error (overrides config if set)")
	flag.StringVar(&cfg.logFile, "log-file", "", "Write logs to this file instead of stderr")
	flag.BoolVar(&cfg.once, "once", false, "Load events once, print the current page and exit")
	flag.StringVar(&cfg.snapshot, "snapshot", "", "Capture the week page to this PNG path and exit (\"-\" for the cache dir preview)")
	flag.StringVar(&cfg.snapshotDate, "snapshot-date", "", "Date to capture, YYYY-MM-DD (default: today)")

	flag.Parse()

	return cfg
}
