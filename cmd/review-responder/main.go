// Command review-responder answers merchant dashboard reviews by watching
// the screen.
//
// Usage:
//
//	review-responder [-config config.yaml] [-once] [-debug]
//	review-responder -inspect shot.png [-out result.png]
//
// Exit codes: 0 normal exit, 1 startup failure, 2 unhandled panic.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"review-responder/internal/config"
	"review-responder/internal/logging"
	"review-responder/internal/tray"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config (created with defaults if missing)")
	once := flag.Bool("once", false, "run a single review cycle and exit")
	inspectPath := flag.String("inspect", "", "analyze a saved screenshot instead of the live screen")
	inspectOut := flag.String("out", "result.png", "annotated image written by -inspect")
	debug := flag.Bool("debug", false, "verbose console logging and OCR snapshots")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *debug {
		cfg.Debug = true
		cfg.Log.ConsoleLevel = "debug"
	}

	closeLog, err := logging.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC: %v\n", r)
			logging.Error("PANIC in main: %v", r)
			closeLog()
			os.Exit(2)
		}
	}()
	defer closeLog()

	logging.Info("=== Review Responder Started (%s/%s) ===", runtime.GOOS, runtime.GOARCH)

	if *inspectPath != "" {
		if err := runInspect(cfg, *inspectPath, *inspectOut); err != nil {
			logging.Error("Inspect failed: %v", err)
			closeLog()
			os.Exit(1)
		}
		return
	}

	a, err := newApp(cfg)
	if err != nil {
		logging.Error("Startup failed: %v", err)
		closeLog()
		os.Exit(1)
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once || !cfg.Tray {
		err = a.run(ctx, *once)
	} else {
		err = runWithTray(ctx, stop, a)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error("Responder stopped: %v", err)
	}
	logging.Info("=== Review Responder Shutdown ===")
}

// runWithTray keeps the tray on the main goroutine and the session in the
// background. Quit from the tray cancels the session like a signal does.
func runWithTray(ctx context.Context, stop context.CancelFunc, a *app) error {
	errc := make(chan error, 1)
	t := tray.New(tray.Options{
		Status:   func() string { return a.session.Stats().Snapshot().Summary() },
		CheckNow: a.session.Wake,
		Quit:     stop,
	})
	t.Run(func() {
		errc <- a.run(ctx, false)
		t.Stop()
	})

	select {
	case err := <-errc:
		return err
	default:
		return nil
	}
}
