package main

import (
	"context"
	"fmt"
	"os"

	"review-responder/internal/browser"
	"review-responder/internal/config"
	"review-responder/internal/desktop"
	"review-responder/internal/humanize"
	"review-responder/internal/identity"
	"review-responder/internal/inspect"
	"review-responder/internal/ledger"
	"review-responder/internal/logging"
	"review-responder/internal/responder"
	"review-responder/internal/session"
	"review-responder/internal/vision"
)

// app owns every long-lived component of a live run.
type app struct {
	cfg       *config.Config
	matcher   *desktop.TemplateMatcher
	ocr       *desktop.Tesseract
	dashboard *browser.Dashboard
	session   *session.Session
}

func newApp(cfg *config.Config) (*app, error) {
	library, err := vision.LoadLibrary(cfg.TemplateDir, cfg.TemplateFiles)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	book, err := ledger.Load(cfg.LedgerFile)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	ocr, err := desktop.NewTesseract(cfg.OCR.Language)
	if err != nil {
		return nil, fmt.Errorf("start OCR: %w", err)
	}

	snapshotDir := ""
	if cfg.Debug {
		snapshotDir = cfg.DebugDir
		if err := os.MkdirAll(snapshotDir, 0o755); err != nil {
			logging.Warn("Debug snapshots disabled: %v", err)
			snapshotDir = ""
		}
	}

	robot := desktop.NewRobot()
	matcher := desktop.NewTemplateMatcher()
	human := humanize.New(robot, cfg.Timing)
	locator := vision.NewLocator(robot, matcher, library, human, cfg.Locator)
	names := identity.NewExtractor(robot, ocr, cfg.OCR.Upscale, snapshotDir)
	resp := responder.New(locator, human, names, book, cfg.Responder)

	a := &app{
		cfg:     cfg,
		matcher: matcher,
		ocr:     ocr,
		session: session.New(locator, resp, human, cfg.Session, session.NewStats()),
	}
	if cfg.Dashboard.Launch {
		a.dashboard = browser.New(cfg.Dashboard)
	}
	return a, nil
}

func (a *app) run(ctx context.Context, once bool) error {
	if a.dashboard != nil {
		// The browser outlives ctx so cookies can still be read on close.
		if err := a.dashboard.Open(context.Background()); err != nil {
			return err
		}
	}

	if once {
		report := a.session.ProcessPendingReviews(ctx)
		logging.Info("Single cycle finished: %d replied, %d failed", report.Processed, report.Failed)
		return nil
	}
	return a.session.Run(ctx)
}

func (a *app) close() {
	logging.Info(a.session.Stats().Snapshot().Summary())
	if a.dashboard != nil {
		a.dashboard.Close()
	}
	a.matcher.Close()
	if err := a.ocr.Close(); err != nil {
		logging.Warn("Closing OCR client: %v", err)
	}
}

func runInspect(cfg *config.Config, shotPath, outPath string) error {
	library, err := vision.LoadLibrary(cfg.TemplateDir, cfg.TemplateFiles)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	matcher := desktop.NewTemplateMatcher()
	defer matcher.Close()

	var rec identity.Recognizer
	if ocr, err := desktop.NewTesseract(cfg.OCR.Language); err != nil {
		logging.Warn("OCR unavailable, skipping name extraction: %v", err)
	} else {
		defer ocr.Close()
		rec = ocr
	}

	in := inspect.New(library, matcher, rec, cfg.Locator.Thresholds, cfg.OCR.Upscale)
	result, err := in.File(shotPath, outPath)
	if err != nil {
		return err
	}
	logging.Info("Inspect result: rating=%d name=%q", result.Rating, result.Name)
	return nil
}
