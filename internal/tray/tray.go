// Package tray shows the responder in the system tray.
//
// Menu:
//
//	Status: <summary>     (read-only, refreshed periodically)
//	---
//	Check now             wakes the session from its inter-cycle sleep
//	---
//	Quit                  terminates the process
//
// The tray never touches the screen or the ledger; it only reads statistics
// and forwards clicks to the callbacks it was given.
package tray

import (
	"time"

	"github.com/getlantern/systray"

	"review-responder/internal/logging"
)

const maxTitleRunes = 96

// Options wires the tray to the rest of the process.
type Options struct {
	Title    string
	Status   func() string
	CheckNow func()
	Quit     func()
	// Refresh is how often the status line is redrawn.
	Refresh time.Duration
}

// App is the tray application
type App struct {
	opts       Options
	statusItem *systray.MenuItem
	done       chan struct{}
}

// New creates a new App
func New(opts Options) *App {
	if opts.Title == "" {
		opts.Title = "Review Responder"
	}
	if opts.Refresh <= 0 {
		opts.Refresh = 30 * time.Second
	}
	return &App{opts: opts, done: make(chan struct{})}
}

// Run blocks on the tray event loop. start is launched in the background
// once the tray is ready. Must be called from the main goroutine.
func (a *App) Run(start func()) {
	logging.Info("Starting system tray application")
	systray.Run(func() {
		a.onReady()
		if start != nil {
			go start()
		}
	}, func() {
		close(a.done)
		logging.Info("System tray exit complete")
	})
}

// Stop ends the tray event loop, making Run return.
func (a *App) Stop() {
	systray.Quit()
}

func (a *App) onReady() {
	systray.SetTitle(a.opts.Title)
	systray.SetTooltip(a.opts.Title)

	a.statusItem = systray.AddMenuItem(StatusTitle("Starting..."), "Current responder status")
	a.statusItem.Disable()

	systray.AddSeparator()
	checkItem := systray.AddMenuItem("Check now", "Check for new reviews now")

	systray.AddSeparator()
	quitItem := systray.AddMenuItem("Quit", "Quit the application")

	go a.handleEvents(checkItem, quitItem)
	go a.refreshStatus()

	logging.Info("System tray initialized")
}

func (a *App) handleEvents(checkItem, quitItem *systray.MenuItem) {
	for {
		select {
		case <-checkItem.ClickedCh:
			logging.Info("Check requested from tray")
			if a.opts.CheckNow != nil {
				a.opts.CheckNow()
			}
		case <-quitItem.ClickedCh:
			logging.Info("Quit requested by user")
			if a.opts.Quit != nil {
				a.opts.Quit()
			}
			return
		case <-a.done:
			return
		}
	}
}

func (a *App) refreshStatus() {
	ticker := time.NewTicker(a.opts.Refresh)
	defer ticker.Stop()

	for {
		a.updateStatus()
		select {
		case <-ticker.C:
		case <-a.done:
			return
		}
	}
}

func (a *App) updateStatus() {
	if a.opts.Status == nil {
		return
	}
	a.statusItem.SetTitle(StatusTitle(a.opts.Status()))
}

// StatusTitle formats the status menu line, shortened to fit a menu.
func StatusTitle(status string) string {
	title := []rune("Status: " + status)
	if len(title) > maxTitleRunes {
		return string(title[:maxTitleRunes-3]) + "..."
	}
	return string(title)
}
