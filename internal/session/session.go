// Package session runs the refresh-and-drain loop.
//
// A cycle refreshes the dashboard, then keeps clicking the next "respond"
// button and answering the review it opens until no button is left. One
// failed review never stops the batch. Between cycles the session sleeps for
// a randomized multi-hour interval, which the tray can cut short.
package session

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"review-responder/internal/humanize"
	"review-responder/internal/logging"
	"review-responder/internal/responder"
	"review-responder/internal/vision"
)

// Navigator refreshes the page and clicks UI elements.
type Navigator interface {
	RefreshPage(rs vision.RefreshSettings) bool
	Click(template string) bool
}

// Reviewer answers the review that is currently open.
type Reviewer interface {
	Respond(log *logging.Logger) responder.Outcome
}

// Pacer provides humanized waits and the shared random source.
type Pacer interface {
	Pause(r humanize.Range) time.Duration
	Rand() *rand.Rand
}

// Settings configures a session.
type Settings struct {
	Refresh        vision.RefreshSettings `yaml:"refresh"`
	PanelWait      humanize.Range         `yaml:"panel_wait"`
	BetweenReviews humanize.Range         `yaml:"between_reviews"`
	AfterFailure   humanize.Range         `yaml:"after_failure"`
	Interval       humanize.Range         `yaml:"interval"`
	Jitter         humanize.Range         `yaml:"jitter"`
	// MaxReviewsPerCycle caps respond clicks per cycle; 0 means no cap.
	MaxReviewsPerCycle int `yaml:"max_reviews_per_cycle"`
}

// DefaultSettings returns the stock session settings.
func DefaultSettings(refresh vision.RefreshSettings) Settings {
	return Settings{
		Refresh:            refresh,
		PanelWait:          humanize.Between(time.Second, 2*time.Second),
		BetweenReviews:     humanize.Between(1500*time.Millisecond, 3*time.Second),
		AfterFailure:       humanize.Between(2*time.Second, 3*time.Second),
		Interval:           humanize.Between(4*time.Hour, 6*time.Hour),
		Jitter:             humanize.Between(0, 5*time.Minute),
		MaxReviewsPerCycle: 50,
	}
}

// Report summarizes one cycle.
type Report struct {
	ID        string
	Refreshed bool
	Processed int
	Failed    int
	// Discounts lists the amount given per submitted review, in order.
	Discounts []int
	Started   time.Time
	Finished  time.Time
}

// Session drives review cycles.
type Session struct {
	nav      Navigator
	reviewer Reviewer
	pacer    Pacer
	settings Settings
	stats    *Stats
	wake     chan struct{}
}

// New creates a new Session
func New(nav Navigator, reviewer Reviewer, pacer Pacer, settings Settings, stats *Stats) *Session {
	if stats == nil {
		stats = NewStats()
	}
	return &Session{
		nav:      nav,
		reviewer: reviewer,
		pacer:    pacer,
		settings: settings,
		stats:    stats,
		wake:     make(chan struct{}, 1),
	}
}

// Stats returns the session statistics
func (s *Session) Stats() *Stats {
	return s.stats
}

// Wake ends the current inter-cycle sleep early. Safe to call from any
// goroutine; extra calls while a wake is pending are dropped.
func (s *Session) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run performs one cycle immediately, then sleeps and repeats until ctx is
// cancelled.
func (s *Session) Run(ctx context.Context) error {
	logging.Info("Starting review responder")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.ProcessPendingReviews(ctx)

		wait := s.NextInterval()
		logging.Info("Waiting approximately %d hours and %d minutes before next check",
			int(wait.Hours()), int(wait.Minutes())%60)
		if err := s.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// NextInterval draws the next inter-cycle wait.
func (s *Session) NextInterval() time.Duration {
	rng := s.pacer.Rand()
	return s.settings.Interval.Draw(rng) + s.settings.Jitter.Draw(rng)
}

func (s *Session) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	case <-s.wake:
		logging.Info("Woken early, checking now")
	}
	return nil
}

// ProcessPendingReviews runs one session cycle. Cancellation is honored
// between reviews only.
func (s *Session) ProcessPendingReviews(ctx context.Context) Report {
	report := Report{ID: uuid.NewString(), Started: time.Now()}
	log := logging.With("cycle", report.ID)
	log.Info("Checking for new reviews")

	report.Refreshed = s.nav.RefreshPage(s.settings.Refresh)
	if !report.Refreshed {
		log.Error("Failed to refresh page, continuing with existing page state")
	}

	for opened := 0; ; opened++ {
		if ctx.Err() != nil {
			log.Warn("Cycle interrupted")
			break
		}
		if limit := s.settings.MaxReviewsPerCycle; limit > 0 && opened >= limit {
			log.Warn("Reached %d reviews this cycle, stopping early", limit)
			break
		}
		if !s.nav.Click(vision.TemplateRespondButton) {
			break
		}
		s.pacer.Pause(s.settings.PanelWait)

		out := s.respond(log.With("review", opened+1))
		if !out.Submitted() {
			report.Failed++
			log.Warn("Failed to process review, moving to next one")
			s.pacer.Pause(s.settings.AfterFailure)
			continue
		}

		report.Processed++
		report.Discounts = append(report.Discounts, out.Discount)
		s.pacer.Pause(s.settings.BetweenReviews)
	}

	report.Finished = time.Now()
	s.stats.Record(report)

	if report.Processed+report.Failed > 0 {
		log.Info("Processed %d reviews (%d failed) in %s", report.Processed, report.Failed,
			FormatDuration(report.Finished.Sub(report.Started)))
	} else {
		log.Info("No new reviews found")
	}
	return report
}

func (s *Session) respond(log *logging.Logger) (out responder.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic recovered while processing review: %v", r)
			out = responder.Outcome{State: responder.StateFailed}
		}
	}()
	return s.reviewer.Respond(log)
}
