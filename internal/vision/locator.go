// Package vision implements the perception layer: finding reference images on
// the live screen and classifying the review's star rating.
//
// Every lookup goes through one primitive, Locate, parameterized by template,
// confidence threshold and retry budget:
//
//	attempt 1..N:
//	    capture a fresh frame
//	    best match score >= confidence  → found, return center
//	    otherwise (and attempts remain) → randomized backoff
//	give up → not found
//
// Absence is an expected outcome and is reported as a boolean. Capture and
// matcher errors are logged and consume an attempt; they never escape.
package vision

import (
	"fmt"
	"image"
	"time"

	"review-responder/internal/humanize"
	"review-responder/internal/logging"
)

// Screen produces full-screen captures.
type Screen interface {
	Capture() (image.Image, error)
}

// Matcher finds the best placement of a template inside a frame.
type Matcher interface {
	Match(frame image.Image, tmpl Template) (Match, error)
}

// Match is the best placement of a template in a frame.
type Match struct {
	Template string
	Bounds   image.Rectangle
	Score    float64
}

// Center returns the center point of the match
func (m Match) Center() image.Point {
	return image.Point{
		X: m.Bounds.Min.X + m.Bounds.Dx()/2,
		Y: m.Bounds.Min.Y + m.Bounds.Dy()/2,
	}
}

// Thresholds are the confidence levels used per template class.
type Thresholds struct {
	UI       float64 `yaml:"ui"`
	Landmark float64 `yaml:"landmark"`
	Rating   float64 `yaml:"rating"`
}

// DefaultThresholds returns the thresholds the dashboard templates were tuned for.
// Ratings are stricter: a misread rating sends the wrong reply and discount.
func DefaultThresholds() Thresholds {
	return Thresholds{UI: 0.8, Landmark: 0.9, Rating: 0.95}
}

// Validate checks that every threshold lies in (0, 1].
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{"ui": t.UI, "landmark": t.Landmark, "rating": t.Rating} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("threshold %s = %v, must be in (0, 1]", name, v)
		}
	}
	return nil
}

// For returns the threshold that applies to the named template.
func (t Thresholds) For(name string) float64 {
	switch {
	case name == TemplateLandmark:
		return t.Landmark
	case IsRating(name):
		return t.Rating
	default:
		return t.UI
	}
}

// Settings controls the retry budget and backoff ranges.
type Settings struct {
	MaxRetries    int            `yaml:"max_retries"`
	MissBackoff   humanize.Range `yaml:"miss_backoff"`
	ErrorBackoff  humanize.Range `yaml:"error_backoff"`
	RatingBackoff humanize.Range `yaml:"rating_backoff"`
	Thresholds    Thresholds     `yaml:"thresholds"`
}

// DefaultSettings returns three attempts per lookup with short backoffs.
func DefaultSettings() Settings {
	return Settings{
		MaxRetries:    3,
		MissBackoff:   humanize.Between(500*time.Millisecond, time.Second),
		ErrorBackoff:  humanize.Between(time.Second, 2*time.Second),
		RatingBackoff: humanize.Between(200*time.Millisecond, 500*time.Millisecond),
		Thresholds:    DefaultThresholds(),
	}
}

// Validate checks the retry budget, backoffs and thresholds.
func (s Settings) Validate() error {
	if s.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", s.MaxRetries)
	}
	for name, r := range map[string]humanize.Range{
		"miss_backoff":   s.MissBackoff,
		"error_backoff":  s.ErrorBackoff,
		"rating_backoff": s.RatingBackoff,
	} {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("locator.%s: %w", name, err)
		}
	}
	return s.Thresholds.Validate()
}

// Locator resolves templates against the live screen.
type Locator struct {
	screen   Screen
	matcher  Matcher
	library  *Library
	human    *humanize.Humanizer
	settings Settings
}

// NewLocator creates a new Locator
func NewLocator(screen Screen, matcher Matcher, library *Library, human *humanize.Humanizer, settings Settings) *Locator {
	if settings.MaxRetries < 1 {
		settings.MaxRetries = 1
	}
	return &Locator{
		screen:   screen,
		matcher:  matcher,
		library:  library,
		human:    human,
		settings: settings,
	}
}

// Locate searches for a template with up to maxRetries attempts, each on a
// fresh capture.
func (l *Locator) Locate(name string, confidence float64, maxRetries int) (Match, bool) {
	return l.locate(name, confidence, maxRetries, l.settings.MissBackoff)
}

func (l *Locator) locate(name string, confidence float64, maxRetries int, backoff humanize.Range) (Match, bool) {
	tmpl, ok := l.library.Get(name)
	if !ok {
		logging.Error("Template %s is not loaded", name)
		return Match{}, false
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		last := attempt == maxRetries

		frame, err := l.screen.Capture()
		if err != nil {
			logging.Error("Error capturing screen for %s (attempt %d): %v", name, attempt, err)
			if !last {
				l.human.Pause(l.settings.ErrorBackoff)
			}
			continue
		}

		match, err := l.matcher.Match(frame, tmpl)
		if err != nil {
			logging.Error("Error finding %s (attempt %d): %v", name, attempt, err)
			if !last {
				l.human.Pause(l.settings.ErrorBackoff)
			}
			continue
		}

		if match.Score >= confidence {
			match.Template = name
			logging.Debug("Found %s at %v (score %.3f, attempt %d)", name, match.Center(), match.Score, attempt)
			return match, true
		}

		logging.Debug("%s not found (best score %.3f < %.2f, attempt %d/%d)", name, match.Score, confidence, attempt, maxRetries)
		if !last {
			l.human.Pause(backoff)
		}
	}

	return Match{}, false
}

// ClickTemplate locates a template and clicks its center with a human offset.
func (l *Locator) ClickTemplate(name string, confidence float64, maxRetries int) bool {
	match, ok := l.Locate(name, confidence, maxRetries)
	if !ok {
		return false
	}
	if err := l.human.MoveAndClick(match.Center()); err != nil {
		logging.Error("Failed to click %s: %v", name, err)
		return false
	}
	return true
}

// Click locates and clicks a general UI element at the UI threshold and the
// default retry budget.
func (l *Locator) Click(name string) bool {
	return l.ClickTemplate(name, l.settings.Thresholds.UI, l.settings.MaxRetries)
}

// Visible reports whether the named template is on screen, using the full
// retry budget without clicking.
func (l *Locator) Visible(name string, confidence float64) bool {
	_, ok := l.Locate(name, confidence, l.settings.MaxRetries)
	return ok
}

// DetectStarRating tries the rating templates from 5 down to 1 and returns the
// first that matches at the rating threshold, or 0 when none does.
func (l *Locator) DetectStarRating() int {
	logging.Info("Starting star rating detection")
	for stars := 5; stars >= 1; stars-- {
		if _, ok := l.locate(RatingTemplate(stars), l.settings.Thresholds.Rating, l.settings.MaxRetries, l.settings.RatingBackoff); ok {
			logging.Info("Detected %d-star rating", stars)
			return stars
		}
	}
	logging.Warn("Failed to detect star rating, defaulting to 0")
	return 0
}
