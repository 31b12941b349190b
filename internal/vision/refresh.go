package vision

import (
	"fmt"
	"image"
	"runtime"
	"time"

	"review-responder/internal/humanize"
	"review-responder/internal/logging"
)

// RefreshSettings configures the layered page refresh.
type RefreshSettings struct {
	ReloadKey      string         `yaml:"reload_key"`
	ReloadModifier string         `yaml:"reload_modifier"`
	FallbackKey    string         `yaml:"fallback_key"`
	FallbackPoint  image.Point    `yaml:"fallback_point"`
	FocusPause     humanize.Range `yaml:"focus_pause"`
	ReloadWait     humanize.Range `yaml:"reload_wait"`
	PollWait       humanize.Range `yaml:"poll_wait"`
	Polls          int            `yaml:"polls"`
}

// DefaultRefreshSettings returns the stock refresh procedure: ctrl+R (cmd+R
// on macOS), then F5, then a click on the usual browser reload button.
func DefaultRefreshSettings() RefreshSettings {
	modifier := "ctrl"
	if runtime.GOOS == "darwin" {
		modifier = "cmd"
	}
	return RefreshSettings{
		ReloadKey:      "r",
		ReloadModifier: modifier,
		FallbackKey:    "f5",
		FallbackPoint:  image.Pt(100, 50),
		FocusPause:     humanize.Between(500*time.Millisecond, time.Second),
		ReloadWait:     humanize.Between(3*time.Second, 5*time.Second),
		PollWait:       humanize.Between(time.Second, 2*time.Second),
		Polls:          3,
	}
}

// Validate checks the refresh ranges and keys.
func (rs RefreshSettings) Validate() error {
	if rs.ReloadKey == "" || rs.FallbackKey == "" {
		return fmt.Errorf("refresh keys must be set")
	}
	if rs.Polls < 1 {
		return fmt.Errorf("refresh polls must be at least 1, got %d", rs.Polls)
	}
	for name, r := range map[string]humanize.Range{"focus_pause": rs.FocusPause, "reload_wait": rs.ReloadWait, "poll_wait": rs.PollWait} {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("refresh.%s: %w", name, err)
		}
	}
	return nil
}

// RefreshPage reloads the dashboard with escalating fallbacks:
//
//  1. click the landmark to focus the dashboard window (absent → fail)
//  2. reload hotkey, wait
//  3. landmark gone → fallback key (F5), wait
//  4. still gone → click the fixed refresh-control coordinate, wait
//  5. poll for the landmark up to Polls times
//
// Returns true only when the landmark is confirmed at the end. Callers carry
// on against the current page state when it returns false.
func (l *Locator) RefreshPage(rs RefreshSettings) bool {
	confidence := l.settings.Thresholds.Landmark

	if !l.ClickTemplate(TemplateLandmark, confidence, l.settings.MaxRetries) {
		logging.Error("Could not find %s to focus the dashboard window", TemplateLandmark)
		return false
	}
	l.human.Pause(rs.FocusPause)

	var modifiers []string
	if rs.ReloadModifier != "" {
		modifiers = append(modifiers, rs.ReloadModifier)
	}
	if err := l.human.Hotkey(rs.ReloadKey, modifiers...); err != nil {
		logging.Warn("Reload hotkey failed: %v", err)
	}
	l.human.Pause(rs.ReloadWait)

	if !l.Visible(TemplateLandmark, confidence) {
		logging.Info("First refresh attempt may have failed, trying %s", rs.FallbackKey)
		if err := l.human.Press(rs.FallbackKey); err != nil {
			logging.Warn("Fallback key failed: %v", err)
		}
		l.human.Pause(rs.ReloadWait)

		if !l.Visible(TemplateLandmark, confidence) {
			logging.Info("Second refresh attempt may have failed, clicking refresh control at %v", rs.FallbackPoint)
			if err := l.human.ClickAt(rs.FallbackPoint); err != nil {
				logging.Warn("Refresh control click failed: %v", err)
			}
			l.human.Pause(rs.ReloadWait)
		}
	}

	polls := rs.Polls
	if polls < 1 {
		polls = 1
	}
	for attempt := 0; attempt < polls; attempt++ {
		if l.Visible(TemplateLandmark, confidence) {
			logging.Info("Page refreshed successfully")
			return true
		}
		l.human.Pause(rs.PollWait)
	}

	logging.Error("All refresh attempts failed")
	return false
}
