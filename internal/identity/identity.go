// Package identity extracts the reviewer's display name from the screen.
//
// The heuristic assumes the name is rendered near the top of the review
// panel: OCR the whole screen, keep the first five non-empty lines, and take
// the first one that is short and is not UI chrome. Anything else, including
// capture or OCR failures, falls back to Unknown.
//
// Known limitation: this is a best-effort guess, not an identity system. A
// short line of UI text that is not on the stoplist will be taken as a name,
// and two customers with the same display name share one ledger entry.
package identity

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nfnt/resize"
	"github.com/vcaesar/imgo"

	"review-responder/internal/logging"
	"review-responder/internal/vision"
)

// Unknown is returned when no line looks like a name. All unresolved
// reviewers share this ledger bucket.
const Unknown = "Unknown"

const (
	maxLines   = 5
	maxNameLen = 30
)

var stopwords = []string{"star", "review", "respond", "template"}

// Recognizer turns an image into raw text.
type Recognizer interface {
	Text(img image.Image) (string, error)
}

// Extractor reads the customer name off the live screen.
type Extractor struct {
	screen      vision.Screen
	ocr         Recognizer
	upscale     float64
	snapshotDir string
}

// NewExtractor creates a new Extractor. upscale > 1 enlarges the capture
// before OCR; snapshotDir, when set, keeps every OCR input for debugging.
func NewExtractor(screen vision.Screen, ocr Recognizer, upscale float64, snapshotDir string) *Extractor {
	return &Extractor{
		screen:      screen,
		ocr:         ocr,
		upscale:     upscale,
		snapshotDir: snapshotDir,
	}
}

// ExtractCustomerName captures the screen, runs OCR and picks a name.
func (e *Extractor) ExtractCustomerName() string {
	frame, err := e.screen.Capture()
	if err != nil {
		logging.Warn("Customer name capture failed: %v", err)
		return Unknown
	}

	frame = e.prepare(frame)
	e.snapshot(frame)

	text, err := e.ocr.Text(frame)
	if err != nil {
		logging.Warn("OCR failed: %v", err)
		return Unknown
	}

	name := PickName(text)
	logging.Debug("Customer name resolved to %q", name)
	return name
}

func (e *Extractor) prepare(frame image.Image) image.Image {
	if e.upscale <= 1 {
		return frame
	}
	b := frame.Bounds()
	w := uint(float64(b.Dx()) * e.upscale)
	h := uint(float64(b.Dy()) * e.upscale)
	return resize.Resize(w, h, frame, resize.Bicubic)
}

func (e *Extractor) snapshot(frame image.Image) {
	if e.snapshotDir == "" {
		return
	}
	path := filepath.Join(e.snapshotDir, fmt.Sprintf("ocr_%s.png", time.Now().Format("20060102_150405")))
	if err := imgo.Save(path, frame); err != nil {
		logging.Warn("Failed to save OCR snapshot: %v", err)
	}
}

// PickName returns the first of the first five non-empty lines that is under
// 30 characters and contains none of the UI stopwords.
func PickName(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}

	for _, line := range lines {
		if acceptable(line) {
			return line
		}
	}
	return Unknown
}

func acceptable(line string) bool {
	if utf8.RuneCountInString(line) >= maxNameLen {
		return false
	}
	lower := strings.ToLower(line)
	for _, word := range stopwords {
		if strings.Contains(lower, word) {
			return false
		}
	}
	return true
}
