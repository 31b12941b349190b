// Package humanize implements pointer and keyboard primitives that look like a
// person operating the machine.
//
// Every action is split into discrete events separated by delays drawn from
// configured ranges:
//
//	MoveAndClick: pre-click pause → move (target ± offset) → post-move pause
//	              → press → press pause → release → settle pause
//	TypeText:     chunks of 2-4 characters, chunk pause between chunks
//
// The ranges live in Timing so that tests can pass zero-width ranges and a
// no-op sleeper and get fully deterministic behavior.
//
// Thread Safety:
// Not thread-safe. The screen, pointer and keyboard are a single physical
// resource and must only be driven from the session goroutine.
package humanize

import (
	"fmt"
	"image"
	"math/rand"
	"time"

	"review-responder/internal/logging"
)

// Input is the low-level device driver.
type Input interface {
	MoveMouse(x, y int) error
	MouseDown() error
	MouseUp() error
	TypeStr(text string) error
	KeyTap(key string, modifiers ...string) error
}

// Timing holds the randomized delay ranges used by the primitives.
type Timing struct {
	PreClick  Range `yaml:"pre_click"`
	PostMove  Range `yaml:"post_move"`
	Press     Range `yaml:"press"`
	Settle    Range `yaml:"settle"`
	Chunk     Range `yaml:"chunk"`
	ChunkMin  int   `yaml:"chunk_min"`
	ChunkMax  int   `yaml:"chunk_max"`
	MaxOffset int   `yaml:"max_offset"`
}

// DefaultTiming returns the delays observed to work against the dashboard.
func DefaultTiming() Timing {
	return Timing{
		PreClick:  Between(200*time.Millisecond, 500*time.Millisecond),
		PostMove:  Between(200*time.Millisecond, 300*time.Millisecond),
		Press:     Between(100*time.Millisecond, 200*time.Millisecond),
		Settle:    Between(300*time.Millisecond, 800*time.Millisecond),
		Chunk:     Between(30*time.Millisecond, 70*time.Millisecond),
		ChunkMin:  2,
		ChunkMax:  4,
		MaxOffset: 5,
	}
}

// Validate checks every range and the chunk bounds.
func (t Timing) Validate() error {
	ranges := map[string]Range{
		"pre_click": t.PreClick,
		"post_move": t.PostMove,
		"press":     t.Press,
		"settle":    t.Settle,
		"chunk":     t.Chunk,
	}
	for name, r := range ranges {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("timing.%s: %w", name, err)
		}
	}
	if t.ChunkMin < 1 || t.ChunkMax < t.ChunkMin {
		return fmt.Errorf("timing chunk size: %w: [%d, %d]", ErrInvalidRange, t.ChunkMin, t.ChunkMax)
	}
	if t.MaxOffset < 0 {
		return fmt.Errorf("timing max_offset: %w: %d", ErrInvalidRange, t.MaxOffset)
	}
	return nil
}

// Option configures a Humanizer.
type Option func(*Humanizer)

// WithRand sets the random source (tests use a fixed seed).
func WithRand(rng *rand.Rand) Option {
	return func(h *Humanizer) { h.rng = rng }
}

// WithSleep replaces time.Sleep (tests use a recorder or a no-op).
func WithSleep(sleep func(time.Duration)) Option {
	return func(h *Humanizer) { h.sleep = sleep }
}

// Humanizer drives an Input with randomized timing and offsets.
type Humanizer struct {
	input  Input
	timing Timing
	rng    *rand.Rand
	sleep  func(time.Duration)
}

// New creates a new Humanizer
func New(input Input, timing Timing, opts ...Option) *Humanizer {
	h := &Humanizer{
		input:  input,
		timing: timing,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Rand exposes the random source so collaborators draw from the same stream.
func (h *Humanizer) Rand() *rand.Rand {
	return h.rng
}

// Pause sleeps for a duration drawn from r.
func (h *Humanizer) Pause(r Range) time.Duration {
	d := r.Draw(h.rng)
	if d > 0 {
		h.sleep(d)
	}
	return d
}

// Jitter moves p by up to MaxOffset pixels on each axis.
func (h *Humanizer) Jitter(p image.Point) image.Point {
	n := h.timing.MaxOffset
	if n <= 0 {
		return p
	}
	return image.Point{
		X: p.X + h.rng.Intn(2*n+1) - n,
		Y: p.Y + h.rng.Intn(2*n+1) - n,
	}
}

// MoveAndClick clicks near target with a random offset.
func (h *Humanizer) MoveAndClick(target image.Point) error {
	return h.click(h.Jitter(target))
}

// ClickAt clicks exactly at p, used for fixed coordinates.
func (h *Humanizer) ClickAt(p image.Point) error {
	return h.click(p)
}

func (h *Humanizer) click(p image.Point) error {
	h.Pause(h.timing.PreClick)

	if err := h.input.MoveMouse(p.X, p.Y); err != nil {
		return fmt.Errorf("move to (%d, %d): %w", p.X, p.Y, err)
	}
	h.Pause(h.timing.PostMove)

	if err := h.input.MouseDown(); err != nil {
		return fmt.Errorf("mouse down at (%d, %d): %w", p.X, p.Y, err)
	}
	h.Pause(h.timing.Press)

	if err := h.input.MouseUp(); err != nil {
		return fmt.Errorf("mouse up at (%d, %d): %w", p.X, p.Y, err)
	}
	h.Pause(h.timing.Settle)

	logging.Debug("Click at (%d, %d)", p.X, p.Y)
	return nil
}

// TypeText types text in randomly sized chunks with a pause between chunks.
func (h *Humanizer) TypeText(text string) error {
	for _, chunk := range h.Chunks(text) {
		if err := h.input.TypeStr(chunk); err != nil {
			return fmt.Errorf("type chunk %q: %w", chunk, err)
		}
		h.Pause(h.timing.Chunk)
	}
	logging.Debug("Typed %d characters", len([]rune(text)))
	return nil
}

// Chunks splits text into pieces of ChunkMin..ChunkMax runes.
func (h *Humanizer) Chunks(text string) []string {
	runes := []rune(text)
	lo, hi := h.timing.ChunkMin, h.timing.ChunkMax
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}

	var chunks []string
	for i := 0; i < len(runes); {
		size := lo + h.rng.Intn(hi-lo+1)
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		i = end
	}
	return chunks
}

// Press taps a single key.
func (h *Humanizer) Press(key string) error {
	if err := h.input.KeyTap(key); err != nil {
		return fmt.Errorf("press %s: %w", key, err)
	}
	logging.Debug("Press key: %s", key)
	return nil
}

// Hotkey taps key while holding modifiers.
func (h *Humanizer) Hotkey(key string, modifiers ...string) error {
	if err := h.input.KeyTap(key, modifiers...); err != nil {
		return fmt.Errorf("hotkey %v+%s: %w", modifiers, key, err)
	}
	logging.Debug("Hotkey: %v+%s", modifiers, key)
	return nil
}
