package vision

import (
	"fmt"
	"image"

	"github.com/vcaesar/imgo"
)

// StaticScreen replays a single saved frame. Used to run detection offline
// against a screenshot.
type StaticScreen struct {
	frame image.Image
}

// NewStaticScreen wraps an in-memory frame
func NewStaticScreen(frame image.Image) *StaticScreen {
	return &StaticScreen{frame: frame}
}

// LoadStaticScreen reads a screenshot from disk.
func LoadStaticScreen(path string) (*StaticScreen, error) {
	img, err := imgo.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load screenshot %s: %w", path, err)
	}
	return &StaticScreen{frame: img}, nil
}

// Capture returns the stored frame
func (s *StaticScreen) Capture() (image.Image, error) {
	if s.frame == nil {
		return nil, fmt.Errorf("static screen has no frame")
	}
	return s.frame, nil
}
