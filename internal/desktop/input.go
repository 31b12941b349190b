// Package desktop binds the responder to the real machine: robotgo for the
// pointer, keyboard and screen capture, OpenCV for template matching and
// Tesseract for OCR. All three are cgo libraries, so nothing else in the
// module imports this package except the command.
package desktop

import (
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"
)

// Robot drives the OS pointer and keyboard and captures the screen.
type Robot struct{}

// NewRobot creates a new Robot
func NewRobot() *Robot {
	return &Robot{}
}

// MoveMouse moves the pointer to (x, y)
func (r *Robot) MoveMouse(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

// MouseDown presses the left button
func (r *Robot) MouseDown() error {
	if err := robotgo.Toggle("left"); err != nil {
		return fmt.Errorf("mouse down: %w", err)
	}
	return nil
}

// MouseUp releases the left button
func (r *Robot) MouseUp() error {
	if err := robotgo.Toggle("left", "up"); err != nil {
		return fmt.Errorf("mouse up: %w", err)
	}
	return nil
}

// TypeStr types text at the focused element
func (r *Robot) TypeStr(text string) error {
	robotgo.TypeStr(text)
	return nil
}

// KeyTap taps key with optional modifiers ("ctrl", "cmd", "shift", "alt").
func (r *Robot) KeyTap(key string, modifiers ...string) error {
	args := make([]interface{}, len(modifiers))
	for i, m := range modifiers {
		args[i] = m
	}
	if err := robotgo.KeyTap(key, args...); err != nil {
		return fmt.Errorf("key tap %s: %w", key, err)
	}
	return nil
}

// Capture grabs the whole main display.
func (r *Robot) Capture() (image.Image, error) {
	bitmap := robotgo.CaptureScreen()
	if bitmap == nil {
		return nil, fmt.Errorf("screen capture returned no bitmap")
	}
	defer robotgo.FreeBitmap(bitmap)

	img := robotgo.ToImage(bitmap)
	if img == nil {
		return nil, fmt.Errorf("screen capture could not be converted")
	}
	return img, nil
}
