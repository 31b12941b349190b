// Package inspect runs detection against a saved screenshot instead of the
// live screen, for tuning templates and thresholds offline.
//
// Every template is scored once against the screenshot (no retries, no
// input), the rating is classified with the same 5-to-1 order the live
// responder uses, the customer name is read by OCR, and a copy of the
// screenshot is written with each match boxed and labelled:
//
//	green   UI element above its threshold
//	magenta detected rating
//	yellow  best placement below threshold (near miss, score >= 0.5)
package inspect

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/vcaesar/imgo"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"review-responder/internal/identity"
	"review-responder/internal/logging"
	"review-responder/internal/vision"
)

const nearMiss = 0.5

var (
	colorFound  = color.RGBA{R: 0, G: 220, B: 0, A: 255}
	colorRating = color.RGBA{R: 230, G: 0, B: 230, A: 255}
	colorNear   = color.RGBA{R: 240, G: 200, B: 0, A: 255}
)

// Score is one template's best placement in the screenshot.
type Score struct {
	vision.Match
	Threshold float64
	Found     bool
}

// Result is everything detected in a screenshot.
type Result struct {
	Scores []Score
	Rating int
	Name   string
}

// Inspector scores templates against screenshots.
type Inspector struct {
	library    *vision.Library
	matcher    vision.Matcher
	ocr        identity.Recognizer
	thresholds vision.Thresholds
	upscale    float64
}

// New creates a new Inspector. ocr may be nil to skip name extraction.
func New(library *vision.Library, matcher vision.Matcher, ocr identity.Recognizer, thresholds vision.Thresholds, upscale float64) *Inspector {
	return &Inspector{
		library:    library,
		matcher:    matcher,
		ocr:        ocr,
		thresholds: thresholds,
		upscale:    upscale,
	}
}

// Analyze scores every template against frame.
func (in *Inspector) Analyze(frame image.Image) Result {
	var result Result
	byName := make(map[string]Score)

	for _, name := range in.library.Names() {
		tmpl, _ := in.library.Get(name)
		match, err := in.matcher.Match(frame, tmpl)
		if err != nil {
			logging.Warn("Could not score %s: %v", name, err)
			continue
		}
		match.Template = name
		s := Score{Match: match, Threshold: in.thresholds.For(name)}
		s.Found = s.Score >= s.Threshold
		result.Scores = append(result.Scores, s)
		byName[name] = s
		logging.Info("%-16s score %.3f (threshold %.2f) found=%v at %v", name, s.Score, s.Threshold, s.Found, s.Center())
	}

	for stars := 5; stars >= 1; stars-- {
		if byName[vision.RatingTemplate(stars)].Found {
			result.Rating = stars
			break
		}
	}
	logging.Info("Rating: %d", result.Rating)

	if in.ocr != nil {
		extractor := identity.NewExtractor(vision.NewStaticScreen(frame), in.ocr, in.upscale, "")
		result.Name = extractor.ExtractCustomerName()
		logging.Info("Customer name: %q", result.Name)
	}
	return result
}

// Render draws the result over a copy of frame.
func Render(frame image.Image, result Result) *image.RGBA {
	bounds := frame.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, frame, bounds.Min, draw.Src)

	for _, s := range result.Scores {
		var c color.RGBA
		switch {
		case s.Found && vision.IsRating(s.Template):
			if s.Template != vision.RatingTemplate(result.Rating) {
				continue
			}
			c = colorRating
		case s.Found:
			c = colorFound
		case s.Score >= nearMiss:
			c = colorNear
		default:
			continue
		}
		drawRect(out, s.Bounds, c, 2)
		drawLabel(out, s.Bounds.Min.X, s.Bounds.Min.Y-3, fmt.Sprintf("%s %.2f", s.Template, s.Score), c)
	}

	summary := fmt.Sprintf("rating=%d name=%q", result.Rating, result.Name)
	drawLabel(out, bounds.Min.X+5, bounds.Min.Y+15, summary, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	return out
}

// Save writes img as a PNG, creating the directory if needed.
func Save(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := imgo.Save(path, img); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// File loads the screenshot at shotPath, analyzes it and writes the
// annotated copy to outPath.
func (in *Inspector) File(shotPath, outPath string) (Result, error) {
	logging.Info("=== Inspect Mode Started ===")
	screen, err := vision.LoadStaticScreen(shotPath)
	if err != nil {
		return Result{}, err
	}
	frame, _ := screen.Capture()
	logging.Info("Image loaded: %dx%d", frame.Bounds().Dx(), frame.Bounds().Dy())

	result := in.Analyze(frame)
	if err := Save(outPath, Render(frame, result)); err != nil {
		return result, err
	}
	logging.Info("Saved visualization to %s", outPath)
	return result, nil
}

func drawRect(img *image.RGBA, r image.Rectangle, c color.RGBA, thickness int) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for t := 0; t < thickness; t++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, r.Min.Y+t, c)
			img.SetRGBA(x, r.Max.Y-1-t, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			img.SetRGBA(r.Min.X+t, y, c)
			img.SetRGBA(r.Max.X-1-t, y, c)
		}
	}
}

func drawLabel(img *image.RGBA, x, y int, text string, c color.RGBA) {
	face := basicfont.Face7x13
	if y < face.Ascent {
		y = face.Ascent
	}

	// Darken the strip behind the text so it stays readable.
	width := font.MeasureString(face, text).Ceil()
	bg := image.Rect(x, y-face.Ascent, x+width, y+face.Descent).Intersect(img.Bounds())
	draw.Draw(img, bg, &image.Uniform{C: color.RGBA{A: 160}}, image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
