package desktop

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"review-responder/internal/vision"
)

// TemplateMatcher scores templates with normalized cross-correlation on
// grayscale images. Scores are in [-1, 1]; 1 is a pixel-perfect match.
type TemplateMatcher struct {
	mu    sync.Mutex
	cache map[string]gocv.Mat
}

// NewTemplateMatcher creates a new TemplateMatcher
func NewTemplateMatcher() *TemplateMatcher {
	return &TemplateMatcher{cache: make(map[string]gocv.Mat)}
}

// Match finds the best placement of tmpl inside frame.
func (m *TemplateMatcher) Match(frame image.Image, tmpl vision.Template) (vision.Match, error) {
	screen, err := toGray(frame)
	if err != nil {
		return vision.Match{}, fmt.Errorf("convert frame: %w", err)
	}
	defer screen.Close()

	templ, err := m.template(tmpl)
	if err != nil {
		return vision.Match{}, err
	}
	if templ.Cols() > screen.Cols() || templ.Rows() > screen.Rows() {
		return vision.Match{}, fmt.Errorf("template %s (%dx%d) larger than frame (%dx%d)",
			tmpl.Name, templ.Cols(), templ.Rows(), screen.Cols(), screen.Rows())
	}

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	if err := gocv.MatchTemplate(screen, templ, &result, gocv.TmCcoeffNormed, mask); err != nil {
		return vision.Match{}, fmt.Errorf("match %s: %w", tmpl.Name, err)
	}
	if result.Empty() {
		return vision.Match{}, fmt.Errorf("match %s: empty result", tmpl.Name)
	}
	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)

	origin := frame.Bounds().Min
	topLeft := maxLoc.Add(origin)
	return vision.Match{
		Template: tmpl.Name,
		Bounds:   image.Rect(topLeft.X, topLeft.Y, topLeft.X+templ.Cols(), topLeft.Y+templ.Rows()),
		Score:    float64(maxVal),
	}, nil
}

func (m *TemplateMatcher) template(tmpl vision.Template) (gocv.Mat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mat, ok := m.cache[tmpl.Name]; ok {
		return mat, nil
	}
	mat, err := toGray(tmpl.Image)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("convert template %s: %w", tmpl.Name, err)
	}
	m.cache[tmpl.Name] = mat
	return mat, nil
}

// Close releases the cached template mats.
func (m *TemplateMatcher) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, mat := range m.cache {
		mat.Close()
		delete(m.cache, name)
	}
}

func toGray(img image.Image) (gocv.Mat, error) {
	bgr, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer bgr.Close()

	gray := gocv.NewMat()
	if err := gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray); err != nil {
		gray.Close()
		return gocv.Mat{}, err
	}
	return gray, nil
}
