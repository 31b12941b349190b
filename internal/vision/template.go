package vision

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"

	"github.com/vcaesar/imgo"

	"review-responder/internal/logging"
)

// Template names. Each one is a reference image cut from the dashboard.
const (
	TemplateLandmark      = "lifetime"
	TemplateRespondButton = "respond_button"
	TemplateTextBox       = "text_box"
	TemplateOtherDiscount = "other_discount"
	TemplateAmountBox     = "amount_box"
	TemplateSendButton    = "send_button"
)

// RatingTemplate returns the template name for a star rating (1-5).
func RatingTemplate(stars int) string {
	return fmt.Sprintf("%dstar", stars)
}

// DefaultTemplateFiles maps every template name to its file name.
func DefaultTemplateFiles() map[string]string {
	files := map[string]string{
		TemplateLandmark:      "lifetime.png",
		TemplateRespondButton: "respond_button.png",
		TemplateTextBox:       "text_box.png",
		TemplateOtherDiscount: "other_discount.png",
		TemplateAmountBox:     "amount_box.png",
		TemplateSendButton:    "send_button.png",
	}
	for stars := 1; stars <= 5; stars++ {
		files[RatingTemplate(stars)] = RatingTemplate(stars) + ".png"
	}
	return files
}

// Template is a named reference image.
type Template struct {
	Name  string
	Image image.Image
}

// Library holds the reference images keyed by template name.
type Library struct {
	templates map[string]Template
}

// NewLibrary creates a library from in-memory images
func NewLibrary(images map[string]image.Image) *Library {
	lib := &Library{templates: make(map[string]Template, len(images))}
	for name, img := range images {
		lib.templates[name] = Template{Name: name, Image: img}
	}
	return lib
}

// LoadLibrary reads every template file from dir. A missing or unreadable
// file is an error: the bot cannot run with an incomplete visual vocabulary.
func LoadLibrary(dir string, files map[string]string) (*Library, error) {
	lib := &Library{templates: make(map[string]Template, len(files))}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, files[name])
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
		img, err := imgo.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to decode template %s (%s): %w", name, path, err)
		}
		lib.templates[name] = Template{Name: name, Image: img}
		logging.Debug("Loaded template %s from %s (%dx%d)", name, path, img.Bounds().Dx(), img.Bounds().Dy())
	}

	logging.Info("Loaded %d templates from %s", len(lib.templates), dir)
	return lib, nil
}

// Get returns the template with the given name.
func (l *Library) Get(name string) (Template, bool) {
	t, ok := l.templates[name]
	return t, ok
}

// Len returns the number of templates
func (l *Library) Len() int {
	return len(l.templates)
}

// Names returns the template names in sorted order
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRating reports whether name is one of the star rating templates.
func IsRating(name string) bool {
	for stars := 1; stars <= 5; stars++ {
		if name == RatingTemplate(stars) {
			return true
		}
	}
	return false
}
