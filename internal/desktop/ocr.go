package desktop

import (
	"fmt"
	"image"
	"os"

	"github.com/otiai10/gosseract"
	"github.com/vcaesar/imgo"
)

// Tesseract recognizes text with a long-lived gosseract client.
type Tesseract struct {
	client *gosseract.Client
}

// NewTesseract creates a client for the given language ("eng").
func NewTesseract(language string) (*Tesseract, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("set OCR language %s: %w", language, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, fmt.Errorf("set OCR page mode: %w", err)
	}
	return &Tesseract{client: client}, nil
}

// Text runs OCR over img. The image goes through a temp PNG because that is
// the input path the client handles most reliably.
func (t *Tesseract) Text(img image.Image) (string, error) {
	tmp, err := os.CreateTemp("", "ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("create OCR temp file: %w", err)
	}
	name := tmp.Name()
	tmp.Close()
	defer os.Remove(name)

	if err := imgo.Save(name, img); err != nil {
		return "", fmt.Errorf("write OCR input: %w", err)
	}
	if err := t.client.SetImage(name); err != nil {
		return "", fmt.Errorf("load OCR input: %w", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR: %w", err)
	}
	return text, nil
}

// Close releases the tesseract client
func (t *Tesseract) Close() error {
	return t.client.Close()
}
