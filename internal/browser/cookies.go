package browser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
)

// CookieData is a browser cookie as stored on disk.
type CookieData struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

// LoadCookies reads saved cookies. A missing file yields no cookies.
func LoadCookies(path string) ([]CookieData, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies %s: %w", path, err)
	}

	var cookies []CookieData
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("failed to parse cookies %s: %w", path, err)
	}
	return cookies, nil
}

// SaveCookies writes cookies with 2-space indentation.
func SaveCookies(path string, cookies []CookieData) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cookie dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cookies); err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}
	return nil
}

// Expired reports whether a persistent cookie is past its expiry at now.
// Session cookies (Expires <= 0) are kept.
func (c CookieData) Expired(now time.Time) bool {
	return c.Expires > 0 && float64(now.Unix()) >= c.Expires
}

// Fresh returns the cookies that have not expired at now.
func Fresh(cookies []CookieData, now time.Time) []CookieData {
	var out []CookieData
	for _, c := range cookies {
		if !c.Expired(now) {
			out = append(out, c)
		}
	}
	return out
}

func fromNetwork(raw []*network.Cookie) []CookieData {
	out := make([]CookieData, 0, len(raw))
	for _, c := range raw {
		out = append(out, CookieData{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return out
}

func (c CookieData) setParams() *network.SetCookieParams {
	p := network.SetCookie(c.Name, c.Value).
		WithDomain(c.Domain).
		WithPath(c.Path).
		WithHTTPOnly(c.HTTPOnly).
		WithSecure(c.Secure)
	if c.Expires > 0 {
		expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
		p = p.WithExpires(&expires)
	}
	if c.SameSite != "" {
		p = p.WithSameSite(network.CookieSameSite(c.SameSite))
	}
	return p
}
