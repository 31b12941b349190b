package browser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
)

func TestCookiesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "cookies.json")
	cookies := []CookieData{
		{Name: "session", Value: "abc", Domain: ".doordash.com", Path: "/", Expires: 1.9e9, HTTPOnly: true, Secure: true, SameSite: "Lax"},
		{Name: "locale", Value: "en-US", Domain: ".doordash.com", Path: "/"},
	}

	if err := SaveCookies(path, cookies); err != nil {
		t.Fatalf("SaveCookies failed: %v", err)
	}
	loaded, err := LoadCookies(path)
	if err != nil {
		t.Fatalf("LoadCookies failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(loaded))
	}
	if loaded[0] != cookies[0] || loaded[1] != cookies[1] {
		t.Errorf("loaded %+v, expected %+v", loaded, cookies)
	}
}

func TestLoadCookiesMissingFile(t *testing.T) {
	cookies, err := LoadCookies(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(cookies) != 0 {
		t.Errorf("expected no cookies, got %d", len(cookies))
	}
}

func TestLoadCookiesCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	os.WriteFile(path, []byte("[{"), 0o644)
	if _, err := LoadCookies(path); err == nil {
		t.Error("expected error for corrupt cookie file")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"defaults", func(o *Options) {}, false},
		{"launch defaults", func(o *Options) { o.Launch = true }, false},
		{"launch without url", func(o *Options) { o.Launch = true; o.URL = "" }, true},
		{"launch zero size", func(o *Options) { o.Launch = true; o.Width = 0 }, true},
		{"no launch ignores size", func(o *Options) { o.Width = 0 }, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			opts := DefaultOptions()
			test.mutate(&opts)
			if err := opts.Validate(); (err != nil) != test.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}

func TestClosedDashboardIsNotAlive(t *testing.T) {
	d := New(DefaultOptions())
	if d.Alive() {
		t.Error("unopened dashboard should not be alive")
	}
	if _, err := d.Cookies(); !errors.Is(err, errNotOpen) {
		t.Errorf("Cookies() error = %v, expected errNotOpen", err)
	}
	if n, err := d.SetCookies([]CookieData{{Name: "session"}}); n != 0 || !errors.Is(err, errNotOpen) {
		t.Errorf("SetCookies() = %d, %v, expected 0, errNotOpen", n, err)
	}
	d.Close()
}

func TestFreshDropsExpiredCookies(t *testing.T) {
	now := time.Unix(1_800_000_000, 0)
	cookies := []CookieData{
		{Name: "session"},
		{Name: "stale", Expires: float64(now.Unix() - 60)},
		{Name: "edge", Expires: float64(now.Unix())},
		{Name: "live", Expires: float64(now.Unix() + 3600)},
	}

	fresh := Fresh(cookies, now)
	if len(fresh) != 2 || fresh[0].Name != "session" || fresh[1].Name != "live" {
		t.Errorf("Fresh() = %+v, expected session and live", fresh)
	}
	if !cookies[2].Expired(now) {
		t.Error("cookie expiring exactly now should count as expired")
	}
}

func TestFromNetwork(t *testing.T) {
	raw := []*network.Cookie{{
		Name:     "dd_session",
		Value:    "xyz",
		Domain:   ".doordash.com",
		Path:     "/",
		Expires:  1.9e9,
		HTTPOnly: true,
		Secure:   true,
		SameSite: network.CookieSameSiteLax,
	}}

	got := fromNetwork(raw)
	expected := CookieData{Name: "dd_session", Value: "xyz", Domain: ".doordash.com", Path: "/", Expires: 1.9e9, HTTPOnly: true, Secure: true, SameSite: "Lax"}
	if len(got) != 1 || got[0] != expected {
		t.Errorf("fromNetwork() = %+v, expected %+v", got, expected)
	}
}

func TestSetParams(t *testing.T) {
	c := CookieData{Name: "dd_session", Value: "xyz", Domain: ".doordash.com", Path: "/", Expires: 1.9e9, HTTPOnly: true, Secure: true, SameSite: "Strict"}
	p := c.setParams()

	if p.Name != c.Name || p.Value != c.Value || p.Domain != c.Domain || p.Path != c.Path {
		t.Errorf("unexpected identity fields %+v", p)
	}
	if !p.HTTPOnly || !p.Secure {
		t.Error("flags not carried over")
	}
	if p.SameSite != network.CookieSameSiteStrict {
		t.Errorf("SameSite = %q, expected Strict", p.SameSite)
	}
	if p.Expires == nil || p.Expires.Time().Unix() != 1_900_000_000 {
		t.Errorf("Expires = %v, expected unix 1900000000", p.Expires)
	}

	session := CookieData{Name: "locale", Value: "en-US"}.setParams()
	if session.Expires != nil || session.SameSite != "" {
		t.Errorf("session cookie should carry no expiry or SameSite, got %+v", session)
	}
}
