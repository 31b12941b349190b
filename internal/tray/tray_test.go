package tray

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestStatusTitle(t *testing.T) {
	if got := StatusTitle("Idle"); got != "Status: Idle" {
		t.Errorf("StatusTitle() = %q, expected %q", got, "Status: Idle")
	}

	long := strings.Repeat("é", 200)
	got := StatusTitle(long)
	if utf8.RuneCountInString(got) != maxTitleRunes {
		t.Errorf("expected %d runes, got %d", maxTitleRunes, utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis, got %q", got)
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a rune")
	}
}

func TestNewDefaults(t *testing.T) {
	a := New(Options{})
	if a.opts.Title != "Review Responder" {
		t.Errorf("unexpected default title %q", a.opts.Title)
	}
	if a.opts.Refresh != 30*time.Second {
		t.Errorf("unexpected default refresh %v", a.opts.Refresh)
	}
}
