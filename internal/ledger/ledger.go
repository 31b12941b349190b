// Package ledger persists which customers already received the one-time
// apology discount.
//
// File format is a flat JSON object keyed by customer identity:
//
//	{
//	  "Jane D.": true,
//	  "Unknown": true
//	}
//
// The file is loaded once at startup and rewritten in full on every grant.
// Writes go to a temp file in the same directory, are fsynced, then renamed
// over the ledger, so a crash mid-write leaves the previous ledger intact.
// Entries are never removed.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"review-responder/internal/logging"
)

// DefaultFile is the ledger file name used when none is configured.
const DefaultFile = "discount_tracker.json"

// Ledger maps customer identity to "already discounted".
type Ledger struct {
	path    string
	entries map[string]bool
	saves   int
}

// Load reads the ledger at path. A missing file is an empty ledger.
func Load(path string) (*Ledger, error) {
	l := &Ledger{path: path, entries: make(map[string]bool)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Info("No discount ledger at %s, starting empty", path)
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", path, err)
	}
	if len(data) == 0 {
		return l, nil
	}
	if err := json.Unmarshal(data, &l.entries); err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", path, err)
	}
	// A literal null decodes to a nil map.
	if l.entries == nil {
		l.entries = make(map[string]bool)
	}

	logging.Info("Loaded discount ledger with %d customers", len(l.entries))
	return l, nil
}

// Has reports whether identity already received a discount.
func (l *Ledger) Has(identity string) bool {
	return l.entries[identity]
}

// Grant marks identity as discounted and persists the ledger before
// returning. Granting an identity twice is a no-op and does not write.
func (l *Ledger) Grant(identity string) error {
	if l.entries[identity] {
		return nil
	}
	l.entries[identity] = true
	if err := l.save(); err != nil {
		return err
	}
	logging.Debug("Ledger saved with %d customers", len(l.entries))
	return nil
}

// Len returns the number of discounted identities
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Saves returns how many times the ledger was written this run.
func (l *Ledger) Saves() int {
	return l.saves
}

func (l *Ledger) save() error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create ledger dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(l.entries); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp ledger: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}

	l.saves++
	return nil
}
