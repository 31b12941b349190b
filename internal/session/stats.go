package session

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stats holds runtime statistics shared with the tray.
type Stats struct {
	mu        sync.RWMutex
	start     time.Time
	cycles    int
	reviews   int
	failures  int
	discounts map[int]int
	lastCycle time.Time
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Uptime    time.Duration
	Cycles    int
	Reviews   int
	Failures  int
	Discounts map[int]int
	LastCycle time.Time
}

// NewStats creates new statistics
func NewStats() *Stats {
	return &Stats{
		start:     time.Now(),
		discounts: make(map[int]int),
	}
}

// Record adds a finished cycle.
func (s *Stats) Record(r Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cycles++
	s.reviews += r.Processed
	s.failures += r.Failed
	for _, amount := range r.Discounts {
		if amount > 0 {
			s.discounts[amount]++
		}
	}
	s.lastCycle = r.Finished
}

// Snapshot returns a copy of the current statistics
func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	discounts := make(map[int]int, len(s.discounts))
	for k, v := range s.discounts {
		discounts[k] = v
	}
	return Snapshot{
		Uptime:    time.Since(s.start),
		Cycles:    s.cycles,
		Reviews:   s.reviews,
		Failures:  s.failures,
		Discounts: discounts,
		LastCycle: s.lastCycle,
	}
}

// DiscountTotal returns the dollars handed out.
func (s Snapshot) DiscountTotal() int {
	total := 0
	for amount, n := range s.Discounts {
		total += amount * n
	}
	return total
}

// Summary formats the snapshot as a single status line.
func (s Snapshot) Summary() string {
	var parts []string
	amounts := make([]int, 0, len(s.Discounts))
	for amount := range s.Discounts {
		amounts = append(amounts, amount)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(amounts)))
	for _, amount := range amounts {
		parts = append(parts, fmt.Sprintf("$%dx%d", amount, s.Discounts[amount]))
	}
	breakdown := "none"
	if len(parts) > 0 {
		breakdown = strings.Join(parts, " ")
	}

	last := "never"
	if !s.LastCycle.IsZero() {
		last = s.LastCycle.Format("15:04")
	}

	return fmt.Sprintf("Cycles: %d | Replied: %d | Failed: %d | Discounts: $%d (%s) | Last: %s | Up: %s",
		s.Cycles, s.Reviews, s.Failures, s.DiscountTotal(), breakdown, last, FormatDuration(s.Uptime))
}

// FormatDuration formats a duration as "1h 2m 3s", dropping leading zero units.
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
