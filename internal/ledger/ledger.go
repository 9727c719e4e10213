// Package ledger keeps per-employee leave balances and history in memory.
package ledger

import (
	"fmt"
	"strings"
	"sync"
)

const notFound = "Employee ID not found."

type Record struct {
	ID      string
	Balance int
	History []string
}

// Ledger is safe for concurrent use. Apply checks and decrements the
// balance under the same lock.
type Ledger struct {
	mu      sync.Mutex
	order   []string
	records map[string]*Record
}

// Seed is the reference data the HR daemon starts with.
func Seed() []Record {
	return []Record{
		{ID: "E001", Balance: 18, History: []string{"2024-12-25", "2025-01-01"}},
		{ID: "E002", Balance: 20},
	}
}

func New(seed []Record) *Ledger {
	l := &Ledger{records: make(map[string]*Record, len(seed))}
	for _, r := range seed {
		if r.Balance < 0 {
			r.Balance = 0
		}
		if _, dup := l.records[r.ID]; !dup {
			l.order = append(l.order, r.ID)
		}
		rec := r
		rec.History = append([]string(nil), r.History...)
		l.records[r.ID] = &rec
	}
	return l
}

// IDs returns the known employee ids in seed order.
func (l *Ledger) IDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

func (l *Ledger) Balance(id string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.records[id]
	if !ok {
		return notFound
	}
	return fmt.Sprintf("%s has %d leave days remaining.", r.ID, r.Balance)
}

// Apply books one leave day per date. Dates are taken as given: no
// calendar, duplicate or past-date checks.
func (l *Ledger) Apply(id string, dates []string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.records[id]
	if !ok {
		return notFound
	}

	if len(dates) > r.Balance {
		return fmt.Sprintf("Insufficient leave balance. Requested %d day(s), but only %d available.",
			len(dates), r.Balance)
	}

	r.Balance -= len(dates)
	r.History = append(r.History, dates...)

	return fmt.Sprintf("Leave applied for %d day(s) (%s). Remaining balance: %d.",
		len(dates), strings.Join(dates, ", "), r.Balance)
}

func (l *Ledger) History(id string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.records[id]
	if !ok {
		return notFound
	}
	if len(r.History) == 0 {
		return "No leaves taken."
	}
	return fmt.Sprintf("Leave history for %s: %s", r.ID, strings.Join(r.History, ", "))
}
