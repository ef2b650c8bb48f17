package qsim

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

/*
MeasurementRecord holds the classical bits of one run in qubit-index order,
one entry per qubit of the circuit. Qubits that were never measured during the
run keep the register's initial value 0. A run without any measurement has an
empty record.
*/
type MeasurementRecord []int

// Key renders the record as a bit string, qubit 0 first.
func (r MeasurementRecord) Key() string {
	var b strings.Builder
	for _, bit := range r {
		b.WriteString(strconv.Itoa(bit))
	}
	return b.String()
}

func (r MeasurementRecord) String() string {
	parts := make([]string, len(r))
	for i, bit := range r {
		parts[i] = strconv.Itoa(bit)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Count is one entry of a history tally.
type Count struct {
	Key   string
	Count int
}

/*
History is the append-only log of measurement records of a circuit. It is
safe for concurrent use. With a limit above zero only the newest limit
records are retained.
*/
type History struct {
	mu      sync.RWMutex
	records []MeasurementRecord
	limit   int
}

// NewHistory creates a log retaining at most limit records, 0 meaning all.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Append adds one run's record.
func (h *History) Append(r MeasurementRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, r)
	if h.limit > 0 && len(h.records) > h.limit {
		h.records = append(h.records[:0:0], h.records[len(h.records)-h.limit:]...)
	}
}

// Len is the number of retained records.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.records)
}

// Records returns a copy of the retained records, oldest first.
func (h *History) Records() []MeasurementRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]MeasurementRecord, len(h.records))
	for i, r := range h.records {
		out[i] = append(MeasurementRecord(nil), r...)
	}
	return out
}

// Counts tallies the retained records by Key.
func (h *History) Counts() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	counts := make(map[string]int)
	for _, r := range h.records {
		counts[r.Key()]++
	}
	return counts
}

// MostCommon returns the k most frequent records, ties broken by key.
// A k of zero or less returns every distinct record.
func (h *History) MostCommon(k int) []Count {
	return mostCommon(h.Counts(), k)
}

// Reset discards all records.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = nil
}

func mostCommon(counts map[string]int, k int) []Count {
	out := make([]Count, 0, len(counts))
	for key, n := range counts {
		out = append(out, Count{Key: key, Count: n})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})

	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out
}
