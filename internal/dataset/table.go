// Package dataset holds the property table: the snapshot type, the remote
// fetchers that produce it, and the TTL cache that owns it.
package dataset

import (
	"strings"
	"time"

	"github.com/dreamstate/guest-assistant/internal/domain"
)

// Snapshot is one complete read of the property table. It is immutable once
// published; refreshes replace it wholesale.
type Snapshot struct {
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
	FetchedAt time.Time  `json:"fetched_at"`

	index map[string]int
}

// NewSnapshot builds a snapshot from raw values where values[0] is the header row.
// Cells beyond the header width are dropped so every row satisfies len(row) <= len(headers).
func NewSnapshot(values [][]string, fetchedAt time.Time) (*Snapshot, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, domain.UpstreamFetchError("dataset has no header row", nil)
	}

	headers := append([]string(nil), values[0]...)
	rows := make([][]string, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := raw
		if len(row) > len(headers) {
			row = row[:len(headers)]
		}
		rows = append(rows, append([]string(nil), row...))
	}

	snap := &Snapshot{
		Headers:   headers,
		Rows:      rows,
		FetchedAt: fetchedAt,
	}
	snap.buildIndex()
	return snap, nil
}

// IsFresh reports whether the snapshot is younger than ttl at now.
func (s *Snapshot) IsFresh(now time.Time, ttl time.Duration) bool {
	if s == nil || s.FetchedAt.IsZero() {
		return false
	}
	return now.Sub(s.FetchedAt) < ttl
}

// ColumnIndex returns the index of the first header equal to spelling after
// whitespace collapsing and case folding, or -1.
func (s *Snapshot) ColumnIndex(spelling string) int {
	key := NormalizeHeader(spelling)
	if s.index == nil {
		for i, h := range s.Headers {
			if NormalizeHeader(h) == key {
				return i
			}
		}
		return -1
	}
	if idx, ok := s.index[key]; ok {
		return idx
	}
	return -1
}

// FirstColumn returns the index of the first spelling present in the headers, or -1.
func (s *Snapshot) FirstColumn(spellings ...string) int {
	for _, sp := range spellings {
		if idx := s.ColumnIndex(sp); idx >= 0 {
			return idx
		}
	}
	return -1
}

func (s *Snapshot) buildIndex() {
	s.index = make(map[string]int, len(s.Headers))
	for i, h := range s.Headers {
		key := NormalizeHeader(h)
		if _, seen := s.index[key]; !seen {
			s.index[key] = i
		}
	}
}

// Cell returns row[idx], or "" when idx is negative or past the end of the row.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// NormalizeHeader trims, collapses internal whitespace and lower-cases a header.
func NormalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}
