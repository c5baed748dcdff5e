package query

import (
	"strings"
	"unicode"

	"github.com/dreamstate/guest-assistant/internal/dataset"
)

// MatchProperty finds the row a guest's property reference points at. Unit and
// title cells are compared after lower-casing and dropping everything that is
// not a letter or digit.
//
// The first exact unit or title match wins. Without one, the last row whose
// unit or title contains the reference is returned. Returns nil when name is
// empty or nothing matches.
func MatchProperty(name string, snap *dataset.Snapshot) []string {
	query := normalizeName(name)
	if query == "" || snap == nil {
		return nil
	}

	unitIdx := snap.ColumnIndex(ColumnUnit)
	titleIdx := snap.FirstColumn(TitleColumns...)

	var partial []string
	for _, row := range snap.Rows {
		unit := normalizeName(dataset.Cell(row, unitIdx))
		title := normalizeName(dataset.Cell(row, titleIdx))

		if unit == query || title == query {
			return row
		}
		if strings.Contains(unit, query) || strings.Contains(title, query) {
			partial = row
		}
	}
	return partial
}

// normalizeName lower-cases s and keeps only letters and digits.
func normalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
