package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/dreamstate/guest-assistant/internal/dataset"
)

// DatasetIntentID identifies a whole-dataset question.
type DatasetIntentID string

const (
	IntentOwnerWithMostProperties DatasetIntentID = "owner_with_most_properties"
	IntentCountPropertiesByOwner  DatasetIntentID = "count_properties_by_owner"
	IntentListPropertiesByOwner   DatasetIntentID = "list_properties_by_owner"
	IntentCountTotalProperties    DatasetIntentID = "count_total_properties"
	IntentBestRatedProperty       DatasetIntentID = "best_rated_property"
	IntentPropertiesWithPool      DatasetIntentID = "properties_with_pool"
)

// DatasetIntents lists the supported dataset intents.
func DatasetIntents() []DatasetIntentID {
	return []DatasetIntentID{
		IntentOwnerWithMostProperties,
		IntentCountPropertiesByOwner,
		IntentListPropertiesByOwner,
		IntentCountTotalProperties,
		IntentBestRatedProperty,
		IntentPropertiesWithPool,
	}
}

// UnsupportedDatasetMessage is returned for dataset intents the aggregator does not know.
const UnsupportedDatasetMessage = "Sorry, that kind of question about our properties is not yet supported."

const unnamedProperty = "(Unnamed property)"

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	leadingNumber = regexp.MustCompile(`\d+(\.\d+)?`)
)

// Aggregate answers a question about the whole dataset. Unknown intents and
// empty results are reported as messages, never as errors.
func Aggregate(intent DatasetIntentID, ownerQuery string, snap *dataset.Snapshot) string {
	if snap == nil {
		snap = &dataset.Snapshot{}
	}
	a := newAggregation(snap)

	switch intent {
	case IntentOwnerWithMostProperties:
		return a.ownerWithMost()
	case IntentCountPropertiesByOwner:
		return a.byOwner(ownerQuery, false)
	case IntentListPropertiesByOwner:
		return a.byOwner(ownerQuery, true)
	case IntentCountTotalProperties:
		return a.countTotal()
	case IntentBestRatedProperty:
		return a.bestRated()
	case IntentPropertiesWithPool:
		return a.withPool()
	default:
		return UnsupportedDatasetMessage
	}
}

type aggregation struct {
	snap     *dataset.Snapshot
	unitIdx  int
	titleIdx int
	ownerIdx int
}

func newAggregation(snap *dataset.Snapshot) *aggregation {
	ownerColumns, _ := HeaderSpellings(FieldOwnerName)
	return &aggregation{
		snap:     snap,
		unitIdx:  snap.ColumnIndex(ColumnUnit),
		titleIdx: snap.FirstColumn(TitleColumns...),
		ownerIdx: snap.FirstColumn(ownerColumns...),
	}
}

func (a *aggregation) owner(row []string) string {
	return strings.TrimSpace(dataset.Cell(row, a.ownerIdx))
}

// label renders a row as "Unit <n> – <title>", falling back to whichever part exists.
func (a *aggregation) label(row []string) string {
	unit := strings.TrimSpace(dataset.Cell(row, a.unitIdx))
	title := strings.TrimSpace(dataset.Cell(row, a.titleIdx))
	switch {
	case unit != "" && title != "":
		return fmt.Sprintf("Unit %s – %s", unit, title)
	case unit != "":
		return "Unit " + unit
	case title != "":
		return title
	default:
		return unnamedProperty
	}
}

func (a *aggregation) list(rows [][]string) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(a.label(row))
	}
	return b.String()
}

// ownerWithMost groups rows by owner (trimmed, case-insensitive). The strictly
// largest group wins, so ties go to the owner seen first.
func (a *aggregation) ownerWithMost() string {
	type group struct {
		display string
		rows    [][]string
	}
	var order []string
	groups := make(map[string]*group)

	for _, row := range a.snap.Rows {
		owner := a.owner(row)
		if owner == "" {
			continue
		}
		key := strings.ToLower(owner)
		g, ok := groups[key]
		if !ok {
			g = &group{display: owner}
			groups[key] = g
			order = append(order, key)
		}
		g.rows = append(g.rows, row)
	}

	var best *group
	for _, key := range order {
		if g := groups[key]; best == nil || len(g.rows) > len(best.rows) {
			best = g
		}
	}
	if best == nil {
		return "I couldn't find any property owners in our records."
	}

	return fmt.Sprintf("**%s** owns the most properties, with %s:\n\n%s",
		best.display, countNoun(len(best.rows)), a.list(best.rows))
}

func (a *aggregation) byOwner(ownerQuery string, listing bool) string {
	ownerQuery = strings.TrimSpace(ownerQuery)
	if ownerQuery == "" {
		return "Which owner are you asking about? Please include the owner's name."
	}

	queryForms := ownerForms(ownerQuery)
	var matched [][]string
	for _, row := range a.snap.Rows {
		if owner := a.owner(row); owner != "" && ownerMatches(ownerForms(owner), queryForms) {
			matched = append(matched, row)
		}
	}
	if len(matched) == 0 {
		return fmt.Sprintf("I couldn't find any properties for an owner matching \"%s\".", ownerQuery)
	}

	display := a.mostFrequentOwner(matched)
	if listing {
		return fmt.Sprintf("Here are the properties owned by **%s** (%d):\n\n%s", display, len(matched), a.list(matched))
	}
	return fmt.Sprintf("**%s** has %s:\n\n%s", display, countNoun(len(matched)), a.list(matched))
}

// mostFrequentOwner returns the most common literal owner spelling; ties go to the first seen.
func (a *aggregation) mostFrequentOwner(rows [][]string) string {
	counts := make(map[string]int)
	var order []string
	for _, row := range rows {
		owner := a.owner(row)
		if counts[owner] == 0 {
			order = append(order, owner)
		}
		counts[owner]++
	}

	best := order[0]
	for _, owner := range order[1:] {
		if counts[owner] > counts[best] {
			best = owner
		}
	}
	return best
}

func (a *aggregation) countTotal() string {
	var rows [][]string
	for _, row := range a.snap.Rows {
		if strings.TrimSpace(dataset.Cell(row, a.unitIdx)) != "" || strings.TrimSpace(dataset.Cell(row, a.titleIdx)) != "" {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return "There are no properties in our records right now."
	}
	return fmt.Sprintf("We currently have %s in our records:\n\n%s", countNoun(len(rows)), a.list(rows))
}

func (a *aggregation) bestRated() string {
	ratingColumns, _ := HeaderSpellings(FieldAirbnbRating)
	ratingIdx := a.snap.FirstColumn(ratingColumns...)

	var (
		best   []string
		rating float64
	)
	for _, row := range a.snap.Rows {
		value, ok := parseRating(dataset.Cell(row, ratingIdx))
		if !ok {
			continue
		}
		if best == nil || value > rating {
			best, rating = row, value
		}
	}
	if best == nil {
		return "I couldn't find any Airbnb ratings in our records."
	}
	return fmt.Sprintf("The highest-rated property is rated %s on Airbnb:\n\n- %s",
		strconv.FormatFloat(rating, 'f', -1, 64), a.label(best))
}

func (a *aggregation) withPool() string {
	poolColumns, _ := HeaderSpellings(FieldPoolInfo)
	poolIdx := a.snap.FirstColumn(poolColumns...)

	var rows [][]string
	for _, row := range a.snap.Rows {
		if hasAmenity(dataset.Cell(row, poolIdx)) {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return "None of our properties list a pool or hot tub."
	}
	return fmt.Sprintf("We have %s with a pool or hot tub:\n\n%s", countNoun(len(rows)), a.list(rows))
}

// ownerForms returns the comparable forms of an owner name: lower-case words
// of letters and digits joined by single spaces, with and without
// parenthetical segments.
func ownerForms(owner string) []string {
	full := normalizeWords(owner)
	stripped := normalizeWords(parenthetical.ReplaceAllString(owner, ""))

	forms := make([]string, 0, 2)
	if full != "" {
		forms = append(forms, full)
	}
	if stripped != "" && stripped != full {
		forms = append(forms, stripped)
	}
	return forms
}

// ownerMatches reports whether any form of one name contains a form of the
// other as a run of whole words.
func ownerMatches(ownerForms, queryForms []string) bool {
	for _, o := range ownerForms {
		for _, q := range queryForms {
			if containsWords(o, q) || containsWords(q, o) {
				return true
			}
		}
	}
	return false
}

func containsWords(s, words string) bool {
	return strings.Contains(" "+s+" ", " "+words+" ")
}

// normalizeWords lower-cases s and collapses every run of characters that are
// not letters or digits into one space.
func normalizeWords(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

func parseRating(cell string) (float64, bool) {
	match := leadingNumber.FindString(cell)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func hasAmenity(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(cell), "."))) {
	case "", "no", "none", "n/a", "na", "-":
		return false
	}
	return true
}

func countNoun(n int) string {
	if n == 1 {
		return "1 property"
	}
	return fmt.Sprintf("%d properties", n)
}

// Supported reports whether Aggregate has an answer for id.
func (id DatasetIntentID) Supported() bool {
	for _, known := range DatasetIntents() {
		if id == known {
			return true
		}
	}
	return false
}
