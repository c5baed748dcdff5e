package query

import (
	"fmt"
	"strings"

	"github.com/dreamstate/guest-assistant/internal/dataset"
)

// NeedPropertyMessage asks the guest which property they mean.
const NeedPropertyMessage = "Which property are you asking about? Please include the unit number or the listing title."

// NeedFieldMessage asks the guest to rephrase when the detail could not be classified.
func NeedFieldMessage(propertyName string) string {
	if propertyName == "" {
		return "I'm not sure which detail you're looking for. Could you rephrase, for example \"Wi-Fi password\" or \"door code\"?"
	}
	return fmt.Sprintf("I'm not sure which detail you need for **%s**. Could you rephrase, for example \"Wi-Fi password\" or \"door code\"?", propertyName)
}

// PropertyNotFoundMessage reports that no row matched the guest's property reference.
func PropertyNotFoundMessage(propertyName string) string {
	return fmt.Sprintf("I couldn't find a property matching \"%s\". Please double-check the unit number or listing title.", propertyName)
}

// Resolve answers field for a matched row. The first header spelling whose
// cell is non-empty after trimming wins; later spellings are not consulted.
// It always returns a non-empty, guest-facing message.
func Resolve(snap *dataset.Snapshot, row []string, field FieldID, propertyName, infoHint string) string {
	if strings.TrimSpace(propertyName) == "" {
		return NeedPropertyMessage
	}
	if field == "" {
		return NeedFieldMessage(propertyName)
	}
	if row == nil || snap == nil {
		return PropertyNotFoundMessage(propertyName)
	}

	asked := strings.TrimSpace(infoHint)
	if asked == "" {
		asked = Label(field)
	}

	if _, ok := HeaderSpellings(field); !ok {
		return fmt.Sprintf("I don't have a column mapped for \"%s\" yet, so I can't look that up for **%s**.", asked, propertyName)
	}

	if value, ok := Lookup(snap, row, field); ok {
		return fmt.Sprintf("%s for **%s**:\n\n%s", Phrase(field), propertyName, value)
	}
	return fmt.Sprintf("Sorry, \"%s\" for **%s** is not listed in our records. Please contact your host for help.", asked, propertyName)
}

// Lookup returns the trimmed value of field in row from the first header
// spelling that has one. ok is false when no mapped column holds data.
func Lookup(snap *dataset.Snapshot, row []string, field FieldID) (value string, ok bool) {
	if snap == nil {
		return "", false
	}
	spellings, _ := HeaderSpellings(field)
	for _, spelling := range spellings {
		idx := snap.ColumnIndex(spelling)
		if idx < 0 {
			continue
		}
		if cell := strings.TrimSpace(dataset.Cell(row, idx)); cell != "" {
			return cell, true
		}
	}
	return "", false
}
