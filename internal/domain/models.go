package domain

import "strings"

// Intent is the coarse category the extractor assigns to a guest message.
type Intent string

const (
	IntentPropertyQuery Intent = "property_query"
	IntentDatasetQuery  Intent = "dataset_query"
	IntentGreeting      Intent = "greeting"
	IntentOther         Intent = "other"
)

// ParseIntent maps s to a known intent; anything unrecognized is IntentOther.
func ParseIntent(s string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentPropertyQuery:
		return IntentPropertyQuery
	case IntentDatasetQuery:
		return IntentDatasetQuery
	case IntentGreeting:
		return IntentGreeting
	default:
		return IntentOther
	}
}

// ExtractedQuery is the structured reading of one guest message. Optional
// fields are nil when the extractor found nothing. FieldType is derived locally
// from the hints, never taken from the extractor.
type ExtractedQuery struct {
	Intent            Intent  `json:"intent"`
	PropertyName      *string `json:"propertyName"`
	InformationToFind *string `json:"informationToFind"`
	DatasetIntentType *string `json:"datasetIntentType"`
	DatasetOwnerName  *string `json:"datasetOwnerName"`
	FieldType         *string `json:"fieldType"`
	InputMessage      string  `json:"inputMessage"`
}

// DefaultExtractedQuery is the safe reading used when the extractor output is unusable.
func DefaultExtractedQuery(message string) *ExtractedQuery {
	return &ExtractedQuery{Intent: IntentOther, InputMessage: message}
}

// Deref returns *s, or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// OptionalString returns nil for blank input and a pointer to the trimmed value otherwise.
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
