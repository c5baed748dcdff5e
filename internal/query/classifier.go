package query

import "strings"

// rule fires when the text contains any of its keywords. The first refinement
// that also fires decides the field; otherwise the rule's own field is used.
type rule struct {
	keywords []string
	field    FieldID
	refine   []rule
}

func (r rule) matches(text string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// FieldClassifier maps a guest's wording to a FieldID using an ordered keyword
// cascade. Matching is plain substring containment on lower-cased text, so
// "car park" hits parking and a bare "code" hits the lock family.
type FieldClassifier struct {
	rules []rule
}

// NewFieldClassifier creates the classifier with the standard rule table.
// Order matters: the first matching rule wins even when later rules also match.
func NewFieldClassifier() *FieldClassifier {
	return &FieldClassifier{
		rules: []rule{
			{
				keywords: []string{"wifi", "wi-fi", "internet", "network"},
				field:    FieldWifiDetails,
				refine: []rule{
					{keywords: []string{"speed"}, field: FieldWifiSpeed},
					{keywords: []string{"provider", "router"}, field: FieldWifiProvider},
					{keywords: []string{"login", "password", "passcode"}, field: FieldWifiLogin},
				},
			},
			{
				keywords: []string{"code", "lock", "keypad"},
				field:    FieldDoorLockCode,
				refine: []rule{
					{keywords: []string{"closet"}, field: FieldOwnersClosetCode},
					{keywords: []string{"storage"}, field: FieldStorageRoomPassword},
				},
			},
			{
				keywords: []string{"trash", "garbage", "rubbish", "bin", "dumpster"},
				field:    FieldTrashInfo,
				refine: []rule{
					{keywords: []string{"day", "pickup", "schedule", "reminder"}, field: FieldTrashDayReminder},
					{keywords: []string{"process", "how", "where", "take out"}, field: FieldTrashProcess},
				},
			},
			{keywords: []string{"parking", "park my car", "car park", "driveway"}, field: FieldParking},
			{keywords: []string{"quiet hours", "noise", "loud", "party time"}, field: FieldQuietHours},
			{
				keywords: []string{"pool", "hot tub", "hottub", "jacuzzi", "spa"},
				field:    FieldPoolInfo,
				refine: []rule{
					{keywords: []string{"temperature", "temp", "heat", "heated"}, field: FieldPoolTemperature},
					{keywords: []string{"fence", "gate"}, field: FieldPoolFenceGate},
				},
			},

			// contacts
			{keywords: []string{"owner"}, field: FieldOwnerName},
			{keywords: []string{"manager", "property manager"}, field: FieldPropertyManager},
			{keywords: []string{"handyman", "maintenance"}, field: FieldHandymanNumber},

			{
				keywords: []string{"check-in", "check in", "check-out", "checkout", "check out"},
				field:    FieldCheckinCheckout,
				refine: []rule{
					{keywords: []string{"early", "late"}, field: FieldEarlyLateFeeLink},
				},
			},

			// house rules
			{keywords: []string{"events"}, field: FieldEventsPolicy},
			{keywords: []string{"pet", "dog", "cat", "smoking", "smoke", "party", "parties"}, field: FieldPetPartySmokingPolicy},

			// amenities
			{keywords: []string{"bbq", "grill", "barbecue"}, field: FieldBBQGrill},
			{keywords: []string{"camera", "cctv", "security camera"}, field: FieldCameraLocation},
			{keywords: []string{"air mattress", "airmatress", "extra bed"}, field: FieldAirMattress},
			{keywords: []string{"supplies", "soap", "shampoo", "toilet paper", "coffee"}, field: FieldSuppliesProvided},
			{keywords: []string{"first aid", "fire extinguisher"}, field: FieldFirstAidFireExtinguisher},
			{keywords: []string{"washer", "dryer", "laundry"}, field: FieldWasherDryer},
			{keywords: []string{"pillow", "blanket", "bedding"}, field: FieldExtraPillowsBedding},
			{keywords: []string{"notes", "more info", "anything else"}, field: FieldAdditionalNotes},

			// listing
			{keywords: []string{"price", "rate", "nightly"}, field: FieldPrice},
			{keywords: []string{"type", "apartment", "condo", "house"}, field: FieldPropertyType},
			{keywords: []string{"floor"}, field: FieldFloor},
			{keywords: []string{"style", "design", "theme"}, field: FieldStyle},
			{keywords: []string{"bed", "bath", "bedroom", "bathroom"}, field: FieldBedBath},
			{keywords: []string{"guest", "how many people", "max people"}, field: FieldMaxGuests},
			{
				keywords: []string{"airbnb", "listing", "link"},
				field:    FieldAirbnbLink,
				refine: []rule{
					{keywords: []string{"rating", "review"}, field: FieldAirbnbRating},
				},
			},
			{keywords: []string{"photo", "picture", "images"}, field: FieldCoverPhoto},
			// Shadowed by "guest" above; kept so the table covers every listing column.
			{keywords: []string{"guest favourite", "guest favorite", "guest fav"}, field: FieldGuestFav},

			{keywords: []string{"address", "location", "where is it"}, field: FieldAddress},
		},
	}
}

// Classify returns the field the guest is asking about. Either input may be
// empty. ok is false when nothing matched, which is a normal outcome.
func (c *FieldClassifier) Classify(infoHint, fullMessage string) (field FieldID, ok bool) {
	text := strings.TrimSpace(strings.ToLower(infoHint) + " " + strings.ToLower(fullMessage))
	if text == "" {
		return "", false
	}

	for _, r := range c.rules {
		if !r.matches(text) {
			continue
		}
		for _, sub := range r.refine {
			if sub.matches(text) {
				return sub.field, true
			}
		}
		return r.field, true
	}
	return "", false
}
