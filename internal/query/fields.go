// Package query turns extracted guest questions into answers: it classifies the
// requested field, finds the property row, resolves the value and answers
// dataset-wide questions.
package query

import "strings"

// FieldID identifies one logical property attribute.
type FieldID string

const (
	FieldWifiSpeed                FieldID = "wifi_speed"
	FieldWifiProvider             FieldID = "wifi_provider"
	FieldWifiLogin                FieldID = "wifi_login"
	FieldWifiDetails              FieldID = "wifi_details"
	FieldOwnersClosetCode         FieldID = "owners_closet_code"
	FieldStorageRoomPassword      FieldID = "storage_room_password"
	FieldDoorLockCode             FieldID = "door_lock_code"
	FieldTrashDayReminder         FieldID = "trash_day_reminder"
	FieldTrashProcess             FieldID = "trash_process"
	FieldTrashInfo                FieldID = "trash_info"
	FieldParking                  FieldID = "parking"
	FieldQuietHours               FieldID = "quiet_hours"
	FieldPoolTemperature          FieldID = "pool_temperature"
	FieldPoolFenceGate            FieldID = "pool_fence_gate"
	FieldPoolInfo                 FieldID = "pool_info"
	FieldOwnerName                FieldID = "owner_name"
	FieldPropertyManager          FieldID = "property_manager"
	FieldHandymanNumber           FieldID = "handyman_number"
	FieldEarlyLateFeeLink         FieldID = "early_late_fee_link"
	FieldCheckinCheckout          FieldID = "checkin_checkout"
	FieldEventsPolicy             FieldID = "events_policy"
	FieldPetPartySmokingPolicy    FieldID = "pet_party_smoking_policy"
	FieldBBQGrill                 FieldID = "bbq_grill"
	FieldCameraLocation           FieldID = "camera_location"
	FieldAirMattress              FieldID = "air_mattress"
	FieldSuppliesProvided         FieldID = "supplies_provided"
	FieldFirstAidFireExtinguisher FieldID = "first_aid_fire_extinguisher"
	FieldWasherDryer              FieldID = "washer_dryer"
	FieldExtraPillowsBedding      FieldID = "extra_pillows_bedding"
	FieldAdditionalNotes          FieldID = "additional_notes"
	FieldPrice                    FieldID = "price"
	FieldPropertyType             FieldID = "property_type"
	FieldFloor                    FieldID = "floor"
	FieldStyle                    FieldID = "style"
	FieldBedBath                  FieldID = "bed_bath"
	FieldMaxGuests                FieldID = "max_guests"
	FieldAirbnbRating             FieldID = "airbnb_rating"
	FieldAirbnbLink               FieldID = "airbnb_link"
	FieldCoverPhoto               FieldID = "cover_photo"
	FieldGuestFav                 FieldID = "guest_fav"
	FieldAddress                  FieldID = "address"
)

// Identifying columns used for matching and listings.
const (
	ColumnUnit = "Unit #"
)

// TitleColumns are the accepted spellings of the listing title column, most specific first.
var TitleColumns = []string{"Title on Listing's Site", "Title"}

// fieldColumns maps each field to the header spellings that may hold it, in
// lookup order. Misspellings are intentional; they exist in live sheets.
var fieldColumns = map[FieldID][]string{
	FieldWifiSpeed:                {"Wifi Speed (Mbps) on Listing", "Wifi Speed"},
	FieldWifiProvider:             {"Wifi Provider Routerr", "Wifi Provider Router", "Wifi Provider"},
	FieldWifiLogin:                {"Wifi Login", "WIFI INFO", "WIFI INFORMATION/ LOGIN"},
	FieldWifiDetails:              {"WIFI INFO", "WIFI INFORMATION/ LOGIN", "Wifi Login"},
	FieldOwnersClosetCode:         {"Owners closet code", "Owner's closet code"},
	FieldStorageRoomPassword:      {"Storage Room password.", "Storage Room password"},
	FieldDoorLockCode:             {"Lock Codes and Info", "Door Lock"},
	FieldTrashDayReminder:         {"Trash Day Reminder"},
	FieldTrashProcess:             {"Trash Process"},
	FieldTrashInfo:                {"Trash Info", "Trash Can info.", "Trash Can info"},
	FieldParking:                  {"Parking"},
	FieldQuietHours:               {"Quite Hours", "Quiet Hours"},
	FieldPoolTemperature:          {"Temperature of Pool"},
	FieldPoolFenceGate:            {"Pool Fence / Gate"},
	FieldPoolInfo:                 {"Pool and Hot tube", "Pool and Hot tub"},
	FieldOwnerName:                {"Property Owner name"},
	FieldPropertyManager:          {"Property Manger", "Property Manager"},
	FieldHandymanNumber:           {"Handyman Number"},
	FieldEarlyLateFeeLink:         {"Fee link for Early check-in/ Late check-out"},
	FieldCheckinCheckout:          {"Check-ins/Check-out", "Check-in/Check-out"},
	FieldEventsPolicy:             {"Events"},
	FieldPetPartySmokingPolicy:    {"Pet/Party/smoking"},
	FieldBBQGrill:                 {"BBQ Grill"},
	FieldCameraLocation:           {"Camera Location"},
	FieldAirMattress:              {"Air Matress", "Air Mattress"},
	FieldSuppliesProvided:         {"Supplies provided"},
	FieldFirstAidFireExtinguisher: {"First Aid Kit & Fire Extinguisher"},
	FieldWasherDryer:              {"Washer & Dryer"},
	FieldExtraPillowsBedding:      {"Extra Pillows/Bedding"},
	FieldAdditionalNotes:          {"Additional Notes"},
	FieldPrice:                    {"Price"},
	FieldPropertyType:             {"Type"},
	FieldFloor:                    {"Floor"},
	FieldStyle:                    {"Style"},
	FieldBedBath:                  {"Bed x Bath"},
	FieldMaxGuests:                {"Max Guests"},
	FieldAirbnbRating:             {"Airbnb Rating"},
	FieldAirbnbLink:               {"Airbnb Listing Link"},
	FieldCoverPhoto:               {"Cover Photo"},
	FieldGuestFav:                 {"Guest Fav?"},
	FieldAddress:                  {"Address"},
}

const defaultPhrase = "Here is the information"

var fieldPhrases = map[FieldID]string{
	FieldWifiSpeed:                "Here is the Wi-Fi speed",
	FieldWifiProvider:             "Here is the Wi-Fi provider and router",
	FieldWifiLogin:                "Here is the Wi-Fi login",
	FieldWifiDetails:              "Here are the Wi-Fi details",
	FieldOwnersClosetCode:         "Here is the owner's closet code",
	FieldStorageRoomPassword:      "Here is the storage room password",
	FieldDoorLockCode:             "Here is the door lock code",
	FieldTrashDayReminder:         "Here is the trash day reminder",
	FieldTrashProcess:             "Here is the trash process",
	FieldTrashInfo:                "Here is the trash info",
	FieldParking:                  "Here is the parking info",
	FieldQuietHours:               "Here are the quiet hours",
	FieldPoolTemperature:          "Here is the pool temperature",
	FieldPoolFenceGate:            "Here is the pool fence and gate info",
	FieldPoolInfo:                 "Here is the pool and hot tub info",
	FieldOwnerName:                "Here is the property owner",
	FieldPropertyManager:          "Here is the property manager",
	FieldHandymanNumber:           "Here is the handyman's number",
	FieldEarlyLateFeeLink:         "Here is the early check-in / late check-out fee link",
	FieldCheckinCheckout:          "Here are the check-in and check-out details",
	FieldEventsPolicy:             "Here is the events policy",
	FieldPetPartySmokingPolicy:    "Here is the pet, party and smoking policy",
	FieldBBQGrill:                 "Here is the BBQ grill info",
	FieldCameraLocation:           "Here are the camera locations",
	FieldAirMattress:              "Here is the air mattress info",
	FieldSuppliesProvided:         "Here are the supplies provided",
	FieldFirstAidFireExtinguisher: "Here is the first aid kit and fire extinguisher info",
	FieldWasherDryer:              "Here is the washer and dryer info",
	FieldExtraPillowsBedding:      "Here is the extra pillows and bedding info",
	FieldAdditionalNotes:          "Here are the additional notes",
	FieldPrice:                    "Here is the price",
	FieldPropertyType:             "Here is the property type",
	FieldFloor:                    "Here is the floor",
	FieldStyle:                    "Here is the style",
	FieldBedBath:                  "Here is the bed and bath count",
	FieldMaxGuests:                "Here is the maximum number of guests",
	FieldAirbnbRating:             "Here is the Airbnb rating",
	FieldAirbnbLink:               "Here is the Airbnb listing link",
	FieldCoverPhoto:               "Here is the cover photo",
	FieldGuestFav:                 "Here is the Guest Favorite status",
	FieldAddress:                  "Here is the address",
}

// HeaderSpellings returns the accepted column names for field in lookup order,
// and false when field has no column mapping.
func HeaderSpellings(field FieldID) ([]string, bool) {
	spellings, ok := fieldColumns[field]
	return spellings, ok
}

// Phrase returns the lead-in used when answering with field's value.
func Phrase(field FieldID) string {
	if phrase, ok := fieldPhrases[field]; ok {
		return phrase
	}
	return defaultPhrase
}

// Label is a readable name for field, used when the guest's own wording is unavailable.
func Label(field FieldID) string {
	return strings.ReplaceAll(string(field), "_", " ")
}

// Fields lists every known field id in classification order.
func Fields() []FieldID {
	return []FieldID{
		FieldWifiSpeed, FieldWifiProvider, FieldWifiLogin, FieldWifiDetails,
		FieldOwnersClosetCode, FieldStorageRoomPassword, FieldDoorLockCode,
		FieldTrashDayReminder, FieldTrashProcess, FieldTrashInfo,
		FieldParking, FieldQuietHours,
		FieldPoolTemperature, FieldPoolFenceGate, FieldPoolInfo,
		FieldOwnerName, FieldPropertyManager, FieldHandymanNumber,
		FieldEarlyLateFeeLink, FieldCheckinCheckout,
		FieldEventsPolicy, FieldPetPartySmokingPolicy,
		FieldBBQGrill, FieldCameraLocation, FieldAirMattress, FieldSuppliesProvided,
		FieldFirstAidFireExtinguisher, FieldWasherDryer, FieldExtraPillowsBedding, FieldAdditionalNotes,
		FieldPrice, FieldPropertyType, FieldFloor, FieldStyle, FieldBedBath, FieldMaxGuests,
		FieldAirbnbRating, FieldAirbnbLink, FieldCoverPhoto, FieldGuestFav,
		FieldAddress,
	}
}
