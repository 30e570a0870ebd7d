package model

import "time"

// Visit is a field-visit report in the `visit_data` table.  The binary voice
// note and its metadata are written atomically as one row and are immutable
// after creation; only the webhook's administrative delete removes them.
//
// Optional columns use pointers so that NULL survives the round trip.
type Visit struct {
	ID             uint64    // visit_data.id
	UserID         uint64    // visit_data.user_id
	UniqueCode     string    // visit_data.hs_unique_code (external correlation code)
	Filename       string    // visit_data.filename
	FileData       []byte    // visit_data.file_data
	ContentType    string    // visit_data.content_type
	PlaceName      string    // visit_data.place_name
	PersonName     string    // visit_data.person_name
	PersonPosition *string   // visit_data.person_position (nullable)
	Latitude       *float64  // visit_data.latitude (nullable)
	Longitude      *float64  // visit_data.longitude (nullable)
	Address        *string   // visit_data.address (nullable)
	Description    *string   // visit_data.description (nullable)
	VisitTimestamp time.Time // visit_data.visit_timestamp
}
