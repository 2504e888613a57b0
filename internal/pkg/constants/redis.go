package constants

// Redis key formats
const (
	KeyActorLocation  = "tracking:actor:%s" // Format: tracking:actor:{actor_id}
	KeyTrackingActors = "tracking:active"   // Set of actor IDs currently tracking
	KeyActorGeo       = "tracking:geo"      // Geo set of last known positions
)

// Redis hash fields
const (
	FieldLatitude      = "lat"
	FieldLongitude     = "lng"
	FieldAccuracy      = "acc"
	FieldSpeed         = "speed"
	FieldHeading       = "heading"
	FieldCapturedAt    = "captured_at"
	FieldTracking      = "tracking"
	FieldTotalDistance = "total_distance"
	FieldGroupID       = "group_id"
	FieldDisplayName   = "display_name"
	FieldContactRef    = "contact_ref"
	FieldGeohash       = "geohash"
	FieldUpdatedAt     = "updated_at"
)
