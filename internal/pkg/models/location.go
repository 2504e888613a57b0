package models

import "time"

// GeoPoint represents a coordinate in decimal degrees
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationSample is a single position reported by a device
type LocationSample struct {
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Accuracy   *float64 `json:"accuracy,omitempty"`
	Speed      *float64 `json:"speed,omitempty"`
	Heading    *float64 `json:"heading,omitempty"`
	CapturedAt int64    `json:"captured_at"` // epoch millis
}

// Point returns the sample's coordinate
func (s LocationSample) Point() GeoPoint {
	return GeoPoint{Latitude: s.Latitude, Longitude: s.Longitude}
}

// CapturedTime returns CapturedAt as a time.Time
func (s LocationSample) CapturedTime() time.Time {
	return time.UnixMilli(s.CapturedAt)
}

// Clone returns a deep copy of the sample
func (s *LocationSample) Clone() *LocationSample {
	if s == nil {
		return nil
	}
	c := *s
	c.Accuracy = cloneFloat(s.Accuracy)
	c.Speed = cloneFloat(s.Speed)
	c.Heading = cloneFloat(s.Heading)
	return &c
}

// ActorProfile carries the descriptive fields stored alongside an actor's position
type ActorProfile struct {
	GroupID     string `json:"group_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	ContactRef  string `json:"contact_ref,omitempty"`
}

// ActorLocationState is the last known position and odometer of one actor
type ActorLocationState struct {
	ActorID             string          `json:"actor_id"`
	GroupID             string          `json:"group_id,omitempty"`
	LatestSample        *LocationSample `json:"latest_sample"`
	IsTracking          bool            `json:"is_tracking"`
	TotalDistanceMeters float64         `json:"total_distance_meters"`
	DisplayName         string          `json:"display_name,omitempty"`
	ContactRef          string          `json:"contact_ref,omitempty"`
	Geohash             string          `json:"geohash,omitempty"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Clone returns a deep copy so callers never share the canonical value
func (s *ActorLocationState) Clone() *ActorLocationState {
	if s == nil {
		return nil
	}
	c := *s
	c.LatestSample = s.LatestSample.Clone()
	return &c
}

// ApplyProfile overwrites the descriptive fields that are set in p
func (s *ActorLocationState) ApplyProfile(p ActorProfile) {
	if p.GroupID != "" {
		s.GroupID = p.GroupID
	}
	if p.DisplayName != "" {
		s.DisplayName = p.DisplayName
	}
	if p.ContactRef != "" {
		s.ContactRef = p.ContactRef
	}
}

// RecordResult is returned after a sample has been durably recorded
type RecordResult struct {
	LatestSample        LocationSample `json:"latest_sample"`
	TotalDistanceMeters float64        `json:"total_distance_meters"`
	DeltaMeters         float64        `json:"delta_meters"`
	Superseded          bool           `json:"superseded,omitempty"`
}

// GroupMembership lists the actors belonging to one group
type GroupMembership struct {
	GroupID   string              `json:"group_id"`
	MemberIDs map[string]struct{} `json:"-"`
}

// NewGroupMembership builds a membership set from a list of ids
func NewGroupMembership(groupID string, memberIDs []string) *GroupMembership {
	m := &GroupMembership{GroupID: groupID, MemberIDs: make(map[string]struct{}, len(memberIDs))}
	for _, id := range memberIDs {
		m.MemberIDs[id] = struct{}{}
	}
	return m
}

// Contains reports whether actorID is a member
func (m *GroupMembership) Contains(actorID string) bool {
	if m == nil {
		return false
	}
	_, ok := m.MemberIDs[actorID]
	return ok
}

// LiveFeedEntry is an actor state enriched for one snapshot; never persisted
type LiveFeedEntry struct {
	ActorLocationState
	DistanceFromReferenceMeters *float64 `json:"distance_from_reference_meters,omitempty"`
	IsOnline                    bool     `json:"is_online"`
}

// ProximityStats aggregates a list of feed entries
type ProximityStats struct {
	TotalCount      int     `json:"total_count"`
	OnlineCount     int     `json:"online_count"`
	TrackingCount   int     `json:"tracking_count"`
	AverageDistance float64 `json:"average_distance"`
}

// DeviceSample is a location update delivered by a device gateway over NATS
type DeviceSample struct {
	ActorID string         `json:"actor_id"`
	Profile ActorProfile   `json:"profile"`
	Sample  LocationSample `json:"sample"`
}

// LocationEvent is published to the notification sink
type LocationEvent struct {
	EventID             string    `json:"event_id"`
	Type                string    `json:"type"`
	ActorID             string    `json:"actor_id"`
	GroupID             string    `json:"group_id,omitempty"`
	DisplayName         string    `json:"display_name,omitempty"`
	ContactRef          string    `json:"contact_ref,omitempty"`
	Latitude            float64   `json:"latitude"`
	Longitude           float64   `json:"longitude"`
	TotalDistanceMeters float64   `json:"total_distance_meters"`
	Message             string    `json:"message,omitempty"`
	OccurredAt          time.Time `json:"occurred_at"`
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
