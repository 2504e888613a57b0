package constants

// WebSocket event types
const (
	// Common events
	EventError = "error"
	EventPing  = "ping"
	EventPong  = "pong"

	// Live feed events
	EventSubscribe    = "subscribe"
	EventUnsubscribe  = "unsubscribe"
	EventLiveSnapshot = "live_snapshot"
	EventLiveState    = "live_state"

	// Location events
	EventLocationUpdate = "location_update"
)

// WebSocket error codes
const (
	ErrorInvalidFormat     = "invalid_format"
	ErrorValidationFailed  = "validation_failed"
	ErrorUnauthorized      = "unauthorized"
	ErrorInternalError     = "internal_error"
	ErrorRateLimitExceeded = "rate_limit_exceeded"
	ErrorInvalidLocation   = "invalid_location"
	ErrorSubscribeFailed   = "subscribe_failed"
)
