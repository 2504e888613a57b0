package constants

// NATS Subjects
const (
	// Device ingestion (JetStream)
	SubjectDeviceSample = "tracking.device.sample"

	// Domain events
	SubjectLocationChanged = "tracking.location.changed"
	SubjectEmergency       = "tracking.emergency"

	// Live relay between instances. Tokens are appended after the prefix.
	SubjectLiveRelayPrefix = "tracking.live"
	SubjectLiveRelayAll    = "tracking.live.>"
)

// JetStream streams and consumers
const (
	StreamTrackingIngest = "TRACKING_INGEST"
	StreamTrackingEvents = "TRACKING_EVENTS"
	ConsumerDeviceSample = "tracking_device_sample"
)
