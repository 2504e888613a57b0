package models

// Config represents application configuration
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	JWT      JWTConfig
	APIKey   APIKeyConfig
	Services ServicesConfig
	NewRelic NewRelicConfig
	Logger   LoggerConfig
	Tracking TrackingConfig
}

// ServicesConfig contains URLs for collaborating services
type ServicesConfig struct {
	GroupServiceURL string
}

// AppConfig contains application-specific configuration
type AppConfig struct {
	Name        string
	Environment string
	Debug       bool
	Version     string
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Driver    string
	Host      string
	Port      int
	Username  string
	Password  string
	Database  string
	SSLMode   string
	MaxConns  int
	IdleConns int
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// NATSConfig contains NATS connection configuration
type NATSConfig struct {
	URL string
}

// JWTConfig contains JWT authentication configuration
type JWTConfig struct {
	Secret     string
	Expiration int // in minutes
	Issuer     string
}

// APIKeyConfig holds keys for service-to-service calls
type APIKeyConfig struct {
	GroupService    string
	TrackingService string
}

// NewRelicConfig contains New Relic agent configuration
type NewRelicConfig struct {
	LicenseKey  string
	AppName     string
	Enabled     bool
	ForwardLogs bool
}

// LoggerConfig contains logger configuration
type LoggerConfig struct {
	Level    string
	FilePath string
}

// TrackingConfig contains location tracking configuration
type TrackingConfig struct {
	Store                    string  // "postgres" or "redis"
	OnlineThresholdSeconds   int     // sample age after which an actor is offline
	SnapshotTimeoutMs        int     // bounded wait for a subscription's first snapshot
	StorageTimeoutMs         int     // deadline for durable reads and writes
	GroupStrategy            string  // "prefix" or "filter"
	GeohashPrecision         uint    // precision of the geohash stamped on live entries
	IngestRatePerSecond      float64 // per-actor sample rate limit, 0 disables
	IngestBurst              int
	RelayEnabled             bool // fan live updates out through NATS
	LocationEventsEnabled    bool // publish location.changed events
	RedisTxRetries           int
	NearbyDefaultRadiusMeter float64
	LimiterIdleSeconds       int // idle time after which an actor's rate limiter is dropped
}
