package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/piresc/tirtha/internal/pkg/models"
)

// InitConfig loads configPath into the environment when running locally and
// builds the configuration from environment variables
func InitConfig(configPath string) *models.Config {
	local := GetEnv("APP_ENV", "local")
	if local == "local" && configPath != "" {
		// Load config from file
		err := godotenv.Load(configPath)
		if err != nil {
			log.Println("error loading config from file", err)
		}
	}
	// Create config from environment variables
	return loadConfigFromEnv()
}

func loadConfigFromEnv() *models.Config {
	configs := &models.Config{}

	// App config
	configs.App.Name = GetEnv("APP_NAME", "tracking-service")
	configs.App.Environment = GetEnv("APP_ENV", "")
	configs.App.Debug = GetEnvAsBool("APP_DEBUG", true)
	configs.App.Version = GetEnv("APP_VERSION", "")

	// Server config
	configs.Server.Host = GetEnv("SERVER_HOST", "")
	configs.Server.Port = GetEnvAsInt("SERVER_PORT", 9995)
	configs.Server.ReadTimeout = GetEnvAsInt("SERVER_READ_TIMEOUT", 0)
	configs.Server.WriteTimeout = GetEnvAsInt("SERVER_WRITE_TIMEOUT", 0)
	configs.Server.ShutdownTimeout = GetEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 30)

	// Database config
	configs.Database.Driver = GetEnv("DB_DRIVER", "pgx")
	configs.Database.Host = GetEnv("DB_HOST", "")
	configs.Database.Port = GetEnvAsInt("DB_PORT", 0)
	configs.Database.Username = GetEnv("DB_USERNAME", "")
	configs.Database.Password = GetEnv("DB_PASSWORD", "")
	configs.Database.Database = GetEnv("DB_DATABASE", "")
	configs.Database.SSLMode = GetEnv("DB_SSL_MODE", "disable")
	configs.Database.MaxConns = GetEnvAsInt("DB_MAX_CONNS", 0)
	configs.Database.IdleConns = GetEnvAsInt("DB_IDLE_CONNS", 0)

	// Redis config
	configs.Redis.Host = GetEnv("REDIS_HOST", "")
	configs.Redis.Port = GetEnvAsInt("REDIS_PORT", 0)
	configs.Redis.Password = GetEnv("REDIS_PASSWORD", "")
	configs.Redis.DB = GetEnvAsInt("REDIS_DB", 0)
	configs.Redis.PoolSize = GetEnvAsInt("REDIS_POOL_SIZE", 0)

	// NATS config
	configs.NATS.URL = GetEnv("NATS_URL", "")

	// JWT config
	configs.JWT.Secret = GetEnv("JWT_SECRET", "")
	configs.JWT.Expiration = GetEnvAsInt("JWT_EXPIRATION", 0)
	configs.JWT.Issuer = GetEnv("JWT_ISSUER", "")

	// API keys
	configs.APIKey.GroupService = GetEnv("GROUP_SERVICE_API_KEY", "")
	configs.APIKey.TrackingService = GetEnv("TRACKING_SERVICE_API_KEY", "")

	// Services config
	configs.Services.GroupServiceURL = GetEnv("GROUP_SERVICE_URL", "http://localhost:9994")

	// NewRelic config
	configs.NewRelic.LicenseKey = GetEnv("NEW_RELIC_LICENSE_KEY", "")
	configs.NewRelic.AppName = GetEnv("NEW_RELIC_APP_NAME", "")
	configs.NewRelic.Enabled = GetEnvAsBool("NEW_RELIC_ENABLED", false)
	configs.NewRelic.ForwardLogs = GetEnvAsBool("NEW_RELIC_FORWARD_LOGS", false)

	// Logger config
	configs.Logger.Level = GetEnv("LOG_LEVEL", "info")
	configs.Logger.FilePath = GetEnv("LOG_FILE_PATH", "")

	// Tracking config
	configs.Tracking.Store = GetEnv("TRACKING_STORE", "postgres")
	configs.Tracking.OnlineThresholdSeconds = GetEnvAsInt("TRACKING_ONLINE_THRESHOLD_SECONDS", 300)
	configs.Tracking.SnapshotTimeoutMs = GetEnvAsInt("TRACKING_SNAPSHOT_TIMEOUT_MS", 3000)
	configs.Tracking.StorageTimeoutMs = GetEnvAsInt("TRACKING_STORAGE_TIMEOUT_MS", 2000)
	configs.Tracking.GroupStrategy = GetEnv("TRACKING_GROUP_STRATEGY", "prefix")
	configs.Tracking.GeohashPrecision = uint(GetEnvAsInt("TRACKING_GEOHASH_PRECISION", 7))
	configs.Tracking.IngestRatePerSecond = GetEnvAsFloat("TRACKING_INGEST_RATE_PER_SECOND", 5)
	configs.Tracking.IngestBurst = GetEnvAsInt("TRACKING_INGEST_BURST", 10)
	configs.Tracking.RelayEnabled = GetEnvAsBool("TRACKING_RELAY_ENABLED", false)
	configs.Tracking.LocationEventsEnabled = GetEnvAsBool("TRACKING_LOCATION_EVENTS_ENABLED", true)
	configs.Tracking.RedisTxRetries = GetEnvAsInt("TRACKING_REDIS_TX_RETRIES", 5)
	configs.Tracking.NearbyDefaultRadiusMeter = GetEnvAsFloat("TRACKING_NEARBY_DEFAULT_RADIUS_METERS", 1000)
	configs.Tracking.LimiterIdleSeconds = GetEnvAsInt("TRACKING_LIMITER_IDLE_SECONDS", 3600)

	return configs
}

// Helper functions to get environment variables with different types
func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func GetEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}
