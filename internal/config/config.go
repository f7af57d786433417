package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Backend
	BackendBaseURL string
	BrokerURL      string

	// Local ops API
	OpsPort string

	Environment string

	// Live channel
	ReconnectDelaySeconds int
	HandshakeTimeout      int

	// Polling (seconds)
	ChatPollInterval     int
	AlertPollInterval    int
	LocationPollInterval int

	// Geofencing
	AwayThresholdKm float64

	// Local cache
	CachePath string

	// Firebase (device push surfacing)
	FirebaseCredentialsPath string
	DeviceToken             string

	// Surfacing toggles
	EnablePushSurfacing  bool
	EnableEmailFallback  bool
	NotificationsAllowed bool

	// SMTP Configuration
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPFromName  string
	SMTPFromEmail string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️  Info: .env file not found or unreadable. Falling back to system environment variables.")
	}

	return &Config{
		// Backend
		BackendBaseURL: getEnvWithDefault("BACKEND_BASE_URL", "http://localhost:8080"),
		BrokerURL:      getEnvWithDefault("BROKER_URL", "ws://localhost:8080/ws"),

		// Local ops API
		OpsPort:     getEnvWithDefault("OPS_PORT", "9090"),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),

		// Live channel
		ReconnectDelaySeconds: getEnvInt("RECONNECT_DELAY_SECONDS", 5),
		HandshakeTimeout:      getEnvInt("HANDSHAKE_TIMEOUT_SECONDS", 10),

		// Polling
		ChatPollInterval:     getEnvInt("CHAT_POLL_INTERVAL", 5),
		AlertPollInterval:    getEnvInt("ALERT_POLL_INTERVAL", 5),
		LocationPollInterval: getEnvInt("LOCATION_POLL_INTERVAL", 8),

		// Geofencing: 0.2 km = 200 meters
		AwayThresholdKm: getEnvFloat("AWAY_THRESHOLD_KM", 0.2),

		// Local cache
		CachePath: getEnvWithDefault("CACHE_PATH", "companion.db"),

		// Firebase
		FirebaseCredentialsPath: os.Getenv("FIREBASE_CREDENTIALS_PATH"),
		DeviceToken:             os.Getenv("DEVICE_TOKEN"),

		// Surfacing
		EnablePushSurfacing:  getEnvBool("ENABLE_PUSH_SURFACING", false),
		EnableEmailFallback:  getEnvBool("ENABLE_EMAIL_FALLBACK", false),
		NotificationsAllowed: getEnvBool("NOTIFICATIONS_ALLOWED", true),

		// SMTP
		SMTPHost:      getEnvWithDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getEnvInt("SMTP_PORT", 587),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPFromName:  getEnvWithDefault("SMTP_FROM_NAME", "PMA Companion"),
		SMTPFromEmail: os.Getenv("SMTP_FROM_EMAIL"),
	}, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intValue int
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var floatValue float64
		if _, err := fmt.Sscanf(value, "%g", &floatValue); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// Validate checks that every mandatory setting is present.
func (c *Config) Validate() error {
	if c.BackendBaseURL == "" {
		return fmt.Errorf("BACKEND_BASE_URL is required")
	}

	if c.BrokerURL == "" {
		return fmt.Errorf("BROKER_URL is required")
	}

	if c.AwayThresholdKm <= 0 {
		return fmt.Errorf("AWAY_THRESHOLD_KM must be positive")
	}

	if c.EnablePushSurfacing && c.FirebaseCredentialsPath == "" {
		log.Println("⚠️  Push surfacing enabled but FIREBASE_CREDENTIALS_PATH not configured")
	}

	if c.EnableEmailFallback && (c.SMTPUsername == "" || c.SMTPPassword == "") {
		log.Println("⚠️  Email fallback enabled but SMTP credentials not configured")
	}

	return nil
}
