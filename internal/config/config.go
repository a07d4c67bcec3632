package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration from environment variables.
type Config struct {
	Port           int    `validate:"gte=1,lte=65535"`
	DBPath         string `validate:"required"`
	TransitBaseURL string `validate:"required,url"`
	TransitAPIKey  string // injected into proxied transit requests; proxy returns 500 when empty
	NominatimURL   string `validate:"required,url"`
	AlertsFeedURL  string `validate:"omitempty,url"` // GTFS-RT service alerts protobuf feed ("" disables the poller)
	TestMode       bool

	// EmailJS-style feedback relay credentials
	EmailServiceID  string
	EmailTemplateID string
	EmailPublicKey  string
	EmailRelayURL   string `validate:"required,url"`

	// Coordinator tuning
	StopRefreshDebounce time.Duration
	SearchDebounce      time.Duration
	MaxDistanceMeters   int
	AlertsPollInterval  time.Duration

	// Fallback point used when geolocation is denied or unavailable
	FallbackLat float64
	FallbackLon float64
}

// Load reads configuration from environment variables with defaults.
// A .env file in the working directory is read first if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           envInt("SMARTSHUTTLE_PORT", 8080),
		DBPath:         envStr("SMARTSHUTTLE_DB_PATH", "./smartshuttle.db"),
		TransitBaseURL: envStr("SMARTSHUTTLE_TRANSIT_URL", "https://external.transitapp.com/v3"),
		TransitAPIKey:  envStr("TRANSIT_API_KEY", ""),
		NominatimURL:   envStr("SMARTSHUTTLE_NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		AlertsFeedURL:  envStr("SMARTSHUTTLE_ALERTS_FEED_URL", ""),
		TestMode:       envBool("SMARTSHUTTLE_TEST_MODE", false),

		EmailServiceID:  envStr("EMAILJS_SERVICE_ID", ""),
		EmailTemplateID: envStr("EMAILJS_TEMPLATE_ID", ""),
		EmailPublicKey:  envStr("EMAILJS_PUBLIC_KEY", ""),
		EmailRelayURL:   envStr("SMARTSHUTTLE_EMAIL_RELAY_URL", "https://api.emailjs.com/api/v1.0/email/send"),

		StopRefreshDebounce: envDuration("SMARTSHUTTLE_STOP_DEBOUNCE", 800*time.Millisecond),
		SearchDebounce:      envDuration("SMARTSHUTTLE_SEARCH_DEBOUNCE", 500*time.Millisecond),
		MaxDistanceMeters:   envInt("SMARTSHUTTLE_MAX_DISTANCE_M", 1500),
		AlertsPollInterval:  envDuration("SMARTSHUTTLE_ALERTS_POLL", 5*time.Minute),

		FallbackLat: envFloat("SMARTSHUTTLE_FALLBACK_LAT", 40.4406),
		FallbackLon: envFloat("SMARTSHUTTLE_FALLBACK_LON", -79.9951),
	}
}

// Validate checks the loaded configuration against its struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
