package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL string
	Port        string
	GoEnv       string
	LogLevel    string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTTTL      time.Duration

	CORSAllowedOrigins []string

	SMSAPIKey            string
	SMSSenderID          string
	SMSAPIURL            string
	SMSTimeout           time.Duration
	BusinessName         string
	BusinessContactPhone string

	DoorstepServiceFee    float64
	FreeShippingThreshold float64
	FlatShippingFee       float64
	TaxRate               float64
	OrderNumberPrefix     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers     []string
	KafkaTopicEvents string

	JaegerEndpoint string

	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	AdminName     string
	AdminEmail    string
	AdminPhone    string
	AdminPassword string
}

var current *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),
		GoEnv:       getEnv("GO_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "mobirepair-api"),
		JWTAudience: getEnv("JWT_AUDIENCE", "mobirepair-clients"),
		JWTTTL:      getDuration("JWT_TTL", 7*24*time.Hour),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),

		SMSAPIKey:            getEnv("SMS_API_KEY", ""),
		SMSSenderID:          getEnv("SMS_SENDER_ID", "MOBIRE"),
		SMSAPIURL:            getEnv("SMS_API_URL", "https://www.fast2sms.com/dev/bulkV2"),
		SMSTimeout:           getDuration("SMS_TIMEOUT", 10*time.Second),
		BusinessName:         getEnv("BUSINESS_NAME", "Mobile Repair"),
		BusinessContactPhone: getEnv("BUSINESS_CONTACT_PHONE", "7407926912"),

		DoorstepServiceFee:    getFloat("DOORSTEP_SERVICE_FEE", 99),
		FreeShippingThreshold: getFloat("FREE_SHIPPING_THRESHOLD", 999),
		FlatShippingFee:       getFloat("FLAT_SHIPPING_FEE", 49),
		TaxRate:               getFloat("TAX_RATE", 0.18),
		OrderNumberPrefix:     getEnv("ORDER_NUMBER_PREFIX", "GF"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		KafkaBrokers:     getList("KAFKA_BROKERS", ""),
		KafkaTopicEvents: getEnv("KAFKA_TOPIC_EVENTS", "mobirepair-events"),

		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		AdminName:     getEnv("ADMIN_NAME", "Admin User"),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPhone:    getEnv("ADMIN_PHONE", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	current = cfg
	return cfg, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.JWTSecret == "" && !c.IsTest() {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TaxRate < 0 || c.TaxRate > 1 {
		return fmt.Errorf("TAX_RATE must be between 0 and 1, got %v", c.TaxRate)
	}
	if c.DoorstepServiceFee < 0 || c.FlatShippingFee < 0 || c.FreeShippingThreshold < 0 {
		return fmt.Errorf("fees and thresholds must not be negative")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// HasAdminBootstrap reports whether enough admin settings are present to seed the admin account
func (c *Config) HasAdminBootstrap() bool {
	return c.AdminEmail != "" && c.AdminPassword != ""
}

// GetConfig returns the most recently loaded configuration
func GetConfig() *Config {
	return current
}

// SetConfig replaces the active configuration (primarily for testing)
func SetConfig(cfg *Config) {
	current = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// getList splits a comma separated variable, dropping empty entries
func getList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
