package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	PublicBaseURL string

	// Dinodial voice provider
	DinodialBaseURL    string
	DinodialToken      string
	DinodialAdminToken string
	DinodialPhone      string
	DinodialTimeout    time.Duration
	DinodialVADEngine  string

	// Twilio WhatsApp messaging
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// SendGrid email confirmations
	SendGridAPIKey     string
	SendGridFromEmail  string
	SendGridFromName   string
	HospitalAlertEmail string

	// Follow-up dispatcher
	FollowUpPollInterval  time.Duration
	RateLimitCooldown     time.Duration
	ReminderMessageDelay  time.Duration
	ReminderVoiceDelay    time.Duration
	SyncDedupeTTL         time.Duration

	// Doctor portal auth
	DoctorJWTSecret string
	DoctorJWTExpiry time.Duration

	RedisAddr     string
	RedisPassword string

	CORSAllowedOrigins   string
	WebhookRatePerSecond int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		DinodialBaseURL:    getEnv("DINODIAL_BASE_URL", "https://api-dinodial-proxy.cyces.co"),
		DinodialToken:      getEnv("DINODIAL_TOKEN", ""),
		DinodialAdminToken: getEnv("DINODIAL_ADMIN_TOKEN", ""),
		DinodialPhone:      getEnv("DINODIAL_PHONE_NUMBER", ""),
		DinodialTimeout:    getEnvAsDuration("DINODIAL_TIMEOUT", 30*time.Second),
		DinodialVADEngine:  getEnv("DINODIAL_VAD_ENGINE", "CAWL"),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", "whatsapp:+14155238886"),

		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:  getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:   getEnv("SENDGRID_FROM_NAME", "Hospital Booking"),
		HospitalAlertEmail: getEnv("HOSPITAL_ALERT_EMAIL", ""),

		FollowUpPollInterval: getEnvAsDuration("FOLLOWUP_POLL_INTERVAL", 60*time.Second),
		RateLimitCooldown:    getEnvAsDuration("RATE_LIMIT_COOLDOWN", 65*time.Second),
		ReminderMessageDelay: getEnvAsDuration("REMINDER_MESSAGE_DELAY", time.Hour),
		ReminderVoiceDelay:   getEnvAsDuration("REMINDER_VOICE_DELAY", 2*time.Hour),
		SyncDedupeTTL:        getEnvAsDuration("SYNC_DEDUPE_TTL", 30*time.Second),

		DoctorJWTSecret: getEnv("DOCTOR_JWT_SECRET", ""),
		DoctorJWTExpiry: getEnvAsDuration("DOCTOR_JWT_EXPIRY", 12*time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		CORSAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", ""),
		WebhookRatePerSecond: getEnvAsInt("WEBHOOK_RATE_PER_SECOND", 5),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
