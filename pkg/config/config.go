package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DatabaseURL        string
	AppEnv             string
	BaseURL            string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	JWTSecret          string
	FrontendURL        string
	AllowedEmails      []string
	LogLevel           string

	// GateTimeout bounds the prerequisite lookups; a publish check still
	// waiting when it elapses reports loading.
	GateTimeout      time.Duration
	OTPTTL           time.Duration
	SubscriptionDays int

	// ExposeOTP returns issued phone codes in the API response. There is no
	// SMS delivery, so turning it off leaves users unable to verify.
	ExposeOTP bool

	// UPIPayeeVPA, when set, adds upi:// payment links to the plan list.
	UPIPayeeVPA  string
	UPIPayeeName string

	// CloudinaryURL enables thumbnail uploads when set.
	CloudinaryURL string
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", "file:db.sqlite"),
		AppEnv:             getEnv("APP_ENV", "local"),
		BaseURL:            strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),
		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedEmails:      splitList(getEnv("ALLOWED_EMAILS", "")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		GateTimeout:        getDuration("GATE_TIMEOUT", 3*time.Second),
		OTPTTL:             getDuration("OTP_TTL", 10*time.Minute),
		SubscriptionDays:   getInt("SUBSCRIPTION_DAYS", 30),
		ExposeOTP:          getBool("OTP_EXPOSE", true),
		UPIPayeeVPA:        getEnv("UPI_PAYEE_VPA", ""),
		UPIPayeeName:       getEnv("UPI_PAYEE_NAME", "Liinks"),
		CloudinaryURL:      getEnv("CLOUDINARY_URL", ""),
	}
}

// IsProduction reports whether cookies should be marked secure.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// SubscriptionPeriod is how long a confirmed payment keeps a tier active.
func (c *Config) SubscriptionPeriod() time.Duration {
	return time.Duration(c.SubscriptionDays) * 24 * time.Hour
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
