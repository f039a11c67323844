package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	BotToken    string
	MongoURI    string
	PostgresURI string
	RedisURI    string

	// Privileged identity lists. Resolved into roles by internal/auth;
	// nothing else should read these directly.
	AdminIDs     []int64
	OwnerIDs     []int64
	SuperAdminID int64

	// Report channel for broadcast notifications (0 = disabled).
	ReportChannelID int64

	// Token system settings
	ReportCostTokens  int
	FreeTokensNewUser int
	TokenPriceStars   int
	TokenPriceINR     int

	// Account management
	MaxAccountsPerUser int

	// Report workflow
	MaxReportLength int
	ReportCooldown  int // seconds between successful submissions
	ReportsPerPage  int

	// HTTP review console
	Port              string
	AllowedOrigins    []string
	AdminPasswordHash string // Argon2id hash, see pkg/utils.HashPassword
	EncryptionKey     string

	// Cloudinary (evidence uploads)
	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	ContactUsername string
	Environment     string
}

func Load() *Config {
	cfg := &Config{
		BotToken:    getEnv("BOT_TOKEN", ""),
		MongoURI:    getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/telereport")),
		PostgresURI: getEnv("POSTGRES_URI", "postgres://localhost:5432/telereport?sslmode=disable"),
		RedisURI:    getEnv("REDIS_URI", "redis://localhost:6379/0"),

		AdminIDs:     parseIDList(getEnv("ADMIN_IDS", "")),
		OwnerIDs:     parseIDList(getEnv("OWNER_IDS", "")),
		SuperAdminID: parseID(getEnv("SUPER_ADMIN_ID", "0")),

		ReportChannelID: parseID(getEnv("REPORT_CHANNEL_ID", "0")),

		ReportCostTokens:  getEnvInt("REPORT_COST_IN_TOKENS", 1),
		FreeTokensNewUser: getEnvInt("FREE_TOKENS_FOR_NEW_USERS", 0),
		TokenPriceStars:   getEnvInt("TOKEN_PRICE_STARS", 50),
		TokenPriceINR:     getEnvInt("TOKEN_PRICE_INR", 50),

		MaxAccountsPerUser: getEnvInt("MAX_ACCOUNTS_PER_USER", 5),

		MaxReportLength: getEnvInt("MAX_REPORT_LENGTH", 1000),
		ReportCooldown:  getEnvInt("REPORT_COOLDOWN", 30),
		ReportsPerPage:  getEnvInt("REPORTS_PER_PAGE", 10),

		Port:              getEnv("PORT", "8080"),
		AllowedOrigins:    parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		EncryptionKey:     getEnv("ENCRYPTION_KEY", ""),

		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),

		ContactUsername: getEnv("CONTACT_USERNAME", "admin"),
		Environment:     strings.ToLower(strings.TrimSpace(getEnv("ENV", "development"))),
	}

	if cfg.BotToken == "" {
		log.Println("⚠️  WARNING: BOT_TOKEN is not set")
	}

	return cfg
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseIDList(s string) []int64 {
	if s == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("⚠️  Skipping invalid ID %q in list", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func parseOrigins(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		out = []string{"http://localhost:3000"}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
