package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	SQLitePath string

	// TripsSource is one of "csv", "postgres" or "sqlite".
	TripsSource string
	CSVPaths    []string
	ImportCSV   bool
	TimeZone    string
	// RejectsPath, when set, receives the rows the cleaner could not parse.
	RejectsPath string

	MaxConcurrency int
	MaxRetries     int

	ProfilesPath string
	// Profile names the render profile; empty selects the document's default.
	Profile      string

	HTTPAddr    string
	CORSOrigins []string
	CacheSize   int
	LogLevel    string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "bikeshare"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "bikeshare"),
		PostgresDB:       getEnv("POSTGRES_DB", "bikeshare"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		SQLitePath: getEnv("SQLITE_DATABASE", "./data/trips.db"),

		TripsSource: strings.ToLower(getEnv("TRIPS_SOURCE", "csv")),
		CSVPaths:    getEnvList("TRIPS_CSV_PATHS", []string{"./data/trips.csv"}),
		ImportCSV:   getEnvBool("IMPORT_CSV", false),
		TimeZone:    getEnv("TRIPS_TIMEZONE", "Asia/Seoul"),
		RejectsPath: getEnv("REJECTS_CSV_PATH", ""),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 4),
		MaxRetries:     getEnvInt("MAX_RETRIES", 5),

		ProfilesPath: getEnv("PROFILES_PATH", ""),
		Profile:      getEnv("RENDER_PROFILE", ""),

		HTTPAddr:    getEnv("HTTP_ADDR", ""),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		CacheSize:   getEnvInt("CACHE_SIZE", 256),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
