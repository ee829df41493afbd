package utils

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds process-level configuration read from the environment.
type Settings struct {
	WSAddr       string
	APIAddr      string
	DBDriver     string // "postgres" or "sqlite"
	DatabaseURL  string
	JWTSecret    string
	LogLevel     string
	LogFormat    string // "console" or "json"
	ShutdownWait time.Duration

	ArchiveBucket   string
	ArchiveEndpoint string
	ArchiveRegion   string
	ArchiveKey      string
	ArchiveSecret   string
}

// LoadSettings reads an optional .env file and then the process environment.
func LoadSettings(envFiles ...string) Settings {
	// A missing .env is normal outside development.
	_ = godotenv.Load(envFiles...)

	s := Settings{
		WSAddr:       getEnv("WS_ADDR", ":3001"),
		APIAddr:      getEnv("API_ADDR", ":3002"),
		DBDriver:     getEnv("DB_DRIVER", ""),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		JWTSecret:    getEnv("JWT_SECRET", "dev-secret"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "console"),
		ShutdownWait: getEnvDuration("SHUTDOWN_WAIT", 5*time.Second),

		ArchiveBucket:   getEnv("ARCHIVE_BUCKET", ""),
		ArchiveEndpoint: getEnv("ARCHIVE_ENDPOINT", ""),
		ArchiveRegion:   getEnv("ARCHIVE_REGION", "auto"),
		ArchiveKey:      getEnv("ARCHIVE_ACCESS_KEY_ID", ""),
		ArchiveSecret:   getEnv("ARCHIVE_SECRET_ACCESS_KEY", ""),
	}
	if s.DBDriver == "" {
		if s.DatabaseURL != "" {
			s.DBDriver = "postgres"
		} else {
			s.DBDriver = "sqlite"
		}
	}
	if s.DBDriver == "sqlite" && s.DatabaseURL == "" {
		s.DatabaseURL = "pongarena.db"
	}
	return s
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
