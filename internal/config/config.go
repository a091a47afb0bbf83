package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env  string
	Port int

	// DBURL is empty when no database is configured; the server then runs on
	// the in-memory stores (dev / test mode).
	DBURL string

	// Seed admin credentials. Without them a fresh database has no admin and
	// the admin-only endpoints are unreachable.
	AdminEmail    string
	AdminPassword string

	CORSOrigins  []string
	OTelEndpoint string

	// StrictRosterReads restores the older assigned-only rule for reading a
	// single roster. The permissive rule (any authenticated caller) is the
	// default.
	StrictRosterReads bool

	LoginRateLimit  int
	LoginRateWindow time.Duration
}

func Load() Config {
	return Config{
		Env:               getEnv("APP_ENV", "dev"),
		Port:              getEnvInt("PORT", 5000),
		DBURL:             buildDBURL(),
		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "")),
		OTelEndpoint:      getEnv("OTEL_ENDPOINT", ""),
		StrictRosterReads: getEnvBool("ROSTER_STRICT_READS", false),
		LoginRateLimit:    getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow:   time.Duration(getEnvInt("LOGIN_RATE_WINDOW_SECONDS", 60)) * time.Second,
	}
}

func buildDBURL() string {
	if url := getEnv("DATABASE_URL", ""); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "")

	if host == "" {
		// no database configured
		return ""
	}

	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "rollcall")
	pass := getEnv("DB_PASSWORD", "rollcall")
	name := getEnv("DB_NAME", "rollcall")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)

		if err != nil {
			return fallback
		}

		return b
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)

		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
