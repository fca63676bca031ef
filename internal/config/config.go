package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"crewquest/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	JWTSecret     string
	AllowedOrigin string

	// Optional collaborators. Empty values disable them.
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel string
	LogJSON  bool

	// RoomSizes maps a room-key prefix to the player count that room
	// needs before play can begin. Longest matching prefix wins;
	// MaxPlayers is the fallback.
	RoomSizes  map[string]int
	MaxPlayers int

	// TargetScore overrides the trivia content's target when > 0.
	TargetScore int
	ContentPath string

	WSRateLimit  int
	WSRateWindow time.Duration
}

// Load reads configuration from the environment (.env honored).
func Load() *Config {
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	maxPlayers := 5
	if v := os.Getenv("MAX_PLAYERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxPlayers = n
		}
	}

	targetScore := 0
	if v := os.Getenv("TARGET_SCORE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			targetScore = n
		}
	}

	wsRateLimit := 20
	if v := os.Getenv("WS_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			wsRateLimit = n
		}
	}

	wsRateWindow := time.Minute
	if v := os.Getenv("WS_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			wsRateWindow = time.Duration(n) * time.Second
		}
	}

	return &Config{
		AppPort:       port,
		JWTSecret:     jwtSecret,
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		LogLevel:      envDefault("LOG_LEVEL", "info"),
		LogJSON:       os.Getenv("LOG_JSON") == "true",
		RoomSizes:     parseRoomSizes(os.Getenv("ROOM_SIZES")),
		MaxPlayers:    maxPlayers,
		TargetScore:   targetScore,
		ContentPath:   os.Getenv("CONTENT_PATH"),
		WSRateLimit:   wsRateLimit,
		WSRateWindow:  wsRateWindow,
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseRoomSizes parses "maze:2,quiz:3,machine:4" into a prefix table.
// Malformed entries are skipped.
func parseRoomSizes(raw string) map[string]int {
	if raw == "" {
		return map[string]int{
			"maze":    2,
			"quiz":    3,
			"machine": 4,
			"vault":   5,
		}
	}

	sizes := make(map[string]int)
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
		if len(parts) != 2 {
			continue
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 1 || parts[0] == "" {
			continue
		}
		sizes[parts[0]] = n
	}
	return sizes
}
