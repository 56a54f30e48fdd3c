package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds watchparty-service configuration.
type Config struct {
	AppEnv   string // APP_ENV
	AppHost  string // APP_HOST
	HTTPPort string // APP_PORT or HTTP_PORT
	LogLevel string // LOG_LEVEL

	// WebSocket
	WSReadBufferSize  int
	WSWriteBufferSize int
	WSMaxMessageSize  int64

	// Party
	PartyMaxParticipants int           // hard cap per party
	ChatHistoryLimit     int           // bounded chat log, oldest evicted
	PartyTTL             time.Duration // idle parties past this are swept
	SweepInterval        time.Duration // how often the sweep runs
	PingInterval         time.Duration // transport-level ping cadence
}

// Load loads config from environment (.env if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	readBuf, _ := strconv.Atoi(getEnv("WS_READ_BUFFER_SIZE", "4096"))
	writeBuf, _ := strconv.Atoi(getEnv("WS_WRITE_BUFFER_SIZE", "4096"))
	maxMsg, _ := strconv.ParseInt(getEnv("WS_MAX_MESSAGE_SIZE", "65536"), 10, 64)
	maxPart, _ := strconv.Atoi(getEnv("PARTY_MAX_PARTICIPANTS", "5"))
	chatCap, _ := strconv.Atoi(getEnv("PARTY_CHAT_HISTORY_LIMIT", "50"))
	ttlSec, _ := strconv.Atoi(getEnv("PARTY_TTL", "86400"))
	sweepSec, _ := strconv.Atoi(getEnv("PARTY_SWEEP_INTERVAL", "3600"))
	pingSec, _ := strconv.Atoi(getEnv("WS_PING_INTERVAL", "30"))

	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		AppHost:              getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:             firstEnv("APP_PORT", "HTTP_PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		WSReadBufferSize:     readBuf,
		WSWriteBufferSize:    writeBuf,
		WSMaxMessageSize:     maxMsg,
		PartyMaxParticipants: maxPart,
		ChatHistoryLimit:     chatCap,
		PartyTTL:             time.Duration(ttlSec) * time.Second,
		SweepInterval:        time.Duration(sweepSec) * time.Second,
		PingInterval:         time.Duration(pingSec) * time.Second,
	}
	return cfg, nil
}

// Validate checks required fields and sane limits.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return errors.New("config: APP_PORT is required")
	}
	if c.PartyMaxParticipants < 1 {
		return errors.New("config: PARTY_MAX_PARTICIPANTS must be at least 1")
	}
	if c.ChatHistoryLimit < 1 {
		return errors.New("config: PARTY_CHAT_HISTORY_LIMIT must be at least 1")
	}
	if c.PartyTTL <= 0 {
		return errors.New("config: PARTY_TTL must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("config: PARTY_SWEEP_INTERVAL must be positive")
	}
	if c.PingInterval <= 0 {
		return errors.New("config: WS_PING_INTERVAL must be positive")
	}
	return nil
}

// Addr returns listen address for HTTP server.
func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	keys := keysAndDef[:len(keysAndDef)-1]
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
