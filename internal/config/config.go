// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds configuration knobs for the HTTP server, storage, auth
// and the WeChat OAuth integration.
type Config struct {
	HTTPAddr        string
	PublicBaseURL   string
	ShutdownTimeout time.Duration

	// DatabaseURL selects the Postgres backend when set; the in-memory
	// store is used otherwise.
	DatabaseURL string

	JWTSecret      string
	TokenTTL       time.Duration
	WeChatTokenTTL time.Duration

	WeChatAppID       string
	WeChatSecret      string
	WeChatAuthBaseURL string
	WeChatAPIBaseURL  string

	UploadDir      string
	MaxUploadBytes int64

	SeedOnStart bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		PublicBaseURL:   getenv("PUBLIC_BASE_URL", "http://localhost:8080"),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 15),

		DatabaseURL: getenv("DATABASE_URL", ""),

		JWTSecret:      getenv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:       durenvs("TOKEN_TTL", 24*60*60),
		WeChatTokenTTL: durenvs("WECHAT_TOKEN_TTL", 30*24*60*60),

		WeChatAppID:       getenv("WECHAT_APPID", ""),
		WeChatSecret:      getenv("WECHAT_SECRET", ""),
		WeChatAuthBaseURL: getenv("WECHAT_AUTH_BASE_URL", "https://open.weixin.qq.com"),
		WeChatAPIBaseURL:  getenv("WECHAT_API_BASE_URL", "https://api.weixin.qq.com"),

		UploadDir:      getenv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: int64(atoienv("MAX_UPLOAD_BYTES", 2*1024*1024)),

		SeedOnStart: boolenv("SEED_ON_START", false),
	}
}
