package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	WAPhoneNumberID string `env:"WA_PHONE_NUMBER_ID" env-required:"true" env-description:"WhatsApp Cloud API phone number id"`
	WAAccessToken   string `env:"WA_ACCESS_TOKEN" env-required:"true" env-description:"WhatsApp Cloud API access token"`
	WAVerifyToken   string `env:"WA_VERIFY_TOKEN" env-description:"webhook verify token, random when unset"`

	GoogleSheetID         string `env:"GOOGLE_SHEET_ID" env-required:"true" env-description:"catalog spreadsheet id"`
	GoogleCredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE" env-default:"credentials.json" env-description:"service account JSON key"`

	StartKeyword string `env:"START_KEYWORD" env-default:"@lista" env-description:"text that opens a catalog session"`

	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" env-default:"30"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST" env-default:"10"`
	SessionIdleTTL     time.Duration `env:"SESSION_IDLE_TTL" env-default:"24h" env-description:"idle sessions are forgotten after this"`
	DedupTTL           time.Duration `env:"DEDUP_TTL" env-default:"24h" env-description:"how long delivered message ids are remembered"`

	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"json"`

	BaseURL string `env:"BASE_URL"`
	Port    string `env:"PORT" env-default:"8080"`
	DataDir string `env:"DATA_DIR" env-default:"."`
}

func Load() (*Config, error) {
	// .env is optional — env vars may already be set (e.g. in production)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		desc, _ := cleanenv.GetDescription(&cfg, nil)
		return nil, fmt.Errorf("reading env: %w\n%s", err, desc)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%s", cfg.Port)
	}

	if cfg.WAVerifyToken == "" {
		token, err := randomHex(16)
		if err != nil {
			return nil, fmt.Errorf("generating verify token: %w", err)
		}
		cfg.WAVerifyToken = token
	}

	return &cfg, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
