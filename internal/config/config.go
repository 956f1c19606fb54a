package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Storage StorageConfig
	Ledger  LedgerConfig
	Notify  NotifyConfig
	Log     LogConfig
	QR      QRConfig
	Scanner ScannerConfig
}

// StorageConfig selects the persistence adapter.
// Driver is one of: memory, file, redis, sqlite, postgres.
type StorageConfig struct {
	Driver    string
	Path      string
	RedisAddr string
	RedisDB   int
	KeyPrefix string
	DSN       string
}

// LedgerConfig bounds generation requests. The batch range is a product decision.
type LedgerConfig struct {
	MinBatch      int
	MaxBatch      int
	DefaultPrefix string
}

type NotifyConfig struct {
	DismissAfter time.Duration
}

type LogConfig struct {
	Dir   string
	Level string
	Color bool
}

type QRConfig struct {
	SecretKey string
	Size      int
	FontPath  string
}

type ScannerConfig struct {
	HistorySize   int
	StopOnSuccess bool
}

func Load() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:    strings.ToLower(getEnv("STORAGE_DRIVER", "file")),
			Path:      getEnv("STORAGE_PATH", "./data"),
			RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
			RedisDB:   getEnvInt("REDIS_DB", 0),
			KeyPrefix: getEnv("STORAGE_KEY_PREFIX", ""),
			DSN:       getEnv("DATABASE_DSN", "file:tix-voucher.db?cache=shared"),
		},
		Ledger: LedgerConfig{
			MinBatch:      getEnvInt("LEDGER_MIN_BATCH", 1),
			MaxBatch:      getEnvInt("LEDGER_MAX_BATCH", 200),
			DefaultPrefix: strings.ToUpper(getEnv("TICKET_PREFIX", "TIX")),
		},
		Notify: NotifyConfig{
			DismissAfter: getEnvDuration("NOTIFY_DISMISS_MS", 3000*time.Millisecond),
		},
		Log: LogConfig{
			Dir:   getEnv("LOG_DIR", "logs"),
			Level: getEnv("LOG_LEVEL", "INFO"),
			Color: getEnvBool("LOG_COLOR", true),
		},
		QR: QRConfig{
			SecretKey: os.Getenv("QR_SECRET_KEY"),
			Size:      getEnvInt("QR_SIZE", 256),
			FontPath:  getEnv("PDF_FONT_PATH", "./fonts/DejaVuSans.ttf"),
		},
		Scanner: ScannerConfig{
			HistorySize:   getEnvInt("SCAN_HISTORY_SIZE", 10),
			StopOnSuccess: getEnvBool("SCAN_STOP_ON_SUCCESS", true),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration reads a millisecond count.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * time.Millisecond
		}
	}
	return defaultValue
}
