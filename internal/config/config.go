package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ImageLimits bounds what the image store accepts and how many images a
// product may carry. Passed explicitly into storage and validation so tests
// can inject their own limits.
type ImageLimits struct {
	MaxBytes  int64
	MaxWidth  int
	MaxHeight int
	MinCount  int
	MaxCount  int
}

func DefaultImageLimits() ImageLimits {
	return ImageLimits{
		MaxBytes:  2 << 20, // 2 MiB
		MaxWidth:  2000,
		MaxHeight: 2000,
		MinCount:  1,
		MaxCount:  10,
	}
}

type Config struct {
	Port     string
	DBDSN    string
	MediaDir string
	Env      string
	LogLevel string
	Images   ImageLimits
}

func Load() Config {
	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	limits := DefaultImageLimits()
	limits.MaxBytes = getenvInt64("MAX_IMAGE_BYTES", limits.MaxBytes)
	limits.MaxWidth = getenvInt("MAX_IMAGE_WIDTH", limits.MaxWidth)
	limits.MaxHeight = getenvInt("MAX_IMAGE_HEIGHT", limits.MaxHeight)

	cfg := Config{
		Port:     getenv("PORT", "8080"),
		DBDSN:    getenv("DB_DSN", "catalogd.db"),
		MediaDir: getenv("MEDIA_DIR", "./media"),
		Env:      getenv("APP_ENV", "development"),
		LogLevel: getenv("LOG_LEVEL", "info"),
		Images:   limits,
	}
	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s APP_ENV=%s", cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.Env)
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return def
}
