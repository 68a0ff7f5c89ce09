package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Cache
		Dictionary
		Enrichment
		Uploads
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Cache struct {
		Enabled       bool
		DBPath        string
		Retention     time.Duration
		PruneSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}

	Dictionary struct {
		BaseURL           string
		RateLimitInterval time.Duration
	}

	Enrichment struct {
		Workers          int
		FallbackLanguage string
	}

	Uploads struct {
		MaxSize int64 // bytes, per uploaded file
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	v.SetDefault("cache_enabled", true)
	v.SetDefault("cache_db_path", DefaultCacheDBPath)
	v.SetDefault("cache_retention", "720h") // 30 days
	v.SetDefault("cache_prune_schedule", "0 3 * * *")

	v.SetDefault("dictionary_base_url", "")
	v.SetDefault("dictionary_rate_limit_interval", "500ms")

	v.SetDefault("enrich_workers", 8)
	v.SetDefault("fallback_language", "en")

	v.SetDefault("max_upload_size", 50*1024*1024)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Cache: Cache{
			Enabled:       v.GetBool("CACHE_ENABLED"),
			DBPath:        v.GetString("CACHE_DB_PATH"),
			Retention:     v.GetDuration("CACHE_RETENTION"),
			PruneSchedule: v.GetString("CACHE_PRUNE_SCHEDULE"),
		},
		Dictionary: Dictionary{
			BaseURL:           v.GetString("DICTIONARY_BASE_URL"),
			RateLimitInterval: v.GetDuration("DICTIONARY_RATE_LIMIT_INTERVAL"),
		},
		Enrichment: Enrichment{
			Workers:          v.GetInt("ENRICH_WORKERS"),
			FallbackLanguage: v.GetString("FALLBACK_LANGUAGE"),
		},
		Uploads: Uploads{
			MaxSize: v.GetInt64("MAX_UPLOAD_SIZE"),
		},
	}
}
