package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	gap "github.com/muesli/go-app-paths"
	"github.com/shortnotes/audiogen/internal/cache"
	"github.com/shortnotes/audiogen/internal/synth"
	"github.com/shortnotes/audiogen/utils"
	"github.com/spf13/viper"
)

// envConfig holds settings that only come from the environment.
type envConfig struct {
	OpenAIKey string `env:"OPENAI_API_KEY"`
	LogLevel  string `env:"AUDIOGEN_LOG_LEVEL" envDefault:"info"`
	LogFile   string `env:"AUDIOGEN_LOG_FILE"`
}

// cacheConfig mirrors the cache section of the config file.
type cacheConfig struct {
	Enabled          bool
	Dir              string
	MaxSizeMB        int
	TTLDays          int
	CompressionLevel int
}

// runConfig is the resolved configuration for a generate run.
type runConfig struct {
	OutDir            string
	Language          string
	Slow              bool
	Engine            string
	Catalog           string
	KeepGoing         bool
	Atomic            bool
	Strict            bool
	Timeout           time.Duration
	RequestsPerMinute int
	TLD               string
	Cache             cacheConfig
	OpenAI            synth.OpenAIConfig
}

func setDefaults() {
	viper.SetDefault("out", ".")
	viper.SetDefault("lang", synth.DefaultLanguage)
	viper.SetDefault("slow", false)
	viper.SetDefault("engine", synth.ProviderGTTS)
	viper.SetDefault("catalog", "")
	viper.SetDefault("keep_going", false)
	viper.SetDefault("atomic", false)
	viper.SetDefault("strict", false)
	viper.SetDefault("timeout", "0s")
	viper.SetDefault("requests_per_minute", 50)
	viper.SetDefault("tld", "com")

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.dir", "")
	viper.SetDefault("cache.max_size", 100)
	viper.SetDefault("cache.ttl_days", 7)
	viper.SetDefault("cache.compression_level", 3)

	viper.SetDefault("openai.model", "tts-1")
	viper.SetDefault("openai.voice", "alloy")
}

func parseEnv() (envConfig, error) {
	cfg, err := env.ParseAs[envConfig]()
	if err != nil {
		return envConfig{}, fmt.Errorf("error parsing environment: %w", err)
	}
	return cfg, nil
}

// loadRunConfig reads the merged flag, environment and file configuration
// from viper and validates it.
func loadRunConfig(e envConfig) (runConfig, error) {
	engine, err := synth.NormalizeProvider(viper.GetString("engine"))
	if err != nil {
		return runConfig{}, err
	}

	cfg := runConfig{
		OutDir:            utils.ExpandPath(viper.GetString("out")),
		Language:          viper.GetString("lang"),
		Slow:              viper.GetBool("slow"),
		Engine:            engine,
		Catalog:           utils.ExpandPath(viper.GetString("catalog")),
		KeepGoing:         viper.GetBool("keep_going"),
		Atomic:            viper.GetBool("atomic"),
		Strict:            viper.GetBool("strict"),
		Timeout:           viper.GetDuration("timeout"),
		RequestsPerMinute: viper.GetInt("requests_per_minute"),
		TLD:               viper.GetString("tld"),
		Cache: cacheConfig{
			Enabled:          viper.GetBool("cache.enabled"),
			Dir:              utils.ExpandPath(viper.GetString("cache.dir")),
			MaxSizeMB:        viper.GetInt("cache.max_size"),
			TTLDays:          viper.GetInt("cache.ttl_days"),
			CompressionLevel: viper.GetInt("cache.compression_level"),
		},
		OpenAI: synth.OpenAIConfig{
			APIKey: e.OpenAIKey,
			Model:  viper.GetString("openai.model"),
			Voice:  viper.GetString("openai.voice"),
		},
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "."
	}

	if err := cfg.validate(); err != nil {
		return runConfig{}, err
	}
	return cfg, nil
}

func (c runConfig) validate() error {
	var errs []error
	if err := synth.ValidateLanguage(c.Language); err != nil {
		errs = append(errs, err)
	}
	if c.RequestsPerMinute < 1 {
		errs = append(errs, fmt.Errorf("requests_per_minute must be at least 1, got %d", c.RequestsPerMinute))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.TLD == "" {
		errs = append(errs, errors.New("tld must not be empty"))
	}
	if c.Cache.Enabled {
		if c.Cache.MaxSizeMB < 1 || c.Cache.MaxSizeMB > 10000 {
			errs = append(errs, fmt.Errorf("cache max_size must be between 1 and 10000 MB, got %d", c.Cache.MaxSizeMB))
		}
		if c.Cache.CompressionLevel < 0 || c.Cache.CompressionLevel > 22 {
			errs = append(errs, fmt.Errorf("cache compression_level must be between 0 and 22, got %d", c.Cache.CompressionLevel))
		}
		if c.Cache.TTLDays < 0 {
			errs = append(errs, fmt.Errorf("cache ttl_days must not be negative, got %d", c.Cache.TTLDays))
		}
	}
	return errors.Join(errs...)
}

// cacheDir returns the configured cache directory or the user cache dir.
func (c cacheConfig) cacheDir() (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	dir, err := gap.NewScope(gap.User, appName).CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(dir, "audio"), nil
}

// open opens the disk cache described by c.
func (c cacheConfig) open() (*cache.DiskCache, error) {
	dir, err := c.cacheDir()
	if err != nil {
		return nil, err
	}
	return cache.Open(cache.Config{
		Dir:              dir,
		Capacity:         int64(c.MaxSizeMB) * 1024 * 1024,
		CompressionLevel: c.CompressionLevel,
		TTL:              time.Duration(c.TTLDays) * 24 * time.Hour,
	})
}
