package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration. The YAML file provides the
// base; environment variables override individual fields so containerized
// deployments need no file edits.
type Config struct {
	Port        int    `yaml:"port"`
	Env         string `yaml:"env"`
	DatabaseURL string `yaml:"database_url"`
	RedisAddr   string `yaml:"redis_addr"`
	NATSUrl     string `yaml:"nats_url"`
	JWTSecret   string `yaml:"jwt_secret"`

	Storage       StorageConfig `yaml:"storage"`
	Encoder       EncoderConfig `yaml:"encoder"`
	Motion        MotionConfig  `yaml:"motion"`
	ShareBaseURL  string        `yaml:"share_base_url"`
	ShareTTLHours int           `yaml:"share_ttl_hours"`
}

type StorageConfig struct {
	ClipsDir      string `yaml:"clips_dir"`
	ThumbsDir     string `yaml:"thumbs_dir"`
	MaxBytes      int64  `yaml:"max_bytes"`
	RetentionDays int    `yaml:"retention_days"`
}

type EncoderConfig struct {
	FFmpegPath  string        `yaml:"ffmpeg_path"`
	FFprobePath string        `yaml:"ffprobe_path"`
	GracePeriod time.Duration `yaml:"grace_period"`
}

type MotionConfig struct {
	CooldownSeconds int `yaml:"cooldown_seconds"`
	RecordSeconds   int `yaml:"record_seconds"`
}

// Defaults returns the configuration used when no file and no overrides
// are present.
func Defaults() Config {
	return Config{
		Port:      8080,
		Env:       "development",
		RedisAddr: "localhost:6379",
		Storage: StorageConfig{
			ClipsDir:      "/var/lib/tv-dvr/clips",
			ThumbsDir:     "/var/lib/tv-dvr/thumbnails",
			MaxBytes:      50 << 30,
			RetentionDays: 30,
		},
		Encoder: EncoderConfig{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
			GracePeriod: time.Second,
		},
		Motion: MotionConfig{
			CooldownSeconds: 30,
			RecordSeconds:   60,
		},
		ShareBaseURL:  "http://localhost:8080",
		ShareTTLHours: 24,
	}
}

// Load reads the YAML file (optional) and applies env overrides.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envInt("PORT", &cfg.Port)
	envStr("ENV", &cfg.Env)
	envStr("DATABASE_URL", &cfg.DatabaseURL)
	envStr("REDIS_ADDR", &cfg.RedisAddr)
	envStr("NATS_URL", &cfg.NATSUrl)
	envStr("JWT_SECRET", &cfg.JWTSecret)
	envStr("CLIPS_DIR", &cfg.Storage.ClipsDir)
	envStr("THUMBS_DIR", &cfg.Storage.ThumbsDir)
	envInt64("STORAGE_MAX_BYTES", &cfg.Storage.MaxBytes)
	envInt("RETENTION_DAYS", &cfg.Storage.RetentionDays)
	envStr("FFMPEG_PATH", &cfg.Encoder.FFmpegPath)
	envStr("FFPROBE_PATH", &cfg.Encoder.FFprobePath)
	envInt("MOTION_COOLDOWN_SECONDS", &cfg.Motion.CooldownSeconds)
	envInt("MOTION_RECORD_SECONDS", &cfg.Motion.RecordSeconds)
	envStr("SHARE_BASE_URL", &cfg.ShareBaseURL)
	envInt("SHARE_TTL_HOURS", &cfg.ShareTTLHours)
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envInt64(key string, dst *int64) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}
