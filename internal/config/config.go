package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mgpai22/danmaku/internal/danmaku"
)

const envPrefix = "DANMAKU"

// Config represents the complete application configuration
type Config struct {
	Convert   ConvertConfig   `mapstructure:"convert"`
	Server    ServerConfig    `mapstructure:"server"`
	Translate TranslateConfig `mapstructure:"translate"`
	FFmpeg    FFmpegConfig    `mapstructure:"ffmpeg"`
}

// ConvertConfig contains the conversion defaults
type ConvertConfig struct {
	Title    string   `mapstructure:"title"`
	Font     string   `mapstructure:"font"`
	FontFile string   `mapstructure:"font_file"`
	Alpha    float64  `mapstructure:"alpha"`
	Duration float64  `mapstructure:"duration"`
	Width    int      `mapstructure:"width"`
	Height   int      `mapstructure:"height"`
	Block    []string `mapstructure:"block"`
	Policy   string   `mapstructure:"policy"`
	Workers  int      `mapstructure:"workers"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	Burst           int           `mapstructure:"burst"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// TranslateConfig contains LLM translation settings
type TranslateConfig struct {
	Provider    string `mapstructure:"provider"`
	Model       string `mapstructure:"model"`
	APIKey      string `mapstructure:"api_key"`
	BatchSize   int    `mapstructure:"batch_size"`
	Concurrency int    `mapstructure:"concurrency"`
}

// FFmpegConfig pins binary locations
type FFmpegConfig struct {
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
	FFprobePath string `mapstructure:"ffprobe_path"`
}

// Loader layers defaults, an optional YAML file, DANMAKU_* environment
// variables and bound command-line flags, in increasing precedence.
type Loader struct {
	v *viper.Viper
}

func New() *Loader {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

func setDefaults(v *viper.Viper) {
	// Conversion defaults
	v.SetDefault("convert.title", danmaku.DefaultTitle)
	v.SetDefault("convert.font", danmaku.DefaultFont)
	v.SetDefault("convert.font_file", "")
	v.SetDefault("convert.alpha", 0.0)
	v.SetDefault("convert.duration", 0.0)
	v.SetDefault("convert.width", 1920)
	v.SetDefault("convert.height", 1080)
	v.SetDefault("convert.block", []string{})
	v.SetDefault("convert.policy", danmaku.PolicyReference.String())
	v.SetDefault("convert.workers", danmaku.DefaultWorkers)

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.burst", 10)
	v.SetDefault("server.max_body_bytes", 32<<20)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	// Translation defaults
	v.SetDefault("translate.provider", "gemini")
	v.SetDefault("translate.model", "")
	v.SetDefault("translate.api_key", "")
	v.SetDefault("translate.batch_size", 50)
	v.SetDefault("translate.concurrency", 3)

	// FFmpeg defaults
	v.SetDefault("ffmpeg.ffmpeg_path", "")
	v.SetDefault("ffmpeg.ffprobe_path", "")
}

// ReadFile merges a YAML config file; an empty path is a no-op
func (l *Loader) ReadFile(path string) error {
	if path == "" {
		return nil
	}
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s not found", path)
		}
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return nil
}

// BindFlags binds config keys to flags; keys map to flag names and flags
// missing from the set are skipped
func (l *Loader) BindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := l.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Set overrides a single key, above every other source
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

func (l *Loader) Load() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks settings that do not depend on the input being converted
func (c *Config) Validate() error {
	if _, err := danmaku.ParsePolicy(c.Convert.Policy); err != nil {
		return err
	}
	if _, err := ParseBlockList(c.Convert.Block); err != nil {
		return err
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative, got %v", c.Server.RateLimit)
	}

	// Auto-correct invalid counts
	if c.Convert.Workers <= 0 {
		c.Convert.Workers = danmaku.DefaultWorkers
	}
	if c.Server.Burst <= 0 {
		c.Server.Burst = 1
	}
	if c.Translate.BatchSize <= 0 {
		c.Translate.BatchSize = 50
	}
	if c.Translate.Concurrency <= 0 {
		c.Translate.Concurrency = 3
	}
	return nil
}

// Danmaku builds the conversion config; the duration usually comes from a
// flag or from probing the video, so it is validated here rather than in Load
func (c ConvertConfig) Danmaku() (danmaku.Config, error) {
	policy, err := danmaku.ParsePolicy(c.Policy)
	if err != nil {
		return danmaku.Config{}, err
	}
	blocked, err := ParseBlockList(c.Block)
	if err != nil {
		return danmaku.Config{}, err
	}

	cfg := danmaku.Config{
		Title:        c.Title,
		FontName:     c.Font,
		AlphaPercent: c.Alpha,
		Duration:     c.Duration,
		BlockedTypes: blocked,
		Width:        c.Width,
		Height:       c.Height,
		Policy:       policy,
		Workers:      c.Workers,
	}
	return cfg, cfg.Validate()
}

// ParseBlockList accepts entries like "4", "4,5" or " 5 "
func ParseBlockList(items []string) ([]danmaku.MotionType, error) {
	var types []danmaku.MotionType
	for _, item := range items {
		for _, field := range strings.Split(item, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			n, err := strconv.Atoi(field)
			if err != nil {
				return nil, &danmaku.ConfigError{Field: "block", Reason: fmt.Sprintf("%q is not a motion type", field)}
			}
			types = append(types, danmaku.MotionType(n))
		}
	}
	return types, nil
}

// ResolveAPIKey returns the configured key or the provider's standard environment variable
func (c TranslateConfig) ResolveAPIKey(keyEnv string) string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return os.Getenv(keyEnv)
}
