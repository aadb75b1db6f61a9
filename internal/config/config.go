package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode          string        `mapstructure:"mode"`
	Port          int           `mapstructure:"port"`
	StaticPath    string        `mapstructure:"static_path"`
	ReadLimit     int64         `mapstructure:"read_limit"`
	PingPeriod    time.Duration `mapstructure:"ping_period"`
	Secret        string        `mapstructure:"secret"`
	LogLevel      string        `mapstructure:"log_level"`
	SessionMaxAge time.Duration `mapstructure:"session_max_age"`
	SendBuffer    int           `mapstructure:"send_buffer"`

	Room          RoomConfig          `mapstructure:"room"`
	Limits        LimitsConfig        `mapstructure:"limits"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Summarizer    SummarizerConfig    `mapstructure:"summarizer"`
	Archive       ArchiveConfig       `mapstructure:"archive"`
}

type RoomConfig struct {
	RebalanceInterval time.Duration `mapstructure:"rebalance_interval"`
	AttentionInterval time.Duration `mapstructure:"attention_interval"`
	ParagraphSilence  time.Duration `mapstructure:"paragraph_silence"`
	PendingTTL        time.Duration `mapstructure:"pending_ttl"`
}

type LimitsConfig struct {
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	ConnectWindow   time.Duration `mapstructure:"connect_window"`
}

type TranscriptionConfig struct {
	// Provider is "none" or "aws".
	Provider       string        `mapstructure:"provider"`
	StreamingLimit time.Duration `mapstructure:"streaming_limit"`
	SampleRate     int           `mapstructure:"sample_rate"`
	Language       string        `mapstructure:"language"`
	Region         string        `mapstructure:"region"`
}

type SummarizerConfig struct {
	Addr    string        `mapstructure:"addr"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ArchiveConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	TTL           time.Duration `mapstructure:"ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "change-me")
	v.SetDefault("log_level", "info")
	v.SetDefault("session_max_age", "168h")
	v.SetDefault("send_buffer", 32)

	v.SetDefault("room.rebalance_interval", "60s")
	v.SetDefault("room.attention_interval", "10s")
	v.SetDefault("room.paragraph_silence", "10s")
	v.SetDefault("room.pending_ttl", "1h")

	v.SetDefault("limits.connect_attempts", 10)
	v.SetDefault("limits.connect_window", "1m")

	v.SetDefault("transcription.provider", "none")
	v.SetDefault("transcription.streaming_limit", "290s")
	v.SetDefault("transcription.sample_rate", 16000)
	v.SetDefault("transcription.language", "en-US")
	v.SetDefault("transcription.region", "us-east-1")

	v.SetDefault("summarizer.addr", "")
	v.SetDefault("summarizer.timeout", "10s")

	v.SetDefault("archive.redis_addr", "")
	v.SetDefault("archive.redis_password", "")
	v.SetDefault("archive.ttl", "24h")
}

// Load reads config/config.<CONFIG_ENV>.yaml, then MODERATOR_* environment
// overrides. A .env file, if present, is loaded into the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("module", "config").Msg("read .env")
	}

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return load(fmt.Sprintf("config/config.%s.yaml", env))
}

func load(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("MODERATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("transcription", cfg.Transcription.Provider).
		Msg("config ready")
	return &cfg, nil
}
