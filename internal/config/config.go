package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string `mapstructure:"mode"`
	StatusPort int    `mapstructure:"status_port"`

	APIBaseURL string `mapstructure:"api_base_url"`
	APIKey     string `mapstructure:"api_key"`
	UserID     string `mapstructure:"user_id"`

	SignalURL  string        `mapstructure:"signal_url"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`

	ICEServers           []string      `mapstructure:"ice_servers"`
	RenegotiationDelay   time.Duration `mapstructure:"renegotiation_delay"`
	DisableRenegotiation bool          `mapstructure:"disable_renegotiation"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("status_port", 8090)
	v.SetDefault("api_base_url", "http://localhost:8080")
	v.SetDefault("signal_url", "ws://localhost:8080/ws")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("renegotiation_delay", "100ms")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
