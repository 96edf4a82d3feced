// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	APIKey          string  `mapstructure:"api_key"`
	APISecret       string  `mapstructure:"api_secret"`
	TelegramToken   string  `mapstructure:"telegram_token"`
	TelegramChatID  string  `mapstructure:"telegram_chat_id"`
	CoinsFile       string  `mapstructure:"coins_file"`
	WalletTarget    float64 `mapstructure:"wallet_target"`
	Workers         int     `mapstructure:"workers"`
	RefreshInterval int     `mapstructure:"refresh_interval"`
	RequestTimeout  int     `mapstructure:"request_timeout"`
	Retries         int     `mapstructure:"retries"`
	DebugLogging    bool    `mapstructure:"debug_logging"`
	LogFile         string  `mapstructure:"log_file"`
}

const (
	DefaultWorkers         = 4
	DefaultRefreshInterval = 5  // seconds between live refreshes
	DefaultRequestTimeout  = 10 // seconds per exchange call
	DefaultRetries         = 3
	DefaultCoinsFile       = "configs/coins.json"
	DefaultLogFile         = "buibui.log"

	// MaxWorkers bounds the enrichment fan-out pool.
	MaxWorkers = 8
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"workers":          DefaultWorkers,
		"refresh_interval": DefaultRefreshInterval,
		"request_timeout":  DefaultRequestTimeout,
		"retries":          DefaultRetries,
		"coins_file":       DefaultCoinsFile,
		"log_file":         DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvironmentVariables(v, &cfg)

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return errors.New("missing exchange API credentials in configuration")
	}
	if cfg.Workers < 1 || cfg.Workers > MaxWorkers {
		return errors.New("invalid workers count")
	}
	if cfg.RefreshInterval <= 0 {
		return errors.New("invalid refresh_interval")
	}
	if cfg.RequestTimeout <= 0 {
		return errors.New("invalid request_timeout")
	}
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	if cfg.WalletTarget < 0 {
		return errors.New("invalid wallet_target")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) {
	v.AutomaticEnv()
	v.SetEnvPrefix("BUIBUI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if key := v.GetString("API_KEY"); key != "" {
		cfg.APIKey = key
	}
	if secret := v.GetString("API_SECRET"); secret != "" {
		cfg.APISecret = secret
	}
	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}
	if chat := v.GetString("TELEGRAM_CHAT_ID"); chat != "" {
		cfg.TelegramChatID = chat
	}
}
