package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// ErrMissingAPIKey aborts startup: the relay cannot run blind against the
// upstream model, so this is the one process-fatal configuration path.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is missing")

type Config struct {
	Mode         string `mapstructure:"mode"`
	Port         int    `mapstructure:"port"`
	DBPath       string `mapstructure:"db_path"`
	Secret       string `mapstructure:"secret"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	Model        string `mapstructure:"model"`
	SystemPrompt string `mapstructure:"system_prompt"`
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
	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "omnisight.db")
	v.SetDefault("model", "models/gemini-2.5-flash-native-audio-preview-12-2025")
	v.SetDefault("system_prompt",
		"You are OmniSight, an expert field technician AI. You are assisting the user via a live camera feed. "+
			"Keep responses extremely brief, under 2 sentences. If you see a dangerous or incorrect action, "+
			"interrupt immediately with 'Stop'.")

	_ = v.BindEnv("gemini_api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("port", "PORT")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.GeminiAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | DB: %s\n", cfg.Mode, cfg.Port, cfg.DBPath)
	return &cfg, nil
}
