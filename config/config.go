// Package config provides configuration for the travel assistant.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/voyagent/voyagent/mcptools"
)

// Config holds the full runtime configuration.
type Config struct {
	Server       ServerConfig            `mapstructure:"server"`
	Store        StoreConfig             `mapstructure:"store"`
	Model        ModelConfig             `mapstructure:"model"`
	Orchestrator OrchestratorConfig      `mapstructure:"orchestrator"`
	ToolServers  []mcptools.ServerConfig `mapstructure:"tool_servers"`
	Log          LogConfig               `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// ModelConfig holds model backend settings.
type ModelConfig struct {
	Endpoint       string  `mapstructure:"endpoint"`
	APIKey         string  `mapstructure:"api_key"`
	Name           string  `mapstructure:"name"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	Temperature    float64 `mapstructure:"temperature"`
}

// OrchestratorConfig holds turn execution settings.
type OrchestratorConfig struct {
	MaxToolCycles int `mapstructure:"max_tool_cycles"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the given file (or config.yaml in the
// working directory and ~/.voyagent when path is empty), with VOYAGENT_*
// environment variables overriding file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.voyagent")
	}

	v.SetEnvPrefix("VOYAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file is fine: defaults plus env cover everything.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.path", "voyagent.db")
	v.SetDefault("model.endpoint", "https://api.openai.com")
	// Registered so VOYAGENT_MODEL_API_KEY is picked up by AutomaticEnv.
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.name", "gpt-4")
	v.SetDefault("model.timeout_seconds", 120)
	v.SetDefault("model.temperature", 0.0)
	v.SetDefault("orchestrator.max_tool_cycles", 8)
	v.SetDefault("log.level", "info")
}
