// Package config loads and validates the file/env configuration surface.
// Settings map onto the engine's functional options at wiring time; nothing
// in the run loop reads configuration dynamically.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hupe1980/planmesh/core"
)

// OpenAIConfig holds OpenAI provider credentials and tuning.
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// AnthropicConfig holds Anthropic provider credentials and tuning.
type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// JiraConfig holds ticket tracker connection settings.
type JiraConfig struct {
	Username    string `mapstructure:"username"`
	APIToken    string `mapstructure:"api_token"`
	InstanceURL string `mapstructure:"instance_url"`
}

// GitHubConfig holds source repository connection settings.
type GitHubConfig struct {
	Token  string `mapstructure:"token"`
	APIURL string `mapstructure:"api_url"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// Settings is the full configuration surface. Immutable after Load; wiring
// code translates it into engine options.
type Settings struct {
	RecursionLimit        int           `mapstructure:"recursion_limit"`
	MaxMessageTokens      int           `mapstructure:"max_message_tokens"`
	RateRequestsPerSecond float64       `mapstructure:"rate_limit_requests_per_second"`
	RateBurstCapacity     int           `mapstructure:"rate_limit_burst_capacity"`
	ToolCallTimeout       time.Duration `mapstructure:"tool_call_timeout"`

	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Jira      JiraConfig      `mapstructure:"jira"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DefaultSettings returns the standard run parameters.
func DefaultSettings() Settings {
	return Settings{
		RecursionLimit:        50,
		MaxMessageTokens:      core.DefaultTokenBudget,
		RateRequestsPerSecond: core.DefaultCallRate,
		RateBurstCapacity:     core.DefaultCallBurst,
		ToolCallTimeout:       30 * time.Second,
		OpenAI:                OpenAIConfig{Model: "gpt-4o-mini", Temperature: 0.0, MaxTokens: 2000},
		Anthropic:             AnthropicConfig{MaxTokens: 4096},
		GitHub:                GitHubConfig{APIURL: "https://api.github.com"},
		Logging:               LoggingConfig{Level: "INFO", Format: "json"},
	}
}

// Load reads settings from the given config file (optional) and the
// environment. Nested keys map to env vars with underscores, e.g.
// jira.api_token -> JIRA_API_TOKEN.
func Load(configPath string) (Settings, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	defaults := DefaultSettings()
	v.SetDefault("recursion_limit", defaults.RecursionLimit)
	v.SetDefault("max_message_tokens", defaults.MaxMessageTokens)
	v.SetDefault("rate_limit_requests_per_second", defaults.RateRequestsPerSecond)
	v.SetDefault("rate_limit_burst_capacity", defaults.RateBurstCapacity)
	v.SetDefault("tool_call_timeout", defaults.ToolCallTimeout)
	v.SetDefault("openai.model", defaults.OpenAI.Model)
	v.SetDefault("openai.temperature", defaults.OpenAI.Temperature)
	v.SetDefault("openai.max_tokens", defaults.OpenAI.MaxTokens)
	v.SetDefault("anthropic.max_tokens", defaults.Anthropic.MaxTokens)
	v.SetDefault("github.api_url", defaults.GitHub.APIURL)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, &core.ConfigurationError{Field: "config_file", Message: err.Error()}
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, &core.ConfigurationError{Field: "config_file", Message: err.Error()}
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Validate checks the loaded settings before any session starts.
func (s Settings) Validate() error {
	if s.RecursionLimit <= 0 {
		return &core.ConfigurationError{Field: "recursion_limit", Message: "must be positive"}
	}
	if s.MaxMessageTokens <= 0 {
		return &core.ConfigurationError{Field: "max_message_tokens", Message: "must be positive"}
	}
	if s.RateRequestsPerSecond <= 0 {
		return &core.ConfigurationError{Field: "rate_limit_requests_per_second", Message: "must be positive"}
	}
	if s.RateBurstCapacity <= 0 {
		return &core.ConfigurationError{Field: "rate_limit_burst_capacity", Message: "must be positive"}
	}
	if s.ToolCallTimeout <= 0 {
		return &core.ConfigurationError{Field: "tool_call_timeout", Message: "must be positive"}
	}
	if s.Jira.InstanceURL != "" && s.Jira.APIToken == "" {
		return &core.ConfigurationError{Field: "jira.api_token", Message: "required when jira.instance_url is set"}
	}
	return nil
}
