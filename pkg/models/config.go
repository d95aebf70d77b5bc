package models

import "time"

// AIConfig controls the LLM collaborator used for task extraction and
// period reviews.
type AIConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	APIKeyEnv string `yaml:"api_key_env" mapstructure:"api_key_env"`
}

// AuthConfig holds the one-time-code login parameters.
type AuthConfig struct {
	CodeTTL     time.Duration `yaml:"code_ttl" mapstructure:"code_ttl"`
	Cooldown    time.Duration `yaml:"cooldown" mapstructure:"cooldown"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	Lockout     time.Duration `yaml:"lockout" mapstructure:"lockout"`
	SessionTTL  time.Duration `yaml:"session_ttl" mapstructure:"session_ttl"`
}

// MailConfig configures delivery of login codes. An empty Endpoint means
// codes are written to the log instead of being sent.
type MailConfig struct {
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	APIKeyEnv string `yaml:"api_key_env" mapstructure:"api_key_env"`
	From      string `yaml:"from" mapstructure:"from"`
}

// AlertConfig holds thresholds for board alerts.
type AlertConfig struct {
	ForgottenTimerHours int `yaml:"forgotten_timer_hours" mapstructure:"forgotten_timer_hours"`
	WaitingDays         int `yaml:"waiting_days" mapstructure:"waiting_days"`
	MaxOpenTasks        int `yaml:"max_open_tasks" mapstructure:"max_open_tasks"`
}

// SlackConfig holds Slack webhook settings for alert notifications.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// GlobalConfig holds system-wide settings read from .taskdesk.yaml via Viper.
type GlobalConfig struct {
	ServerAddr    string        `yaml:"server_addr" mapstructure:"server_addr"`
	StoreDriver   string        `yaml:"store_driver" mapstructure:"store_driver"`
	StorePath     string        `yaml:"store_path" mapstructure:"store_path"`
	WorkspaceFile string        `yaml:"workspace_file" mapstructure:"workspace_file"`
	TickInterval  time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`
	SaveDebounce  time.Duration `yaml:"save_debounce" mapstructure:"save_debounce"`
	DefaultTags   []string      `yaml:"default_tags" mapstructure:"default_tags"`
	AI            AIConfig      `yaml:"ai" mapstructure:"ai"`
	Auth          AuthConfig    `yaml:"auth" mapstructure:"auth"`
	Mail          MailConfig    `yaml:"mail" mapstructure:"mail"`
	Alerts        AlertConfig   `yaml:"alerts" mapstructure:"alerts"`
	Slack         SlackConfig   `yaml:"slack" mapstructure:"slack"`
}
