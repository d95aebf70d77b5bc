// Package core contains the business logic for taskdesk: the task
// lifecycle and work-session state machine, the today board, calendar and
// review views, routine templates, task extraction and one-time-code
// authentication.
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// ConfigFileName is the base name of the configuration file.
const ConfigFileName = ".taskdesk"

// ConfigurationManager loads and validates the global configuration.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file.
type viperConfigManager struct {
	// basePath is the directory where .taskdesk.yaml resides.
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .taskdesk.yaml from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		ServerAddr:    ":8080",
		StoreDriver:   "sqlite",
		StorePath:     "taskdesk.db",
		WorkspaceFile: "workspace.yaml",
		TickInterval:  time.Second,
		SaveDebounce:  500 * time.Millisecond,
		DefaultTags:   []string{},
		AI: models.AIConfig{
			Enabled:   false,
			BaseURL:   "https://api.anthropic.com",
			Model:     "claude-sonnet-4-5-20250929",
			MaxTokens: 2000,
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
		Auth: models.AuthConfig{
			CodeTTL:     5 * time.Minute,
			Cooldown:    60 * time.Second,
			MaxAttempts: 5,
			Lockout:     15 * time.Minute,
			SessionTTL:  30 * 24 * time.Hour,
		},
		Mail: models.MailConfig{
			APIKeyEnv: "MAIL_API_KEY",
			From:      "taskdesk@localhost",
		},
		Alerts: models.AlertConfig{
			ForgottenTimerHours: 8,
			WaitingDays:         3,
			MaxOpenTasks:        30,
		},
	}
}

// LoadGlobalConfig reads .taskdesk.yaml from the base path using Viper.
// If the file does not exist, defaults are returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("server.addr", cfg.ServerAddr)
	v.SetDefault("store.driver", cfg.StoreDriver)
	v.SetDefault("store.path", cfg.StorePath)
	v.SetDefault("workspace.file", cfg.WorkspaceFile)
	v.SetDefault("timer.tick_interval", cfg.TickInterval)
	v.SetDefault("save.debounce", cfg.SaveDebounce)
	v.SetDefault("tags.defaults", cfg.DefaultTags)
	v.SetDefault("ai.enabled", cfg.AI.Enabled)
	v.SetDefault("ai.base_url", cfg.AI.BaseURL)
	v.SetDefault("ai.model", cfg.AI.Model)
	v.SetDefault("ai.max_tokens", cfg.AI.MaxTokens)
	v.SetDefault("ai.api_key_env", cfg.AI.APIKeyEnv)
	v.SetDefault("auth.code_ttl", cfg.Auth.CodeTTL)
	v.SetDefault("auth.cooldown", cfg.Auth.Cooldown)
	v.SetDefault("auth.max_attempts", cfg.Auth.MaxAttempts)
	v.SetDefault("auth.lockout", cfg.Auth.Lockout)
	v.SetDefault("auth.session_ttl", cfg.Auth.SessionTTL)
	v.SetDefault("mail.endpoint", cfg.Mail.Endpoint)
	v.SetDefault("mail.api_key_env", cfg.Mail.APIKeyEnv)
	v.SetDefault("mail.from", cfg.Mail.From)
	v.SetDefault("alerts.forgotten_timer_hours", cfg.Alerts.ForgottenTimerHours)
	v.SetDefault("alerts.waiting_days", cfg.Alerts.WaitingDays)
	v.SetDefault("alerts.max_open_tasks", cfg.Alerts.MaxOpenTasks)
	v.SetDefault("notifications.slack.webhook_url", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s.yaml: %w", ConfigFileName, err)
	}

	// Map nested YAML keys to flat GlobalConfig fields.
	cfg.ServerAddr = v.GetString("server.addr")
	cfg.StoreDriver = v.GetString("store.driver")
	cfg.StorePath = v.GetString("store.path")
	cfg.WorkspaceFile = v.GetString("workspace.file")
	cfg.TickInterval = v.GetDuration("timer.tick_interval")
	cfg.SaveDebounce = v.GetDuration("save.debounce")
	cfg.DefaultTags = v.GetStringSlice("tags.defaults")

	cfg.AI = models.AIConfig{
		Enabled:   v.GetBool("ai.enabled"),
		BaseURL:   v.GetString("ai.base_url"),
		Model:     v.GetString("ai.model"),
		MaxTokens: v.GetInt("ai.max_tokens"),
		APIKeyEnv: v.GetString("ai.api_key_env"),
	}
	cfg.Auth = models.AuthConfig{
		CodeTTL:     v.GetDuration("auth.code_ttl"),
		Cooldown:    v.GetDuration("auth.cooldown"),
		MaxAttempts: v.GetInt("auth.max_attempts"),
		Lockout:     v.GetDuration("auth.lockout"),
		SessionTTL:  v.GetDuration("auth.session_ttl"),
	}
	cfg.Mail = models.MailConfig{
		Endpoint:  v.GetString("mail.endpoint"),
		APIKeyEnv: v.GetString("mail.api_key_env"),
		From:      v.GetString("mail.from"),
	}
	cfg.Alerts = models.AlertConfig{
		ForgottenTimerHours: v.GetInt("alerts.forgotten_timer_hours"),
		WaitingDays:         v.GetInt("alerts.waiting_days"),
		MaxOpenTasks:        v.GetInt("alerts.max_open_tasks"),
	}
	cfg.Slack.WebhookURL = v.GetString("notifications.slack.webhook_url")

	return cfg, nil
}

// ValidateConfig checks the configuration for invalid values and returns
// one error listing every problem.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	return validateGlobalConfig(cfg)
}

// validStoreDrivers is the set of allowed store.driver values.
var validStoreDrivers = map[string]bool{
	"sqlite": true,
	"memory": true,
}

// validateGlobalConfig checks a GlobalConfig for invalid field values.
func validateGlobalConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("global configuration is nil")
	}

	var errs []string

	if cfg.ServerAddr == "" {
		errs = append(errs, "server.addr must not be empty")
	}

	if !validStoreDrivers[cfg.StoreDriver] {
		errs = append(errs, fmt.Sprintf(
			"store.driver %q is invalid, must be one of: sqlite, memory",
			cfg.StoreDriver,
		))
	}

	if cfg.StoreDriver == "sqlite" && cfg.StorePath == "" {
		errs = append(errs, "store.path must not be empty when store.driver is sqlite")
	}

	if cfg.WorkspaceFile == "" {
		errs = append(errs, "workspace.file must not be empty")
	}

	if cfg.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("timer.tick_interval must be positive, got %s", cfg.TickInterval))
	}

	if cfg.SaveDebounce < 0 {
		errs = append(errs, fmt.Sprintf("save.debounce must be non-negative, got %s", cfg.SaveDebounce))
	}

	if cfg.AI.Enabled {
		if cfg.AI.Model == "" {
			errs = append(errs, "ai.model must not be empty when ai.enabled is true")
		}
		if cfg.AI.MaxTokens <= 0 {
			errs = append(errs, fmt.Sprintf("ai.max_tokens must be positive, got %d", cfg.AI.MaxTokens))
		}
	}

	if cfg.Auth.CodeTTL <= 0 {
		errs = append(errs, "auth.code_ttl must be positive")
	}
	if cfg.Auth.Cooldown < 0 {
		errs = append(errs, "auth.cooldown must be non-negative")
	}
	if cfg.Auth.MaxAttempts <= 0 {
		errs = append(errs, fmt.Sprintf("auth.max_attempts must be positive, got %d", cfg.Auth.MaxAttempts))
	}
	if cfg.Auth.Lockout <= 0 {
		errs = append(errs, "auth.lockout must be positive")
	}
	if cfg.Auth.SessionTTL <= 0 {
		errs = append(errs, "auth.session_ttl must be positive")
	}

	seen := make(map[string]bool, len(cfg.DefaultTags))
	for _, tag := range cfg.DefaultTags {
		if strings.TrimSpace(tag) == "" {
			errs = append(errs, "tags.defaults must not contain empty names")
			continue
		}
		if seen[tag] {
			errs = append(errs, fmt.Sprintf("tags.defaults contains %q more than once", tag))
		}
		seen[tag] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("global config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
