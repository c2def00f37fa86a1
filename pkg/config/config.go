// Package config loads focus-pilot configuration from YAML and FOCUS_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/mklimuk/focus-pilot/pkg/logging"
)

// Config is the root configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	DB           DBConfig           `yaml:"db"`
	Log          logging.Config     `yaml:"log"`
	Sync         SyncConfig         `yaml:"sync"`
	AI           AIConfig           `yaml:"ai"`
	Auth         AuthConfig         `yaml:"auth"`
	Export       ExportConfig       `yaml:"export"`
	Integrations IntegrationsConfig `yaml:"integrations"`
	Schedules    []ScheduleConfig   `yaml:"schedules"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DBConfig locates the SQLite file.
type DBConfig struct {
	Path string `yaml:"path"`
}

// SyncConfig tunes remote sync. The endpoint itself is stored with the data
// and edited through the settings API.
type SyncConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Timeout  time.Duration `yaml:"timeout"`
}

// AIConfig selects the advice provider.
type AIConfig struct {
	Provider      string  `yaml:"provider"`
	Model         string  `yaml:"model"`
	APIKey        string  `yaml:"api_key"`
	BaseURL       string  `yaml:"base_url"`
	RatePerMinute float64 `yaml:"rate_per_minute"`
	Burst         int     `yaml:"burst"`
}

// AuthConfig lists the allowed users as username to bcrypt hash.
type AuthConfig struct {
	Users      map[string]string `yaml:"users"`
	JWTSecret  string            `yaml:"jwt_secret"`
	SessionTTL time.Duration     `yaml:"session_ttl"`
}

// ExportConfig configures the markdown export and its git archive.
type ExportConfig struct {
	Dir         string `yaml:"dir"`
	Git         bool   `yaml:"git"`
	Push        bool   `yaml:"push"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// IntegrationsConfig groups the optional capture and backup integrations.
type IntegrationsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Discord  DiscordConfig  `yaml:"discord"`
	Google   GoogleConfig   `yaml:"google"`
	Calendar CalendarConfig `yaml:"calendar"`
	Drive    DriveConfig    `yaml:"drive"`
	Gmail    GmailConfig    `yaml:"gmail"`
}

// TelegramConfig enables the Telegram bot when a token is set.
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// DiscordConfig enables the Discord bot when a token is set.
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// GoogleConfig points at service account credentials.
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	Subject         string `yaml:"subject"`
}

// CalendarConfig mirrors goal deadlines into a calendar.
type CalendarConfig struct {
	Enabled    bool   `yaml:"enabled"`
	CalendarID string `yaml:"calendar_id"`
}

// DriveConfig backs snapshots up into a Drive folder.
type DriveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	FolderID string `yaml:"folder_id"`
}

// GmailConfig turns matching unread mail into tasks.
type GmailConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Query        string        `yaml:"query"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// ScheduleConfig runs a named job on a schedule.
type ScheduleConfig struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Expr     string `yaml:"expr"`
	Timezone string `yaml:"timezone"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.DB.Path == "" {
		cfg.DB.Path = "focus-pilot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Sync.Debounce == 0 {
		cfg.Sync.Debounce = 2 * time.Second
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "gemini"
	}
	if cfg.AI.RatePerMinute == 0 {
		cfg.AI.RatePerMinute = 6
	}
	if cfg.AI.Burst == 0 {
		cfg.AI.Burst = 2
	}
	if cfg.Auth.SessionTTL == 0 {
		cfg.Auth.SessionTTL = 24 * time.Hour
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = "focus-notes"
	}
	if cfg.Export.AuthorName == "" {
		cfg.Export.AuthorName = "Focus Pilot"
	}
	if cfg.Export.AuthorEmail == "" {
		cfg.Export.AuthorEmail = "focus-pilot@localhost"
	}
	if cfg.Integrations.Gmail.Query == "" {
		cfg.Integrations.Gmail.Query = "is:unread label:focus"
	}
	if cfg.Integrations.Gmail.PollInterval == 0 {
		cfg.Integrations.Gmail.PollInterval = 5 * time.Minute
	}
	if cfg.Integrations.Calendar.CalendarID == "" {
		cfg.Integrations.Calendar.CalendarID = "primary"
	}
	if cfg.Schedules == nil {
		cfg.Schedules = []ScheduleConfig{{Name: "weekly_review", Kind: "cron", Expr: "0 18 * * 5"}}
	}
}

var validProviders = map[string]bool{
	"gemini": true, "openai": true, "moonshot": true, "anthropic": true, "none": true,
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Sync.Debounce < 0 {
		errs = append(errs, fmt.Errorf("sync.debounce must not be negative"))
	}
	if !validProviders[c.AI.Provider] {
		errs = append(errs, fmt.Errorf("ai.provider %q is not supported", c.AI.Provider))
	}
	if c.AI.RatePerMinute < 0 || c.AI.Burst < 0 {
		errs = append(errs, fmt.Errorf("ai rate limit must not be negative"))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	if (c.Integrations.Calendar.Enabled || c.Integrations.Drive.Enabled || c.Integrations.Gmail.Enabled) &&
		c.Integrations.Google.CredentialsFile == "" {
		errs = append(errs, fmt.Errorf("integrations.google.credentials_file is required for calendar, drive or gmail"))
	}
	if c.Integrations.Drive.Enabled && c.Integrations.Drive.FolderID == "" {
		errs = append(errs, fmt.Errorf("integrations.drive.folder_id is required"))
	}
	for i, s := range c.Schedules {
		if s.Name == "" || s.Kind == "" || s.Expr == "" {
			errs = append(errs, fmt.Errorf("schedules[%d] needs name, kind and expr", i))
		}
	}
	return errors.Join(errs...)
}
