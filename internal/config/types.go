package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the daemon configuration. The file may be YAML or JSON; both are
// decoded strictly (unknown fields are rejected).
//
// All duration fields are Go duration strings (e.g. "500ms", "10s", "24h").
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	API       APIConfig       `json:"api"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Alarm     AlarmConfig     `json:"alarm"`

	// History journals fired/cancelled events to SQLite. Outcomes only;
	// schedules themselves are never persisted.
	History *HistoryConfig `json:"history,omitempty"`

	// Telegram forwards alarm/dnd notifications to a chat. Optional.
	Telegram *TelegramConfig `json:"telegram,omitempty"`
}

type LoggingConfig struct {
	Level   string        `json:"level"`
	Console bool          `json:"console"`
	File    LogFileConfig `json:"file"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// APIConfig controls the local HTTP control surface.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Listen  string `json:"listen,omitempty"` // default "127.0.0.1:7600"

	// RatePerSec limits requests across all routes; Burst tops it up.
	// Zero values mean 20 req/s with a burst of 40.
	RatePerSec int `json:"rate_per_sec,omitempty"`
	Burst      int `json:"burst,omitempty"`
}

// SchedulerConfig controls the event manager.
type SchedulerConfig struct {
	// Horizon is the maximum lead time between now and an event's target
	// time. Default "24h".
	Horizon string `json:"horizon,omitempty"`

	// FireSlack is how far past its target a destructive action may still
	// run when executed at fire time. Default "30s".
	FireSlack string `json:"fire_slack,omitempty"`

	// Timezone is an IANA name, e.g. "America/Sao_Paulo". Empty means local.
	Timezone string `json:"timezone,omitempty"`
}

// AlarmConfig points the alarm action at its audio asset.
type AlarmConfig struct {
	// SoundPath overrides the bundled alarm sound lookup.
	SoundPath string `json:"sound_path,omitempty"`
}

type HistoryConfig struct {
	Enabled     bool   `json:"enabled"`
	Path        string `json:"path,omitempty"` // default "./clocked-history.db"
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type TelegramConfig struct {
	Enabled    bool   `json:"enabled"`
	Token      string `json:"token,omitempty"`
	ChatID     int64  `json:"chat_id,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// Default returns a runnable configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "INFO", Console: true},
		API:     APIConfig{Enabled: true, Listen: "127.0.0.1:7600"},
	}
}

// Validate checks cross-field constraints and fills nothing in; defaults are
// resolved by the consumers (Horizon(), Listen(), ...).
func (c *Config) Validate() error {
	if _, err := ParseDurationOrDefault("scheduler.horizon", c.Scheduler.Horizon, 24*time.Hour); err != nil {
		return err
	}
	if _, err := ParseDurationOrDefault("scheduler.fire_slack", c.Scheduler.FireSlack, 30*time.Second); err != nil {
		return err
	}
	if tz := strings.TrimSpace(c.Scheduler.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("scheduler.timezone: %w", err)
		}
	}
	if c.API.RatePerSec < 0 || c.API.Burst < 0 {
		return fmt.Errorf("api: rate_per_sec and burst must be >= 0")
	}
	if c.Telegram != nil && c.Telegram.Enabled && strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required when telegram.enabled")
	}
	if c.History != nil {
		if _, err := ParseDurationField("history.busy_timeout", c.History.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}

// Horizon resolves scheduler.horizon with its default.
func (c *Config) Horizon() time.Duration {
	d, err := ParseDurationOrDefault("scheduler.horizon", c.Scheduler.Horizon, 24*time.Hour)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// FireSlack resolves scheduler.fire_slack with its default.
func (c *Config) FireSlack() time.Duration {
	d, err := ParseDurationOrDefault("scheduler.fire_slack", c.Scheduler.FireSlack, 30*time.Second)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Location resolves scheduler.timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	tz := strings.TrimSpace(c.Scheduler.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Local
	}
	return loc
}

// Listen resolves api.listen with its default.
func (a APIConfig) ListenAddr() string {
	if s := strings.TrimSpace(a.Listen); s != "" {
		return s
	}
	return "127.0.0.1:7600"
}
