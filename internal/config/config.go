// Package config provides Viper-based configuration loading for the quest bot.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// QuestConfig holds quest lifecycle settings.
type QuestConfig struct {
	// WindowOpenHour is the first hour of the day (in Timezone) quests may be assigned.
	WindowOpenHour int `mapstructure:"window_open_hour"`
	// WindowCloseHour is the hour the assignment window closes (exclusive).
	WindowCloseHour int `mapstructure:"window_close_hour"`
	// Timezone is the IANA zone name used to evaluate the serving window.
	Timezone string `mapstructure:"timezone"`
	// AssignmentDuration is how long an assignment remains resolvable.
	AssignmentDuration time.Duration `mapstructure:"assignment_duration"`
	// DailyCap is the maximum quests assigned to one chat per calendar day.
	DailyCap int `mapstructure:"daily_cap"`
	// CritLoot generates loot on a natural 20 even when the outcome tier failed.
	CritLoot bool `mapstructure:"crit_loot"`
	// LegendaryUnlocked opens the legendary column of the loot rarity tables.
	LegendaryUnlocked bool `mapstructure:"legendary_unlocked"`
	// SweepInterval is how often expired assignments are swept.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// Location resolves the configured timezone.
//
// Precondition: Timezone must be a valid IANA zone name.
func (q QuestConfig) Location() (*time.Location, error) {
	return time.LoadLocation(q.Timezone)
}

// ScriptingConfig holds Lua reward-hook settings.
type ScriptingConfig struct {
	// Enabled toggles loading and execution of reward hooks.
	Enabled bool `mapstructure:"enabled"`
	// Dir is the directory containing *.lua hook files.
	Dir string `mapstructure:"dir"`
	// InstructionLimit caps Lua opcodes per hook invocation; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// ContentConfig locates authored game content on disk.
type ContentConfig struct {
	// QuestDir is the directory of quest template YAML files.
	QuestDir string `mapstructure:"quest_dir"`
	// ItemsDir is the directory of authored item YAML files.
	ItemsDir string `mapstructure:"items_dir"`
	// PartsFile is the loot parts table YAML; empty uses the built-in table.
	PartsFile string `mapstructure:"parts_file"`
}

// Config is the top-level application configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Quest     QuestConfig     `mapstructure:"quest"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Content   ContentConfig   `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateQuest(c.Quest); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateScripting(c.Scripting); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateQuest(q QuestConfig) error {
	var errs []string
	if q.WindowOpenHour < 0 || q.WindowOpenHour > 23 {
		errs = append(errs, fmt.Sprintf("quest.window_open_hour must be 0-23, got %d", q.WindowOpenHour))
	}
	if q.WindowCloseHour < 1 || q.WindowCloseHour > 24 {
		errs = append(errs, fmt.Sprintf("quest.window_close_hour must be 1-24, got %d", q.WindowCloseHour))
	}
	if q.WindowOpenHour >= q.WindowCloseHour {
		errs = append(errs, "quest.window_open_hour must be before quest.window_close_hour")
	}
	if q.Timezone == "" {
		errs = append(errs, "quest.timezone must not be empty")
	} else if _, err := time.LoadLocation(q.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("quest.timezone %q is not a valid IANA zone", q.Timezone))
	}
	if q.AssignmentDuration <= 0 {
		errs = append(errs, "quest.assignment_duration must be positive")
	}
	if q.DailyCap < 1 {
		errs = append(errs, fmt.Sprintf("quest.daily_cap must be >= 1, got %d", q.DailyCap))
	}
	if q.SweepInterval <= 0 {
		errs = append(errs, "quest.sweep_interval must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.Enabled && s.Dir == "" {
		return errors.New("scripting.dir must be set when scripting.enabled is true")
	}
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripting.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with FABLEBOT_ prefix
	v.SetEnvPrefix("FABLEBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "fablebot")
	v.SetDefault("database.password", "fablebot")
	v.SetDefault("database.name", "fablebot")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("quest.window_open_hour", 8)
	v.SetDefault("quest.window_close_hour", 23)
	v.SetDefault("quest.timezone", "UTC")
	v.SetDefault("quest.assignment_duration", "4h")
	v.SetDefault("quest.daily_cap", 3)
	v.SetDefault("quest.crit_loot", true)
	v.SetDefault("quest.legendary_unlocked", false)
	v.SetDefault("quest.sweep_interval", "5m")

	v.SetDefault("scripting.enabled", false)
	v.SetDefault("scripting.dir", "content/hooks")
	v.SetDefault("scripting.instruction_limit", 0)

	v.SetDefault("content.quest_dir", "content/quests")
	v.SetDefault("content.items_dir", "content/items")
	v.SetDefault("content.parts_file", "")
}
