package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone    = "UTC"
	defaultInterval    = 15 * time.Minute
	defaultTimeout     = 20 * time.Second
	defaultConcurrency = 4

	configPathEnv     = "ASSIGNMENT_BOARD_CONFIG"
	backendFlavorEnv  = "BACKEND_FLAVOR"
	backendURLEnv     = "BACKEND_URL"
	backendTokenEnv   = "BACKEND_TOKEN"
	fallbackFlavorEnv = "FALLBACK_FLAVOR"
	fallbackURLEnv    = "FALLBACK_URL"
	gradebookDSNEnv   = "GRADEBOOK_DSN"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
	logFormatEnv      = "LOG_FORMAT"
	httpAddrEnv       = "HTTP_ADDR"
	concurrencyEnv    = "CATALOG_CONCURRENCY"
)

// Config holds high-level settings required across the application.
type Config struct {
	Backend       BackendConfig      `yaml:"backend"`
	Fallback      BackendConfig      `yaml:"fallback"`
	Catalog       CatalogConfig      `yaml:"catalog"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	HTTP          HTTPConfig         `yaml:"http"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// BackendConfig selects an adapter flavor and how to reach it.
type BackendConfig struct {
	Flavor  string            `yaml:"flavor"`
	URL     string            `yaml:"url"`
	Token   string            `yaml:"token"`
	Timeout string            `yaml:"timeout"`
	Options map[string]string `yaml:"options"`
}

// Enabled reports whether a flavor is configured. The flavor "none" disables
// a backend.
func (b BackendConfig) Enabled() bool {
	return b.Flavor != "" && b.Flavor != "none"
}

// TimeoutDuration parses Timeout, falling back to the default HTTP timeout.
func (b BackendConfig) TimeoutDuration() time.Duration {
	return parseDuration(b.Timeout, defaultTimeout)
}

// CatalogConfig tunes one load cycle.
type CatalogConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// SchedulerConfig defines how often the catalog is refreshed.
type SchedulerConfig struct {
	Interval string         `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// IntervalDuration parses Interval, falling back to the default refresh period.
func (s SchedulerConfig) IntervalDuration() time.Duration {
	return parseDuration(s.Interval, defaultInterval)
}

// HTTPConfig configures the JSON read API.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// LoggingConfig picks the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An empty path falls back to the ASSIGNMENT_BOARD_CONFIG variable.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if cfg.Catalog.Concurrency <= 0 {
		cfg.Catalog.Concurrency = defaultConcurrency
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(backendFlavorEnv); v != "" {
		c.Backend.Flavor = v
	}
	if v := os.Getenv(backendURLEnv); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv(backendTokenEnv); v != "" {
		c.Backend.Token = v
	}

	if v := os.Getenv(fallbackFlavorEnv); v != "" {
		c.Fallback.Flavor = v
	}
	if v := os.Getenv(fallbackURLEnv); v != "" {
		c.Fallback.URL = v
	}

	if v := os.Getenv(gradebookDSNEnv); v != "" {
		for _, b := range []*BackendConfig{&c.Backend, &c.Fallback} {
			if b.Flavor == "gradebook" {
				b.setOption("dsn", v)
			}
		}
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(concurrencyEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Catalog.Concurrency = n
		} else {
			log.Printf("config: invalid %s=%q: %v", concurrencyEnv, v, err)
		}
	}
}

func (b *BackendConfig) setOption(key, value string) {
	if b.Options == nil {
		b.Options = map[string]string{}
	}
	b.Options[key] = value
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	base.Backend = mergeBackend(base.Backend, override.Backend)
	base.Fallback = mergeBackend(base.Fallback, override.Fallback)

	if override.Catalog.Concurrency > 0 {
		base.Catalog.Concurrency = override.Catalog.Concurrency
	}

	if override.Scheduler.Interval != "" {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

// mergeBackend replaces the whole backend when the override names a flavor,
// otherwise only non-empty fields are applied.
func mergeBackend(base, override BackendConfig) BackendConfig {
	if override.Flavor != "" && override.Flavor != base.Flavor {
		return override
	}
	if override.URL != "" {
		base.URL = override.URL
	}
	if override.Token != "" {
		base.Token = override.Token
	}
	if override.Timeout != "" {
		base.Timeout = override.Timeout
	}
	for k, v := range override.Options {
		base.setOption(k, v)
	}
	return base
}

func parseDuration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("config: invalid duration %q, using %s", raw, def)
		return def
	}
	return d
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Backend: BackendConfig{
			Flavor:  "nbgrader",
			URL:     "http://localhost:8888/nbgrader/api",
			Timeout: defaultTimeout.String(),
		},
		Fallback: BackendConfig{
			Flavor:  "contents",
			URL:     "http://localhost:8888",
			Timeout: defaultTimeout.String(),
			Options: map[string]string{
				"releaseDir":  "release",
				"courseId":    "default",
				"courseCode":  "MyCourse",
				"courseName":  "MyCourse",
				"intakeLabel": "Default",
			},
		},
		Catalog:   CatalogConfig{Concurrency: defaultConcurrency},
		Scheduler: SchedulerConfig{Interval: defaultInterval.String(), Timezone: defaultTimezone, location: tz},
		HTTP:      HTTPConfig{Addr: ":8080"},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}
