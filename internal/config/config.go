// Package config loads and validates crawler-notifier configuration via Viper.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/crawler-notifier/internal/crawler"
	"github.com/JakeFAU/crawler-notifier/internal/evaluator"
	collyfetcher "github.com/JakeFAU/crawler-notifier/internal/fetcher/colly"
)

// Store backends.
const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Notifier backends.
const (
	NotifierTelegram = "telegram"
	NotifierPubSub   = "pubsub"
	NotifierLog      = "log"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging  LoggingConfig        `mapstructure:"logging"`
	Clock    ClockConfig          `mapstructure:"clock"`
	HTTP     HTTPConfig           `mapstructure:"http"`
	Store    StoreConfig          `mapstructure:"store"`
	Redis    RedisConfig          `mapstructure:"redis"`
	Notifier NotifierConfig       `mapstructure:"notifier"`
	Metrics  MetricsConfig        `mapstructure:"metrics"`
	DB       DBConfig             `mapstructure:"db"`
	Jobs     map[string]JobConfig `mapstructure:"jobs"`
}

// LoggingConfig toggles zap development features and locates the attempt logs.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
	Dir         string `mapstructure:"dir"`
}

// ClockConfig selects the zone quiet cutoffs are evaluated in.
type ClockConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// HTTPConfig configures the fetcher.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// StoreConfig selects the suppression store backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

// RedisConfig locates the Redis suppression store.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// NotifierConfig selects the chat channel and its send budget.
type NotifierConfig struct {
	Backend        string         `mapstructure:"backend"`
	RatePerMinute  float64        `mapstructure:"rate_per_minute"`
	Burst          int            `mapstructure:"burst"`
	MaxWaitSeconds int            `mapstructure:"max_wait_seconds"`
	Telegram       TelegramConfig `mapstructure:"telegram"`
	PubSub         PubSubConfig   `mapstructure:"pubsub"`
}

// TelegramConfig holds bot credentials.
type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	ChatID      int64  `mapstructure:"chat_id"`
	APIEndpoint string `mapstructure:"api_endpoint"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// MetricsConfig locates the Pushgateway; empty disables pushing.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
}

// DBConfig controls the optional alert history database.
type DBConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// JobConfig describes one crawler job.
type JobConfig struct {
	URLTemplate string           `mapstructure:"url_template"`
	Targets     []string         `mapstructure:"targets"`
	QuietCutoff string           `mapstructure:"quiet_cutoff"`
	Evaluator   evaluator.Config `mapstructure:"evaluator"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dir", "logs")
	v.SetDefault("clock.timezone", "Local")
	v.SetDefault("http.timeout_seconds", int(collyfetcher.DefaultTimeout/time.Second))
	v.SetDefault("http.user_agent", collyfetcher.DefaultUserAgent)
	v.SetDefault("store.backend", StoreRedis)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("notifier.backend", NotifierLog)
	v.SetDefault("notifier.rate_per_minute", 20)
	v.SetDefault("notifier.burst", 1)
	v.SetDefault("notifier.max_wait_seconds", 30)
	v.SetDefault("db.table", "crawler_alerts")

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{
		"notifier.telegram.token",
		"notifier.telegram.api_endpoint",
		"notifier.pubsub.project_id",
		"notifier.pubsub.topic_name",
		"metrics.pushgateway_url",
		"db.dsn",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("notifier.telegram.chat_id", 0)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	switch c.Store.Backend {
	case StoreRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("redis.url must be set when store.backend is redis")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	switch c.Notifier.Backend {
	case NotifierTelegram:
		if c.Notifier.Telegram.Token == "" || c.Notifier.Telegram.ChatID == 0 {
			return fmt.Errorf("notifier.telegram.token and notifier.telegram.chat_id must be set")
		}
	case NotifierPubSub:
		if c.Notifier.PubSub.ProjectID == "" || c.Notifier.PubSub.TopicName == "" {
			return fmt.Errorf("notifier.pubsub.project_id and notifier.pubsub.topic_name must be set")
		}
	case NotifierLog:
	default:
		return fmt.Errorf("unknown notifier.backend %q", c.Notifier.Backend)
	}
	if c.Notifier.RatePerMinute < 0 || c.Notifier.Burst < 0 {
		return fmt.Errorf("notifier.rate_per_minute and notifier.burst must be >= 0")
	}
	for _, name := range c.JobNames() {
		if err := c.Jobs[name].validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (j JobConfig) validate(name string) error {
	if err := validateURLTemplate(j.URLTemplate); err != nil {
		return fmt.Errorf("jobs.%s.url_template: %w", name, err)
	}
	if j.QuietCutoff != "" {
		if _, err := crawler.ParseQuietCutoff(j.QuietCutoff); err != nil {
			return fmt.Errorf("jobs.%s.quiet_cutoff: %w", name, err)
		}
	}
	if _, err := evaluator.Build(name, j.Evaluator); err != nil {
		return err
	}
	return nil
}

// validateURLTemplate requires exactly one %s and no other formatting verbs.
func validateURLTemplate(tmpl string) error {
	if tmpl == "" {
		return fmt.Errorf("required")
	}
	if n := strings.Count(strings.ReplaceAll(tmpl, "%%", ""), "%s"); n != 1 {
		return fmt.Errorf("want exactly one %%s, found %d", n)
	}
	if strings.Contains(fmt.Sprintf(tmpl, "x"), "%!") {
		return fmt.Errorf("unsupported formatting verb in %q", tmpl)
	}
	return nil
}

// JobNames returns the configured job names, sorted.
func (c Config) JobNames() []string {
	names := make([]string, 0, len(c.Jobs))
	for name := range c.Jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Job resolves the descriptor and evaluator for a configured job.
func (c Config) Job(name string) (crawler.JobDescriptor, crawler.Evaluator, error) {
	jc, ok := c.Jobs[name]
	if !ok {
		return crawler.JobDescriptor{}, nil, fmt.Errorf("unknown job %q", name)
	}
	cutoff := crawler.DefaultQuietCutoff
	if jc.QuietCutoff != "" {
		parsed, err := crawler.ParseQuietCutoff(jc.QuietCutoff)
		if err != nil {
			return crawler.JobDescriptor{}, nil, fmt.Errorf("jobs.%s.quiet_cutoff: %w", name, err)
		}
		cutoff = parsed
	}
	eval, err := evaluator.Build(name, jc.Evaluator)
	if err != nil {
		return crawler.JobDescriptor{}, nil, err
	}
	desc := crawler.JobDescriptor{
		Name:        name,
		URLTemplate: jc.URLTemplate,
		Targets:     append([]string(nil), jc.Targets...),
		QuietCutoff: cutoff,
	}
	return desc, eval, nil
}

// HTTPTimeout converts http.timeout_seconds to a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// NotifierMaxWait converts notifier.max_wait_seconds to a duration.
func (c Config) NotifierMaxWait() time.Duration {
	return time.Duration(c.Notifier.MaxWaitSeconds) * time.Second
}
