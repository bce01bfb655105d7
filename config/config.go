package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/icodeforyou/entsoe-go/logging"
	"github.com/spf13/viper"
)

const DefaultBaseURL = "https://transparency.entsoe.eu/"

type AppConfigPortal struct {
	BaseURL *string `mapstructure:"base_url"`
	// Timeout for a single HTTP request, default: 60s
	Timeout *time.Duration `mapstructure:"timeout"`
	// Pause before retrying a throttled request, default: 5s
	Backoff *time.Duration `mapstructure:"backoff"`
	// Retries after the first attempt of a throttled request, default: 3
	MaxRetries *int `mapstructure:"max_retries"`
	// Pacing of export requests, default: 1. Zero or less disables pacing.
	RequestsPerSecond *float64 `mapstructure:"requests_per_second"`
	// Environment variables holding the portal credentials
	UsernameEnv *string `mapstructure:"username_env"`
	PasswordEnv *string `mapstructure:"password_env"`
	// What to do when a day cannot be fetched: "abort" or "skip", default: "abort"
	FailurePolicy *string `mapstructure:"failure_policy"`
}

func (p AppConfigPortal) GetBaseURL() string {
	if p.BaseURL == nil || *p.BaseURL == "" {
		return DefaultBaseURL
	}
	return *p.BaseURL
}

func (p AppConfigPortal) GetTimeout() time.Duration {
	if p.Timeout == nil {
		return 60 * time.Second
	}
	return *p.Timeout
}

func (p AppConfigPortal) GetBackoff() time.Duration {
	if p.Backoff == nil {
		return 5 * time.Second
	}
	return *p.Backoff
}

func (p AppConfigPortal) GetMaxRetries() int {
	if p.MaxRetries == nil || *p.MaxRetries < 0 {
		return 3
	}
	return *p.MaxRetries
}

func (p AppConfigPortal) GetRequestsPerSecond() float64 {
	if p.RequestsPerSecond == nil {
		return 1
	}
	return *p.RequestsPerSecond
}

func (p AppConfigPortal) GetUsernameEnv() string {
	if p.UsernameEnv == nil {
		return "ENTSOe_USERNAME"
	}
	return *p.UsernameEnv
}

func (p AppConfigPortal) GetPasswordEnv() string {
	if p.PasswordEnv == nil {
		return "ENTSOe_PASSWORD"
	}
	return *p.PasswordEnv
}

func (p AppConfigPortal) GetFailurePolicy() string {
	if p.FailurePolicy == nil {
		return "abort"
	}
	return strings.ToLower(*p.FailurePolicy)
}

type AppConfigDatabase struct {
	// Log database, logging to database is disabled when empty
	Path string
}

type AppConfigMqtt struct {
	Broker      string
	Port        int16
	Username    string
	Password    string
	ClientID    *string `mapstructure:"client_id"`
	TopicPrefix *string `mapstructure:"topic_prefix"`
}

func (m AppConfigMqtt) Enabled() bool {
	return m.Broker != ""
}

func (m AppConfigMqtt) GetClientID() string {
	if m.ClientID == nil {
		return "entsoe-poll"
	}
	return *m.ClientID
}

func (m AppConfigMqtt) GetTopicPrefix() string {
	if m.TopicPrefix == nil {
		return "entsoe"
	}
	return strings.TrimSuffix(*m.TopicPrefix, "/")
}

type AppConfigFeed struct {
	// Address of the websocket feed of polled records, disabled when empty
	Addr string
}

type AppConfigPollJob struct {
	Kind     string // "load", "price" or "imbalance"
	Area     string
	RunAt    string `mapstructure:"run_at"`
	Forecast bool
	// Length of the window ending now, default: 24
	WindowHours *int `mapstructure:"window_hours"`
}

func (j AppConfigPollJob) GetWindow() time.Duration {
	if j.WindowHours == nil || *j.WindowHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(*j.WindowHours) * time.Hour
}

type AppConfigPoller struct {
	Jobs []AppConfigPollJob
}

type AppConfigLogging struct {
	// Min log level for database : "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Log entries older than this many days are removed, 0 keeps them, default: 30
	DbMaxAgeDays *int `mapstructure:"db_max_age_days"`
	// Min log level for console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat != nil && strings.EqualFold(*l.DbAttrsFormat, "text") {
		return logging.LogAttrFormatText
	}
	return logging.LogAttrFormatJSON
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetDbMaxAge() time.Duration {
	if l.DbMaxAgeDays == nil {
		return 30 * 24 * time.Hour
	}
	return time.Duration(*l.DbMaxAgeDays) * 24 * time.Hour
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Portal   AppConfigPortal
	Database AppConfigDatabase
	Mqtt     AppConfigMqtt
	Feed     AppConfigFeed
	Poller   AppConfigPoller
	Logging  AppConfigLogging
}

// Load reads the config file at path, or config/config.yaml when path is
// empty. A missing default file is not an error, every setting has a default.
// Environment variables override file values, e.g. PORTAL_BASE_URL.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	c, err := load(v, path)
	if err != nil {
		return nil, err
	}
	loaded = v
	return c, nil
}

// loaded is the viper instance of the latest successful Load.
var loaded = viper.GetViper()

func load(v *viper.Viper, path string) (*AppConfig, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	var c AppConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	return &c, nil
}

// AutomaticEnv only applies to keys viper already knows about, keys
// without a file value have to be bound explicitly.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"portal.base_url",
		"portal.timeout",
		"portal.backoff",
		"portal.max_retries",
		"portal.requests_per_second",
		"portal.username_env",
		"portal.password_env",
		"portal.failure_policy",
		"database.path",
		"mqtt.broker",
		"mqtt.port",
		"mqtt.username",
		"mqtt.password",
		"feed.addr",
		"logging.console_level",
		"logging.db_level",
		"logging.db_max_age_days",
	} {
		_ = v.BindEnv(key)
	}
}

// Watch reloads the config when the file changes and hands the new
// config to onChange. Invalid files are logged and ignored.
func Watch(logger *slog.Logger, onChange func(*AppConfig)) {
	v := loaded
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		logger.Info("config file changed", slog.String("file", e.Name), slog.String("op", e.Op.String()))
		var c AppConfig
		if err := v.Unmarshal(&c); err != nil {
			logger.Error("failed to reload config", slog.Any("error", err))
			return
		}
		onChange(&c)
	})
	v.WatchConfig()
}
