// Package config loads leadform settings from defaults, an optional YAML
// file, LEADFORM_* environment variables and command line flags, in that
// order of precedence (flags win).
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/goliatone/go-leadform/pkg/store"
	"github.com/goliatone/go-leadform/pkg/submission"
)

// EnvPrefix namespaces environment overrides, e.g. LEADFORM_SERVER_PORT.
const EnvPrefix = "LEADFORM"

// Config is the full runtime configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Submission SubmissionConfig `mapstructure:"submission"`
	Store      StoreConfig      `mapstructure:"store"`
	Session    SessionConfig    `mapstructure:"session"`
	Log        LogConfig        `mapstructure:"log"`
	Theme      ThemeConfig      `mapstructure:"theme"`
	DryRun     bool             `mapstructure:"dry_run"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// Secret signs per-session form tokens. A random value is used when
	// empty, which invalidates open forms on restart.
	Secret       string `mapstructure:"secret"`
	SecureCookie bool   `mapstructure:"secure_cookie"`
	TemplatesDir string `mapstructure:"templates_dir"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SubmissionConfig configures the form service client.
type SubmissionConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	FormID          string        `mapstructure:"form_id"`
	ContactFormID   string        `mapstructure:"contact_form_id"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RatePerMinute   float64       `mapstructure:"rate_per_minute"`
	Burst           int           `mapstructure:"burst"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
}

// Client returns the submission client settings for the booking form.
func (s SubmissionConfig) Client() submission.Config {
	return submission.Config{
		BaseURL:         s.BaseURL,
		FormID:          s.FormID,
		Timeout:         s.Timeout,
		RatePerMinute:   s.RatePerMinute,
		Burst:           s.Burst,
		BreakerFailures: s.BreakerFailures,
		BreakerCooldown: s.BreakerCooldown,
	}
}

// StoreConfig selects the session backend.
type StoreConfig struct {
	Backend       string `mapstructure:"backend"`
	Path          string `mapstructure:"path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPassword string `mapstructure:"redis_password"`
}

// Store converts to the store package configuration.
func (s StoreConfig) Store() store.Config {
	return store.Config{
		Backend:   s.Backend,
		Path:      s.Path,
		RedisAddr: s.RedisAddr,
		RedisDB:   s.RedisDB,
		Password:  s.RedisPassword,
	}
}

// SessionConfig controls session lifetime.
type SessionConfig struct {
	TTL     time.Duration `mapstructure:"ttl"`
	Catalog string        `mapstructure:"catalog"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// ThemeConfig controls the default theme variant.
type ThemeConfig struct {
	Default string `mapstructure:"default"`
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"config":          "",
	"host":            "server.host",
	"port":            "server.port",
	"secret":          "server.secret",
	"templates-dir":   "server.templates_dir",
	"form-endpoint":   "submission.base_url",
	"form-id":         "submission.form_id",
	"contact-form-id": "submission.contact_form_id",
	"store":           "store.backend",
	"store-path":      "store.path",
	"redis-addr":      "store.redis_addr",
	"session-ttl":     "session.ttl",
	"catalog":         "session.catalog",
	"log-level":       "log.level",
	"log-pretty":      "log.pretty",
	"theme":           "theme.default",
	"dry-run":         "dry_run",
}

// New returns a viper instance with defaults and env binding applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers every key so env overrides are picked up by
// Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 20*time.Second)
	v.SetDefault("server.secret", "")
	v.SetDefault("server.secure_cookie", false)
	v.SetDefault("server.templates_dir", "")

	v.SetDefault("submission.base_url", submission.DefaultBaseURL)
	v.SetDefault("submission.form_id", "mvgywqba")
	v.SetDefault("submission.contact_form_id", "xqajpgny")
	v.SetDefault("submission.timeout", submission.DefaultTimeout)
	v.SetDefault("submission.rate_per_minute", 30.0)
	v.SetDefault("submission.burst", 5)
	v.SetDefault("submission.breaker_failures", submission.DefaultBreakerFailures)
	v.SetDefault("submission.breaker_cooldown", submission.DefaultBreakerCooldown)

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.path", ":memory:")
	v.SetDefault("store.redis_addr", "127.0.0.1:6379")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.redis_password", "")

	v.SetDefault("session.ttl", 2*time.Hour)
	v.SetDefault("session.catalog", "strategy-session")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("theme.default", "dark")
	v.SetDefault("dry_run", false)
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("host", "0.0.0.0", "listen host")
	fs.Int("port", 8080, "listen port")
	fs.String("secret", "", "form token signing secret")
	fs.String("templates-dir", "", "load templates from this directory instead of the embedded set")
	fs.String("form-endpoint", submission.DefaultBaseURL, "form service base URL")
	fs.String("form-id", "mvgywqba", "form id for strategy session bookings")
	fs.String("contact-form-id", "xqajpgny", "form id for start-project enquiries")
	fs.String("store", "memory", "session store backend (memory|redis)")
	fs.String("store-path", ":memory:", "buntdb path for the memory backend")
	fs.String("redis-addr", "127.0.0.1:6379", "redis address for the redis backend")
	fs.Duration("session-ttl", 2*time.Hour, "session lifetime")
	fs.String("catalog", "strategy-session", "catalog id to serve")
	fs.String("log-level", "info", "log level")
	fs.Bool("log-pretty", false, "human readable logs")
	fs.String("theme", "dark", "default theme variant (dark|light)")
	fs.Bool("dry-run", false, "log submissions instead of sending them")
}

// BindFlags binds every registered flag present in fs to its key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if key == "" {
			continue
		}
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("config: bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the optional file at path and returns the merged config.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = New()
	}
	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: server.port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.Submission.BaseURL) == "" {
		errs = append(errs, errors.New("config: submission.base_url is required"))
	}
	if strings.TrimSpace(c.Submission.FormID) == "" {
		errs = append(errs, errors.New("config: submission.form_id is required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("config: session.ttl must be positive"))
	}
	switch strings.ToLower(c.Store.Backend) {
	case "memory", "buntdb", "redis":
	default:
		errs = append(errs, fmt.Errorf("config: unknown store backend %q", c.Store.Backend))
	}
	return errors.Join(errs...)
}
