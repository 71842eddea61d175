// Package config provides functionality for managing configuration options
// for the application using command-line flags, a config file and
// environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that reads as "60s" / "1h30m" from config files.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return d.set(v)
}

// UnmarshalYAML accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var v any
	if err := n.Decode(&v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) set(v any) error {
	switch x := v.(type) {
	case string:
		p, err := time.ParseDuration(x)
		if err != nil {
			return err
		}
		*d = Duration(p)
	case float64:
		*d = Duration(x * float64(time.Second))
	case int:
		*d = Duration(time.Duration(x) * time.Second)
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"server_address" yaml:"server_address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn" yaml:"database_dsn"`

	// GeminiAPIKey authenticates calls to the model. Identification is
	// refused when it is empty.
	GeminiAPIKey string `json:"gemini_api_key" yaml:"gemini_api_key"`
	GeminiModel  string `json:"gemini_model" yaml:"gemini_model"`

	JWTSecret string `json:"jwt_secret" yaml:"jwt_secret"`
	LogLevel  string `json:"log_level" yaml:"log_level"`

	TLSCert string `json:"tls_cert" yaml:"tls_cert"`
	TLSKey  string `json:"tls_key" yaml:"tls_key"`

	IdentifyTimeout  Duration `json:"identify_timeout" yaml:"identify_timeout"`
	CleanerInterval  Duration `json:"cleaner_interval" yaml:"cleaner_interval"`
	CleanerRetention Duration `json:"cleaner_retention" yaml:"cleaner_retention"`

	// Config is the path to the Config file.
	Config string `json:"-" yaml:"-"`
}

// Defaults applied before any flag, file or variable is read.
const (
	DefaultAddress          = "localhost:8080"
	DefaultModel            = "gemini-1.5-flash"
	DefaultLogLevel         = "info"
	DefaultIdentifyTimeout  = 60 * time.Second
	DefaultCleanerInterval  = time.Hour
	DefaultCleanerRetention = 30 * 24 * time.Hour
)

// Load builds Options from args, then the config file, then the environment.
// Later sources override earlier ones. A missing config file is not an error.
func Load(args []string) (*Options, error) {
	o := &Options{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	var timeout, interval, retention time.Duration
	fs.StringVar(&o.Port, "a", DefaultAddress, "run on ip:port server")
	fs.StringVar(&o.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&o.GeminiAPIKey, "k", "", "gemini api key")
	fs.StringVar(&o.GeminiModel, "m", DefaultModel, "gemini model name")
	fs.StringVar(&o.JWTSecret, "j", "", "jwt signing secret")
	fs.StringVar(&o.LogLevel, "l", DefaultLogLevel, "log level")
	fs.StringVar(&o.TLSCert, "tls-cert", "", "path to TLS certificate")
	fs.StringVar(&o.TLSKey, "tls-key", "", "path to TLS private key")
	fs.DurationVar(&timeout, "identify-timeout", DefaultIdentifyTimeout, "per-call identification timeout")
	fs.DurationVar(&interval, "cleaner-interval", DefaultCleanerInterval, "soft-delete cleaner interval")
	fs.DurationVar(&retention, "cleaner-retention", DefaultCleanerRetention, "how long soft-deleted plants are kept")
	fs.StringVar(&o.Config, "config", "config.json", "path to config file")
	fs.StringVar(&o.Config, "c", "config.json", "path to config file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.IdentifyTimeout = Duration(timeout)
	o.CleanerInterval = Duration(interval)
	o.CleanerRetention = Duration(retention)

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		o.Config = configPath
	}
	if err := o.readFile(); err != nil {
		return nil, err
	}
	o.applyEnv()

	return o, nil
}

func (o *Options) readFile() error {
	if o.Config == "" {
		return nil
	}
	data, err := os.ReadFile(o.Config)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(o.Config)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, o)
	default:
		err = json.Unmarshal(data, o)
	}
	if err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func (o *Options) applyEnv() {
	env := map[string]*string{
		"SERVER_ADDRESS": &o.Port,
		"DATABASE_DSN":   &o.DatabaseDSN,
		"GEMINI_API_KEY": &o.GeminiAPIKey,
		"GEMINI_MODEL":   &o.GeminiModel,
		"JWT_SECRET":     &o.JWTSecret,
		"LOG_LEVEL":      &o.LogLevel,
	}
	for name, dst := range env {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
}

// Parse parses os.Args and the environment. It exits the process on error.
func Parse() *Options {
	o, err := Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return o
}
