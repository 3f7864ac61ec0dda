// Package config loads threadsnap settings from defaults, an optional YAML
// file, a .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all settings shared by the CLI and the worker.
type Config struct {
	OutDir    string        `yaml:"out_dir"` // "-" writes to stdout
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	Workers   int           `yaml:"workers"`
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"` // json|text
	NATS      NATS          `yaml:"nats"`
	Neo4j     Neo4j         `yaml:"neo4j"`
	Worker    Worker        `yaml:"worker"`
}

// NATS configures publishing and the request/reply worker.
type NATS struct {
	URL            string `yaml:"url"`
	Subject        string `yaml:"subject"`         // published documents
	RequestSubject string `yaml:"request_subject"` // extraction requests
	EventSubject   string `yaml:"event_subject"`   // worker completion events
}

// Neo4j configures the graph saver. An empty URL disables it.
type Neo4j struct {
	URL  string `yaml:"url"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

// Worker configures the worker's HTTP server.
type Worker struct {
	HTTPAddr string `yaml:"http_addr"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		OutDir:    ".",
		UserAgent: "threadsnap/1.0",
		Workers:   4,
		LogLevel:  "info",
		LogFormat: "json",
		NATS: NATS{
			Subject:        "threadsnap.threads",
			RequestSubject: "threadsnap.extract",
			EventSubject:   "threadsnap.extracted",
		},
		Neo4j:  Neo4j{User: "neo4j"},
		Worker: Worker{HTTPAddr: ":9090"},
	}
}

// Load builds a Config. path may be empty; a missing .env file is ignored.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("unmarshal config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.OutDir = envOr("THREADSNAP_OUT_DIR", c.OutDir)
	c.UserAgent = envOr("THREADSNAP_USER_AGENT", c.UserAgent)
	c.LogLevel = envOr("THREADSNAP_LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOr("THREADSNAP_LOG_FORMAT", c.LogFormat)
	c.NATS.URL = envOr("NATS_URL", c.NATS.URL)
	c.NATS.Subject = envOr("THREADSNAP_SUBJECT", c.NATS.Subject)
	c.NATS.RequestSubject = envOr("THREADSNAP_REQUEST_SUBJECT", c.NATS.RequestSubject)
	c.NATS.EventSubject = envOr("THREADSNAP_EVENT_SUBJECT", c.NATS.EventSubject)
	c.Neo4j.URL = envOr("NEO4J_URL", c.Neo4j.URL)
	c.Neo4j.User = envOr("NEO4J_USER", c.Neo4j.User)
	c.Neo4j.Pass = envOr("NEO4J_PASS", c.Neo4j.Pass)
	c.Worker.HTTPAddr = envOr("THREADSNAP_HTTP_ADDR", c.Worker.HTTPAddr)

	if v := os.Getenv("THREADSNAP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("THREADSNAP_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("THREADSNAP_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("THREADSNAP_WORKERS: %w", err)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks values and fills defaults for empty fields.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return errors.New("timeout must be >= 0")
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.OutDir == "" {
		c.OutDir = "."
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "json", "text":
	default:
		return fmt.Errorf("unsupported log format: %s", c.LogFormat)
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "threadsnap.threads"
	}
	if c.NATS.RequestSubject == "" {
		c.NATS.RequestSubject = "threadsnap.extract"
	}
	if c.NATS.EventSubject == "" {
		c.NATS.EventSubject = "threadsnap.extracted"
	}
	if c.NATS.RequestSubject == c.NATS.Subject || c.NATS.RequestSubject == c.NATS.EventSubject {
		return errors.New("nats request_subject must differ from subject and event_subject")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
