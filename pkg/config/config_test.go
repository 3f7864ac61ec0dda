package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// chdir runs the test from an empty directory so no stray .env is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg != want {
		t.Fatalf("got %+v\nwant %+v", cfg, want)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "threadsnap.yaml")
	yaml := `
out_dir: exports
timeout: 45s
workers: 8
log_format: text
nats:
  url: nats://localhost:4222
  subject: custom.threads
neo4j:
  url: neo4j://localhost:7687
  pass: secret
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutDir != "exports" || cfg.Timeout != 45*time.Second || cfg.Workers != 8 {
		t.Errorf("unexpected top-level values: %+v", cfg)
	}
	if cfg.NATS.URL != "nats://localhost:4222" || cfg.NATS.Subject != "custom.threads" {
		t.Errorf("unexpected nats: %+v", cfg.NATS)
	}
	if cfg.NATS.RequestSubject != "threadsnap.extract" {
		t.Errorf("expected default request subject, got %q", cfg.NATS.RequestSubject)
	}
	if cfg.Neo4j.User != "neo4j" || cfg.Neo4j.Pass != "secret" {
		t.Errorf("unexpected neo4j: %+v", cfg.Neo4j)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "c.yaml")
	if err := os.WriteFile(path, []byte("workers: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("THREADSNAP_WORKERS", "6")
	t.Setenv("THREADSNAP_TIMEOUT", "5s")
	t.Setenv("NATS_URL", "nats://env:4222")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 6 || cfg.Timeout != 5*time.Second || cfg.NATS.URL != "nats://env:4222" {
		t.Fatalf("env did not override: %+v", cfg)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdir(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("NEO4J_URL=neo4j://dotenv:7687\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("NEO4J_URL") })

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Neo4j.URL != "neo4j://dotenv:7687" {
		t.Fatalf("expected .env value, got %q", cfg.Neo4j.URL)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := chdir(t)
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("workers: [1"), 0o644)
	if _, err := Load(bad); err == nil {
		t.Error("expected error for invalid yaml")
	}

	t.Setenv("THREADSNAP_WORKERS", "many")
	if _, err := Load(""); err == nil {
		t.Error("expected error for invalid THREADSNAP_WORKERS")
	}
}

func TestValidate(t *testing.T) {
	c := Config{Workers: 0, LogFormat: "json"}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.Workers != 1 || c.OutDir != "." || c.NATS.RequestSubject == "" || c.NATS.EventSubject == "" {
		t.Fatalf("defaults not filled: %+v", c)
	}

	c = Default()
	c.Timeout = -time.Second
	if err := c.Validate(); err == nil {
		t.Error("expected error for negative timeout")
	}

	c = Default()
	c.LogFormat = "xml"
	if err := c.Validate(); err == nil {
		t.Error("expected error for bad log format")
	}

	c = Default()
	c.NATS.RequestSubject = c.NATS.Subject
	if err := c.Validate(); err == nil {
		t.Error("expected error for equal subjects")
	}

	c = Default()
	c.NATS.EventSubject = c.NATS.RequestSubject
	if err := c.Validate(); err == nil {
		t.Error("expected error when events share the request subject")
	}
}
