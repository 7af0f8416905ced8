package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatal(err)
	}
	if c.ListenAddr != ":8080" || c.Backend != "redis" || c.RedisAddr != "localhost:6379" || c.RedisDB != 0 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestDotEnvAndOverride(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".env")
	body := "CACHE_BACKEND=memory\nREDIS_DB=3\nLOG_LEVEL=debug\n"
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOG_LEVEL", "WARN")

	c, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.Backend != "memory" || c.RedisDB != 3 {
		t.Fatalf("file values not applied: %+v", c)
	}
	if c.LogLevel != "warn" {
		t.Fatalf("environment should win, got %q", c.LogLevel)
	}
}

func TestInvalid(t *testing.T) {
	dir := t.TempDir()
	t.Run("backend", func(t *testing.T) {
		t.Setenv("CACHE_BACKEND", "memcached")
		if _, err := Load(filepath.Join(dir, "none")); err == nil {
			t.Fatalf("expected error")
		}
	})
	t.Run("db", func(t *testing.T) {
		t.Setenv("REDIS_DB", "-1")
		if _, err := Load(filepath.Join(dir, "none")); err == nil {
			t.Fatalf("expected error")
		}
	})
}
