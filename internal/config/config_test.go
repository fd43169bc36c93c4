package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "k2fov.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	c, err := Load(testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":8080" || c.FOV.Padding != 3 || c.FOV.NearSiliconDeg != 8.2 {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.Batch.Workers < 1 {
		t.Errorf("workers = %d", c.Batch.Workers)
	}
	if c.RefreshInterval() != 0 {
		t.Errorf("refresh should be disabled without a source URL")
	}
	if c.Level() != slog.LevelInfo {
		t.Errorf("level = %v", c.Level())
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9090"
  log_level: debug
fov:
  padding: 0
campaigns:
  source_url: http://example.invalid/k2.json
  refresh_seconds: 3600
`)
	t.Setenv("K2FOV_CONFIG", path)

	c, err := Load(testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":9090" || c.Level() != slog.LevelDebug {
		t.Errorf("server = %+v", c.Server)
	}
	if c.FOV.Padding != 0 {
		t.Errorf("padding = %v, want 0", c.FOV.Padding)
	}
	// Unset keys keep their defaults.
	if c.FOV.NearSiliconDeg != 8.2 || c.Campaigns.MaxFiles != 5 {
		t.Errorf("defaults lost: %+v", c.FOV)
	}
	if c.RefreshInterval() != time.Hour {
		t.Errorf("refresh = %v", c.RefreshInterval())
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "server:\n  addr: \":9090\"\nbatch:\n  workers: 2\n")
	t.Setenv("K2FOV_CONFIG", path)
	t.Setenv("K2FOV_HTTP_ADDR", ":7070")
	t.Setenv("K2FOV_WORKERS", "6")
	t.Setenv("K2FOV_NEAR_SEP", "5.5")
	t.Setenv("K2FOV_TRUST_PROXY", "true")

	c, err := Load(testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":7070" || c.Batch.Workers != 6 || c.FOV.NearSiliconDeg != 5.5 || !c.Server.TrustProxy {
		t.Errorf("env did not override: %+v", c)
	}
}

func TestInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("K2FOV_WORKERS", "zero")
	t.Setenv("K2FOV_PADDING", "wide")
	t.Setenv("K2FOV_NEAR_SEP", "-1")
	t.Setenv("K2FOV_CAMPAIGN_REFRESH", "-5")

	c, err := Load(testLogger())
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if c.Batch.Workers != def.Batch.Workers || c.FOV.Padding != def.FOV.Padding ||
		c.FOV.NearSiliconDeg != def.FOV.NearSiliconDeg || c.Campaigns.RefreshSeconds != 0 {
		t.Errorf("invalid values were not replaced by defaults: %+v", c)
	}
}

func TestAuthConfig(t *testing.T) {
	t.Run("enabled without token", func(t *testing.T) {
		t.Setenv("K2FOV_AUTH_ENABLED", "true")
		if _, err := Load(testLogger()); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("not a boolean", func(t *testing.T) {
		t.Setenv("K2FOV_AUTH_ENABLED", "maybe")
		if _, err := Load(testLogger()); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("enabled with token", func(t *testing.T) {
		t.Setenv("K2FOV_AUTH_ENABLED", "1")
		t.Setenv("K2FOV_AUTH_TOKEN", "secret")
		c, err := Load(testLogger())
		if err != nil {
			t.Fatal(err)
		}
		if a := c.AuthConfig(); !a.Enabled || a.Token != "secret" {
			t.Errorf("auth = %+v", a)
		}
	})
}

func TestBadFileAndLevel(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("K2FOV_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
		if _, err := Load(testLogger()); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("bad yaml", func(t *testing.T) {
		t.Setenv("K2FOV_CONFIG", writeFile(t, "server: [unclosed"))
		if _, err := Load(testLogger()); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("bad level", func(t *testing.T) {
		t.Setenv("K2FOV_LOG_LEVEL", "chatty")
		if _, err := Load(testLogger()); err == nil {
			t.Error("expected error")
		}
	})
}
