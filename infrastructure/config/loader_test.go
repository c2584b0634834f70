package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	infraconfig "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/config"
)

type sample struct {
	Name    string        `yaml:"name"`
	Port    int           `env:"SAMPLE_PORT"    yaml:"port"`
	Timeout time.Duration `env:"SAMPLE_TIMEOUT" yaml:"timeout"`
	Nested  struct {
		Tags  []string `env:"SAMPLE_TAGS"  yaml:"tags"`
		Debug bool     `env:"SAMPLE_DEBUG" yaml:"debug"`
	} `yaml:"nested"`
}

type validated struct {
	Weight float64 `yaml:"weight"`
}

func (v *validated) Validate() error {
	return infraconfig.ValidateRange("weight", v.Weight, 0, 1)
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadWithDefaults_EnvWins(t *testing.T) {
	path := writeFile(t, "name: svc\nport: 8000\nnested:\n  tags: [a]\n")
	t.Setenv("SAMPLE_PORT", "9100")
	t.Setenv("SAMPLE_TAGS", "x, y")
	t.Setenv("SAMPLE_DEBUG", "true")

	cfg, err := infraconfig.LoadWithDefaults[sample](path, func(s *sample) {
		if s.Timeout == 0 {
			s.Timeout = 5 * time.Second
		}
		s.Port = 1
	})
	if err != nil {
		t.Fatalf("LoadWithDefaults() error = %v", err)
	}

	if cfg.Name != "svc" {
		t.Errorf("Name = %q, want svc", cfg.Name)
	}
	if cfg.Port != 9100 {
		t.Errorf("Port = %d, want 9100 (env beats defaults)", cfg.Port)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if len(cfg.Nested.Tags) != 2 || cfg.Nested.Tags[1] != "y" {
		t.Errorf("Tags = %v, want [x y]", cfg.Nested.Tags)
	}
	if !cfg.Nested.Debug {
		t.Error("Debug = false, want true")
	}
}

func TestLoad_MissingFileUsesZeroValue(t *testing.T) {
	cfg, err := infraconfig.Load[sample](filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Name != "" {
		t.Errorf("Name = %q, want empty", cfg.Name)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "name: [unterminated")
	if _, err := infraconfig.Load[sample](path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadWithDefaults_RunsValidate(t *testing.T) {
	path := writeFile(t, "weight: 1.5\n")
	_, err := infraconfig.LoadWithDefaults[validated](path, nil)

	var vErr *infraconfig.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if vErr.Field != "weight" {
		t.Errorf("Field = %q, want weight", vErr.Field)
	}
}

func TestGetConfigPath(t *testing.T) {
	if got := infraconfig.GetConfigPath("config.yml"); got != "config.yml" && os.Getenv(infraconfig.ConfigPathEnv) == "" {
		t.Errorf("GetConfigPath() = %q, want config.yml", got)
	}
	t.Setenv(infraconfig.ConfigPathEnv, "/etc/qe.yml")
	if got := infraconfig.GetConfigPath("config.yml"); got != "/etc/qe.yml" {
		t.Errorf("GetConfigPath() = %q, want /etc/qe.yml", got)
	}
}
