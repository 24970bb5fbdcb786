package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetHomeFromEnv(t *testing.T) {
	t.Setenv(EnvHome, "/custom/acrocheck")

	home, err := GetHome()
	if err != nil {
		t.Fatalf("GetHome() error = %v", err)
	}
	if home != "/custom/acrocheck" {
		t.Errorf("GetHome() = %q, want /custom/acrocheck", home)
	}
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "docs", "guides")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, rootMarker), nil, 0644); err != nil {
		t.Fatal(err)
	}

	got, ok := findRoot(nested)
	if !ok {
		t.Fatal("findRoot() did not find the marker")
	}
	if got != root {
		t.Errorf("findRoot() = %q, want %q", got, root)
	}

	if _, ok := findRoot(t.TempDir()); ok {
		t.Error("findRoot() found a marker in an unmarked tree")
	}
}

func TestLoadAppliesEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)
	t.Setenv(EnvServerURL, "https://env.example.com")
	t.Setenv(EnvAccessToken, "")
	t.Setenv(EnvClientSignature, "")

	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte("server_url: https://file.example.com\ndefault_target: en\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerURL != "https://env.example.com" {
		t.Errorf("ServerURL = %q, env should win", cfg.ServerURL)
	}
	if cfg.DefaultTarget != "en" {
		t.Errorf("DefaultTarget = %q, want en", cfg.DefaultTarget)
	}
}

func TestLoadResolvesDirectories(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)
	t.Setenv(EnvServerURL, "")
	t.Setenv(EnvAccessToken, "")
	t.Setenv(EnvClientSignature, "")

	tests := []struct {
		name      string
		content   string
		wantLog   string
		wantDebug string
	}{
		{name: "defaults", wantLog: filepath.Join(home, "logs")},
		{
			name:      "relative",
			content:   "log_dir: run/logs\ndebug_dir: dumps\n",
			wantLog:   filepath.Join(home, "run", "logs"),
			wantDebug: filepath.Join(home, "dumps"),
		},
		{
			name:      "absolute",
			content:   "log_dir: /var/log/acrocheck\ndebug_dir: /tmp/dumps\n",
			wantLog:   "/var/log/acrocheck",
			wantDebug: "/tmp/dumps",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(home, "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.LogDir != tt.wantLog {
				t.Errorf("LogDir = %q, want %q", cfg.LogDir, tt.wantLog)
			}
			if cfg.DebugDir != tt.wantDebug {
				t.Errorf("DebugDir = %q, want %q", cfg.DebugDir, tt.wantDebug)
			}
		})
	}
}

func TestLoadExplicitPathResolvesAgainstItsDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acrocheck.toml")
	if err := os.WriteFile(path, []byte("log_dir = \"logs\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := filepath.Join(dir, "logs"); cfg.LogDir != want {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, want)
	}
}
