package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/ebookmeta/internal/config"
)

func TestTickInterval_Default(t *testing.T) {
	u := config.UIConfig{}
	if got := u.TickInterval(); got != 250*time.Millisecond {
		t.Errorf("TickInterval = %v, want 250ms", got)
	}
}

func TestTickInterval_Custom(t *testing.T) {
	u := config.UIConfig{TickMS: 100}
	if got := u.TickInterval(); got != 100*time.Millisecond {
		t.Errorf("TickInterval = %v, want 100ms", got)
	}
}

func TestEffectiveStartDir_Configured(t *testing.T) {
	d := config.DefaultsConfig{StartDir: "/books"}
	got := d.EffectiveStartDir(func() (string, error) { return "/cwd", nil }, "/home/u")
	if got != "/books" {
		t.Errorf("EffectiveStartDir = %q, want %q", got, "/books")
	}
}

func TestEffectiveStartDir_WorkingDir(t *testing.T) {
	d := config.DefaultsConfig{}
	got := d.EffectiveStartDir(func() (string, error) { return "/cwd", nil }, "/home/u")
	if got != "/cwd" {
		t.Errorf("EffectiveStartDir = %q, want %q", got, "/cwd")
	}
}

func TestEffectiveStartDir_HomeFallback(t *testing.T) {
	d := config.DefaultsConfig{}
	got := d.EffectiveStartDir(func() (string, error) { return "", errors.New("gone") }, "/home/u")
	if got != "/home/u" {
		t.Errorf("EffectiveStartDir = %q, want %q", got, "/home/u")
	}
}

func TestEffectiveSeriesCount(t *testing.T) {
	cases := map[int]int{-3: 1, 0: 1, 1: 1, 4: 4}
	for in, want := range cases {
		d := config.DefaultsConfig{SeriesCount: in}
		if got := d.EffectiveSeriesCount(); got != want {
			t.Errorf("EffectiveSeriesCount(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestDefaultPath(t *testing.T) {
	p := config.DefaultPath()
	if p == "" {
		t.Fatal("DefaultPath returned empty string")
	}
	if !strings.HasSuffix(p, "config.yml") {
		t.Errorf("DefaultPath = %q, should end with config.yml", p)
	}
}

func TestLoadFile_MissingUsesDefaults(t *testing.T) {
	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "none.yml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Defaults.Format != config.DefaultFormat {
		t.Errorf("Format = %q, want %q", cfg.Defaults.Format, config.DefaultFormat)
	}
	if cfg.Defaults.SeriesCount != 1 {
		t.Errorf("SeriesCount = %d, want 1", cfg.Defaults.SeriesCount)
	}
	if cfg.UI.TickMS != 250 {
		t.Errorf("TickMS = %d, want 250", cfg.UI.TickMS)
	}
	if cfg.Archive.Backup {
		t.Error("Backup should default to false")
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	in := &config.Config{
		Defaults: config.DefaultsConfig{Format: "${title}", SeriesName: "Dune", SeriesCount: 3},
		Archive:  config.ArchiveConfig{Backup: true, RenameFiles: true},
		UI:       config.UIConfig{TickMS: 50},
		Log:      config.LogConfig{Level: "debug", Format: "json", File: "/tmp/x.log"},
	}
	if err := config.Save(in, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if out.Defaults.Format != "${title}" || out.Defaults.SeriesName != "Dune" || out.Defaults.SeriesCount != 3 {
		t.Errorf("Defaults = %+v", out.Defaults)
	}
	if !out.Archive.Backup || !out.Archive.RenameFiles {
		t.Errorf("Archive = %+v", out.Archive)
	}
	if out.Log.Level != "debug" || out.Log.Format != "json" {
		t.Errorf("Log = %+v", out.Log)
	}
}

func TestLoadFile_EnvOverride(t *testing.T) {
	t.Setenv("EBOOKMETA_DEFAULTS_FORMAT", "${series} #${position}")
	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "none.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Defaults.Format != "${series} #${position}" {
		t.Errorf("Format = %q", cfg.Defaults.Format)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(path, []byte("defaults: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.LoadFile(path); err == nil {
		t.Error("expected error for malformed config")
	}
}
