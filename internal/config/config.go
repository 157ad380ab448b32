package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/ebookmeta/internal/util"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultFormat is the title template used when none is configured.
const DefaultFormat = "${series} (${position}) - ${title}"

// DefaultPath returns the default config file path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ebookmeta", "config.yml")
}

// Path returns the config file in use: EBOOKMETA_CONFIG if set, else the
// default location.
func Path() string {
	if p := os.Getenv("EBOOKMETA_CONFIG"); p != "" {
		return p
	}
	return DefaultPath()
}

// LoadFile reads the config at configPath, layered over environment
// variables and defaults. A missing file is not an error.
func LoadFile(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("defaults.format", DefaultFormat)
	v.SetDefault("defaults.series_name", "")
	v.SetDefault("defaults.series_count", 1)
	v.SetDefault("defaults.start_dir", "")
	v.SetDefault("archive.backup", false)
	v.SetDefault("archive.rename_files", false)
	v.SetDefault("ui.tick_ms", 250)
	v.SetDefault("ui.resume_plan", defaultStateFile("unfinished.yml"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", defaultStateFile("ebookmeta.log"))
	v.SetDefault("history.path", defaultStateFile("history.jsonl"))
	v.SetDefault("history.disabled", false)

	v.SetEnvPrefix("EBOOKMETA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, isCfgNotFound := err.(viper.ConfigFileNotFoundError); !isCfgNotFound {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Defaults.StartDir = util.ExpandHome(cfg.Defaults.StartDir)
	cfg.Log.File = util.ExpandHome(cfg.Log.File)
	cfg.History.Path = util.ExpandHome(cfg.History.Path)
	cfg.UI.ResumePlan = util.ExpandHome(cfg.UI.ResumePlan)

	return &cfg, nil
}

// Save writes the config to path as yaml.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func defaultStateFile(name string) string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "ebookmeta", name)
}
