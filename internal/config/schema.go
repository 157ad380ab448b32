package config

import "time"

// Config is the top-level ebookmeta configuration.
type Config struct {
	Defaults DefaultsConfig `mapstructure:"defaults" yaml:"defaults"`
	Archive  ArchiveConfig  `mapstructure:"archive" yaml:"archive"`
	UI       UIConfig       `mapstructure:"ui" yaml:"ui"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	History  HistoryConfig  `mapstructure:"history" yaml:"history"`
}

// DefaultsConfig seeds the wizard.
type DefaultsConfig struct {
	Format      string `mapstructure:"format" yaml:"format"`
	SeriesName  string `mapstructure:"series_name" yaml:"series_name,omitempty"`
	SeriesCount int    `mapstructure:"series_count" yaml:"series_count"`
	StartDir    string `mapstructure:"start_dir" yaml:"start_dir,omitempty"`
}

// ArchiveConfig controls how rewritten archives land on disk.
type ArchiveConfig struct {
	Backup      bool `mapstructure:"backup" yaml:"backup"`
	RenameFiles bool `mapstructure:"rename_files" yaml:"rename_files"`
}

// UIConfig holds terminal settings.
type UIConfig struct {
	TickMS int `mapstructure:"tick_ms" yaml:"tick_ms"`
	// ResumePlan is where the wizard saves its selection when it exits
	// before every book is rewritten. Empty disables it.
	ResumePlan string `mapstructure:"resume_plan" yaml:"resume_plan"`
}

// LogConfig selects where diagnostics go. The terminal belongs to the
// wizard, so logs are written to a file.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
	File   string `mapstructure:"file" yaml:"file"`
}

// HistoryConfig locates the rewrite ledger.
type HistoryConfig struct {
	Path     string `mapstructure:"path" yaml:"path"`
	Disabled bool   `mapstructure:"disabled" yaml:"disabled,omitempty"`
}

// TickInterval returns the wizard's poll interval, 250ms when unset.
func (u UIConfig) TickInterval() time.Duration {
	if u.TickMS <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(u.TickMS) * time.Millisecond
}

// EffectiveStartDir returns the picker's first directory: the configured
// one, else the working directory, else the home directory.
func (d DefaultsConfig) EffectiveStartDir(getwd func() (string, error), home string) string {
	if d.StartDir != "" {
		return d.StartDir
	}
	if wd, err := getwd(); err == nil {
		return wd
	}
	return home
}

// EffectiveSeriesCount clamps the configured initial count to at least 1.
func (d DefaultsConfig) EffectiveSeriesCount() int {
	if d.SeriesCount < 1 {
		return 1
	}
	return d.SeriesCount
}
