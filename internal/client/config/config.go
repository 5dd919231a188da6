package config

import "time"

// Config holds runtime settings for the LifeVault CLI.
//
// Fields:
//   - DBPath: SQLite database file.
//   - BackupDir: directory export writes backup documents into.
//   - AppName: prefix of backup file names.
//   - UndoWindow: how long a deleted record can be restored.
//   - EncryptFiles: seal record payloads with the session PIN.
//   - MaxExportFileBytes: payloads above this size are skipped by export.
//   - CacheSize / CacheTTL: bounds of the opened-payload cache.
//   - LogLevel / LogFormat / LogFile: logging sink; empty LogFile means stderr.
type Config struct {
	DBPath             string
	BackupDir          string
	AppName            string
	UndoWindow         time.Duration
	EncryptFiles       bool
	MaxExportFileBytes int64
	CacheSize          int
	CacheTTL           time.Duration
	LogLevel           string
	LogFormat          string
	LogFile            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = "lifevault.db"
	c.BackupDir = "backups"
	c.AppName = "life-os"
	c.UndoWindow = 7 * time.Second
	c.EncryptFiles = true
	c.MaxExportFileBytes = 64 << 20
	c.CacheSize = 32
	c.CacheTTL = 5 * time.Minute
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.LogFile = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
