package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/lifevault/internal/flagx"
	"github.com/dmitrijs2005/lifevault/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from zero values so a partial file only
// overrides what it names.
type JsonConfig struct {
	DBPath             *string         `json:"db_path"`
	BackupDir          *string         `json:"backup_dir"`
	AppName            *string         `json:"app_name"`
	UndoWindow         *timex.Duration `json:"undo_window"`
	EncryptFiles       *bool           `json:"encrypt_files"`
	MaxExportFileBytes *int64          `json:"max_export_file_bytes"`
	CacheSize          *int            `json:"cache_size"`
	CacheTTL           *timex.Duration `json:"cache_ttl"`
	LogLevel           *string         `json:"log_level"`
	LogFormat          *string         `json:"log_format"`
	LogFile            *string         `json:"log_file"`
}

// parseJson overlays cfg with values from the file named by -c/-config.
// It does nothing when no file is given and panics on read or decode errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setIf(&cfg.DBPath, jc.DBPath)
	setIf(&cfg.BackupDir, jc.BackupDir)
	setIf(&cfg.AppName, jc.AppName)
	setIf(&cfg.EncryptFiles, jc.EncryptFiles)
	setIf(&cfg.MaxExportFileBytes, jc.MaxExportFileBytes)
	setIf(&cfg.CacheSize, jc.CacheSize)
	setIf(&cfg.LogLevel, jc.LogLevel)
	setIf(&cfg.LogFormat, jc.LogFormat)
	setIf(&cfg.LogFile, jc.LogFile)

	if jc.UndoWindow != nil {
		cfg.UndoWindow = jc.UndoWindow.Duration
	}
	if jc.CacheTTL != nil {
		cfg.CacheTTL = jc.CacheTTL.Duration
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
