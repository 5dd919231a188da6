// Package config loads runtime configuration for the LifeVault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   SQLite database file
//	-b string   backup directory
//	-u int      undo window (seconds)
//	-l string   log level: debug, info, warn, error
//	-o string   log file (stderr when empty)
//	-e bool     encrypt record payloads with the PIN (use -e=false to disable)
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "7s" or integer
// nanoseconds. Fields absent from the file keep their previous value:
//
//	{
//	  "db_path": "lifevault.db",
//	  "backup_dir": "backups",
//	  "undo_window": "7s",
//	  "encrypt_files": true,
//	  "max_export_file_bytes": 67108864,
//	  "log_level": "info",
//	  "log_format": "json"
//	}
package config
