package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
// Only the flags listed in doc.go are considered; everything else in
// os.Args is left for other parsers.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgsWithBools(os.Args[1:], []string{"-d", "-b", "-u", "-l", "-o"}, []string{"-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "SQLite database file")
	fs.StringVar(&cfg.BackupDir, "b", cfg.BackupDir, "backup directory")
	undoSeconds := fs.Int("u", int(cfg.UndoWindow.Seconds()), "undo window (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFile, "o", cfg.LogFile, "log file")
	fs.BoolVar(&cfg.EncryptFiles, "e", cfg.EncryptFiles, "encrypt record payloads")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.UndoWindow = time.Duration(*undoSeconds) * time.Second
}
