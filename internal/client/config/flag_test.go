package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-d", "/tmp/v.db", "-b", "/tmp/b", "-u", "10", "-l", "debug", "-o", "/tmp/log", "-e=false"},
			expected: &Config{
				DBPath: "/tmp/v.db", BackupDir: "/tmp/b", UndoWindow: 10 * time.Second,
				LogLevel: "debug", LogFile: "/tmp/log", EncryptFiles: false,
			},
		},
		{
			name:     "bare bool does not eat next flag",
			args:     []string{"cmd", "-e", "-u", "5"},
			expected: &Config{EncryptFiles: true, UndoWindow: 5 * time.Second},
		},
		{
			name:     "unknown flags ignored",
			args:     []string{"cmd", "-c", "cfg.json", "-x", "1"},
			expected: &Config{},
		},
		{name: "bad undo window", args: []string{"cmd", "-u", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })
			os.Args = tt.args

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
