package cli

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/client/config"
	"github.com/dmitrijs2005/lifevault/internal/client/services"
	"github.com/dmitrijs2005/lifevault/internal/client/storage"
	"github.com/dmitrijs2005/lifevault/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPIN = "1234"

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func newTestApp(t *testing.T, input ...string) (*App, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DBPath = filepath.Join(dir, "vault.db")
	cfg.BackupDir = filepath.Join(dir, "backups")

	store, err := storage.Open(context.Background(), cfg.DBPath, logging.Discard())
	require.NoError(t, err)

	var out bytes.Buffer
	a := newApp(cfg, store, strings.NewReader(script(input...)), &out, logging.Discard())
	a.loc = time.UTC
	t.Cleanup(func() { _ = a.Close() })
	return a, &out
}

func script(lines ...string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// feed replaces the pending input of a.
func feed(a *App, lines ...string) {
	a.reader = bufio.NewReader(strings.NewReader(script(lines...)))
}

func unlocked(t *testing.T, a *App) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, a.vault.Gate.Init(ctx))
	require.NoError(t, a.vault.Gate.SetCredential(ctx, testPIN))
}

func TestApp_FirstRunSetupAndTasks(t *testing.T) {
	a, out := newTestApp(t,
		testPIN, testPIN,
		"tasks add Buy milk", "", "",
		"tasks add Pay rent", "2000-01-01", "",
		"tasks",
		"exit",
	)

	require.NoError(t, a.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "No PIN is set yet.")
	assert.Contains(t, got, "Vault unlocked.")
	assert.Contains(t, got, "Added task #1.")
	assert.Contains(t, got, "Added task #2.")
	assert.Contains(t, got, "Overdue (1)")
	assert.Contains(t, got, "Today (1)")
	assert.Contains(t, got, "Buy milk")
	assert.Less(t, strings.Index(got, "Pay rent (due"), strings.Index(got, "Buy milk (due"))
	assert.Equal(t, services.Unlocked, a.state())
}

func TestApp_SetupMismatchKeepsAwaitingSetup(t *testing.T) {
	a, out := newTestApp(t, testPIN, "9999", "exit")

	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, out.String(), "Error: PINs do not match")
	assert.Equal(t, services.AwaitingSetup, a.state())
}

func TestApp_UnlockWrongThenRight(t *testing.T) {
	a, out := newTestApp(t, "0000", "tasks", "unlock", testPIN, "size", "lock", "exit")
	unlocked(t, a)
	a.vault.Gate.Lock(context.Background())

	require.NoError(t, a.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "Wrong PIN.")
	assert.Contains(t, got, "Vault is locked. Type 'unlock' first.")
	assert.Contains(t, got, "Vault unlocked.")
	assert.Contains(t, got, "Total:        0")
	assert.Contains(t, got, "Vault locked.")
	assert.Equal(t, services.Locked, a.state())
}

func TestApp_MoneyAndCurrency(t *testing.T) {
	a, out := newTestApp(t)
	unlocked(t, a)
	ctx := context.Background()

	feed(a, "Salary", "", "")
	require.NoError(t, a.Money(ctx, []string{"in", "1500"}))
	feed(a, "Food", "lunch", "")
	require.NoError(t, a.Money(ctx, []string{"out", "200"}))
	require.NoError(t, a.Currency(ctx, []string{"usd"}))
	require.NoError(t, a.Money(ctx, nil))

	got := out.String()
	assert.Contains(t, got, "Currency set to US Dollar ($).")
	assert.Contains(t, got, "Balance: $1,300")
	assert.Contains(t, got, "-$200 Food")
	assert.Contains(t, got, "lunch")

	feed(a, "abc")
	err := a.Money(ctx, []string{"in"})
	require.Error(t, err)

	feed(a, "", "", "")
	err = a.Money(ctx, []string{"out", "50"})
	require.Error(t, err)
	assert.Equal(t, "Category is required", describeError(err))
}

func TestApp_EditTransactionKeepsDefaults(t *testing.T) {
	a, _ := newTestApp(t)
	unlocked(t, a)
	ctx := context.Background()

	feed(a, "Salary", "march", "")
	require.NoError(t, a.Money(ctx, []string{"in", "1000"}))

	feed(a, "1200", "", "")
	require.NoError(t, a.Money(ctx, []string{"edit", "1"}))

	txs, err := a.vault.Transactions.List(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.InDelta(t, 1200, txs[0].Amount, 1e-9)
	assert.Equal(t, "Salary", txs[0].Category)
	assert.Equal(t, "march", txs[0].Notes)
}

func TestApp_ContactsDuplicatePhone(t *testing.T) {
	a, out := newTestApp(t)
	unlocked(t, a)
	ctx := context.Background()

	feed(a, "0801 234 5678", "Doctor", "")
	require.NoError(t, a.Contacts(ctx, []string{"add", "Ada", "Obi"}))

	feed(a, "08012345678", "", "")
	err := a.Contacts(ctx, []string{"add", "Bob"})
	require.Error(t, err)
	assert.Equal(t, "Contact with this phone number already exists", describeError(err))

	require.NoError(t, a.Contacts(ctx, []string{"find", "doc"}))
	got := out.String()
	assert.Contains(t, got, "Contacts (1)")
	assert.Contains(t, got, "Ada Obi  0801 234 5678 (Doctor)")
}

func TestApp_RecordsAddOpenRename(t *testing.T) {
	a, out := newTestApp(t)
	unlocked(t, a)
	ctx := context.Background()

	dir := t.TempDir()
	src := filepath.Join(dir, "scan.png")
	payload := append(append([]byte(nil), pngHeader...), bytes.Repeat([]byte{7}, 64)...)
	require.NoError(t, os.WriteFile(src, payload, 0o600))

	feed(a, "")
	require.NoError(t, a.Records(ctx, []string{"add", src}))
	assert.Contains(t, out.String(), "Stored record #1 (image/png).")

	require.NoError(t, a.Records(ctx, []string{"rename", "1", "Passport", "scan"}))

	dest := filepath.Join(dir, "out")
	require.NoError(t, a.Records(ctx, []string{"open", "1", dest}))

	got, err := os.ReadFile(filepath.Join(dest, "Passport_scan.png"))
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	require.NoError(t, a.Records(ctx, nil))
	assert.Contains(t, out.String(), "Passport scan (image/png")
}

func TestApp_RecordsRejectsUnsupportedType(t *testing.T) {
	a, _ := newTestApp(t)
	unlocked(t, a)

	src := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("plain text"), 0o600))

	err := a.Records(context.Background(), []string{"add", src, "Notes"})
	require.Error(t, err)
	assert.Equal(t, "Invalid file type. Allowed: JPEG, PNG, GIF, PDF", describeError(err))
}

func TestApp_DeleteAndUndo(t *testing.T) {
	a, out := newTestApp(t)
	unlocked(t, a)
	ctx := context.Background()

	feed(a, "", "")
	require.NoError(t, a.Tasks(ctx, []string{"add", "Call", "mum"}))
	require.NoError(t, a.Tasks(ctx, []string{"rm", "1"}))
	assert.Contains(t, out.String(), "Task #1 deleted. ('undo' within 7s to restore)")

	require.NoError(t, a.Undo(ctx, nil))
	assert.Contains(t, out.String(), "Restored tasks #1.")

	items, err := a.vault.Tasks.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ID)

	err = a.Undo(ctx, nil)
	require.Error(t, err)
	assert.Equal(t, "Not found", describeError(err))
}

func TestApp_ToggleAndRemind(t *testing.T) {
	a, out := newTestApp(t)
	unlocked(t, a)
	ctx := context.Background()

	feed(a, "2200-01-01", "")
	require.NoError(t, a.Tasks(ctx, []string{"add", "Renew", "passport"}))

	feed(a, "08:30")
	require.NoError(t, a.Tasks(ctx, []string{"remind", "1"}))
	assert.Contains(t, out.String(), "Reminder set for 2200-01-01 08:30.")
	assert.Equal(t, 1, a.notifier.Pending())

	require.NoError(t, a.Tasks(ctx, []string{"done", "1"}))
	assert.Contains(t, out.String(), "Task #1 completed.")

	feed(a, "")
	require.NoError(t, a.Tasks(ctx, []string{"remind", "1"}))
	assert.Zero(t, a.notifier.Pending())
}

func TestApp_ExportThenImport(t *testing.T) {
	a, out := newTestApp(t)
	unlocked(t, a)
	ctx := context.Background()

	feed(a, "", "")
	require.NoError(t, a.Tasks(ctx, []string{"add", "Keep", "me"}))
	require.NoError(t, a.Export(ctx, nil))
	assert.Contains(t, out.String(), "Backup saved to ")

	entries, err := os.ReadDir(a.config.BackupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "life-os-backup-"))
	path := filepath.Join(a.config.BackupDir, entries[0].Name())

	feed(a, "", "")
	require.NoError(t, a.Tasks(ctx, []string{"add", "Drop", "me"}))

	feed(a, "n")
	require.NoError(t, a.Import(ctx, []string{path}))
	assert.Contains(t, out.String(), "Import cancelled")

	feed(a, "y")
	require.NoError(t, a.Import(ctx, []string{path}))
	assert.Contains(t, out.String(), "Successfully imported 1 records")

	items, err := a.vault.Tasks.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Keep me", items[0].Title)
}

func TestApp_ImportRejectsBadFile(t *testing.T) {
	a, _ := newTestApp(t)
	unlocked(t, a)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tasks": 3}`), 0o600))

	err := a.Import(context.Background(), []string{path})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(describeError(err), "Not a valid backup file"))
}

func TestApp_WipeNeedsConfirmation(t *testing.T) {
	a, out := newTestApp(t, "wipe", "n", "wipe", "y", "exit")
	unlocked(t, a)

	require.NoError(t, a.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "Error: Cancelled")
	assert.Contains(t, got, "All data erased. Type 'setup' to create a new PIN.")
	assert.Equal(t, services.AwaitingSetup, a.state())
}
