package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/client/storage"
	"github.com/dmitrijs2005/lifevault/internal/logging"
	"github.com/stretchr/testify/require"
)

const testPIN = "1234"

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "vault.db"), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testOptions() VaultOptions {
	return VaultOptions{
		AppName:            "life-os",
		UndoWindow:         7 * time.Second,
		EncryptFiles:       true,
		MaxExportFileBytes: 1 << 20,
		CacheSize:          4,
		CacheTTL:           time.Minute,
	}
}

func newVault(t *testing.T, store *storage.Store, n Notifier) *Vault {
	t.Helper()
	v := NewVault(store, testOptions(), n, logging.Discard())
	t.Cleanup(v.Close)
	return v
}

// unlockedVault returns a vault over a fresh store with the PIN set.
func unlockedVault(t *testing.T) (*Vault, *storage.Store) {
	t.Helper()
	store := openStore(t)
	v := newVault(t, store, nil)
	ctx := context.Background()
	require.NoError(t, v.Gate.Init(ctx))
	require.NoError(t, v.Gate.SetCredential(ctx, testPIN))
	return v, store
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type scheduled struct {
	Title string
	At    time.Time
}

type fakeNotifier struct {
	mu        sync.Mutex
	scheduled map[int64]scheduled
	cancelled []int64
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{scheduled: map[int64]scheduled{}}
}

func (f *fakeNotifier) Schedule(id int64, title string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled[id] = scheduled{Title: title, At: at}
}

func (f *fakeNotifier) Cancel(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scheduled, id)
	f.cancelled = append(f.cancelled, id)
}

func (f *fakeNotifier) get(id int64) (scheduled, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.scheduled[id]
	return s, ok
}

type fakeConfirmer struct {
	answer  bool
	err     error
	prompts []string
}

func (f *fakeConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

type fakeSaver struct {
	name string
	data []byte
	err  error
}

func (f *fakeSaver) Save(_ context.Context, name string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.name, f.data = name, data
	return "/backups/" + name, nil
}

func timeOf(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return v.UTC()
}

func discardLogger() logging.Logger {
	return logging.Discard()
}
