package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/client/config"
	"github.com/dmitrijs2005/lifevault/internal/client/services"
	"github.com/dmitrijs2005/lifevault/internal/client/storage"
	"github.com/dmitrijs2005/lifevault/internal/filex"
	"github.com/dmitrijs2005/lifevault/internal/logging"
)

// App is the terminal client: one store, the vault services over it and
// the REPL that drives them.
type App struct {
	config   *config.Config
	store    *storage.Store
	vault    *services.Vault
	notifier *termNotifier
	log      logging.Logger

	reader *bufio.Reader
	out    io.Writer
	// stdinFd is the descriptor PINs are read from without echo; -1 reads
	// them as plain lines.
	stdinFd     int
	interactive bool

	now func() time.Time
	loc *time.Location
}

// NewApp opens the database named by cfg and builds an App on stdin and
// stdout.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if _, err := filex.EnsureDir(filepath.Dir(cfg.DBPath)); err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.DBPath, log)
	if err != nil {
		log.Error(ctx, "error opening database", "path", cfg.DBPath, "error", err)
		return nil, err
	}

	a := newApp(cfg, store, os.Stdin, os.Stdout, log)
	a.stdinFd = int(os.Stdin.Fd())
	a.interactive = isTerminal(a.stdinFd)
	return a, nil
}

func newApp(cfg *config.Config, store *storage.Store, in io.Reader, out io.Writer, log logging.Logger) *App {
	a := &App{
		config:  cfg,
		store:   store,
		log:     log,
		reader:  bufio.NewReader(in),
		out:     &syncWriter{w: out},
		stdinFd: -1,
		now:     time.Now,
		loc:     time.Local,
	}
	a.notifier = newTermNotifier(func(_ int64, title string) {
		fmt.Fprintln(a.out, Warning.Sprint("Reminder: ")+title)
	})
	a.vault = services.NewVault(store, services.VaultOptions{
		AppName:            cfg.AppName,
		UndoWindow:         cfg.UndoWindow,
		EncryptFiles:       cfg.EncryptFiles,
		MaxExportFileBytes: cfg.MaxExportFileBytes,
		CacheSize:          cfg.CacheSize,
		CacheTTL:           cfg.CacheTTL,
	}, a.notifier, log)
	return a
}

func (a *App) state() services.GateState {
	return a.vault.Gate.State()
}

func (a *App) status() string {
	return a.state().String()
}

func (a *App) onTransition(t services.Transition) {
	switch t.To {
	case services.Unlocked:
		fmt.Fprintln(a.out, Success.Sprint("Vault unlocked."))
	case services.Locked:
		fmt.Fprintln(a.out, Warning.Sprint("Vault locked."))
	case services.AwaitingSetup:
		if t.From != services.Uninitialized {
			fmt.Fprintln(a.out, Warning.Sprint("All data erased. Type 'setup' to create a new PIN."))
		}
	}
}

// Run probes the credential, asks for the PIN once and then runs the REPL
// until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.vault.Gate.Init(ctx); err != nil {
		return err
	}
	cancel := a.vault.Gate.Subscribe(a.onTransition)
	defer cancel()

	fmt.Fprintln(a.out, Info.Sprint("LifeVault")+" "+Muted.Sprint("type 'help' for commands"))

	var err error
	switch a.state() {
	case services.AwaitingSetup:
		fmt.Fprintln(a.out, "No PIN is set yet.")
		err = a.Setup(ctx, nil)
	case services.Locked:
		err = a.Unlock(ctx, nil)
	}
	if err != nil {
		fmt.Fprintln(a.out, Error.Sprint("Error: ")+describeError(err))
	}

	runREPL(ctx, a, a.status, a.reader, a.out)
	return nil
}

// Close stops pending reminders and closes the store.
func (a *App) Close() error {
	a.notifier.Stop()
	a.vault.Close()
	return a.store.Close()
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) ask(prompt string) (string, error) {
	return GetSimpleText(a.reader, prompt, a.out)
}

func (a *App) askDefault(prompt, current string) (string, error) {
	return GetWithDefault(a.reader, prompt, current, a.out)
}

func (a *App) confirm(ctx context.Context, prompt string) (bool, error) {
	return promptConfirmer{reader: a.reader, w: a.out}.Confirm(ctx, prompt)
}
