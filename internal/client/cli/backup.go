package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/dmitrijs2005/lifevault/internal/client/services"
	"github.com/dmitrijs2005/lifevault/internal/common"
	"github.com/dmitrijs2005/lifevault/internal/filex"
)

// dirSaver writes backups into a directory.
type dirSaver string

func (d dirSaver) Save(_ context.Context, name string, data []byte) (string, error) {
	return filex.WriteFileAtomic(string(d), name, data)
}

// spinnerConfirmer starts a spinner once the user has agreed, so the
// prompt itself is not drawn over.
type spinnerConfirmer struct {
	services.Confirmer
	w       io.Writer
	message string
	enabled bool
	stop    func()
}

func (c *spinnerConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	ok, err := c.Confirmer.Confirm(ctx, prompt)
	if ok && err == nil {
		_, c.stop = startSpinner(c.w, c.message, c.enabled)
	}
	return ok, err
}

func (c *spinnerConfirmer) done() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}

// Export writes a backup of every collection into the backup directory.
func (a *App) Export(ctx context.Context, _ []string) error {
	s, cleanup := startSpinner(a.out, "Exporting backup...", a.interactive)
	where, res, err := a.vault.Backup.ExportTo(ctx, dirSaver(a.config.BackupDir))
	if err == nil {
		s.FinalMSG = Success.Sprintf("Backup saved to %s (%d records).", where, res.Document.Counts().Total())
	}
	cleanup()
	if err != nil {
		return err
	}

	for _, w := range res.Warnings {
		a.println(Warning.Sprint("Skipped: ") + w)
	}
	return nil
}

// Import replaces every collection with the contents of a backup file
// after confirmation.
func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("import <file>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	c := &spinnerConfirmer{
		Confirmer: promptConfirmer{reader: a.reader, w: a.out},
		w:         a.out,
		message:   "Restoring backup...",
		enabled:   a.interactive,
	}
	res, err := a.vault.Backup.Import(ctx, f, c)
	c.done()

	switch {
	case errors.Is(err, common.ErrCancelled):
		a.println(Warning.Sprint(res.Message))
		return nil
	case err != nil:
		if res.ImportedCount > 0 {
			a.println(Warning.Sprintf("%d records were restored before the failure.", res.ImportedCount))
		}
		return err
	}
	a.println(Success.Sprint(res.Message))
	return nil
}

// Size prints how many records each collection holds.
func (a *App) Size(ctx context.Context, _ []string) error {
	c, err := a.vault.Backup.Size(ctx)
	if err != nil {
		return err
	}
	a.printf("Tasks:        %d\n", c.Tasks)
	a.printf("Transactions: %d\n", c.Transactions)
	a.printf("Contacts:     %d\n", c.Contacts)
	a.printf("Records:      %d\n", c.Records)
	a.println(Heading.Sprintf("Total:        %d", c.Total()))
	return nil
}
