package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/lifevault/internal/client/validation"
	"github.com/dmitrijs2005/lifevault/internal/filex"
	"github.com/gabriel-vasile/mimetype"
)

const (
	recordsUsage = "records [add <path> [title] | open <id> [dir] | rename <id> | rm <id>]"
	openDir      = "download"
)

func (a *App) Records(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.listRecords(ctx)
	}
	rest := args[1:]
	switch args[0] {
	case "add":
		return a.addRecord(ctx, rest)
	case "open", "get":
		return a.openRecord(ctx, rest)
	case "rename":
		return a.renameRecord(ctx, rest)
	case "rm", "delete":
		return a.deleteRecord(ctx, rest)
	}
	return usageError(recordsUsage)
}

func (a *App) listRecords(ctx context.Context) error {
	items, err := a.vault.Records.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		a.println("No records yet. Add one with 'records add <path>'.")
		return nil
	}
	a.println(Heading.Sprintf("Records (%d)", len(items)))
	for _, r := range items {
		a.printf("  #%-4d %s %s\n", r.ID, r.Title,
			Muted.Sprint(r.MimeType+", "+formatDate(r.CreatedAt, a.loc)))
	}
	return nil
}

// readUpload reads at most one byte past the size limit so oversized files
// are rejected by validation without loading them whole.
func readUpload(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, validation.MaxFileSize+1))
}

func (a *App) addRecord(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("records add <path> [title]")
	}
	path := args[0]
	data, err := readUpload(path)
	if err != nil {
		return err
	}

	title := strings.Join(args[1:], " ")
	if title == "" {
		base := filepath.Base(path)
		if title, err = a.askDefault("Title", strings.TrimSuffix(base, filepath.Ext(base))); err != nil {
			return err
		}
	}

	rec, err := a.vault.Records.Add(ctx, title, data, "")
	if err != nil {
		return err
	}
	a.println(Success.Sprintf("Stored record #%d (%s).", rec.ID, rec.MimeType))
	return nil
}

// fileName turns a record title into a file name with an extension for
// mime.
func fileName(title, mime string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, strings.TrimSpace(title))
	if name == "" {
		name = "record"
	}
	if m := mimetype.Lookup(mime); m != nil && !strings.HasSuffix(strings.ToLower(name), m.Extension()) {
		name += m.Extension()
	}
	return name
}

func (a *App) openRecord(ctx context.Context, args []string) error {
	id, err := parseID(args, "records open <id> [dir]")
	if err != nil {
		return err
	}
	dir := openDir
	if len(args) > 1 {
		dir = args[1]
	}

	rec, err := a.vault.Records.Open(ctx, id)
	if err != nil {
		return err
	}
	where, err := filex.WriteFileAtomic(dir, fileName(rec.Title, rec.MimeType), rec.Data)
	if err != nil {
		return err
	}
	a.println(Success.Sprint("Saved to ") + where)
	return nil
}

func (a *App) renameRecord(ctx context.Context, args []string) error {
	id, err := parseID(args, "records rename <id> [title]")
	if err != nil {
		return err
	}
	title := strings.Join(args[1:], " ")
	if title == "" {
		if title, err = a.ask("New title"); err != nil {
			return err
		}
	}
	if _, err := a.vault.Records.Rename(ctx, id, title); err != nil {
		return err
	}
	a.println(Success.Sprintf("Record #%d renamed.", id))
	return nil
}

func (a *App) deleteRecord(ctx context.Context, args []string) error {
	id, err := parseID(args, "records rm <id>")
	if err != nil {
		return err
	}
	if err := a.vault.Records.Delete(ctx, id); err != nil {
		return err
	}
	a.printDeleted("Record", id)
	return nil
}

