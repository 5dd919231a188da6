package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/client/models"
	"github.com/dmitrijs2005/lifevault/internal/client/storage"
	"github.com/dmitrijs2005/lifevault/internal/common"
	"github.com/dmitrijs2005/lifevault/internal/dbx"
	"github.com/dmitrijs2005/lifevault/internal/logging"
	"github.com/dmitrijs2005/lifevault/internal/timex"
	"golang.org/x/sync/errgroup"
)

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// FileSaver writes an exported document and returns where it went.
type FileSaver interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// ExportResult is a serialized backup plus the records that were left out.
type ExportResult struct {
	Document *models.BackupDocument
	Data     []byte
	Warnings []string
}

type ImportResult struct {
	Success       bool
	Message       string
	ImportedCount int
}

type BackupOptions struct {
	AppName      string
	MaxFileBytes int64
}

// BackupEngine exports the whole store to one JSON document and restores
// it from one.
type BackupEngine struct {
	store   *storage.Store
	keys    KeySource
	appName string
	maxFile int64
	now     func() time.Time
	log     logging.Logger

	onRestore []func()
}

// NewBackupEngine builds an engine over store. keys opens encrypted
// payloads on export and may be nil, in which case encrypted records are
// skipped.
func NewBackupEngine(store *storage.Store, keys KeySource, opts BackupOptions, log logging.Logger) *BackupEngine {
	if opts.AppName == "" {
		opts.AppName = common.AppName
	}
	return &BackupEngine{
		store:   store,
		keys:    keys,
		appName: opts.AppName,
		maxFile: opts.MaxFileBytes,
		now:     timex.Now,
		log:     log.With("component", "backup"),
	}
}

// OnRestore registers fn to run after an import has written to the
// store, whether or not it succeeded.
func (b *BackupEngine) OnRestore(fn func()) {
	b.onRestore = append(b.onRestore, fn)
}

// FileName is the conventional name of a backup taken at now.
func (b *BackupEngine) FileName(now time.Time) string {
	return fmt.Sprintf("%s-backup-%s.json", b.appName, now.Format(time.DateOnly))
}

// Size reports the number of records per collection.
func (b *BackupEngine) Size(ctx context.Context) (models.Counts, error) {
	return b.store.Counts(ctx)
}

// Export reads the four collections concurrently and assembles the
// document. A record whose payload cannot be encoded is left out and
// reported in Warnings; the export still succeeds.
func (b *BackupEngine) Export(ctx context.Context) (*ExportResult, error) {
	var (
		tasks    []models.Task
		txs      []models.Transaction
		contacts []models.Contact
		records  []models.FileRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tasks, err = b.store.Tasks.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		txs, err = b.store.Transactions.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		contacts, err = b.store.Contacts.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		records, err = b.store.Records.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	encoded, warnings := b.encodeRecords(ctx, records)

	doc := &models.BackupDocument{
		Version:      common.BackupFormatVersion,
		ExportedAt:   b.now(),
		Tasks:        tasks,
		Transactions: txs,
		Contacts:     contacts,
		Records:      encoded,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	b.log.Info(ctx, "backup exported", "records", doc.Counts().Total(), "skipped", len(warnings))
	return &ExportResult{Document: doc, Data: data, Warnings: warnings}, nil
}

// ExportTo exports and hands the document to saver under FileName.
func (b *BackupEngine) ExportTo(ctx context.Context, saver FileSaver) (string, *ExportResult, error) {
	res, err := b.Export(ctx)
	if err != nil {
		return "", nil, err
	}
	where, err := saver.Save(ctx, b.FileName(res.Document.ExportedAt), res.Data)
	if err != nil {
		return "", res, fmt.Errorf("save backup: %w", err)
	}
	return where, res, nil
}

func (b *BackupEngine) encodeRecords(ctx context.Context, records []models.FileRecord) ([]models.BackupRecord, []string) {
	out := make([]models.BackupRecord, 0, len(records))
	var warnings []string

	var pin []byte
	defer func() { common.WipeByteArray(pin) }()

	for _, rec := range records {
		if rec.Encrypted && pin == nil && b.keys != nil {
			pin, _ = b.keys.SessionPIN()
		}

		br, err := b.encodeRecord(rec, pin)
		if err != nil {
			msg := fmt.Sprintf("record %q (#%d) skipped: %v", rec.Title, rec.ID, err)
			b.log.Warn(ctx, "record skipped during export", "id", rec.ID, "error", err)
			warnings = append(warnings, msg)
			continue
		}
		out = append(out, br)
	}
	return out, warnings
}

func (b *BackupEngine) encodeRecord(rec models.FileRecord, pin []byte) (models.BackupRecord, error) {
	if rec.Encrypted && pin == nil {
		return models.BackupRecord{}, common.ErrLocked
	}
	plain, err := openPayload(rec, pin)
	if err != nil {
		return models.BackupRecord{}, err
	}
	if b.maxFile > 0 && int64(len(plain)) > b.maxFile {
		return models.BackupRecord{}, fmt.Errorf("payload of %d bytes exceeds %d", len(plain), b.maxFile)
	}

	var sb strings.Builder
	sb.Grow(base64.StdEncoding.EncodedLen(len(plain)))
	enc := base64.NewEncoder(base64.StdEncoding, &sb)
	if _, err := enc.Write(plain); err != nil {
		return models.BackupRecord{}, err
	}
	if err := enc.Close(); err != nil {
		return models.BackupRecord{}, err
	}

	return models.BackupRecord{
		ID:             rec.ID,
		Title:          rec.Title,
		MimeType:       rec.MimeType,
		CreatedAt:      rec.CreatedAt,
		FileDataBase64: sb.String(),
	}, nil
}

// rawDocument defers decoding of the collections until the shape has been
// checked.
type rawDocument struct {
	Version      json.RawMessage `json:"version"`
	ExportedAt   json.RawMessage `json:"exportedAt"`
	Tasks        json.RawMessage `json:"tasks"`
	Transactions json.RawMessage `json:"transactions"`
	Contacts     json.RawMessage `json:"contacts"`
	Records      json.RawMessage `json:"records"`
}

// Snapshot is a decoded document ready to be written to the store.
type Snapshot struct {
	Version      string
	ExportedAt   time.Time
	Tasks        []models.Task
	Transactions []models.Transaction
	Contacts     []models.Contact
	Records      []models.FileRecord
}

func (s *Snapshot) Counts() models.Counts {
	return models.Counts{
		Tasks:        len(s.Tasks),
		Transactions: len(s.Transactions),
		Contacts:     len(s.Contacts),
		Records:      len(s.Records),
	}
}

func isArray(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '['
}

func formatError(msg string, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrFormat, msg, err)
	}
	return fmt.Errorf("%w: %s", common.ErrFormat, msg)
}

// documentVersion returns the version as text. Absent, null, empty,
// false and zero versions are rejected; other scalars are accepted as
// written.
func documentVersion(raw json.RawMessage) (string, bool) {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return "", false
	}
	var v any
	if err := json.Unmarshal(t, &v); err != nil {
		return "", false
	}
	switch v := v.(type) {
	case string:
		v = strings.TrimSpace(v)
		return v, v != ""
	case float64:
		return string(t), v != 0
	case bool:
		return "true", v
	}
	return "", false
}

// decodeArray fills dst from raw when raw is a JSON array; anything else
// leaves dst empty.
func decodeArray[T any](raw json.RawMessage, name string, dst *[]T) error {
	*dst = []T{}
	if !isArray(raw) {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return formatError(name, err)
	}
	return nil
}

// ParseDocument decodes a backup document, payloads included. It fails
// with common.ErrFormat when the input is not JSON, has no version, or
// carries none of the collections as an array.
func ParseDocument(r io.Reader) (*Snapshot, error) {
	dec := json.NewDecoder(r)
	var raw rawDocument
	if err := dec.Decode(&raw); err != nil {
		return nil, formatError("not a backup document", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, formatError("trailing data after document", err)
	}
	version, ok := documentVersion(raw.Version)
	if !ok {
		return nil, formatError("missing version", nil)
	}
	if !isArray(raw.Tasks) && !isArray(raw.Transactions) && !isArray(raw.Contacts) && !isArray(raw.Records) {
		return nil, formatError("no collections found", nil)
	}

	s := &Snapshot{Version: version}
	if len(raw.ExportedAt) > 0 {
		// informational only
		_ = json.Unmarshal(raw.ExportedAt, &s.ExportedAt)
	}

	if err := decodeArray(raw.Tasks, "tasks", &s.Tasks); err != nil {
		return nil, err
	}
	if err := decodeArray(raw.Transactions, "transactions", &s.Transactions); err != nil {
		return nil, err
	}
	if err := decodeArray(raw.Contacts, "contacts", &s.Contacts); err != nil {
		return nil, err
	}

	var recs []models.BackupRecord
	if err := decodeArray(raw.Records, "records", &recs); err != nil {
		return nil, err
	}
	s.Records = make([]models.FileRecord, 0, len(recs))
	for i, br := range recs {
		data, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, strings.NewReader(br.FileDataBase64)))
		if err != nil {
			return nil, formatError(fmt.Sprintf("records[%d] payload", i), err)
		}
		s.Records = append(s.Records, models.FileRecord{
			ID:        br.ID,
			Title:     br.Title,
			Data:      data,
			MimeType:  br.MimeType,
			CreatedAt: br.CreatedAt,
		})
	}
	return s, nil
}

// Import replaces the store with the document read from r once confirm
// agrees. Parsing and payload decoding finish before anything is written.
//
// The restore is not atomic: the collections are cleared first, then each
// one is written in its own transaction. A failure part way leaves the
// collections restored so far in place and the rest empty; ImportedCount
// reports how many records made it.
func (b *BackupEngine) Import(ctx context.Context, r io.Reader, confirm Confirmer) (ImportResult, error) {
	snap, err := ParseDocument(r)
	if err != nil {
		return ImportResult{Success: false, Message: err.Error()}, err
	}

	total := snap.Counts().Total()
	prompt := fmt.Sprintf("Importing will replace ALL current data with %d records from the backup. Continue?", total)
	ok, err := confirm.Confirm(ctx, prompt)
	if err != nil {
		return ImportResult{Success: false, Message: err.Error()}, err
	}
	if !ok {
		return ImportResult{Success: false, Message: "Import cancelled"}, common.ErrCancelled
	}

	n, err := b.restore(ctx, snap)
	for _, fn := range b.onRestore {
		fn()
	}
	if err != nil {
		b.log.Error(ctx, "import failed", "imported", n, "error", err)
		return ImportResult{Success: false, Message: "Import failed: " + err.Error(), ImportedCount: n}, err
	}

	b.log.Info(ctx, "backup imported", "records", n)
	return ImportResult{
		Success:       true,
		Message:       fmt.Sprintf("Successfully imported %d records", n),
		ImportedCount: n,
	}, nil
}

func (b *BackupEngine) restore(ctx context.Context, snap *Snapshot) (int, error) {
	// Reminders are keyed by task id and the backup carries ids, so the
	// old ones go with the collections.
	if err := b.store.ClearAll(ctx, nil, []string{common.ReminderKeyPrefix}); err != nil {
		return 0, fmt.Errorf("clear: %w", err)
	}

	steps := []struct {
		name   models.Collection
		insert func(ctx context.Context, tx *storage.Store) (int, error)
	}{
		{models.CollectionTasks, func(ctx context.Context, tx *storage.Store) (int, error) {
			return tx.Tasks.BulkInsert(ctx, snap.Tasks)
		}},
		{models.CollectionTransactions, func(ctx context.Context, tx *storage.Store) (int, error) {
			return tx.Transactions.BulkInsert(ctx, snap.Transactions)
		}},
		{models.CollectionContacts, func(ctx context.Context, tx *storage.Store) (int, error) {
			return tx.Contacts.BulkInsert(ctx, snap.Contacts)
		}},
		{models.CollectionRecords, func(ctx context.Context, tx *storage.Store) (int, error) {
			return tx.Records.BulkInsert(ctx, snap.Records)
		}},
	}

	total := 0
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		var n int
		err := b.store.WithTx(ctx, func(ctx context.Context, tx *storage.Store) error {
			var err error
			n, err = st.insert(ctx, tx)
			return err
		})
		if dbx.IsConstraintViolation(err) {
			return total, fmt.Errorf("restore %s: duplicate id in backup: %w", st.name, err)
		}
		if err != nil {
			return total, fmt.Errorf("restore %s: %w", st.name, err)
		}
		total += n
	}
	return total, nil
}
