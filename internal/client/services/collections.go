package services

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/client/models"
	"github.com/dmitrijs2005/lifevault/internal/client/storage"
	"github.com/dmitrijs2005/lifevault/internal/client/validation"
	"github.com/dmitrijs2005/lifevault/internal/common"
	"github.com/dmitrijs2005/lifevault/internal/cryptox"
	"github.com/dmitrijs2005/lifevault/internal/dbx"
	"github.com/dmitrijs2005/lifevault/internal/logging"
	"github.com/dmitrijs2005/lifevault/internal/timex"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// repository is the part of a collection repository the services share.
type repository[T any] interface {
	Add(ctx context.Context, item *T) error
	Insert(ctx context.Context, item *T) error
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context) ([]T, error)
}

// collection runs every repository call behind the guard.
type collection[T any] struct {
	name  models.Collection
	guard Guard
	repo  repository[T]
}

func (c collection[T]) list(ctx context.Context) ([]T, error) {
	if err := c.guard.RequireUnlocked(); err != nil {
		return nil, err
	}
	items, err := c.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	return items, nil
}

func (c collection[T]) get(ctx context.Context, id int64) (*T, error) {
	if err := c.guard.RequireUnlocked(); err != nil {
		return nil, err
	}
	item, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get %s #%d: %w", c.name, id, err)
	}
	return item, nil
}

func (c collection[T]) add(ctx context.Context, item *T) error {
	if err := c.guard.RequireUnlocked(); err != nil {
		return err
	}
	if err := c.repo.Add(ctx, item); err != nil {
		return fmt.Errorf("add %s: %w", c.name, err)
	}
	return nil
}

// update loads the item, applies change and writes the result back.
func (c collection[T]) update(ctx context.Context, id int64, change func(T) (T, error)) (*T, error) {
	cur, err := c.get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := change(*cur)
	if err != nil {
		return nil, err
	}
	if err := c.repo.Update(ctx, &next); err != nil {
		return nil, fmt.Errorf("update %s #%d: %w", c.name, id, err)
	}
	return &next, nil
}

// remove deletes the item and returns what was stored.
func (c collection[T]) remove(ctx context.Context, id int64) (*T, error) {
	cur, err := c.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete %s #%d: %w", c.name, id, err)
	}
	return cur, nil
}

func (c collection[T]) restore(ctx context.Context, item *T) error {
	if err := c.repo.Insert(ctx, item); err != nil {
		if dbx.IsConstraintViolation(err) {
			return fmt.Errorf("restore %s: %w: %w", c.name, common.ErrIDTaken, err)
		}
		return fmt.Errorf("restore %s: %w", c.name, err)
	}
	return nil
}

// TaskGroups splits tasks the way the task list shows them.
type TaskGroups struct {
	Overdue   []models.Task
	Today     []models.Task
	Upcoming  []models.Task
	Completed []models.Task
}

type deletedTask struct {
	Task     models.Task
	Reminder *time.Time
}

type TaskService struct {
	col       collection[models.Task]
	undo      *UndoBuffer
	reminders *ReminderService
}

func NewTaskService(store *storage.Store, guard Guard, undo *UndoBuffer, reminders *ReminderService) *TaskService {
	s := &TaskService{
		col:       collection[models.Task]{name: models.CollectionTasks, guard: guard, repo: store.Tasks},
		undo:      undo,
		reminders: reminders,
	}
	RegisterRestorer(undo, models.CollectionTasks, s.restore)
	return s
}

// List returns open tasks first, each group by due date.
func (s *TaskService) List(ctx context.Context) ([]models.Task, error) {
	items, err := s.col.list(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(items, func(a, b models.Task) int {
		if a.Completed != b.Completed {
			if a.Completed {
				return 1
			}
			return -1
		}
		return a.DueDate.Compare(b.DueDate)
	})
	return items, nil
}

// Add creates a task due on due. A non-nil remindAt is stored and
// scheduled.
func (s *TaskService) Add(ctx context.Context, title string, due time.Time, remindAt *time.Time) (*models.Task, error) {
	if err := validation.ValidateTask(title); err != nil {
		return nil, err
	}
	t := &models.Task{
		Title:     strings.TrimSpace(title),
		DueDate:   due.UTC().Truncate(time.Millisecond),
		CreatedAt: timex.Now(),
	}
	if err := s.col.add(ctx, t); err != nil {
		return nil, err
	}
	if remindAt != nil {
		if err := s.reminders.Set(ctx, t.ID, t.Title, *remindAt); err != nil {
			return t, err
		}
	}
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	return s.col.update(ctx, id, func(t models.Task) (models.Task, error) {
		t = patch.Apply(t)
		if err := validation.ValidateTask(t.Title); err != nil {
			return t, err
		}
		t.Title = strings.TrimSpace(t.Title)
		t.DueDate = t.DueDate.UTC().Truncate(time.Millisecond)
		return t, nil
	})
}

// Toggle flips the completed flag.
func (s *TaskService) Toggle(ctx context.Context, id int64) (*models.Task, error) {
	return s.col.update(ctx, id, func(t models.Task) (models.Task, error) {
		t.Completed = !t.Completed
		return t, nil
	})
}

// Delete removes the task and its reminder. Both come back on undo.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	t, err := s.col.remove(ctx, id)
	if err != nil {
		return err
	}

	d := &deletedTask{Task: *t}
	if at, ok, err := s.reminders.Get(ctx, id); err == nil && ok {
		d.Reminder = &at
	}
	if err := s.reminders.Cancel(ctx, id); err != nil {
		return err
	}

	s.undo.Push(models.CollectionTasks, id, d)
	return nil
}

func (s *TaskService) restore(ctx context.Context, d *deletedTask) error {
	t := d.Task
	if err := s.col.restore(ctx, &t); err != nil {
		return err
	}
	if d.Reminder != nil {
		return s.reminders.Set(ctx, t.ID, t.Title, *d.Reminder)
	}
	return nil
}

// Groups sorts tasks into overdue, today, upcoming and completed relative
// to the day of now in now's location.
func (s *TaskService) Groups(ctx context.Context, now time.Time) (TaskGroups, error) {
	items, err := s.List(ctx)
	if err != nil {
		return TaskGroups{}, err
	}

	loc := now.Location()
	today := timex.StartOfDay(now, loc)

	var g TaskGroups
	for _, t := range items {
		due := timex.StartOfDay(t.DueDate, loc)
		switch {
		case t.Completed:
			g.Completed = append(g.Completed, t)
		case due.Before(today):
			g.Overdue = append(g.Overdue, t)
		case due.Equal(today):
			g.Today = append(g.Today, t)
		default:
			g.Upcoming = append(g.Upcoming, t)
		}
	}
	return g, nil
}

// MoneyOverview holds the totals shown on the money screen.
type MoneyOverview struct {
	Today MoneySummaryPeriod
	Week  MoneySummaryPeriod
	All   MoneySummaryPeriod
}

type MoneySummaryPeriod struct {
	From time.Time
	models.MoneySummary
}

type TransactionService struct {
	col   collection[models.Transaction]
	store *storage.Store
	undo  *UndoBuffer
}

func NewTransactionService(store *storage.Store, guard Guard, undo *UndoBuffer) *TransactionService {
	s := &TransactionService{
		col:   collection[models.Transaction]{name: models.CollectionTransactions, guard: guard, repo: store.Transactions},
		store: store,
		undo:  undo,
	}
	RegisterRestorer(undo, models.CollectionTransactions, s.col.restore)
	return s
}

// List returns transactions newest first.
func (s *TransactionService) List(ctx context.Context) ([]models.Transaction, error) {
	items, err := s.col.list(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(items, func(a, b models.Transaction) int {
		return b.Date.Compare(a.Date)
	})
	return items, nil
}

// Add records tx. A zero Date means now.
func (s *TransactionService) Add(ctx context.Context, tx models.Transaction) (*models.Transaction, error) {
	if err := validation.ValidateTransaction(tx.Kind, tx.Amount, tx.Category); err != nil {
		return nil, err
	}
	now := timex.Now()
	tx.ID = 0
	tx.Category = strings.TrimSpace(tx.Category)
	tx.Notes = strings.TrimSpace(tx.Notes)
	if tx.Date.IsZero() {
		tx.Date = now
	}
	tx.Date = tx.Date.UTC().Truncate(time.Millisecond)
	tx.CreatedAt = now

	if err := s.col.add(ctx, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *TransactionService) Update(ctx context.Context, id int64, patch models.TransactionPatch) (*models.Transaction, error) {
	return s.col.update(ctx, id, func(tx models.Transaction) (models.Transaction, error) {
		tx = patch.Apply(tx)
		if err := validation.ValidateTransaction(tx.Kind, tx.Amount, tx.Category); err != nil {
			return tx, err
		}
		tx.Category = strings.TrimSpace(tx.Category)
		tx.Date = tx.Date.UTC().Truncate(time.Millisecond)
		return tx, nil
	})
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	tx, err := s.col.remove(ctx, id)
	if err != nil {
		return err
	}
	s.undo.Push(models.CollectionTransactions, id, tx)
	return nil
}

// Overview totals today, the current week (from Sunday) and all time,
// with days taken in now's location.
func (s *TransactionService) Overview(ctx context.Context, now time.Time) (MoneyOverview, error) {
	if err := s.col.guard.RequireUnlocked(); err != nil {
		return MoneyOverview{}, err
	}

	today := timex.StartOfDay(now, now.Location())
	tomorrow := today.AddDate(0, 0, 1)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))

	var out MoneyOverview
	for _, p := range []struct {
		dst  *MoneySummaryPeriod
		from time.Time
	}{
		{&out.Today, today},
		{&out.Week, weekStart},
	} {
		txs, err := s.store.Transactions.ListBetween(ctx, p.from, tomorrow)
		if err != nil {
			return MoneyOverview{}, fmt.Errorf("money overview: %w", err)
		}
		*p.dst = MoneySummaryPeriod{From: p.from, MoneySummary: models.Summarize(txs)}
	}

	all, err := s.store.Transactions.List(ctx)
	if err != nil {
		return MoneyOverview{}, fmt.Errorf("money overview: %w", err)
	}
	out.All = MoneySummaryPeriod{MoneySummary: models.Summarize(all)}
	return out, nil
}

type ContactService struct {
	col   collection[models.Contact]
	store *storage.Store
	undo  *UndoBuffer
}

func NewContactService(store *storage.Store, guard Guard, undo *UndoBuffer) *ContactService {
	s := &ContactService{
		col:   collection[models.Contact]{name: models.CollectionContacts, guard: guard, repo: store.Contacts},
		store: store,
		undo:  undo,
	}
	RegisterRestorer(undo, models.CollectionContacts, s.col.restore)
	return s
}

func byName(a, b models.Contact) int {
	return cmp.Or(
		cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
		cmp.Compare(a.ID, b.ID),
	)
}

// List returns contacts by name.
func (s *ContactService) List(ctx context.Context) ([]models.Contact, error) {
	items, err := s.col.list(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(items, byName)
	return items, nil
}

// Search matches query, ignoring case, against name and role, and its
// digits against the phone.
func (s *ContactService) Search(ctx context.Context, query string) ([]models.Contact, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items, nil
	}
	digits := validation.NormalizePhone(q)

	out := items[:0]
	for _, c := range items {
		if strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Role), q) ||
			(digits != "" && strings.Contains(validation.NormalizePhone(c.Phone), digits)) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Add stores c unless another contact already has the same phone digits.
func (s *ContactService) Add(ctx context.Context, c models.Contact) (*models.Contact, error) {
	if err := validation.ValidateContact(c.Name, c.Phone); err != nil {
		return nil, err
	}
	if err := s.col.guard.RequireUnlocked(); err != nil {
		return nil, err
	}

	c.ID = 0
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Role = strings.TrimSpace(c.Role)
	c.Notes = strings.TrimSpace(c.Notes)
	c.CreatedAt = timex.Now()

	existing, err := s.store.Contacts.FindByPhone(ctx, c.Phone)
	if err != nil {
		return nil, fmt.Errorf("check phone: %w", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("contact with this phone number already exists: %w", common.ErrDuplicate)
	}

	if err := s.col.add(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Update applies patch. The phone is not checked for duplicates here.
func (s *ContactService) Update(ctx context.Context, id int64, patch models.ContactPatch) (*models.Contact, error) {
	return s.col.update(ctx, id, func(c models.Contact) (models.Contact, error) {
		c = patch.Apply(c)
		if err := validation.ValidateContact(c.Name, c.Phone); err != nil {
			return c, err
		}
		c.Name = strings.TrimSpace(c.Name)
		c.Phone = strings.TrimSpace(c.Phone)
		return c, nil
	})
}

func (s *ContactService) Delete(ctx context.Context, id int64) error {
	c, err := s.col.remove(ctx, id)
	if err != nil {
		return err
	}
	s.undo.Push(models.CollectionContacts, id, c)
	return nil
}

// SessionGuard is a Guard that also knows the session PIN.
type SessionGuard interface {
	Guard
	KeySource
}

// RecordService stores documents. With encryption on, payloads are sealed
// with the session PIN; opened payloads are cached in memory until the
// vault locks.
type RecordService struct {
	col     collection[models.FileRecord]
	store   *storage.Store
	keys    KeySource
	undo    *UndoBuffer
	encrypt bool
	cache   *expirable.LRU[int64, []byte]
	log     logging.Logger
}

type RecordOptions struct {
	Encrypt   bool
	CacheSize int
	CacheTTL  time.Duration
}

func NewRecordService(store *storage.Store, gate SessionGuard, undo *UndoBuffer, opts RecordOptions, log logging.Logger) *RecordService {
	size := opts.CacheSize
	if size <= 0 {
		size = 1
	}
	s := &RecordService{
		col:     collection[models.FileRecord]{name: models.CollectionRecords, guard: gate, repo: store.Records},
		store:   store,
		keys:    gate,
		undo:    undo,
		encrypt: opts.Encrypt,
		cache:   expirable.NewLRU[int64, []byte](size, nil, opts.CacheTTL),
		log:     log.With("component", "records"),
	}
	RegisterRestorer(undo, models.CollectionRecords, s.col.restore)
	return s
}

// List returns records without payloads, newest first.
func (s *RecordService) List(ctx context.Context) ([]models.FileRecord, error) {
	if err := s.col.guard.RequireUnlocked(); err != nil {
		return nil, err
	}
	items, err := s.store.Records.ListSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return items, nil
}

// Add stores data under title. An empty mimeType is sniffed from data.
func (s *RecordService) Add(ctx context.Context, title string, data []byte, mimeType string) (*models.FileRecord, error) {
	if mimeType == "" {
		mimeType = validation.DetectMime(data)
	}
	if err := validation.ValidateRecord(title, int64(len(data)), mimeType); err != nil {
		return nil, err
	}

	rec := &models.FileRecord{
		Title:     strings.TrimSpace(title),
		Data:      data,
		MimeType:  mimeType,
		CreatedAt: timex.Now(),
	}
	if s.encrypt {
		pin, err := s.keys.SessionPIN()
		if err != nil {
			return nil, err
		}
		sealed, err := cryptox.EncryptBlob(data, pin)
		common.WipeByteArray(pin)
		if err != nil {
			return nil, fmt.Errorf("seal record: %w", err)
		}
		rec.Data = sealed
		rec.Encrypted = true
	}

	if err := s.col.add(ctx, rec); err != nil {
		return nil, err
	}
	rec.Data = nil
	return rec, nil
}

func (s *RecordService) Rename(ctx context.Context, id int64, title string) (*models.FileRecord, error) {
	rec, err := s.col.update(ctx, id, func(r models.FileRecord) (models.FileRecord, error) {
		if err := validation.ValidateRecordTitle(title); err != nil {
			return r, err
		}
		return models.RecordPatch{Title: &title}.Apply(r), nil
	})
	if err != nil {
		return nil, err
	}
	rec.Data = nil
	return rec, nil
}

// Open returns the record with its plaintext payload. The returned record
// has Encrypted cleared since Data is no longer sealed.
func (s *RecordService) Open(ctx context.Context, id int64) (*models.FileRecord, error) {
	rec, err := s.col.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cache.Get(id); ok {
		rec.Data = bytes.Clone(cached)
		rec.Encrypted = false
		return rec, nil
	}

	if rec.Encrypted {
		pin, err := s.keys.SessionPIN()
		if err != nil {
			return nil, err
		}
		plain, err := openPayload(*rec, pin)
		common.WipeByteArray(pin)
		if err != nil {
			s.log.Warn(ctx, "record could not be opened", "id", id, "error", err)
			return nil, err
		}
		rec.Data = plain
		rec.Encrypted = false
	}

	s.cache.Add(id, bytes.Clone(rec.Data))
	return rec, nil
}

func (s *RecordService) Delete(ctx context.Context, id int64) error {
	rec, err := s.col.remove(ctx, id)
	if err != nil {
		return err
	}
	s.cache.Remove(id)
	s.undo.Push(models.CollectionRecords, id, rec)
	return nil
}

// Forget drops every cached payload.
func (s *RecordService) Forget() {
	s.cache.Purge()
}

// openPayload returns the plaintext of rec's payload.
func openPayload(rec models.FileRecord, pin []byte) ([]byte, error) {
	if !rec.Encrypted {
		return rec.Data, nil
	}
	return cryptox.DecryptBlob(rec.Data, pin, rec.MimeType)
}
