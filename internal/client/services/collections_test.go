package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/client/models"
	"github.com/dmitrijs2005/lifevault/internal/client/validation"
	"github.com/dmitrijs2005/lifevault/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollections_RequireUnlocked(t *testing.T) {
	ctx := context.Background()
	v := newVault(t, openStore(t), nil)
	require.NoError(t, v.Gate.Init(ctx))

	_, err := v.Tasks.List(ctx)
	require.ErrorIs(t, err, common.ErrLocked)
	_, err = v.Tasks.Add(ctx, "x", time.Now(), nil)
	require.ErrorIs(t, err, common.ErrLocked)
	_, err = v.Transactions.Add(ctx, models.Transaction{Kind: models.Income, Amount: 1, Category: "gift"})
	require.ErrorIs(t, err, common.ErrLocked)
	_, err = v.Contacts.Add(ctx, models.Contact{Name: "Ada"})
	require.ErrorIs(t, err, common.ErrLocked)
	_, err = v.Records.List(ctx)
	require.ErrorIs(t, err, common.ErrLocked)
	require.ErrorIs(t, v.Contacts.Delete(ctx, 1), common.ErrLocked)
}

func TestTasks_AddListToggle(t *testing.T) {
	ctx := context.Background()
	v, _ := unlockedVault(t)

	later, err := v.Tasks.Add(ctx, "  file taxes ", timeOf(t, "2025-04-15T00:00:00Z"), nil)
	require.NoError(t, err)
	assert.Equal(t, "file taxes", later.Title)
	assert.NotZero(t, later.ID)

	sooner, err := v.Tasks.Add(ctx, "buy milk", timeOf(t, "2025-04-01T00:00:00Z"), nil)
	require.NoError(t, err)

	done, err := v.Tasks.Add(ctx, "call mum", timeOf(t, "2025-03-01T00:00:00Z"), nil)
	require.NoError(t, err)
	toggled, err := v.Tasks.Toggle(ctx, done.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	list, err := v.Tasks.List(ctx)
	require.NoError(t, err)
	var ids []int64
	for _, task := range list {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []int64{sooner.ID, later.ID, done.ID}, ids)

	_, err = v.Tasks.Add(ctx, "   ", time.Now(), nil)
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestTasks_Update(t *testing.T) {
	ctx := context.Background()
	v, _ := unlockedVault(t)

	task, err := v.Tasks.Add(ctx, "draft", timeOf(t, "2025-04-15T00:00:00Z"), nil)
	require.NoError(t, err)

	title := "final"
	due := timeOf(t, "2025-05-01T00:00:00Z")
	got, err := v.Tasks.Update(ctx, task.ID, models.TaskPatch{Title: &title, DueDate: &due})
	require.NoError(t, err)

	want := *task
	want.Title = "final"
	want.DueDate = due
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Fatalf("updated task mismatch (-want +got):\n%s", diff)
	}

	empty := ""
	_, err = v.Tasks.Update(ctx, task.ID, models.TaskPatch{Title: &empty})
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = v.Tasks.Update(ctx, 999, models.TaskPatch{Title: &title})
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestTasks_DeleteAndUndoKeepsIDAndReminder(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	n := newFakeNotifier()
	v := newVault(t, store, n)
	require.NoError(t, v.Gate.Init(ctx))
	require.NoError(t, v.Gate.SetCredential(ctx, testPIN))

	remind := timeOf(t, "2025-04-15T09:00:00Z")
	task, err := v.Tasks.Add(ctx, "dentist", timeOf(t, "2025-04-15T00:00:00Z"), &remind)
	require.NoError(t, err)
	_, ok := n.get(task.ID)
	require.True(t, ok)

	require.NoError(t, v.Tasks.Delete(ctx, task.ID))
	_, ok = n.get(task.ID)
	assert.False(t, ok)
	_, ok, err = v.Reminders.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	d, err := v.Undo.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CollectionTasks, d.Collection)
	assert.Equal(t, task.ID, d.OriginalID)

	back, err := store.Tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(*task, *back); diff != "" {
		t.Fatalf("restored task mismatch (-want +got):\n%s", diff)
	}

	at, ok, err := v.Reminders.Get(ctx, task.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, remind.Equal(at))
	_, ok = n.get(task.ID)
	assert.True(t, ok)
}

func TestTasks_UndoExpires(t *testing.T) {
	ctx := context.Background()
	v, store := unlockedVault(t)
	clock := &fakeClock{t: time.Now()}
	v.Undo.now = clock.Now

	task, err := v.Tasks.Add(ctx, "expired", time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, v.Tasks.Delete(ctx, task.ID))

	clock.Advance(8 * time.Second)
	_, err = v.Undo.Undo(ctx)
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.Tasks.Get(ctx, task.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestTasks_Groups(t *testing.T) {
	ctx := context.Background()
	v, _ := unlockedVault(t)
	now := time.Date(2025, 4, 10, 15, 30, 0, 0, time.UTC)

	add := func(title string, due time.Time) *models.Task {
		task, err := v.Tasks.Add(ctx, title, due, nil)
		require.NoError(t, err)
		return task
	}
	add("late", time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC))
	add("now", time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC))
	add("soon", time.Date(2025, 4, 11, 0, 0, 0, 0, time.UTC))
	done := add("done", time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC))
	_, err := v.Tasks.Toggle(ctx, done.ID)
	require.NoError(t, err)

	g, err := v.Tasks.Groups(ctx, now)
	require.NoError(t, err)

	titles := func(ts []models.Task) []string {
		var out []string
		for _, task := range ts {
			out = append(out, task.Title)
		}
		return out
	}
	assert.Equal(t, []string{"late"}, titles(g.Overdue))
	assert.Equal(t, []string{"now"}, titles(g.Today))
	assert.Equal(t, []string{"soon"}, titles(g.Upcoming))
	assert.Equal(t, []string{"done"}, titles(g.Completed))
}

func TestTransactions_AddValidatesAndDefaultsDate(t *testing.T) {
	ctx := context.Background()
	v, _ := unlockedVault(t)

	tx, err := v.Transactions.Add(ctx, models.Transaction{Kind: models.Expense, Amount: 2500, Category: " food "})
	require.NoError(t, err)
	assert.Equal(t, "food", tx.Category)
	assert.False(t, tx.Date.IsZero())

	for _, bad := range []models.Transaction{
		{Kind: models.Expense, Amount: 0, Category: "food"},
		{Kind: models.Expense, Amount: 1_000_001, Category: "food"},
		{Kind: models.Income, Amount: 10, Category: "  "},
		{Kind: "refund", Amount: 10, Category: "food"},
	} {
		_, err := v.Transactions.Add(ctx, bad)
		require.ErrorIs(t, err, common.ErrValidation, "%+v", bad)
	}
}

func TestTransactions_DeleteUndoAndList(t *testing.T) {
	ctx := context.Background()
	v, _ := unlockedVault(t)

	older, err := v.Transactions.Add(ctx, models.Transaction{Kind: models.Income, Amount: 100, Category: "salary", Date: timeOf(t, "2025-01-01T10:00:00Z")})
	require.NoError(t, err)
	newer, err := v.Transactions.Add(ctx, models.Transaction{Kind: models.Expense, Amount: 5, Category: "bus", Date: timeOf(t, "2025-01-02T10:00:00Z")})
	require.NoError(t, err)

	list, err := v.Transactions.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)

	require.NoError(t, v.Transactions.Delete(ctx, older.ID))
	list, err = v.Transactions.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = v.Undo.Undo(ctx)
	require.NoError(t, err)
	list, err = v.Transactions.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, older.ID, list[1].ID)
}

func TestTransactions_Overview(t *testing.T) {
	ctx := context.Background()
	v, _ := unlockedVault(t)

	// 2025-04-10 is a Thursday; the week starts on Sunday the 6th.
	now := time.Date(2025, 4, 10, 18, 0, 0, 0, time.UTC)
	add := func(kind models.TransactionKind, amount float64, date time.Time) {
		_, err := v.Transactions.Add(ctx, models.Transaction{Kind: kind, Amount: amount, Category: "c", Date: date})
		require.NoError(t, err)
	}
	add(models.Income, 1000, time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC))
	add(models.Expense, 200, time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC))
	add(models.Expense, 50, time.Date(2025, 4, 7, 12, 0, 0, 0, time.UTC))
	add(models.Income, 300, time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC))

	o, err := v.Transactions.Overview(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, models.MoneySummary{Income: 1000, Expense: 200, Count: 2}, o.Today.MoneySummary)
	assert.Equal(t, models.MoneySummary{Income: 1000, Expense: 250, Count: 3}, o.Week.MoneySummary)
	assert.Equal(t, time.Date(2025, 4, 6, 0, 0, 0, 0, time.UTC), o.Week.From)
	assert.Equal(t, models.MoneySummary{Income: 1300, Expense: 250, Count: 4}, o.All.MoneySummary)
	assert.InDelta(t, 1050, o.All.Balance(), 1e-9)
}

func TestContacts_DuplicatePhoneRejectedOnAdd(t *testing.T) {
	ctx := context.Background()
	v, store := unlockedVault(t)

	_, err := v.Contacts.Add(ctx, models.Contact{Name: "Ada", Phone: "0803000000"})
	require.NoError(t, err)

	_, err = v.Contacts.Add(ctx, models.Contact{Name: "Bola", Phone: "0803000000"})
	require.ErrorIs(t, err, common.ErrDuplicate)

	// Formatting does not hide a duplicate.
	_, err = v.Contacts.Add(ctx, models.Contact{Name: "Chi", Phone: "0803-000-000"})
	require.ErrorIs(t, err, common.ErrDuplicate)

	matches, err := store.Contacts.FindByPhone(ctx, "0803000000")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

// Only inserts are checked for a taken phone number; an edit may reuse one.
func TestContacts_UpdateAllowsDuplicatePhone(t *testing.T) {
	ctx := context.Background()
	v, store := unlockedVault(t)

	_, err := v.Contacts.Add(ctx, models.Contact{Name: "Ada", Phone: "0803000000"})
	require.NoError(t, err)
	bola, err := v.Contacts.Add(ctx, models.Contact{Name: "Bola", Phone: "0809999999"})
	require.NoError(t, err)

	phone := "0803000000"
	_, err = v.Contacts.Update(ctx, bola.ID, models.ContactPatch{Phone: &phone})
	require.NoError(t, err)

	matches, err := store.Contacts.FindByPhone(ctx, phone)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestContacts_ListSearchAndUndo(t *testing.T) {
	ctx := context.Background()
	v, _ := unlockedVault(t)

	for _, c := range []models.Contact{
		{Name: "zainab", Phone: "0801111111", Role: "Plumber"},
		{Name: "Ada", Phone: "0802222222", Role: "Doctor"},
		{Name: "bola", Role: "Landlord"},
	} {
		_, err := v.Contacts.Add(ctx, c)
		require.NoError(t, err)
	}

	list, err := v.Contacts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Ada", "bola", "zainab"}, []string{list[0].Name, list[1].Name, list[2].Name})

	found, err := v.Contacts.Search(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Ada", found[0].Name)

	found, err = v.Contacts.Search(ctx, "111")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "zainab", found[0].Name)

	require.NoError(t, v.Contacts.Delete(ctx, list[0].ID))
	_, err = v.Undo.Undo(ctx)
	require.NoError(t, err)

	again, err := v.Contacts.List(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(list, again); diff != "" {
		t.Fatalf("contacts after undo (-want +got):\n%s", diff)
	}

	_, err = v.Contacts.Add(ctx, models.Contact{Name: "Short", Phone: "123"})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestRecords_EncryptedAtRestAndOpen(t *testing.T) {
	ctx := context.Background()
	v, store := unlockedVault(t)

	payload := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{7}, 64)...)
	rec, err := v.Records.Add(ctx, "passport", payload, "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", rec.MimeType)
	assert.True(t, rec.Encrypted)

	raw, err := store.Records.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, raw.Encrypted)
	assert.NotEqual(t, payload, raw.Data)

	opened, err := v.Records.Open(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, payload, opened.Data)
	assert.False(t, opened.Encrypted)

	// Served from the cache the second time; callers get their own copy.
	opened.Data[0] = 0
	again, err := v.Records.Open(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, payload, again.Data)

	list, err := v.Records.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Data)

	v.Gate.Lock(ctx)
	_, err = v.Records.Open(ctx, rec.ID)
	require.ErrorIs(t, err, common.ErrLocked)
}

func TestRecords_Validation(t *testing.T) {
	ctx := context.Background()
	v, _ := unlockedVault(t)

	_, err := v.Records.Add(ctx, "notes", []byte("plain text"), "")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = v.Records.Add(ctx, "big", make([]byte, validation.MaxFileSize+1), "image/jpeg")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = v.Records.Add(ctx, "", pngHeader, "image/png")
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestRecords_RenameDeleteUndo(t *testing.T) {
	ctx := context.Background()
	v, store := unlockedVault(t)

	rec, err := v.Records.Add(ctx, "scan", pngHeader, "image/png")
	require.NoError(t, err)

	renamed, err := v.Records.Rename(ctx, rec.ID, "lease scan")
	require.NoError(t, err)
	assert.Equal(t, "lease scan", renamed.Title)

	_, err = v.Records.Rename(ctx, rec.ID, " ")
	require.ErrorIs(t, err, common.ErrValidation)

	require.NoError(t, v.Records.Delete(ctx, rec.ID))
	_, err = v.Records.Open(ctx, rec.ID)
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = v.Undo.Undo(ctx)
	require.NoError(t, err)

	back, err := store.Records.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "lease scan", back.Title)

	opened, err := v.Records.Open(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, opened.Data)
}

func TestRecords_PlaintextWhenEncryptionOff(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	opts := testOptions()
	opts.EncryptFiles = false
	v := NewVault(store, opts, nil, discardLogger())
	t.Cleanup(v.Close)
	require.NoError(t, v.Gate.Init(ctx))
	require.NoError(t, v.Gate.SetCredential(ctx, testPIN))

	rec, err := v.Records.Add(ctx, "scan", pngHeader, "image/png")
	require.NoError(t, err)
	assert.False(t, rec.Encrypted)

	raw, err := store.Records.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, raw.Data)
}

func TestLock_ClearsUndo(t *testing.T) {
	ctx := context.Background()
	v, _ := unlockedVault(t)

	task, err := v.Tasks.Add(ctx, "x", time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, v.Tasks.Delete(ctx, task.ID))

	v.Gate.Lock(ctx)
	_, ok := v.Undo.Pending()
	assert.False(t, ok)
}

func TestUndo_IDTakenKeepsSlot(t *testing.T) {
	ctx := context.Background()
	v, store := unlockedVault(t)

	task, err := v.Tasks.Add(ctx, "dentist", timeOf(t, "2025-04-15T00:00:00Z"), nil)
	require.NoError(t, err)
	require.NoError(t, v.Tasks.Delete(ctx, task.ID))

	squatter := &models.Task{ID: task.ID, Title: "squatter", DueDate: task.DueDate, CreatedAt: task.CreatedAt}
	require.NoError(t, store.Tasks.Insert(ctx, squatter))

	_, err = v.Undo.Undo(ctx)
	require.ErrorIs(t, err, common.ErrIDTaken)
	require.ErrorIs(t, err, common.ErrStorage)

	d, ok := v.Undo.Pending()
	require.True(t, ok)
	assert.Equal(t, task.ID, d.OriginalID)

	got, err := store.Tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "squatter", got.Title)
}
