package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/lifevault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminders_SetGetCancel(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	n := newFakeNotifier()
	v := newVault(t, store, n)
	require.NoError(t, v.Gate.Init(ctx))
	require.NoError(t, v.Gate.SetCredential(ctx, testPIN))

	at := timeOf(t, "2025-06-01T08:30:00Z")
	require.NoError(t, v.Reminders.Set(ctx, 7, "gym", at))

	raw, err := store.Metadata.Get(ctx, "reminder-7")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01T08:30:00Z", string(raw))

	got, ok, err := v.Reminders.Get(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, at.Equal(got))

	s, ok := n.get(7)
	require.True(t, ok)
	assert.Equal(t, "gym", s.Title)

	require.NoError(t, v.Reminders.Cancel(ctx, 7))
	_, ok, err = v.Reminders.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []int64{7}, n.cancelled)

	// Cancelling twice is harmless.
	require.NoError(t, v.Reminders.Cancel(ctx, 7))
}

func TestReminders_SetRequiresUnlock(t *testing.T) {
	ctx := context.Background()
	v := newVault(t, openStore(t), nil)
	require.NoError(t, v.Gate.Init(ctx))

	err := v.Reminders.Set(ctx, 1, "x", timeOf(t, "2025-06-01T08:30:00Z"))
	require.ErrorIs(t, err, common.ErrLocked)
}

func TestReminders_RescheduledOnUnlock(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	n := newFakeNotifier()
	v := newVault(t, store, n)
	require.NoError(t, v.Gate.Init(ctx))
	require.NoError(t, v.Gate.SetCredential(ctx, testPIN))

	due := timeOf(t, "2025-06-01T00:00:00Z")
	at := timeOf(t, "2025-06-01T09:00:00Z")

	open, err := v.Tasks.Add(ctx, "open", due, &at)
	require.NoError(t, err)
	done, err := v.Tasks.Add(ctx, "done", due, &at)
	require.NoError(t, err)
	_, err = v.Tasks.Toggle(ctx, done.ID)
	require.NoError(t, err)

	// A reminder left behind by a task that no longer exists.
	require.NoError(t, store.Metadata.Set(ctx, "reminder-999", []byte("2025-06-01T09:00:00Z")))

	v.Gate.Lock(ctx)

	// A fresh notifier stands in for a restarted process.
	n2 := newFakeNotifier()
	v.Reminders.notifier = n2

	ok, err := v.Gate.Unlock(ctx, testPIN)
	require.NoError(t, err)
	require.True(t, ok)

	_, scheduledOpen := n2.get(open.ID)
	_, scheduledDone := n2.get(done.ID)
	assert.True(t, scheduledOpen)
	assert.False(t, scheduledDone)

	stale, err := store.Metadata.Get(ctx, "reminder-999")
	require.NoError(t, err)
	assert.Nil(t, stale)

	count, err := v.Reminders.Reschedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReminders_CancelAllKeepsStoredTimes(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	n := newFakeNotifier()
	v := newVault(t, store, n)
	require.NoError(t, v.Gate.Init(ctx))
	require.NoError(t, v.Gate.SetCredential(ctx, testPIN))

	require.NoError(t, v.Reminders.Set(ctx, 1, "gym", timeOf(t, "2025-06-01T08:30:00Z")))
	require.NoError(t, v.Reminders.Set(ctx, 2, "rent", timeOf(t, "2025-06-02T08:30:00Z")))

	v.Reminders.CancelAll()
	_, ok := n.get(1)
	assert.False(t, ok)
	_, ok = n.get(2)
	assert.False(t, ok)
	assert.ElementsMatch(t, []int64{1, 2}, n.cancelled)

	_, ok, err := v.Reminders.Get(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	v.Reminders.CancelAll()
	assert.Len(t, n.cancelled, 2)
}
