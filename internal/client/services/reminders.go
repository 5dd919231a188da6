package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/client/storage"
	"github.com/dmitrijs2005/lifevault/internal/common"
	"github.com/dmitrijs2005/lifevault/internal/logging"
)

// Notifier delivers task reminders. Schedule with a time in the past is
// expected to fire right away.
type Notifier interface {
	Schedule(taskID int64, title string, at time.Time)
	Cancel(taskID int64)
}

type nopNotifier struct{}

func (nopNotifier) Schedule(int64, string, time.Time) {}
func (nopNotifier) Cancel(int64)                      {}

func reminderKey(taskID int64) string {
	return common.ReminderKeyPrefix + strconv.FormatInt(taskID, 10)
}

// ReminderService keeps per-task reminder times in the metadata table,
// keyed by task id, and mirrors them into a Notifier.
type ReminderService struct {
	store    *storage.Store
	guard    Guard
	notifier Notifier
	log      logging.Logger

	mu      sync.Mutex
	pending map[int64]struct{}
}

func NewReminderService(store *storage.Store, guard Guard, notifier Notifier, log logging.Logger) *ReminderService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &ReminderService{
		store:    store,
		guard:    guard,
		notifier: notifier,
		log:      log.With("component", "reminders"),
		pending:  map[int64]struct{}{},
	}
}

// Set stores at as the reminder for task and schedules it.
func (r *ReminderService) Set(ctx context.Context, taskID int64, title string, at time.Time) error {
	if err := r.guard.RequireUnlocked(); err != nil {
		return err
	}
	v := at.UTC().Format(time.RFC3339)
	if err := r.store.Metadata.Set(ctx, reminderKey(taskID), []byte(v)); err != nil {
		return fmt.Errorf("save reminder: %w", err)
	}
	r.schedule(taskID, title, at)
	return nil
}

func (r *ReminderService) schedule(taskID int64, title string, at time.Time) {
	r.mu.Lock()
	r.pending[taskID] = struct{}{}
	r.mu.Unlock()
	r.notifier.Schedule(taskID, title, at)
}

func (r *ReminderService) unschedule(taskID int64) {
	r.mu.Lock()
	delete(r.pending, taskID)
	r.mu.Unlock()
	r.notifier.Cancel(taskID)
}

// CancelAll withdraws every reminder handed to the notifier. Stored
// reminder times are left alone.
func (r *ReminderService) CancelAll() {
	r.mu.Lock()
	ids := make([]int64, 0, len(r.pending))
	for id := range r.pending {
		ids = append(ids, id)
	}
	r.pending = map[int64]struct{}{}
	r.mu.Unlock()

	for _, id := range ids {
		r.notifier.Cancel(id)
	}
}

// Get returns the stored reminder of a task; ok is false when none is set.
func (r *ReminderService) Get(ctx context.Context, taskID int64) (at time.Time, ok bool, err error) {
	v, err := r.store.Metadata.Get(ctx, reminderKey(taskID))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read reminder: %w", err)
	}
	if v == nil {
		return time.Time{}, false, nil
	}
	at, err = time.Parse(time.RFC3339, string(v))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reminder for task %d: %w", taskID, err)
	}
	return at, true, nil
}

// Cancel drops the reminder of a task. Missing reminders are ignored.
func (r *ReminderService) Cancel(ctx context.Context, taskID int64) error {
	r.unschedule(taskID)
	if err := r.store.Metadata.Delete(ctx, reminderKey(taskID)); err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// Reschedule hands every stored reminder of an open task to the notifier
// and drops reminders whose task no longer exists. It returns the number
// of reminders scheduled.
func (r *ReminderService) Reschedule(ctx context.Context) (int, error) {
	if err := r.guard.RequireUnlocked(); err != nil {
		return 0, err
	}

	all, err := r.store.Metadata.List(ctx, common.ReminderKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list reminders: %w", err)
	}

	n := 0
	for key, v := range all {
		id, err := strconv.ParseInt(strings.TrimPrefix(key, common.ReminderKeyPrefix), 10, 64)
		if err != nil {
			r.log.Warn(ctx, "skipping malformed reminder key", "key", key)
			continue
		}
		at, err := time.Parse(time.RFC3339, string(v))
		if err != nil {
			r.log.Warn(ctx, "skipping malformed reminder", "task", id, "error", err)
			continue
		}

		task, err := r.store.Tasks.Get(ctx, id)
		if errors.Is(err, common.ErrNotFound) {
			if err := r.store.Metadata.Delete(ctx, key); err != nil {
				return n, fmt.Errorf("delete stale reminder: %w", err)
			}
			continue
		}
		if err != nil {
			return n, err
		}
		if task.Completed {
			continue
		}

		r.schedule(id, task.Title, at)
		n++
	}

	r.log.Debug(ctx, "reminders rescheduled", "count", n)
	return n, nil
}
