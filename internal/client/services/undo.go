package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/client/models"
	"github.com/dmitrijs2005/lifevault/internal/common"
)

// Deleted is the record held by the undo buffer.
type Deleted struct {
	Collection models.Collection
	OriginalID int64
	Record     any
	DeletedAt  time.Time
}

// UndoBuffer keeps the most recently deleted record for a short window.
// A newer delete replaces the slot. Undo re-inserts the record under its
// original id through the restorer registered for its collection.
type UndoBuffer struct {
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	slot      *Deleted
	restorers map[models.Collection]func(ctx context.Context, record any) error
}

func NewUndoBuffer(window time.Duration) *UndoBuffer {
	return &UndoBuffer{
		window:    window,
		now:       time.Now,
		restorers: make(map[models.Collection]func(ctx context.Context, record any) error),
	}
}

// RegisterRestorer installs the function that puts a deleted *T back into
// collection c.
func RegisterRestorer[T any](u *UndoBuffer, c models.Collection, restore func(ctx context.Context, record *T) error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.restorers[c] = func(ctx context.Context, record any) error {
		r, ok := record.(*T)
		if !ok {
			return fmt.Errorf("undo %s: unexpected record type %T", c, record)
		}
		return restore(ctx, r)
	}
}

func (u *UndoBuffer) Window() time.Duration {
	return u.window
}

// Push fills the slot, dropping whatever was there.
func (u *UndoBuffer) Push(c models.Collection, id int64, record any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.slot = &Deleted{Collection: c, OriginalID: id, Record: record, DeletedAt: u.now()}
}

// must be called with mu held
func (u *UndoBuffer) current() *Deleted {
	if u.slot != nil && u.now().Sub(u.slot.DeletedAt) > u.window {
		u.slot = nil
	}
	return u.slot
}

// Pending reports the record that can still be restored.
func (u *UndoBuffer) Pending() (Deleted, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	d := u.current()
	if d == nil {
		return Deleted{}, false
	}
	return *d, true
}

// Undo restores the pending record. It fails with common.ErrNotFound when
// the slot is empty or expired. On a restore error the slot is kept so
// the caller may retry within the window.
func (u *UndoBuffer) Undo(ctx context.Context) (Deleted, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	d := u.current()
	if d == nil {
		return Deleted{}, fmt.Errorf("nothing to undo: %w", common.ErrNotFound)
	}
	restore, ok := u.restorers[d.Collection]
	if !ok {
		return Deleted{}, fmt.Errorf("undo %s: no restorer registered", d.Collection)
	}
	if err := restore(ctx, d.Record); err != nil {
		return Deleted{}, fmt.Errorf("undo %s #%d: %w", d.Collection, d.OriginalID, err)
	}

	out := *d
	u.slot = nil
	return out, nil
}

// Clear empties the slot.
func (u *UndoBuffer) Clear() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.slot = nil
}
