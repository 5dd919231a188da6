package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/client/storage"
	"github.com/dmitrijs2005/lifevault/internal/common"
	"github.com/dmitrijs2005/lifevault/internal/logging"
)

// VaultOptions configures the services built by NewVault.
type VaultOptions struct {
	AppName            string
	UndoWindow         time.Duration
	EncryptFiles       bool
	MaxExportFileBytes int64
	CacheSize          int
	CacheTTL           time.Duration
}

// Vault is the set of services the client works with.
type Vault struct {
	Gate         *AccessGate
	Undo         *UndoBuffer
	Tasks        *TaskService
	Transactions *TransactionService
	Contacts     *ContactService
	Records      *RecordService
	Reminders    *ReminderService
	Settings     *SettingsService
	Backup       *BackupEngine

	unsubscribe func()
}

// NewVault builds the services over store. Leaving the unlocked state or
// importing a backup clears the undo slot and the payload cache; unlocking
// reschedules stored reminders.
func NewVault(store *storage.Store, opts VaultOptions, notifier Notifier, log logging.Logger) *Vault {
	gate := NewAccessGate(store, log)
	undo := NewUndoBuffer(opts.UndoWindow)
	reminders := NewReminderService(store, gate, notifier, log)

	v := &Vault{
		Gate:         gate,
		Undo:         undo,
		Reminders:    reminders,
		Tasks:        NewTaskService(store, gate, undo, reminders),
		Transactions: NewTransactionService(store, gate, undo),
		Contacts:     NewContactService(store, gate, undo),
		Records: NewRecordService(store, gate, undo, RecordOptions{
			Encrypt:   opts.EncryptFiles,
			CacheSize: opts.CacheSize,
			CacheTTL:  opts.CacheTTL,
		}, log),
		Settings: NewSettingsService(store),
		Backup: NewBackupEngine(store, gate, BackupOptions{
			AppName:      opts.AppName,
			MaxFileBytes: opts.MaxExportFileBytes,
		}, log),
	}

	v.Backup.OnRestore(undo.Clear)
	v.Backup.OnRestore(v.Records.Forget)
	v.Backup.OnRestore(func() {
		reminders.CancelAll()
		ctx := context.Background()
		if _, err := reminders.Reschedule(ctx); err != nil && !errors.Is(err, common.ErrLocked) {
			log.Warn(ctx, "reminders not rescheduled after restore", "error", err)
		}
	})

	v.unsubscribe = gate.Subscribe(func(t Transition) {
		if t.To == Unlocked {
			ctx := context.Background()
			if _, err := reminders.Reschedule(ctx); err != nil {
				log.Warn(ctx, "reminders not rescheduled", "error", err)
			}
			return
		}
		if t.To == AwaitingSetup {
			reminders.CancelAll()
		}
		undo.Clear()
		v.Records.Forget()
	})
	return v
}

// Close detaches the vault from the gate.
func (v *Vault) Close() {
	v.unsubscribe()
}
