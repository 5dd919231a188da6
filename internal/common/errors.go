// Package common defines shared constants and sentinel errors used across
// the LifeVault packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrStorage  = errors.New("storage error")

	// Input errors.
	ErrValidation = errors.New("validation error")
	ErrDuplicate  = errors.New("duplicate record")

	// Undo errors.
	ErrIDTaken = errors.New("id already taken")

	// Crypto errors. Wrong password and corrupted data are indistinguishable.
	ErrDecryption = errors.New("decryption failed: wrong password or corrupted data")

	// Backup errors.
	ErrFormat    = errors.New("invalid backup format")
	ErrCancelled = errors.New("cancelled")

	// Access gate errors.
	ErrLocked       = errors.New("vault is locked")
	ErrInvalidState = errors.New("operation not allowed in current state")
)
