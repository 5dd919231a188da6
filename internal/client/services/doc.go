// Package services holds the application layer of the LifeVault client:
// the access gate in front of the store, the guarded collection services
// with their shared undo buffer, reminders, settings and the backup
// engine. Vault wires them together.
package services
