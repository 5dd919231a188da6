// Package cli provides the interactive LifeVault terminal client.
//
// It wires configuration, the local store and the vault services into a
// read-eval-print loop. Typical flow: set or enter the PIN, then work with
// tasks, money, contacts and records until the user locks or exits.
//
// Commands:
//   - setup / unlock / lock / wipe
//   - tasks, money, contacts, records (each with add, edit, rm subcommands)
//   - undo, export, import, size, currency
//
// The loop is started via App.Run(ctx), which blocks until the user exits
// or ctx is cancelled. See runREPL for dispatch details.
package cli
