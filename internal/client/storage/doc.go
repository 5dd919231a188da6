// Package storage opens the local SQLite database, applies the embedded
// goose migrations and bundles the per-collection repositories into a
// Store.
//
// A Store built by Open works directly on the *sql.DB. Inside WithTx the
// callback receives a second Store whose repositories are bound to the
// transaction; it must not use the outer Store, as the pool holds a single
// connection.
package storage
