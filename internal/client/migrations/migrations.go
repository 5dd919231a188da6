// Package migrations embeds the goose SQL migrations of the local store and
// registers the Go migrations that need application code.
// Migrations are additive only: a later version may add columns and
// indexes but never rewrites or drops stored records.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
