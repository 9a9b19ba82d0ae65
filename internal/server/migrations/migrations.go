// Package migrations embeds the goose SQL migrations of the server schema.
package migrations

import "embed"

// Migrations holds every *.sql file of this directory, applied in version
// order by goose.
//
//go:embed *.sql
var Migrations embed.FS
