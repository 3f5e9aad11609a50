// Package migrations embeds the schema of the keeperctl session database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
