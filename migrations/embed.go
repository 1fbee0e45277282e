// Package migrations embeds the goose SQL migrations shared by the sqlite and
// postgres stores. Statements stick to the dialect-neutral subset.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
