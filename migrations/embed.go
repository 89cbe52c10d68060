// Package migrations holds the goose SQL migrations of the training portal schema.
package migrations

import "embed"

// FS contains every migration file; pass "." as the goose directory.
//
//go:embed *.sql
var FS embed.FS
