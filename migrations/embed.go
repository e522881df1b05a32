// Package migrations holds the Spanner schema as ordered DDL files.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
