// Package migrations embeds the schema for each supported SQL dialect.
package migrations

import "embed"

// FS holds sqlite/*.sql and postgres/*.sql, applied in file name order.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
