package migrations

import "embed"

// FS contains the schema migrations, one directory per dialect.
//
//go:embed mysql/*.sql sqlite/*.sql
var FS embed.FS
