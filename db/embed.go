// Package db embeds the SQL migrations so binaries migrate themselves at
// startup without a files-on-disk dependency.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
