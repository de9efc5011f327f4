// Package migrations embeds the SQL schema for every relational backend, one directory per dialect.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)
