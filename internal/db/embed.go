package db

import "embed"

// EmbedMigrations holds the goose migrations for the metadata store.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS
