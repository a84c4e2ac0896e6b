package postgres

import "embed"

// Migrations holds the goose SQL migrations for the service schema.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations that goose reads from.
const MigrationsDir = "migrations"
