// Package postgres implements the course, plan, entry and task stores on
// PostgreSQL through database/sql and the pgx driver. It embeds the goose
// migrations for the schema and maps constraint violations onto the store
// package's sentinel errors.
package postgres
