// Package db carries the SQL migrations applied by the migrate command.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations goose reads from.
const MigrationsDir = "migrations"
