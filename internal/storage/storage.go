// Package storage implements the persistence layer of the training log.
//
// Each entity gets a store composed over sqlite.Service. Every operation is
// scoped by the acting user: rows belonging to another user are reported as
// not found, never as forbidden, so existence of foreign data does not leak.
// Multi-statement writes run inside WithinTx on a single connection.
package storage

import (
	"embed"
	"time"

	"gymlog/internal/event"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations is the embedded schema migration source.
var Migrations = migrationsFS

// MigrationsDir is the directory inside Migrations holding the .sql files.
const MigrationsDir = "migrations"

// emit stamps and forwards a domain event. Stores never emit on failed
// operations.
func emit(sink event.Sink, e event.Event) {
	if sink == nil {
		return
	}
	e.At = time.Now()
	sink.Emit(e)
}
