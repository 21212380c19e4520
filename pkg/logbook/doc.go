// Package logbook persists the history of tracked files in embedded SQLite databases.
//
// Each tracked file owns a per-file logbook, which records snapshots, diff results,
// commit records and remote pointers. A single master logbook registers all tracked
// files of a project and keeps an append-only log of events.
//
// Both kinds of logbooks are created on demand. Their schema is applied exactly once,
// and every write is transactional.
package logbook
