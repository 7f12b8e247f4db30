// Package storage persists daily snapshots.
//
// FileStore keeps one JSON document per date in a directory. SQLiteStore
// keeps an archive of every run in a single SQLite database. Fanout writes
// one snapshot to several stores.
package storage
