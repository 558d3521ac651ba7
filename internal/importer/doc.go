// Package importer replays an existing SQLite table into the engine: a
// one-shot ETL adapter, not a second storage backend. Column types are
// introspected with PRAGMA table_info and mapped onto the engine's
// INT/DOUBLE/STRING tags; rows arrive through the ordinary insert path
// so both primary indexes are built as they would be for native data.
package importer
