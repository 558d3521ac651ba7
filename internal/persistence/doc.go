// Package persistence reads and writes the on-disk table document: a
// JSON object holding the table name, the schema's parallel column and
// type sequences, and the rows as native scalars. Loading rebuilds
// both primary indexes by inserting rows in document order. A YAML
// rendition of the same shape is accepted for fixture files.
package persistence
