// Package store holds the database container: a mapping from table
// name to Table. It is the entry point the executor resolves FROM and
// JOIN table names through.
package store
