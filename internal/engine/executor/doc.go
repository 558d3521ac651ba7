// Package executor drives a parsed query through the staged pipeline
// FROM, JOIN, WHERE, SELECT, ORDER BY, LIMIT. Each stage is a pure
// function from a table to a freshly owned table; the one optimization
// is index push-down, which rewrites a primary-key equality predicate
// into a direct hash-index lookup when the pipeline is still on the
// base table.
package executor
