// Package query defines the pure-data shapes of a parsed statement:
// the select list, source tables, join specs, predicates, ordering and
// paging. The parser produces these; the executor consumes them.
package query
