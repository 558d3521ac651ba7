// Package parser converts a single SELECT statement into the query AST.
// Keywords are matched case-insensitively; a malformed statement yields
// ErrParseFailure rather than a partial AST.
package parser
