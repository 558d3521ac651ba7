// Package cli implements the interactive REPL: a line-at-a-time prompt
// that tokenizes input lines, routes dot-commands, and feeds statements
// to the parser and executor. Result tables render as aligned columns.
package cli
