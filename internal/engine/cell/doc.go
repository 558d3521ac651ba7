// Package cell implements the Cell tagged-union value type and its total
// order: {Integer, Float, Text}, compared tag-then-value.
package cell
