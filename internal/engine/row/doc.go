// Package row implements Row, an ordered sequence of cells identified by
// an immutable row id.
package row
