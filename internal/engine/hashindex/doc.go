// Package hashindex implements a dynamically resized, separately-chained
// hash index from an int64 key to a row reference. It does not enforce
// key uniqueness; the owning Table does.
package hashindex
