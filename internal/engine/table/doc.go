// Package table implements the named, schema-typed row container at the
// heart of the engine. A Table keeps its rows in insertion order and
// maintains two primary indexes over the row id: a chained hash index
// for point lookups and a B+ tree for ordered range access. Every
// mutating operation keeps both indexes in agreement with the row
// sequence.
package table
