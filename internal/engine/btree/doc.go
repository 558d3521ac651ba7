// Package btree implements an integer-keyed B+ tree with point lookup,
// ordered range scans, insert-with-update, and delete with borrow/merge
// rebalancing. All data entries live in leaves, linked in ascending-key
// order for range scans; internal nodes carry only separator keys.
package btree
