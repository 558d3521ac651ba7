// Package join implements the two physical join operators, nested-loop
// and hash, plus the size-based selection between them. Join keys are
// canonicalized to text so cells of different tags compare on a common
// domain; both operators use the same canonicalization so their INNER
// results agree.
package join
