// Package mapping loads the fine-to-coarse label hierarchy used by the
// MapLabels and InferSuperclasses layers.
//
// A mapping file has one line per coarse group. Each line lists the fine
// label indices that belong to the group, separated by whitespace and/or
// commas. Line i (0-based) is group i:
//
//	0 1
//	2
//
// describes two groups, {0, 1} and {2}, and the fine-to-coarse lookup
// [0, 0, 1].
package mapping

import (
	"fmt"

	"github.com/pkg/errors"
)

// MaxFineIndex bounds the fine label space so a corrupt file cannot force
// an arbitrarily large lookup table.
const MaxFineIndex = 1 << 24

// Table is an immutable partition of fine label indices into coarse groups
// together with its inverse lookup.
type Table struct {
	groups       [][]int
	fineToCoarse []int
	mapped       []bool
}

// FromGroups builds a Table from in-memory groups. The groups are copied.
//
// When a fine index appears in more than one group the last group wins the
// fine-to-coarse lookup, while every group keeps the index in its member list.
func FromGroups(groups [][]int) (*Table, error) {
	maxFine := 0
	owned := make([][]int, len(groups))
	for g, members := range groups {
		owned[g] = make([]int, len(members))
		for i, f := range members {
			if f < 0 {
				return nil, errors.Wrapf(ErrNegativeIndex, "group %d: index %d", g, f)
			}
			if f > MaxFineIndex {
				return nil, errors.Wrapf(ErrIndexTooLarge, "group %d: index %d (max %d)", g, f, MaxFineIndex)
			}
			maxFine = max(maxFine, f)
			owned[g][i] = f
		}
	}

	t := &Table{
		groups:       owned,
		fineToCoarse: make([]int, maxFine+1),
		mapped:       make([]bool, maxFine+1),
	}
	for g, members := range owned {
		for _, f := range members {
			t.fineToCoarse[f] = g
			t.mapped[f] = true
		}
	}
	return t, nil
}

// NumGroups returns the number of coarse groups.
func (t *Table) NumGroups() int {
	return len(t.groups)
}

// NumFine returns the size of the fine label space: the largest index
// referenced by any group plus one. A table with no indices has NumFine 1.
func (t *Table) NumFine() int {
	return len(t.fineToCoarse)
}

// Group returns the fine indices of group g in file order.
// The returned slice must not be modified.
func (t *Table) Group(g int) []int {
	return t.groups[g]
}

// Groups returns a copy of every group's member list.
func (t *Table) Groups() [][]int {
	out := make([][]int, len(t.groups))
	for g, members := range t.groups {
		out[g] = make([]int, len(members))
		copy(out[g], members)
	}
	return out
}

// Coarse returns the group that owns fine index f.
func (t *Table) Coarse(f int) (int, error) {
	if f < 0 || f >= len(t.fineToCoarse) {
		return 0, errors.Wrapf(ErrFineOutOfRange, "index %d, table covers [0, %d)", f, len(t.fineToCoarse))
	}
	if !t.mapped[f] {
		return 0, errors.Wrapf(ErrUnmapped, "index %d", f)
	}
	return t.fineToCoarse[f], nil
}

// Mapped reports whether fine index f belongs to some group.
func (t *Table) Mapped(f int) bool {
	return f >= 0 && f < len(t.mapped) && t.mapped[f]
}

// FineToCoarse returns a copy of the dense lookup. Indices that no group
// references hold 0.
func (t *Table) FineToCoarse() []int {
	return append([]int(nil), t.fineToCoarse...)
}

// String returns a short summary of the table.
func (t *Table) String() string {
	return fmt.Sprintf("Table(groups=%d, fine=%d)", t.NumGroups(), t.NumFine())
}
