package poison

import "math/rand"

// LabelRemap is a permutation of the label space: class c is relabelled Table()[c].
type LabelRemap struct {
	table    []int
	identity bool
}

// IdentityRemap keeps every label as is.
func IdentityRemap(numClasses int) *LabelRemap {
	table := make([]int, numClasses)
	for i := range table {
		table[i] = i
	}
	return &LabelRemap{table: table, identity: true}
}

// NewLabelRemap draws one uniform permutation of [0, numClasses).
func NewLabelRemap(numClasses int, rng *rand.Rand) *LabelRemap {
	return &LabelRemap{table: rng.Perm(numClasses)}
}

// Apply returns the remapped label.
func (r *LabelRemap) Apply(label int) int {
	return r.table[label]
}

// IsIdentity reports whether the remap was created by IdentityRemap.
func (r *LabelRemap) IsIdentity() bool { return r.identity }

// Table returns a copy of the permutation.
func (r *LabelRemap) Table() []int {
	return append([]int(nil), r.table...)
}
