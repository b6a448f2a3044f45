package feature

import (
	"crypto/md5"
	"math/big"
)

// hashValue maps a value's string form into [0, space). MD5 keeps the
// mapping stable across processes and platforms; collisions between
// distinct categories are an accepted cardinality/memory trade-off.
func hashValue(value string, space int) int {
	digest := md5.Sum([]byte(value))
	n := new(big.Int).SetBytes(digest[:])
	return int(new(big.Int).Mod(n, big.NewInt(int64(space))).Int64())
}

// HashCategorical one-hot encodes each value into a fixed-width sparse
// index space.
func HashCategorical(values []string, space int) *Sparse {
	m := NewSparse(len(values), space, len(values))
	for _, v := range values {
		m.AppendRow([]int{hashValue(v, space)}, []float64{1})
	}
	return m
}

// HashFeatureCross encodes the ordered pairwise interaction of two
// categorical columns. a and b must have equal length.
func HashFeatureCross(a, b []string, space int) *Sparse {
	m := NewSparse(len(a), space, len(a))
	for i := range a {
		m.AppendRow([]int{hashValue(a[i]+"_x_"+b[i], space)}, []float64{1})
	}
	return m
}
