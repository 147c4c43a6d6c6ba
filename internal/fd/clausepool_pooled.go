//go:build clausepool

package fd

import (
	"math/bits"
	"sync"
)

// Pool-backed literal-slab allocator, generalising the teacher's
// internal/sat/clauses_alloc.go from sat.Literal to fd.Literal: pool i
// holds slices with capacity in [2^(i+1), 2^(i+2)-1], the last pool holds
// anything at or above that range and falls back to a fresh allocation if
// even its largest cached slice is too small.
const nPools = 4
const lastCapa = 1 << nPools

var pools [nPools]sync.Pool

func init() {
	for i := 0; i < nPools; i++ {
		capa := 1 << (i + 1)
		pools[i].New = func() any {
			s := make([]Literal, 0, capa)
			return &s
		}
	}
}

func pid(capa int) int {
	if capa < 2 {
		return 0
	}
	if capa >= lastCapa {
		return nPools - 1
	}
	return bits.Len(uint(capa)) - 2
}

// allocLiterals returns a slice of at least len(src) capacity, populated
// with src's contents, drawn from the capacity-bucketed pool.
func allocLiterals(src []Literal) []Literal {
	ref := pools[pid(len(src))].Get().(*[]Literal)
	s := (*ref)[:0]
	if cap(s) < len(src) {
		s = make([]Literal, 0, len(src))
	}
	return append(s, src...)
}

// freeLiterals returns s to its capacity-bucketed pool for reuse.
func freeLiterals(s []Literal) {
	s = s[:0]
	ref := &s
	pools[pid(cap(s))].Put(ref)
}
