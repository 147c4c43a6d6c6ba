package fd

import "testing"

func TestValueSetBasics(t *testing.T) {
	vs := NewValueSet(5, true)
	if vs.Count() != 5 {
		t.Fatalf("want 5 bits set, got %d", vs.Count())
	}
	if vs.IsZero() || vs.IsSingleton() {
		t.Fatalf("fresh full set should be neither zero nor singleton")
	}

	single := SingleValueSet(5, 2)
	if !single.IsSingleton() {
		t.Fatalf("expected singleton")
	}
	idx, ok := single.IndexOf(true)
	if !ok || idx != 2 {
		t.Fatalf("want index 2, got %d (%v)", idx, ok)
	}

	inter := vs.Intersect(single)
	if !inter.Equal(single) {
		t.Fatalf("full ∩ singleton should equal the singleton")
	}

	excl := vs.Excluding(single)
	if excl.AnyPossible(single) {
		t.Fatalf("excluding should remove the singleton's bit")
	}
	if excl.Count() != 4 {
		t.Fatalf("want 4 remaining bits, got %d", excl.Count())
	}

	if !single.IsSubsetOf(vs) {
		t.Fatalf("singleton should be subset of the full set")
	}

	inv := single.Invert()
	if inv.AnyPossible(single) {
		t.Fatalf("inverted set should share no bits with the original singleton")
	}
	if inv.Count() != 4 {
		t.Fatalf("want 4 bits in the complement, got %d", inv.Count())
	}
}

func TestValueSetWideWidth(t *testing.T) {
	vs := ValueSetFromIndices(130, []int{0, 63, 64, 65, 129})
	if vs.Count() != 5 {
		t.Fatalf("want 5 bits, got %d", vs.Count())
	}
	last, ok := vs.LastIndexOf(true)
	if !ok || last != 129 {
		t.Fatalf("want last index 129, got %d (%v)", last, ok)
	}
	first, ok := vs.IndexOf(true)
	if !ok || first != 0 {
		t.Fatalf("want first index 0, got %d (%v)", first, ok)
	}
}

func TestLiteralOppositeAndStatus(t *testing.T) {
	mask := ValueSetFromIndices(4, []int{0, 1})
	lit := NewLiteral(0, mask)
	opp := lit.Opposite()
	if opp.Mask.AnyPossible(mask) {
		t.Fatalf("opposite mask should not intersect the original")
	}

	current := ValueSetFromIndices(4, []int{0, 1, 2})
	if statusOf(current, mask) != statusPending {
		t.Fatalf("expected pending, current is a strict superset-intersection")
	}
	if statusOf(ValueSetFromIndices(4, []int{0}), mask) != statusSatisfied {
		t.Fatalf("expected satisfied")
	}
	if statusOf(ValueSetFromIndices(4, []int{2, 3}), mask) != statusUnsatisfied {
		t.Fatalf("expected unsatisfied")
	}
}
