package board

import (
	"testing"

	"jobboard-engine/internal/domain"
	"jobboard-engine/internal/test"
)

var stages = []domain.Stage{"wishlist", "applied", "offered"}

func TestInsertIsNewestFirstAndIdempotent(t *testing.T) {
	t.Parallel()
	ix := New(stages)
	ix.Insert("wishlist", "a", 0)
	ix.Insert("wishlist", "b", 0)
	ix.Insert("wishlist", "a", 0)
	test.AssertDeepEquals(t, ix.Column("wishlist"), []string{"b", "a"})
	ix.Insert("wishlist", "c", 99)
	test.AssertDeepEquals(t, ix.Column("wishlist"), []string{"b", "a", "c"})
	ix.Insert("nope", "d", 0)
	test.AssertEquals(t, ix.Len(), 3)
}

func TestRemove(t *testing.T) {
	t.Parallel()
	ix := New(stages)
	ix.Insert("applied", "a", 0)
	ix.Insert("applied", "b", 0)
	ix.Remove("applied", "a")
	ix.Remove("applied", "zzz")
	test.AssertDeepEquals(t, ix.Column("applied"), []string{"b"})
}

func TestMoveWithinColumn(t *testing.T) {
	t.Parallel()
	ix := New(stages)
	for _, id := range []string{"c", "b", "a"} {
		ix.Insert("applied", id, 0)
	}
	// a b c -> b c a
	test.AssertNotError(t, ix.Move("a", "applied", 0, "applied", 2), "")
	test.AssertDeepEquals(t, ix.Column("applied"), []string{"b", "c", "a"})
}

func TestMoveAcrossColumns(t *testing.T) {
	t.Parallel()
	ix := New(stages)
	ix.Insert("applied", "a", 0)
	ix.Insert("offered", "x", 0)
	test.AssertNotError(t, ix.Move("a", "applied", 0, "offered", 1), "")
	test.AssertDeepEquals(t, ix.Column("applied"), []string{})
	test.AssertDeepEquals(t, ix.Column("offered"), []string{"x", "a"})
}

func TestMoveNoopLeavesColumnsUntouched(t *testing.T) {
	t.Parallel()
	ix := New(stages)
	ix.Insert("applied", "a", 0)
	ix.Insert("applied", "b", 0)
	before := ix.Columns()
	test.AssertNotError(t, ix.Move("b", "applied", 0, "applied", 0), "")
	test.AssertDeepEquals(t, ix.Columns(), before)
}

func TestMoveStaleIndexAndMissingID(t *testing.T) {
	t.Parallel()
	ix := New(stages)
	ix.Insert("applied", "a", 0)
	ix.Insert("applied", "b", 0)
	// index 0 holds b, not a: fall back to a's real position
	test.AssertNotError(t, ix.Move("a", "applied", 0, "offered", 0), "")
	test.AssertDeepEquals(t, ix.Column("applied"), []string{"b"})
	test.AssertEquals(t, ix.Move("zzz", "applied", 0, "offered", 0), ErrNotInColumn)
	test.AssertError(t, ix.Move("b", "applied", 0, "nope", 0), "unknown stage")
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()
	ix := New(stages)
	ix.Insert("applied", "a", 0)
	cp := ix.Clone()
	cp.Insert("applied", "b", 0)
	test.AssertDeepEquals(t, ix.Column("applied"), []string{"a"})
}

func TestBuildAndVerify(t *testing.T) {
	t.Parallel()
	jobs := []domain.Job{
		{ID: "a", Status: "applied"},
		{ID: "b", Status: "wishlist"},
		{ID: "c", Status: "applied"},
		{ID: "d", Status: "ghosted"},
	}
	ix, skipped := Build(stages, jobs)
	test.AssertEquals(t, len(skipped), 1)
	test.AssertDeepEquals(t, ix.Column("applied"), []string{"a", "c"})

	m := map[string]domain.Job{"a": jobs[0], "b": jobs[1], "c": jobs[2]}
	test.AssertNotError(t, ix.Verify(m), "")

	m["e"] = domain.Job{ID: "e", Status: "offered"}
	test.AssertError(t, ix.Verify(m), "missing job")
	delete(m, "e")

	ix.Insert("offered", "a", 0)
	test.AssertError(t, ix.Verify(m), "duplicate")
}
