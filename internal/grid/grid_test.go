package grid

import (
	"testing"

	"github.com/draftgrid/cadsel/internal/entity"
	"github.com/draftgrid/cadsel/internal/record"
)

func rec(pairs ...string) *entity.Record {
	r := entity.NewRecord()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i], entity.TextCell(pairs[i+1]))
	}
	return r
}

func TestUnify_Rectangular(t *testing.T) {
	a := rec(entity.ColName, "W1", entity.ColLayer, "A-WALL")
	b := rec(entity.ColName, "D1", entity.ColColor, "red")

	table := Unify([]*entity.Record{a, b})

	for _, r := range table.Records {
		if r.Len() != len(table.Columns) {
			t.Fatalf("record has %d cells, table has %d columns", r.Len(), len(table.Columns))
		}
		for _, col := range table.Columns {
			if !r.Has(col) {
				t.Errorf("record missing back-filled column %q", col)
			}
		}
	}
}

func TestUnify_PrunesAllEmptyColumns(t *testing.T) {
	a := rec(entity.ColName, "W1")
	a.Set(entity.ColLinetype, entity.Empty())
	b := rec(entity.ColName, "W2")
	b.Set(entity.ColLinetype, entity.Empty())

	table := Unify([]*entity.Record{a, b})

	for _, col := range table.Columns {
		if col == entity.ColLinetype {
			t.Error("all-empty column should be pruned")
		}
	}
}

func TestUnify_AttrColumnsSurviveWithBlockFamily(t *testing.T) {
	blk := rec(entity.ColName, "DOOR", entity.ColCategory, entity.CategoryBlockReference)
	blk.Set(entity.AttrPrefix+"ROOM", entity.Empty())
	line := rec(entity.ColName, "", entity.ColCategory, entity.CategoryLine)

	table := Unify([]*entity.Record{blk, line})

	found := false
	for _, col := range table.Columns {
		if col == entity.AttrPrefix+"ROOM" {
			found = true
		}
	}
	if !found {
		t.Error("empty attr_ column should survive when a block-family record is present")
	}
}

func TestUnify_AttrColumnsPrunedWithoutBlockFamily(t *testing.T) {
	a := rec(entity.ColName, "x", entity.ColCategory, entity.CategoryLine)
	a.Set(entity.AttrPrefix+"ROOM", entity.Empty())

	table := Unify([]*entity.Record{a})

	for _, col := range table.Columns {
		if col == entity.AttrPrefix+"ROOM" {
			t.Error("empty attr_ column should be pruned when no block-family record exists")
		}
	}
}

func TestUnify_SplitsTags(t *testing.T) {
	a := rec(entity.ColName, "a", entity.ColTags, "fire, exit ,  ")
	b := rec(entity.ColName, "b", entity.ColTags, "fire")
	c := rec(entity.ColName, "c")

	table := Unify([]*entity.Record{a, b, c})

	for _, r := range table.Records {
		if r.Has(entity.ColTags) {
			t.Error("raw Tags column should be gone after splitting")
		}
	}
	if got := a.Display(entity.TagPrefix + "1"); got != "fire" {
		t.Errorf("tag_1 = %q, want fire", got)
	}
	if got := a.Display(entity.TagPrefix + "2"); got != "exit" {
		t.Errorf("tag_2 = %q, want exit (trimmed)", got)
	}
	if got := b.Display(entity.TagPrefix + "2"); got != "" {
		t.Errorf("b tag_2 = %q, want empty back-fill", got)
	}
}

func TestUnify_NoTagsNoColumns(t *testing.T) {
	a := rec(entity.ColName, "a")
	table := Unify([]*entity.Record{a})
	for _, col := range table.Columns {
		if col == entity.TagPrefix+"1" {
			t.Error("tag columns should not appear when no record has tags")
		}
	}
}

func TestUnify_DropsBookkeeping(t *testing.T) {
	a := rec(entity.ColName, "a", entity.BookkeepingPrefix+"scratch", "v")
	table := Unify([]*entity.Record{a})
	for _, col := range table.Columns {
		if col == entity.BookkeepingPrefix+"scratch" {
			t.Error("bookkeeping column should be dropped")
		}
	}
}

func TestOrderColumns_DocumentPathLast(t *testing.T) {
	in := []string{entity.ColDocumentPath, entity.ColName, entity.ColHandle}
	out := OrderColumns(in)
	if out[len(out)-1] != entity.ColDocumentPath {
		t.Errorf("last column = %q, want %q", out[len(out)-1], entity.ColDocumentPath)
	}
	if out[0] != entity.ColName {
		t.Errorf("first column = %q, want %q", out[0], entity.ColName)
	}
}

func TestOrderColumns_Classes(t *testing.T) {
	in := []string{
		entity.ColDocumentPath,
		entity.XDataPrefix + "APP",
		entity.AttrPrefix + "ROOM",
		record.ColRadius,
		entity.TagPrefix + "2",
		entity.TagPrefix + "1",
		entity.ColLayer,
		entity.ColName,
		entity.ParentPrefix + "1",
		"Custom",
	}
	want := []string{
		entity.ColName,
		entity.ColLayer,
		entity.TagPrefix + "1",
		entity.TagPrefix + "2",
		record.ColRadius,
		entity.AttrPrefix + "ROOM",
		entity.XDataPrefix + "APP",
		entity.ParentPrefix + "1",
		"Custom",
		entity.ColDocumentPath,
	}
	out := OrderColumns(in)
	if len(out) != len(want) {
		t.Fatalf("len = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %q, want %q", i, out[i], want[i])
		}
	}
}

func TestOrderColumns_TagNumericNotLexical(t *testing.T) {
	out := OrderColumns([]string{entity.TagPrefix + "10", entity.TagPrefix + "2"})
	if out[0] != entity.TagPrefix+"2" {
		t.Errorf("tag_2 should sort before tag_10, got %v", out)
	}
}

func TestOrderColumns_GeometrySemanticOrder(t *testing.T) {
	out := OrderColumns([]string{record.ColRadius, record.ColCenterX})
	if out[0] != record.ColCenterX {
		t.Errorf("CenterX should sort before Radius, got %v", out)
	}
}
