package selection

import (
	"testing"

	"github.com/draftgrid/cadsel/internal/entity"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	entries := []Entry{
		{SessionToken: "123_1", Ref: entity.Ref{DocumentPath: "/plans/site.dwg", Handle: "2A"}},
		{SessionToken: "123_1", Ref: entity.Ref{DocumentPath: "/plans/site.dwg", Handle: "2B"}},
	}
	if err := store.Save("site", entries); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load("site")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Load returned %d entries, want 2", len(got))
	}
	if got[0].SessionToken != "123_1" || got[0].Ref.Handle != "2A" {
		t.Errorf("entry 0 = %+v", got[0])
	}
}

func TestLoad_MissingBucketIsEmpty(t *testing.T) {
	store := NewStore(t.TempDir())
	got, err := store.Load("nothing")
	if err != nil {
		t.Fatalf("Load of missing bucket failed: %v", err)
	}
	if got != nil {
		t.Errorf("Load of missing bucket = %v, want nil", got)
	}
}

func TestSave_ReplacesWholesale(t *testing.T) {
	store := NewStore(t.TempDir())

	first := []Entry{{SessionToken: "1_1", Ref: entity.Ref{DocumentPath: "/a.dwg", Handle: "1"}}}
	if err := store.Save("a", first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	second := []Entry{{SessionToken: "1_1", Ref: entity.Ref{DocumentPath: "/a.dwg", Handle: "9"}}}
	if err := store.Save("a", second); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := store.Load("a")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 1 || got[0].Ref.Handle != "9" {
		t.Errorf("Load = %+v, want only handle 9", got)
	}
}

func TestClear_RemovesBucket(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Save("a", []Entry{{Ref: entity.Ref{DocumentPath: "/a.dwg", Handle: "1"}}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Clear("a"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	got, err := store.Load("a")
	if err != nil {
		t.Fatalf("Load after Clear failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("bucket not empty after Clear: %v", got)
	}

	// Clearing an absent bucket is not an error.
	if err := store.Clear("a"); err != nil {
		t.Errorf("Clear of absent bucket failed: %v", err)
	}
}

func TestFilterSession(t *testing.T) {
	entries := []Entry{
		{SessionToken: "1_1", Ref: entity.Ref{Handle: "A"}},
		{SessionToken: "2_1", Ref: entity.Ref{Handle: "B"}},
		{SessionToken: "", Ref: entity.Ref{Handle: "C"}}, // legacy, matches any session
	}
	kept := FilterSession(entries, "1_1")
	if len(kept) != 2 {
		t.Fatalf("FilterSession kept %d, want 2", len(kept))
	}
	if kept[0].Ref.Handle != "A" || kept[1].Ref.Handle != "C" {
		t.Errorf("kept = %+v", kept)
	}
}

func TestLoad_LegacyTwoFieldLines(t *testing.T) {
	store := NewStore(t.TempDir())
	// A legacy bucket round-trips through Save as an empty-token entry.
	if err := store.Save("old", []Entry{{Ref: entity.Ref{DocumentPath: "/a.dwg", Handle: "5"}}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := store.Load("old")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 1 || got[0].SessionToken != "" {
		t.Fatalf("Load = %+v, want one untagged entry", got)
	}
	if len(FilterSession(got, "999_9")) != 1 {
		t.Error("legacy entry should survive session filtering")
	}
}

func TestBucketPath_SanitizesSeparators(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Save("a/b:c", []Entry{{Ref: entity.Ref{DocumentPath: "/x.dwg", Handle: "1"}}}); err != nil {
		t.Fatalf("Save with separators in bucket name failed: %v", err)
	}
	got, err := store.Load("a/b:c")
	if err != nil || len(got) != 1 {
		t.Fatalf("Load = %v, %v; want one entry", got, err)
	}
}

func TestPick_TakeConsumes(t *testing.T) {
	store := NewStore(t.TempDir())
	refs := []entity.Ref{{DocumentPath: "/a.dwg", Handle: "1"}, {DocumentPath: "/a.dwg", Handle: "2"}}
	if err := store.SetPick(refs, "1_1"); err != nil {
		t.Fatalf("SetPick failed: %v", err)
	}

	got, err := store.TakePick("1_1")
	if err != nil {
		t.Fatalf("TakePick failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("TakePick returned %d refs, want 2", len(got))
	}

	again, err := store.TakePick("1_1")
	if err != nil {
		t.Fatalf("second TakePick failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("pick-set should be consumed, got %v", again)
	}
}

func TestPick_ForeignSessionConsumedButInvisible(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.SetPick([]entity.Ref{{DocumentPath: "/a.dwg", Handle: "1"}}, "999_9"); err != nil {
		t.Fatalf("SetPick failed: %v", err)
	}

	got, err := store.TakePick("1_1")
	if err != nil {
		t.Fatalf("TakePick failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("foreign pick should be filtered out, got %v", got)
	}

	// The stale foreign pick is gone too.
	foreign, err := store.PeekPick("999_9")
	if err != nil {
		t.Fatalf("PeekPick failed: %v", err)
	}
	if len(foreign) != 0 {
		t.Errorf("foreign pick should have been cleared, got %v", foreign)
	}
}

func TestPick_PeekDoesNotConsume(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.SetPick([]entity.Ref{{DocumentPath: "/a.dwg", Handle: "1"}}, "1_1"); err != nil {
		t.Fatalf("SetPick failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		got, err := store.PeekPick("1_1")
		if err != nil {
			t.Fatalf("PeekPick failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("PeekPick round %d = %v, want one ref", i, got)
		}
	}
}

func TestClearPick(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.SetPick([]entity.Ref{{DocumentPath: "/a.dwg", Handle: "1"}}, "1_1"); err != nil {
		t.Fatalf("SetPick failed: %v", err)
	}
	if err := store.ClearPick(); err != nil {
		t.Fatalf("ClearPick failed: %v", err)
	}
	got, err := store.PeekPick("1_1")
	if err != nil {
		t.Fatalf("PeekPick failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("pick should be empty after ClearPick, got %v", got)
	}
}
