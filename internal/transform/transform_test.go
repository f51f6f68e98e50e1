package transform

import (
	"testing"

	"github.com/draftgrid/cadsel/internal/entity"
)

func row(pairs ...string) *entity.Record {
	r := entity.NewRecord()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i], entity.TextCell(pairs[i+1]))
	}
	return r
}

func TestApply_PatternCurrentValue(t *testing.T) {
	tr := Transform{Pattern: "{}-copy"}
	if got := tr.Apply("W1", nil); got != "W1-copy" {
		t.Errorf("Apply = %q, want W1-copy", got)
	}
}

func TestApply_PatternColumnToken(t *testing.T) {
	r := row("Layer", "A-WALL", "Name", "W1")
	tr := Transform{Pattern: "{}-$Layer"}
	if got := tr.Apply("W1", r); got != "W1-A-WALL" {
		t.Errorf("Apply = %q, want W1-A-WALL", got)
	}
}

func TestApply_PatternQuotedToken(t *testing.T) {
	r := row("Room Name", "Lobby")
	tr := Transform{Pattern: `$"Room Name"/{}`}
	if got := tr.Apply("101", r); got != "Lobby/101" {
		t.Errorf("Apply = %q, want Lobby/101", got)
	}
}

func TestApply_PatternCaseInsensitiveLookup(t *testing.T) {
	r := row("Layer", "A-DOOR")
	tr := Transform{Pattern: "$layer"}
	if got := tr.Apply("", r); got != "A-DOOR" {
		t.Errorf("Apply = %q, want A-DOOR", got)
	}
}

func TestApply_PatternUnresolvedTokenVerbatim(t *testing.T) {
	tr := Transform{Pattern: "$Nope-{}"}
	if got := tr.Apply("X", row()); got != "$Nope-X" {
		t.Errorf("Apply = %q, want $Nope-X", got)
	}
}

func TestApply_PatternBareDollar(t *testing.T) {
	tr := Transform{Pattern: "$ {}"}
	if got := tr.Apply("5", nil); got != "$ 5" {
		t.Errorf("Apply = %q, want \"$ 5\"", got)
	}
}

func TestApply_PatternUnterminatedQuote(t *testing.T) {
	tr := Transform{Pattern: `$"Room`}
	// Malformed token: everything from the quote on stays verbatim.
	if got := tr.Apply("x", row()); got == "" {
		t.Error("malformed pattern should not produce an empty result")
	}
}

func TestApply_FindReplaceLiteral(t *testing.T) {
	tr := Transform{Find: ".", Replace: "-"}
	if got := tr.Apply("a.b.c", nil); got != "a-b-c" {
		t.Errorf("Apply = %q, want a-b-c", got)
	}
}

func TestApply_StageOrder(t *testing.T) {
	// Pattern runs first, then find/replace, then math.
	tr := Transform{Pattern: "{}0", Find: "1", Replace: "2", Math: "x+1"}
	// "1" -> pattern "10" -> replace "20" -> math 21
	if got := tr.Apply("1", nil); got != "21" {
		t.Errorf("Apply = %q, want 21", got)
	}
}

func TestApply_MathWholeNonNumericPassthrough(t *testing.T) {
	tr := Transform{Math: "x+1"}
	if got := tr.Apply("A-WALL", nil); got != "A-WALL" {
		t.Errorf("Apply = %q, want A-WALL unchanged", got)
	}
}

func TestApply_MathEmbedded(t *testing.T) {
	tr := Transform{Math: "x+1", MathMode: MathEmbedded}
	if got := tr.Apply("A-ROOM-101", nil); got != "A-ROOM-102" {
		t.Errorf("Apply = %q, want A-ROOM-102", got)
	}
}

func TestApply_MathEmbeddedMultipleTokens(t *testing.T) {
	tr := Transform{Math: "2x", MathMode: MathEmbedded}
	if got := tr.Apply("3 by 4", nil); got != "6 by 8" {
		t.Errorf("Apply = %q, want \"6 by 8\"", got)
	}
}

func TestIsZero(t *testing.T) {
	if !(Transform{}).IsZero() {
		t.Error("empty transform should be zero")
	}
	if (Transform{Find: "a"}).IsZero() {
		t.Error("transform with find should not be zero")
	}
}

func TestApplyMathOperation(t *testing.T) {
	tests := []struct {
		value float64
		op    string
		want  float64
	}{
		{5, "x", 5},
		{5, "", 5},
		{5, "-x", -5},
		{5, "2x", 10},
		{5, "-2x", -10},
		{5, "0.5x", 2.5},
		{5, "x+3", 8},
		{5, "x-3", 2},
		{5, "x*3", 15},
		{6, "x/3", 2},
		{6, "x/0", 6},  // division by zero is a no-op
		{5, "x + 3", 8}, // spaces stripped
		{5, "garbage", 5},
		{5, "x+abc", 5},
	}
	for _, tt := range tests {
		if got := ApplyMathOperation(tt.value, tt.op); got != tt.want {
			t.Errorf("ApplyMathOperation(%v, %q) = %v, want %v", tt.value, tt.op, got, tt.want)
		}
	}
}

func TestApplyMathString_WholeDecimal(t *testing.T) {
	if got := applyMathString("2.5", "2x", MathWhole); got != "5" {
		t.Errorf("applyMathString = %q, want 5", got)
	}
	if got := applyMathString(" 10 ", "x+1", MathWhole); got != "11" {
		t.Errorf("applyMathString with padding = %q, want 11", got)
	}
}
