package ops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/draftgrid/cadsel/internal/config"
	"github.com/draftgrid/cadsel/internal/errors"
)

func TestParseRows(t *testing.T) {
	rows, err := ParseRows("1,3,5-8", 10)
	if err != nil {
		t.Fatalf("ParseRows failed: %v", err)
	}
	want := []int{1, 3, 5, 6, 7, 8}
	if len(rows) != len(want) {
		t.Fatalf("ParseRows selected %d rows, want %d", len(rows), len(want))
	}
	for _, n := range want {
		if !rows[n] {
			t.Errorf("row %d should be selected", n)
		}
	}
	if rows[2] {
		t.Error("row 2 should not be selected")
	}
}

func TestParseRows_EmptyMeansAll(t *testing.T) {
	rows, err := ParseRows("", 10)
	if err != nil {
		t.Fatalf("ParseRows failed: %v", err)
	}
	if rows != nil {
		t.Errorf("empty spec = %v, want nil (all rows)", rows)
	}
}

func TestParseRows_Invalid(t *testing.T) {
	cases := []struct {
		spec  string
		count int
	}{
		{"0", 10},     // rows are 1-based
		{"11", 10},    // out of range
		{"5-3", 10},   // inverted range
		{"abc", 10},   // not a number
		{"1-2-3", 10}, // malformed range
		{",,", 10},    // selects nothing
	}
	for _, tt := range cases {
		if _, err := ParseRows(tt.spec, tt.count); !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("ParseRows(%q, %d) error = %v, want INVALID_REQUEST", tt.spec, tt.count, err)
		}
	}
}

func TestToRefs(t *testing.T) {
	refs, err := toRefs([]RefInput{
		{DocumentPath: "/plans/a.dwg", Handle: "1"},
		{Handle: "2"}, // inherits the default path
	}, "/plans/active.dwg")
	if err != nil {
		t.Fatalf("toRefs failed: %v", err)
	}
	if refs[1].DocumentPath != "/plans/active.dwg" {
		t.Errorf("default path not applied: %+v", refs[1])
	}
}

func TestToRefs_MissingFields(t *testing.T) {
	if _, err := toRefs([]RefInput{{Handle: "1"}}, ""); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("no path and no default error = %v, want INVALID_REQUEST", err)
	}
	if _, err := toRefs([]RefInput{{DocumentPath: "/a.dwg"}}, ""); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("missing handle error = %v, want INVALID_REQUEST", err)
	}
}

func TestToRefs_BatchLimit(t *testing.T) {
	in := make([]RefInput, MaxBatchRefs+1)
	for i := range in {
		in[i] = RefInput{DocumentPath: "/a.dwg", Handle: "1"}
	}
	if _, err := toRefs(in, ""); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("oversized batch error = %v, want INVALID_REQUEST", err)
	}
}

func TestValidatePath_Traversal(t *testing.T) {
	err := ValidatePath("../escape.jsonl", PathCheckWrite, config.DefaultConfig())
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("traversal error = %v, want INVALID_REQUEST", err)
	}
}

func TestValidatePath_Extension(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	err := ValidatePath(filepath.Join(dir, "out.json"), PathCheckWrite, cfg)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("wrong extension error = %v, want INVALID_REQUEST", err)
	}
	if err := ValidatePath(filepath.Join(dir, "out.jsonl"), PathCheckWrite, cfg); err != nil {
		t.Errorf("allowed path rejected: %v", err)
	}
}

func TestValidatePath_SubdirectoryRejected(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0700); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	err := ValidatePath(filepath.Join(sub, "out.jsonl"), PathCheckWrite, cfg)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("subdirectory error = %v, want INVALID_REQUEST", err)
	}
}

func TestValidatePath_ReadMissingFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	err := ValidatePath(filepath.Join(dir, "missing.jsonl"), PathCheckRead, cfg)
	if !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestValidatePath_UnsafeLiftsDirRestriction(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "anywhere")
	if err := os.MkdirAll(sub, 0700); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	if err := ValidatePath(filepath.Join(sub, "out.jsonl"), PathCheckWrite, cfg); err != nil {
		t.Errorf("unsafe mode should allow any directory: %v", err)
	}
	// Extension checks still apply.
	if err := ValidatePath(filepath.Join(sub, "out.txt"), PathCheckWrite, cfg); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("extension error = %v, want INVALID_REQUEST", err)
	}
}

func TestValidatePath_SymlinkRejected(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.jsonl")
	if err := os.WriteFile(target, []byte("{}\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	link := filepath.Join(dir, "link.jsonl")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	err := ValidatePath(link, PathCheckRead, cfg)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("symlink error = %v, want INVALID_REQUEST", err)
	}
}

func TestSanitizeForFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"site plan", "site plan"},
		{"a/b\\c", "a-b-c"},
		{"..", "unnamed"},
		{"--x--", "x"},
	}
	for _, tt := range tests {
		if got := SanitizeForFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeForFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseExportFile(t *testing.T) {
	input := strings.Join([]string{
		`{"_cadsel_export":true,"schema_version":"1.0","exported_at":1}`,
		`{"document_path":"/plans/site.dwg","handle":"1","kind":"Line"}`,
		`not json`,
		`{"document_path":"relative.dwg","handle":"2","kind":"Line"}`,
		`{"handle":"3","kind":"Line"}`,
		``,
	}, "\n")

	records, parseErrors := parseExportFile(strings.NewReader(input))
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Handle != "1" {
		t.Errorf("record = %+v", records[0])
	}
	if len(parseErrors) != 3 {
		t.Fatalf("parse errors = %d, want 3 (bad json, relative path, missing path)", len(parseErrors))
	}
	codes := map[string]int{}
	for _, e := range parseErrors {
		codes[e.Code]++
	}
	if codes["PARSE_ERROR"] != 1 || codes["INVALID_RECORD"] != 2 {
		t.Errorf("error codes = %v", codes)
	}
}
