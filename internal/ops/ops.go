// Package ops implements the operations shared by the CLI and MCP
// surfaces. Each operation takes an Input struct, validates it, and
// returns an Output struct; errors are structured CadselErrors.
package ops

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/draftgrid/cadsel/internal/entity"
	"github.com/draftgrid/cadsel/internal/errors"
)

// MaxBatchRefs bounds how many references one operation accepts.
const MaxBatchRefs = 5000

// RefInput is a stable reference as it crosses the operation boundary.
type RefInput struct {
	DocumentPath string `json:"document_path"`
	Handle       string `json:"handle"`
}

// toRefs validates and converts boundary refs. Refs with an empty
// document path inherit defaultPath when it is non-empty.
func toRefs(in []RefInput, defaultPath string) ([]entity.Ref, error) {
	if len(in) > MaxBatchRefs {
		return nil, errors.NewInvalidRequest("too many references in one batch")
	}
	refs := make([]entity.Ref, 0, len(in))
	for _, r := range in {
		path := strings.TrimSpace(r.DocumentPath)
		if path == "" {
			path = defaultPath
		}
		handle := strings.TrimSpace(r.Handle)
		if path == "" || handle == "" {
			return nil, errors.NewInvalidRequest("each reference needs a document_path and a handle")
		}
		refs = append(refs, entity.Ref{DocumentPath: path, Handle: handle})
	}
	return refs, nil
}

// generateULID creates a new ULID for identifiers.
func generateULID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ParseRows parses a 1-based row spec like "1,3,5-8" into a sorted-free
// index set. An empty spec means all rows.
func ParseRows(spec string, rowCount int) (map[int]bool, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	rows := make(map[int]bool)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, ok := parseRowRange(part)
		if !ok {
			return nil, errors.NewInvalidRequest("rows must be 1-based indices or ranges, like 1,3,5-8")
		}
		for i := lo; i <= hi; i++ {
			if i < 1 || i > rowCount {
				return nil, errors.NewInvalidRequest("row " + strconv.Itoa(i) + " is out of range")
			}
			rows[i] = true
		}
	}
	if len(rows) == 0 {
		return nil, errors.NewInvalidRequest("rows spec selects nothing")
	}
	return rows, nil
}

func parseRowRange(part string) (lo, hi int, ok bool) {
	if i := strings.IndexByte(part, '-'); i > 0 {
		a, errA := strconv.Atoi(strings.TrimSpace(part[:i]))
		b, errB := strconv.Atoi(strings.TrimSpace(part[i+1:]))
		if errA != nil || errB != nil || a > b {
			return 0, 0, false
		}
		return a, b, true
	}
	n, err := strconv.Atoi(part)
	if err != nil {
		return 0, 0, false
	}
	return n, n, true
}
