// Package transform computes replacement cell values. The three stages
// always run in the same order regardless of which are supplied:
// pattern substitution, then literal find/replace, then math.
package transform

import (
	"strings"

	"github.com/draftgrid/cadsel/internal/entity"
)

// Transform describes one bulk value transformation.
type Transform struct {
	// Pattern substitutes "{}" with the cell's current value and
	// $Column / $"Column Name" tokens with values from the same row.
	Pattern string `json:"pattern,omitempty"`

	// Find/Replace is literal substring replacement, not regex.
	Find    string `json:"find,omitempty"`
	Replace string `json:"replace,omitempty"`

	// Math is an operator string: "x", "-x", "<N>x", "x+N", "x-N",
	// "x*N", "x/N".
	Math string `json:"math,omitempty"`

	// MathMode selects whole-value or embedded-token math application.
	MathMode MathMode `json:"math_mode,omitempty"`
}

// IsZero reports whether the transform does nothing.
func (t Transform) IsZero() bool {
	return t.Pattern == "" && t.Find == "" && t.Math == ""
}

// Apply runs the transform stages against one cell value. The row
// provides the $Column lookups; it may be nil when no pattern is used.
func (t Transform) Apply(value string, row *entity.Record) string {
	out := value

	if t.Pattern != "" {
		out = expandPattern(t.Pattern, value, row)
	}

	if t.Find != "" {
		out = strings.ReplaceAll(out, t.Find, t.Replace)
	}

	if t.Math != "" {
		out = applyMathString(out, t.Math, t.MathMode)
	}

	return out
}

// expandPattern substitutes "{}" with the current value and resolves
// column tokens. An unresolvable token stays in the output verbatim.
func expandPattern(pattern, value string, row *entity.Record) string {
	var out strings.Builder
	i := 0
	for i < len(pattern) {
		if strings.HasPrefix(pattern[i:], "{}") {
			out.WriteString(value)
			i += 2
			continue
		}
		if pattern[i] == '$' {
			token, resolved, consumed := resolveToken(pattern[i:], row)
			if resolved {
				out.WriteString(token)
			} else {
				out.WriteString(pattern[i : i+consumed])
			}
			i += consumed
			continue
		}
		out.WriteByte(pattern[i])
		i++
	}
	return out.String()
}

// resolveToken parses a $Column or $"Column Name" token at the start of
// s and looks it up in the row (case-insensitive fallback). Returns the
// resolved value, whether resolution succeeded, and the bytes consumed.
func resolveToken(s string, row *entity.Record) (value string, resolved bool, consumed int) {
	// s[0] == '$'
	if len(s) > 1 && s[1] == '"' {
		end := strings.IndexByte(s[2:], '"')
		if end < 0 {
			return "", false, len(s)
		}
		name := s[2 : 2+end]
		consumed = 2 + end + 1
		return lookup(row, name, consumed)
	}

	j := 1
	for j < len(s) && isIdentChar(s[j]) {
		j++
	}
	if j == 1 {
		// Bare '$' with no identifier.
		return "", false, 1
	}
	return lookup(row, s[1:j], j)
}

func lookup(row *entity.Record, name string, consumed int) (string, bool, int) {
	if row == nil {
		return "", false, consumed
	}
	if c, ok := row.Lookup(name); ok {
		return c.String(), true, consumed
	}
	return "", false, consumed
}

func isIdentChar(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
