package transform

import (
	"regexp"
	"strconv"
	"strings"
)

// MathMode controls how a math operator applies to a string value.
type MathMode int

const (
	// MathWhole applies the operator only when the whole value parses
	// as a number; otherwise the value passes through unchanged. This
	// is the cell-edit behavior.
	MathWhole MathMode = iota

	// MathEmbedded applies the operator to every numeric token inside
	// the string, leaving the rest intact. This is the bulk-rename
	// behavior.
	MathEmbedded
)

// numberToken matches unsigned numeric tokens inside a larger string.
// Unsigned on purpose: "A-WALL-01" must not lose its separators.
var numberToken = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ApplyMathOperation evaluates the operator mini-language against one
// number. Unparseable operators and division by zero leave the value
// unchanged; there is no error path.
//
//	x     identity
//	-x    negate
//	<N>x  multiply by N
//	x+N, x-N, x*N, x/N
func ApplyMathOperation(value float64, op string) float64 {
	op = strings.ReplaceAll(op, " ", "")
	if op == "" || op == "x" {
		return value
	}
	if op == "-x" {
		return -value
	}

	// "<N>x" multiplier form, including negative multipliers
	if strings.HasSuffix(op, "x") {
		if n, err := strconv.ParseFloat(op[:len(op)-1], 64); err == nil {
			return value * n
		}
	}

	// "x<op>N" arithmetic form
	if strings.HasPrefix(op, "x") && len(op) > 2 {
		operator := op[1]
		n, err := strconv.ParseFloat(op[2:], 64)
		if err != nil {
			return value
		}
		switch operator {
		case '+':
			return value + n
		case '-':
			return value - n
		case '*':
			return value * n
		case '/':
			if n == 0 {
				return value
			}
			return value / n
		}
	}

	return value
}

// applyMathString applies the operator to a string value per mode.
func applyMathString(value, op string, mode MathMode) string {
	switch mode {
	case MathEmbedded:
		return numberToken.ReplaceAllStringFunc(value, func(tok string) string {
			n, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return tok
			}
			return formatNumber(ApplyMathOperation(n, op))
		})
	default:
		n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return value
		}
		return formatNumber(ApplyMathOperation(n, op))
	}
}

// formatNumber renders a float with the shortest exact representation.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
