package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Bounds enforced by Parse. Quest damage formulas are authored content, so the
// limits exist to catch typos ("3d600") rather than to defend against players.
const (
	MaxCount = 100
	MinSides = 2
	MaxSides = 100
)

// FormatError reports a malformed or out-of-range dice expression. It is fatal
// to the single call: the caller must not retry with the same input.
type FormatError struct {
	Expr   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("dice: invalid expression %q: %s", e.Expr, e.Reason)
}

// Expression represents a parsed dice expression ready to be rolled.
// Precondition: Count in [1, MaxCount], Sides in [MinSides, MaxSides] after successful Parse.
type Expression struct {
	Raw      string // original input string
	Count    int    // number of dice
	Sides    int    // faces per die
	Modifier int    // flat modifier (may be negative)
}

// Parse parses a dice expression string into an Expression.
// Supported forms: "d20", "2d6", "2d6+3", "4d8-2".
//
// Precondition: expr must be non-empty.
// Postcondition: Returns a valid Expression or a *FormatError.
func Parse(expr string) (Expression, error) {
	if expr == "" {
		return Expression{}, &FormatError{Expr: expr, Reason: "empty expression"}
	}

	raw := expr

	// Strictly lowercase, no surrounding whitespace.
	dIdx := strings.Index(raw, "d")
	if dIdx < 0 {
		return Expression{}, &FormatError{Expr: raw, Reason: "missing 'd'"}
	}

	// Count defaults to 1 when omitted ("d20").
	count := 1
	if countStr := raw[:dIdx]; countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return Expression{}, &FormatError{Expr: raw, Reason: "die count is not a number"}
		}
		count = n
	}
	if count < 1 || count > MaxCount {
		return Expression{}, &FormatError{
			Expr:   raw,
			Reason: fmt.Sprintf("die count must be in [1, %d], got %d", MaxCount, count),
		}
	}

	rest := raw[dIdx+1:]

	// Split sides from an optional trailing modifier. The first '+' or '-'
	// past position 0 starts the modifier.
	modOffset := -1
	for i := 1; i < len(rest); i++ {
		if rest[i] == '+' || rest[i] == '-' {
			modOffset = i
			break
		}
	}

	sidesStr, modStr := rest, ""
	if modOffset >= 0 {
		sidesStr, modStr = rest[:modOffset], rest[modOffset:]
	}

	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Expression{}, &FormatError{Expr: raw, Reason: "die sides is not a number"}
	}
	if sides < MinSides || sides > MaxSides {
		return Expression{}, &FormatError{
			Expr:   raw,
			Reason: fmt.Sprintf("die sides must be in [%d, %d], got %d", MinSides, MaxSides, sides),
		}
	}

	modifier := 0
	if modStr != "" {
		modifier, err = strconv.Atoi(modStr)
		if err != nil {
			return Expression{}, &FormatError{Expr: raw, Reason: "modifier is not a number"}
		}
	}

	return Expression{
		Raw:      raw,
		Count:    count,
		Sides:    sides,
		Modifier: modifier,
	}, nil
}
