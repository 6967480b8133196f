package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Pair is an unordered pair of runner ids, normalised so that A < B.
// Its text form is "a-b".
type Pair struct {
	A int
	B int
}

// NewPair returns the normalised pair of two runner ids
func NewPair(x, y int) Pair {
	if x > y {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

// String returns the "a-b" form
func (p Pair) String() string {
	return strconv.Itoa(p.A) + "-" + strconv.Itoa(p.B)
}

// MarshalText implements encoding.TextMarshaler so Pair can key JSON objects
func (p Pair) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Pair) UnmarshalText(text []byte) error {
	ids, err := parseSelection(string(text), 2)
	if err != nil {
		return err
	}
	if ids[0] == ids[1] {
		return NewValidationError("invalid_selection", fmt.Sprintf("pair %q repeats a runner", text))
	}
	*p = NewPair(ids[0], ids[1])
	return nil
}

// Triple is an ordered triple of runner ids (1st, 2nd, 3rd). Its text form is "a-b-c".
type Triple struct {
	First  int
	Second int
	Third  int
}

// String returns the "a-b-c" form
func (t Triple) String() string {
	return strconv.Itoa(t.First) + "-" + strconv.Itoa(t.Second) + "-" + strconv.Itoa(t.Third)
}

// MarshalText implements encoding.TextMarshaler
func (t Triple) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *Triple) UnmarshalText(text []byte) error {
	ids, err := parseSelection(string(text), 3)
	if err != nil {
		return err
	}
	if ids[0] == ids[1] || ids[0] == ids[2] || ids[1] == ids[2] {
		return NewValidationError("invalid_selection", fmt.Sprintf("triple %q repeats a runner", text))
	}
	*t = Triple{First: ids[0], Second: ids[1], Third: ids[2]}
	return nil
}

// Less orders triples lexicographically
func (t Triple) Less(o Triple) bool {
	if t.First != o.First {
		return t.First < o.First
	}
	if t.Second != o.Second {
		return t.Second < o.Second
	}
	return t.Third < o.Third
}

// ParseRunnerID parses a single runner selection such as "7"
func ParseRunnerID(s string) (int, error) {
	ids, err := parseSelection(s, 1)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

func parseSelection(s string, want int) ([]int, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != want {
		return nil, NewValidationError("invalid_selection",
			fmt.Sprintf("selection %q: expected %d runner ids", s, want))
	}
	ids := make([]int, want)
	for i, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, NewValidationError("invalid_selection", fmt.Sprintf("selection %q: %v", s, err))
		}
		ids[i] = id
	}
	return ids, nil
}
