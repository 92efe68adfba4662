package prototype

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// Identifier names a template. Implementations are small value types:
// copyable, comparable with ==, usable as map keys, and printable.
// Every identifier type comes with a Parser that inverts String:
// parse(id.String()) == id for every valid id.
type Identifier interface {
	comparable
	fmt.Stringer
}

// Parser converts text back into an identifier.
type Parser[T Identifier] func(s string) (T, error)

// Hash returns a stable 64-bit hash of the identifier's text form.
func Hash[T Identifier](id T) uint64 {
	return xxhash.Sum64String(id.String())
}

// RoundTrips reports whether id survives a display/parse cycle.
func RoundTrips[T Identifier](parse Parser[T], id T) bool {
	parsed, err := parse(id.String())
	return err == nil && parsed == id
}

// Name is a free-form identifier for data-driven content.
// Valid names are non-empty and contain no whitespace.
type Name string

func (n Name) String() string {
	return string(n)
}

// ParseName validates s as a Name.
func ParseName(s string) (Name, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: name is empty", ErrParse)
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("%w: name %q contains whitespace", ErrParse, s)
	}
	return Name(s), nil
}

// ParseError is returned by EnumParser for text outside the closed set.
type ParseError struct {
	Kind     string
	Input    string
	Accepted []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: unknown %s %q, expected one of %s",
		ErrParse, e.Kind, e.Input, strings.Join(e.Accepted, ", "))
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// EnumParser builds a case-sensitive parser for a closed set of identifiers.
func EnumParser[T Identifier](kind string, values ...T) Parser[T] {
	byName := make(map[string]T, len(values))
	names := make([]string, 0, len(values))
	for _, v := range values {
		byName[v.String()] = v
		names = append(names, v.String())
	}

	return func(s string) (T, error) {
		if v, ok := byName[strings.TrimSpace(s)]; ok {
			return v, nil
		}
		var zero T
		return zero, &ParseError{Kind: kind, Input: s, Accepted: slices.Clone(names)}
	}
}
