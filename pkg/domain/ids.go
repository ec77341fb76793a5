// Package domain holds the typed identifiers shared across the registry.
//
// Identifiers are deliberately thin newtypes: services and stores pass them
// around without caring how callers obtained them, and the compiler keeps a
// project id from being confused with a history sequence number.
package domain

import (
	"strconv"
	"strings"
)

// ProjectID identifies a registered project. IDs are allocated by the ledger,
// start at 1, increase by exactly 1 per successful registration, and are never
// reused.
type ProjectID uint64

func (id ProjectID) IsZero() bool { return id == 0 }

func (id ProjectID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseProjectID parses a decimal project id. Zero is not a valid id.
func ParseProjectID(s string) (ProjectID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return ProjectID(n), nil
}

// Principal is an opaque, globally unique caller identity. The registry grants
// no inherent privilege to any principal except the single admin identity and
// whatever ownership or collaborator records explicitly confer.
type Principal string

func (p Principal) IsZero() bool { return p == "" }

func (p Principal) String() string { return string(p) }

// ParsePrincipal normalizes an identity string. Principals are compared by
// exact match, so the only normalization is surrounding whitespace removal.
func ParsePrincipal(s string) Principal {
	return Principal(strings.TrimSpace(s))
}
