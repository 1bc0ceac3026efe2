// Package backend selects the Rust target a contract is lowered to.
package backend

import (
	"fmt"
	"sort"
	"strings"

	"sol2rs/internal/backend/ink"
	"sol2rs/internal/backend/soroban"
	"sol2rs/internal/lower"
)

// Kind names a target framework.
type Kind string

const (
	Ink     Kind = "ink"
	InkV6   Kind = "ink-v6"
	Soroban Kind = "soroban"
)

// Registry maps every supported kind to a constructor. Backends keep
// per-compilation state, so each compilation gets a fresh instance.
var Registry = map[Kind]func() lower.Backend{
	Ink:     func() lower.Backend { return ink.New(ink.V5) },
	InkV6:   func() lower.Backend { return ink.New(ink.V6) },
	Soroban: func() lower.Backend { return soroban.New() },
}

// ParseKind parses a backend name, ignoring case and surrounding space.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := Registry[k]; !ok {
		return "", fmt.Errorf("unknown backend %q (available: %s)", s, strings.Join(Names(), ", "))
	}
	return k, nil
}

// New returns a fresh backend of kind k.
func New(k Kind) (lower.Backend, error) {
	mk, ok := Registry[k]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q", string(k))
	}
	return mk(), nil
}

// Names lists the registered backends in sorted order.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for k := range Registry {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}

func (k Kind) String() string {
	return string(k)
}
