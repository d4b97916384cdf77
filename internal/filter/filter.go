// Package filter decides which log entries reach the sinks.
package filter

import (
	"fmt"
	"strings"

	"github.com/Geun-Oh/switchsink/internal/entry"
)

// Filter determines whether a LogEntry matches a filtering criterion.
type Filter interface {
	// Match returns true if the entry passes this filter.
	Match(e *entry.LogEntry) bool

	// Name returns a human-readable description of this filter.
	Name() string
}

// MatchMode controls how multiple filters are combined.
type MatchMode int

const (
	// MatchAny passes if ANY filter matches (OR logic).
	MatchAny MatchMode = iota
	// MatchAll passes only if ALL filters match (AND logic).
	MatchAll
)

// ParseMatchMode accepts "any" (or "") and "all".
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(s) {
	case "", "any":
		return MatchAny, nil
	case "all":
		return MatchAll, nil
	default:
		return MatchAny, fmt.Errorf("filter: unknown match mode %q", s)
	}
}

// Chain combines multiple filters with a configurable match mode.
type Chain struct {
	filters []Filter
	mode    MatchMode
}

// NewChain creates a Chain with the given mode.
func NewChain(mode MatchMode, filters ...Filter) *Chain {
	return &Chain{filters: filters, mode: mode}
}

// Add appends a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Match evaluates the chain against an entry. An empty chain passes
// everything.
func (c *Chain) Match(e *entry.LogEntry) bool {
	if len(c.filters) == 0 {
		return true
	}

	if c.mode == MatchAll {
		for _, f := range c.filters {
			if !f.Match(e) {
				return false
			}
		}
		return true
	}

	for _, f := range c.filters {
		if f.Match(e) {
			return true
		}
	}
	return false
}

// Name describes the chain and its members.
func (c *Chain) Name() string {
	op := "OR"
	if c.mode == MatchAll {
		op = "AND"
	}
	names := make([]string, 0, len(c.filters))
	for _, f := range c.filters {
		names = append(names, f.Name())
	}
	return fmt.Sprintf("chain(%s)[%s]", op, strings.Join(names, " "))
}

// Len returns the number of filters in the chain.
func (c *Chain) Len() int {
	return len(c.filters)
}
