package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Geun-Oh/switchsink/internal/entry"
)

// KeywordFilter matches entries whose message contains a keyword.
type KeywordFilter struct {
	keyword string
}

func NewKeywordFilter(keyword string) *KeywordFilter {
	return &KeywordFilter{keyword: keyword}
}

func (f *KeywordFilter) Match(e *entry.LogEntry) bool {
	return strings.Contains(e.Message, f.keyword)
}

func (f *KeywordFilter) Name() string {
	return "keyword:" + f.keyword
}

// ExcludeFilter passes entries that contain none of its patterns.
type ExcludeFilter struct {
	patterns []string
}

func NewExcludeFilter(patterns ...string) *ExcludeFilter {
	return &ExcludeFilter{patterns: patterns}
}

func (f *ExcludeFilter) Match(e *entry.LogEntry) bool {
	for _, p := range f.patterns {
		if strings.Contains(e.Message, p) {
			return false
		}
	}
	return true
}

func (f *ExcludeFilter) Name() string {
	return "exclude:" + strings.Join(f.patterns, ",")
}

// RegexFilter matches entries against a regular expression compiled once at
// construction.
type RegexFilter struct {
	re *regexp.Regexp
}

func NewRegexFilter(pattern string) (*RegexFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("filter: invalid regex %q: %w", pattern, err)
	}
	return &RegexFilter{re: re}, nil
}

func (f *RegexFilter) Match(e *entry.LogEntry) bool {
	return f.re.MatchString(e.Message)
}

func (f *RegexFilter) Name() string {
	return "regex:" + f.re.String()
}
