package processor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	ferrors "flowdown/errors"
)

// Matcher filters exported files by glob patterns over their slash-separated
// path relative to the export root. Excludes take precedence; with no include
// patterns everything not excluded matches. A nil Matcher matches everything.
type Matcher struct {
	include []string
	exclude []string
}

// NewMatcher validates the patterns and builds a matcher
func NewMatcher(include, exclude []string) (*Matcher, error) {
	for _, pattern := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, ferrors.NewConfigError(fmt.Sprintf("invalid pattern %q", pattern), nil)
		}
	}
	return &Matcher{include: include, exclude: exclude}, nil
}

// Match reports whether the file at relPath should be exported
func (m *Matcher) Match(relPath string) bool {
	if m == nil {
		return true
	}
	relPath = strings.TrimPrefix(filepath.ToSlash(relPath), "/")

	for _, pattern := range m.exclude {
		if matchPattern(pattern, relPath) {
			return false
		}
	}
	if len(m.include) == 0 {
		return true
	}
	for _, pattern := range m.include {
		if matchPattern(pattern, relPath) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, relPath string) bool {
	ok, err := doublestar.Match(strings.TrimPrefix(pattern, "/"), relPath)
	return err == nil && ok
}
