package container

import (
	"path"
	"strings"
)

// Matcher decides whether a wildcard service id matches a concrete id.
// Both arguments are normalized (lower case).
type Matcher interface {
	Match(pattern, id string) bool
}

// MatcherFunc adapts a func to Matcher.
type MatcherFunc func(pattern, id string) bool

func (f MatcherFunc) Match(pattern, id string) bool { return f(pattern, id) }

// GlobMatcher matches shell patterns: "*" and "?" stop at "/", "[...]" is a
// character class. "repository.*" matches "repository.users".
type GlobMatcher struct{}

func (GlobMatcher) Match(pattern, id string) bool {
	ok, err := path.Match(pattern, id)
	return err == nil && ok
}

// isPattern reports whether id contains glob metacharacters.
func isPattern(id string) bool {
	return strings.ContainsAny(id, "*?[")
}
