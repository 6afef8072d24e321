package config

import (
	"fmt"
	"maps"
	"os"
	"strings"
	"sync"
)

// Processor resolves the argument of a `keyword(arg)` expression.
type Processor func(arg string) (any, error)

// Repository holds dotted configuration keys ("app.name") and evaluates
// `keyword(arg)` parameter expressions. Keys missing from the repository
// fall back to the environment: "app.name" reads APP_NAME.
//
//	// Laravel: config('app.name')
//	repo.Get("app.name")
//	repo.ProcessParameter("param(app.name)")
type Repository struct {
	mu         sync.RWMutex
	items      map[string]any
	processors map[string]Processor
}

// NewRepository creates a repository holding items, with the `param` and
// `env` processors registered.
func NewRepository(items map[string]any) *Repository {
	r := &Repository{
		items:      maps.Clone(items),
		processors: make(map[string]Processor),
	}
	if r.items == nil {
		r.items = make(map[string]any)
	}
	r.RegisterParameterProcessor("param", r.param)
	r.RegisterParameterProcessor("env", func(name string) (any, error) {
		return os.Getenv(name), nil
	})
	return r
}

// Set stores value under key.
func (r *Repository) Set(key string, value any) *Repository {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[key] = value
	return r
}

// Has reports whether key is set, in the repository or the environment.
func (r *Repository) Has(key string) bool {
	r.mu.RLock()
	_, ok := r.items[key]
	r.mu.RUnlock()
	return ok || os.Getenv(envKey(key)) != ""
}

// Get returns the value for key, or nil.
func (r *Repository) Get(key string) any {
	r.mu.RLock()
	v, ok := r.items[key]
	r.mu.RUnlock()
	if ok {
		return v
	}
	if v := os.Getenv(envKey(key)); v != "" {
		return v
	}
	return nil
}

// All returns a copy of the repository items.
func (r *Repository) All() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.items)
}

// RegisterParameterProcessor registers fn for expressions `keyword(arg)`.
func (r *Repository) RegisterParameterProcessor(keyword string, fn func(arg string) (any, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors[keyword] = fn
}

// ProcessParameter evaluates a `keyword(arg)` string with the registered
// processor. Lists and maps are processed element by element; anything else
// is returned unchanged.
func (r *Repository) ProcessParameter(value any) (any, error) {
	switch v := value.(type) {
	case string:
		keyword, arg, ok := parseExpression(v)
		if !ok {
			return v, nil
		}
		r.mu.RLock()
		fn, ok := r.processors[keyword]
		r.mu.RUnlock()
		if !ok {
			return v, nil
		}
		out, err := fn(arg)
		if err != nil {
			return nil, fmt.Errorf("config: %s(%s): %w", keyword, arg, err)
		}
		return out, nil
	case []any:
		return r.ProcessParameters(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			p, err := r.ProcessParameter(item)
			if err != nil {
				return nil, err
			}
			out[key] = p
		}
		return out, nil
	}
	return value, nil
}

// ProcessParameters runs ProcessParameter on each value.
func (r *Repository) ProcessParameters(values []any) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		p, err := r.ProcessParameter(v)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (r *Repository) param(key string) (any, error) {
	if !r.Has(key) {
		return nil, fmt.Errorf("parameter %q is not set", key)
	}
	return r.Get(key), nil
}

// parseExpression splits "keyword(arg)" into its parts.
func parseExpression(s string) (keyword, arg string, ok bool) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	keyword = s[:open]
	for i, ch := range keyword {
		isLetter := ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
		if !isLetter && (i == 0 || ch < '0' || ch > '9') {
			return "", "", false
		}
	}
	return keyword, strings.TrimSpace(s[open+1 : len(s)-1]), true
}

// envKey maps "app.name" to "APP_NAME".
func envKey(key string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}
