package container

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
)

// Params holds constructor, setter or factory arguments. Keys are either a
// parameter name or a decimal position ("0", "1", ...).
//
//	container.Params{"size": 10}
//	container.Params{"0": container.Ref("db"), "1": "service(cache)"}
type Params map[string]any

// ParamsFrom normalizes a raw parameter value. Slices become positional
// params; maps are copied; nil yields an empty Params.
func ParamsFrom(raw any) (Params, error) {
	switch v := raw.(type) {
	case nil:
		return Params{}, nil
	case Params:
		return maps.Clone(v), nil
	case map[string]any:
		return Params(maps.Clone(v)), nil
	case []any:
		return Positional(v...), nil
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make(Params, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[strconv.Itoa(i)] = rv.Index(i).Interface()
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		out := make(Params, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out, nil
	}
	return nil, newError(InvalidSpecification, "params must be a list or a map, got %T", raw)
}

// Positional builds Params from values in order.
func Positional(values ...any) Params {
	out := make(Params, len(values))
	for i, v := range values {
		out[strconv.Itoa(i)] = v
	}
	return out
}

// Merge returns a new Params holding p overridden by over.
func (p Params) Merge(over Params) Params {
	out := make(Params, len(p)+len(over))
	maps.Copy(out, p)
	maps.Copy(out, over)
	return out
}

// Values returns positional values in ascending position followed by named
// values sorted by name.
func (p Params) Values() []any {
	var positions []int
	var names []string
	for key := range p {
		if i, err := strconv.Atoi(key); err == nil && i >= 0 {
			positions = append(positions, i)
			continue
		}
		names = append(names, key)
	}
	slices.Sort(positions)
	slices.Sort(names)

	out := make([]any, 0, len(p))
	for _, i := range positions {
		out = append(out, p[strconv.Itoa(i)])
	}
	for _, name := range names {
		out = append(out, p[name])
	}
	return out
}

// lookup finds the value for parameter i, preferring its name.
func (p Params) lookup(i int, name string) (any, bool) {
	if name != "" {
		if v, ok := p[name]; ok {
			return v, true
		}
	}
	v, ok := p[strconv.Itoa(i)]
	return v, ok
}

// unknownKeys returns keys that match neither a position below n nor one of names.
func (p Params) unknownKeys(n int, names []string, variadic bool) []string {
	var out []string
	for key := range p {
		if slices.Contains(names, key) {
			continue
		}
		if i, err := strconv.Atoi(key); err == nil && i >= 0 && (i < n || variadic) {
			continue
		}
		out = append(out, key)
	}
	slices.Sort(out)
	return out
}

func (p Params) String() string {
	return fmt.Sprintf("%v", map[string]any(p))
}
