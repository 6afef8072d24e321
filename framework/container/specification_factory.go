package container

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// NewSpecification turns a raw definition, as read from a services file or
// built in code, into a Specification.
//
//	spec, err := container.NewSpecification(map[string]any{
//	    "id":     "mailer",
//	    "class":  "app.SMTPMailer",
//	    "params": map[string]any{"host": "param(mail.host)"},
//	    "alias":  "mail",
//	})
func NewSpecification(raw map[string]any) (Specification, error) {
	id, ok := raw["id"]
	if !ok {
		return nil, newError(IncompleteSpecification, "missing 'id' in service specification")
	}
	serviceID, ok := id.(string)
	if !ok || serviceID == "" {
		return nil, newError(InvalidSpecification, "service 'id' must be a non-empty string, got %v", id)
	}

	spec, err := buildSpecification(serviceID, raw)
	if err != nil {
		return nil, err
	}

	b := spec.base()
	if v, ok := raw["static"]; ok {
		static, err := toBool(v)
		if err != nil {
			return nil, wrapError(InvalidSpecification, err, "service %q: 'static'", serviceID)
		}
		b.SetStatic(static)
	}
	if v, ok := raw["final"]; ok {
		final, err := toBool(v)
		if err != nil {
			return nil, wrapError(InvalidSpecification, err, "service %q: 'final'", serviceID)
		}
		b.SetFinal(final)
	}
	for _, key := range []string{"alias", "aliases"} {
		v, ok := raw[key]
		if !ok {
			continue
		}
		aliases, err := toStrings(v)
		if err != nil {
			return nil, wrapError(InvalidSpecification, err, "service %q: '%s'", serviceID, key)
		}
		b.AddAliases(aliases...)
	}
	return spec, nil
}

func buildSpecification(id string, raw map[string]any) (Specification, error) {
	if t, ok := raw["type"]; ok {
		switch strings.ToLower(fmt.Sprint(t)) {
		case "class":
			return classSpecificationFrom(id, raw)
		case "prefab", "instance":
			return prefabSpecificationFrom(id, raw)
		case "factory", "delegated":
			return factorySpecificationFrom(id, raw)
		case "undefined":
			return NewUndefinedSpecification(id, raw), nil
		default:
			return nil, newError(InvalidSpecification, "service %q: unknown specification type %q", id, t)
		}
	}

	var found []string
	for _, key := range []string{"instance", "class", "factory"} {
		if _, ok := raw[key]; ok {
			found = append(found, key)
		}
	}
	switch len(found) {
	case 0:
		return NewUndefinedSpecification(id, raw), nil
	case 1:
	default:
		return nil, newError(AmbiguousSpecification,
			"service %q: cannot guess specification type from keys %s", id, strings.Join(found, ", "))
	}

	switch found[0] {
	case "instance":
		return prefabSpecificationFrom(id, raw)
	case "class":
		return classSpecificationFrom(id, raw)
	default:
		return factorySpecificationFrom(id, raw)
	}
}

func classSpecificationFrom(id string, raw map[string]any) (*ClassSpecification, error) {
	v, ok := raw["class"]
	if !ok {
		return nil, newError(IncompleteSpecification, "service %q: missing 'class' parameter", id)
	}
	class, ok := v.(string)
	if !ok || strings.TrimSpace(class) == "" {
		return nil, newError(InvalidSpecification, "service %q: 'class' must be a non-empty string", id)
	}

	spec := NewClassSpecification(id, class)
	params, err := ParamsFrom(raw["params"])
	if err != nil {
		return nil, wrapError(InvalidSpecification, err, "service %q", id)
	}
	spec.Params = params

	setters, err := settersFrom(raw["setters"])
	if err != nil {
		return nil, wrapError(InvalidSpecification, err, "service %q", id)
	}
	spec.Setters = setters
	return spec, nil
}

func prefabSpecificationFrom(id string, raw map[string]any) (*PrefabSpecification, error) {
	instance, ok := raw["instance"]
	if !ok {
		return nil, newError(IncompleteSpecification, "service %q: missing 'instance' parameter", id)
	}
	return NewPrefabSpecification(id, instance), nil
}

func factorySpecificationFrom(id string, raw map[string]any) (*DelegatedFactorySpecification, error) {
	factory, ok := raw["factory"]
	if !ok {
		return nil, newError(IncompleteSpecification, "service %q: missing 'factory' parameter", id)
	}
	if err := checkFactory(factory); err != nil {
		return nil, wrapError(InvalidSpecification, err, "service %q", id)
	}

	spec := NewDelegatedFactorySpecification(id, factory)
	params, err := ParamsFrom(raw["params"])
	if err != nil {
		return nil, wrapError(InvalidSpecification, err, "service %q", id)
	}
	spec.Params = params
	return spec, nil
}

// checkFactory validates a factory's shape: a func returning a value and
// optionally a trailing error.
func checkFactory(factory any) error {
	t := reflect.TypeOf(factory)
	if t == nil || t.Kind() != reflect.Func {
		return fmt.Errorf("factory must be a func, got %T", factory)
	}
	switch {
	case t.NumOut() == 1:
	case t.NumOut() == 2 && t.Out(1) == errorType:
	default:
		return fmt.Errorf("factory %s must return a value and an optional error", t)
	}
	return nil
}

// settersFrom accepts a map of setter name to params, or a list of
// single-key maps when call order matters. Map setters run sorted by name;
// config.ParseServices turns YAML mappings into lists to keep file order.
func settersFrom(raw any) ([]Setter, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		slices.Sort(names)
		setters := make([]Setter, 0, len(names))
		for _, name := range names {
			s, err := setterFrom(name, v[name])
			if err != nil {
				return nil, err
			}
			setters = append(setters, s)
		}
		return setters, nil
	case []any:
		var setters []Setter
		for _, entry := range v {
			m, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("setter entries must be maps, got %T", entry)
			}
			more, err := settersFrom(m)
			if err != nil {
				return nil, err
			}
			setters = append(setters, more...)
		}
		return setters, nil
	}
	return nil, fmt.Errorf("'setters' must be a map or a list, got %T", raw)
}

func setterFrom(name string, raw any) (Setter, error) {
	switch raw.(type) {
	case nil:
		return Setter{Name: name, Params: Params{}}, nil
	case []any, map[string]any, Params:
		params, err := ParamsFrom(raw)
		if err != nil {
			return Setter{}, err
		}
		return Setter{Name: name, Params: params}, nil
	}
	return Setter{Name: name, Params: Positional(raw)}, nil
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	case int:
		return b != 0, nil
	}
	return false, fmt.Errorf("expected a boolean, got %T", v)
}

func toStrings(v any) ([]string, error) {
	switch s := v.(type) {
	case string:
		return []string{s}, nil
	case []string:
		return s, nil
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected a string, got %T", item)
			}
			out = append(out, str)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a string or a list of strings, got %T", v)
}
