package container

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// MethodMetadata lets a value describe its methods for autowiring: parameter
// names and hint expressions keyed by parameter name or position.
//
//	func (h *Handler) ParamNames(method string) []string { return []string{"repo", "limit"} }
//	func (h *Handler) AutowireHints(method string) map[string]string {
//	    return map[string]string{"limit": "param(api.page_size)"}
//	}
type MethodMetadata interface {
	ParamNames(method string) []string
	AutowireHints(method string) map[string]string
}

// ── Autowiring ────────────────────────────────────────────────────────────────

// Autowire completes params for a callable by resolving every parameter that
// is not already given. target is a registered class name (its constructor),
// a func, or a value whose method named method is used.
//
// Named parameter types are looked up as services by TypeName; otherwise a
// hint expression is processed through the config, then the declared default
// is kept. Builtin types rely on hints and defaults only.
func (c *Container) Autowire(target any, method string, params Params) (Params, error) {
	sig, _, err := c.signatureOf(target, method)
	if err != nil {
		return nil, err
	}
	return c.autowire(sig, params)
}

// Autorun autowires and calls target, returning its results without a
// trailing error. When target is a value with a method, the value first
// receives its own dependencies.
//
//	out, err := c.Autorun(func(repo *UserRepository) int { return repo.Count() }, "", nil)
func (c *Container) Autorun(target any, method string, params Params) ([]any, error) {
	sig, receiver, err := c.signatureOf(target, method)
	if err != nil {
		return nil, err
	}
	if receiver != nil {
		if err := c.InjectDependencies(receiver, nil); err != nil {
			return nil, err
		}
	}

	full, err := c.autowire(sig, params)
	if err != nil {
		return nil, err
	}
	args, err := c.arguments(sig, full)
	if err != nil {
		return nil, err
	}
	return sig.call(args)
}

func (c *Container) signatureOf(target any, method string) (*signature, any, error) {
	if name, ok := target.(string); ok {
		class, found := c.classes.Lookup(name)
		if !found {
			return nil, nil, newError(InvalidSpecification, "cannot autowire unknown class %q", name)
		}
		if method != "" {
			return nil, nil, newError(InvalidSpecification, "cannot autowire method %s of class %q without an instance", method, name)
		}
		return class.sig, nil, nil
	}

	v := reflect.ValueOf(target)
	if !v.IsValid() {
		return nil, nil, newError(InvalidSpecification, "cannot autowire a nil target")
	}
	if v.Kind() == reflect.Func {
		return newSignature(v), nil, nil
	}

	if method == "" {
		if class, ok := c.classes.Lookup(TypeName(v.Type())); ok {
			return class.sig, nil, nil
		}
		return nil, nil, newError(InvalidSpecification, "%T is neither a func nor a registered class", target)
	}

	m := v.MethodByName(method)
	if !m.IsValid() {
		return nil, nil, newError(InvalidSpecification, "%T has no method %s", target, method)
	}
	sig := newSignature(m)
	if md, ok := target.(MethodMetadata); ok {
		sig.names = md.ParamNames(method)
		sig = sig.withHints(md.AutowireHints(method))
	}
	return sig, target, nil
}

func (c *Container) autowire(sig *signature, params Params) (Params, error) {
	out := maps.Clone(params)
	if out == nil {
		out = Params{}
	}

	t := sig.fn.Type()
	for i := 0; i < t.NumIn(); i++ {
		if t.IsVariadic() && i == t.NumIn()-1 {
			break
		}
		name := sig.name(i)
		if _, ok := out.lookup(i, name); ok {
			continue
		}

		label := name
		if label == "" {
			label = "#" + strconv.Itoa(i)
		}

		// the resolving view, so builds started from the callee stay on this chain
		if t.In(i) == reflect.TypeOf((**Container)(nil)).Elem() {
			out[positionKey(i)] = c
			continue
		}
		typeName := autowireTypeName(t.In(i))
		if typeName != "" && c.Has(typeName) {
			dep, err := c.Get(typeName)
			if err != nil {
				return nil, err
			}
			out[positionKey(i)] = dep
			continue
		}
		if hint, ok := sig.hints[i]; ok {
			v, err := c.processValue(hint)
			if err != nil {
				return nil, wrapError(Generic, err, "processing hint for parameter %s of %s", label, sig)
			}
			out[positionKey(i)] = v
			continue
		}
		if _, ok := sig.defaults[i]; ok {
			continue
		}

		if typeName == "" {
			return nil, &ServiceNotFoundError{
				Reason: fmt.Sprintf("cannot autowire parameter %s of %s because its type is undefined", label, sig),
			}
		}
		return nil, &ServiceNotFoundError{
			ID:     typeName,
			Reason: fmt.Sprintf("is not registered: no service matching dependent class for parameter %s of %s", label, sig),
		}
	}
	return out, nil
}

// ── Arguments ─────────────────────────────────────────────────────────────────

// arguments maps params onto sig by name or position, substitutes references
// and converts each value to its parameter type.
func (c *Container) arguments(sig *signature, params Params) ([]reflect.Value, error) {
	t := sig.fn.Type()
	n := t.NumIn()
	variadic := t.IsVariadic()

	if unknown := params.unknownKeys(n, sig.names, variadic); len(unknown) > 0 {
		return nil, newError(InvalidSpecification, "unknown parameters %v for %s", unknown, sig)
	}

	fixed := n
	if variadic {
		fixed--
	}

	args := make([]reflect.Value, 0, n)
	for i := 0; i < fixed; i++ {
		raw, ok := params.lookup(i, sig.name(i))
		if !ok {
			if raw, ok = sig.defaults[i]; !ok {
				return nil, newError(InvalidSpecification, "missing value for parameter #%d %s of %s", i, sig.name(i), sig)
			}
		}
		arg, err := c.argument(raw, t.In(i), i, sig)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	if variadic {
		var rest []any
		if raw, ok := params[sig.name(fixed)]; ok && sig.name(fixed) != "" {
			arg, err := c.argument(raw, t.In(fixed), fixed, sig)
			if err != nil {
				return nil, err
			}
			return append(args, arg), nil
		}
		var positions []int
		for key := range params {
			if i, err := strconv.Atoi(key); err == nil && i >= fixed {
				positions = append(positions, i)
			}
		}
		slices.Sort(positions)
		for _, i := range positions {
			rest = append(rest, params[positionKey(i)])
		}
		tail, err := c.variadicArgument(rest, t.In(fixed), fixed, sig)
		if err != nil {
			return nil, err
		}
		args = append(args, tail)
	}
	return args, nil
}

// positionalArguments maps values onto sig in order. Values beyond the
// parameter count are dropped unless sig is variadic.
func (c *Container) positionalArguments(sig *signature, values []any) ([]reflect.Value, error) {
	t := sig.fn.Type()
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
	}
	if len(values) < fixed {
		return nil, newError(InvalidSpecification, "%s expects %d arguments, got %d", sig, fixed, len(values))
	}

	args := make([]reflect.Value, 0, t.NumIn())
	for i := 0; i < fixed; i++ {
		arg, err := c.argument(values[i], t.In(i), i, sig)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if t.IsVariadic() {
		tail, err := c.variadicArgument(values[fixed:], t.In(fixed), fixed, sig)
		if err != nil {
			return nil, err
		}
		args = append(args, tail)
	}
	return args, nil
}

func (c *Container) argument(raw any, t reflect.Type, i int, sig *signature) (reflect.Value, error) {
	v, err := c.processValue(raw)
	if err != nil {
		return reflect.Value{}, err
	}
	arg, err := convert(v, t)
	if err != nil {
		return reflect.Value{}, wrapError(InvalidSpecification, err, "parameter #%d of %s", i, sig)
	}
	return arg, nil
}

func (c *Container) variadicArgument(values []any, sliceType reflect.Type, offset int, sig *signature) (reflect.Value, error) {
	out := reflect.MakeSlice(sliceType, 0, len(values))
	for j, raw := range values {
		arg, err := c.argument(raw, sliceType.Elem(), offset+j, sig)
		if err != nil {
			return reflect.Value{}, err
		}
		out = reflect.Append(out, arg)
	}
	return out, nil
}

// processValue substitutes Ref values and `service(id)` strings with the
// referenced service and runs other strings through the config's parameter
// processors, recursing into lists and maps.
func (c *Container) processValue(v any) (any, error) {
	switch val := v.(type) {
	case Reference:
		return c.Get(val.ID)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			p, err := c.processValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, item := range val {
			p, err := c.processValue(item)
			if err != nil {
				return nil, err
			}
			out[key] = p
		}
		return out, nil
	case string:
		if id, ok := serviceExpression(val); ok {
			return c.Get(id)
		}
		if cfg := c.Config(); cfg != nil {
			return cfg.ProcessParameter(val)
		}
	}
	return v, nil
}

// serviceExpression extracts id from "service(id)".
func serviceExpression(s string) (string, bool) {
	s = strings.TrimSpace(s)
	inner, ok := strings.CutPrefix(s, "service(")
	if !ok || !strings.HasSuffix(inner, ")") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimSuffix(inner, ")")), true
}
