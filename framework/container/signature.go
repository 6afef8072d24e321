package container

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// signature is the callable shape shared by constructors, setters, factories
// and autowired funcs: parameter names, defaults and autowiring hints keyed
// by position.
type signature struct {
	fn       reflect.Value
	names    []string
	defaults map[int]any
	hints    map[int]string
}

func newSignature(fn reflect.Value) *signature {
	return &signature{fn: fn, defaults: make(map[int]any), hints: make(map[int]string)}
}

func (s *signature) numIn() int { return s.fn.Type().NumIn() }

func (s *signature) name(i int) string {
	if i < len(s.names) {
		return s.names[i]
	}
	return ""
}

// position resolves a parameter name or decimal position.
func (s *signature) position(param string) (int, error) {
	if i := slices.Index(s.names, param); i >= 0 {
		return i, nil
	}
	i, err := strconv.Atoi(param)
	if err != nil || i < 0 || i >= s.numIn() {
		return 0, fmt.Errorf("unknown parameter %q", param)
	}
	return i, nil
}

// withHints returns a copy of s carrying hints keyed by name or position.
func (s *signature) withHints(hints map[string]string) *signature {
	if len(hints) == 0 {
		return s
	}
	cp := *s
	cp.hints = make(map[int]string, len(s.hints)+len(hints))
	for i, h := range s.hints {
		cp.hints[i] = h
	}
	for key, h := range hints {
		if i, err := s.position(key); err == nil {
			cp.hints[i] = h
		}
	}
	return &cp
}

// call invokes fn and splits off a trailing error result.
func (s *signature) call(args []reflect.Value) ([]any, error) {
	t := s.fn.Type()
	var results []reflect.Value
	if t.IsVariadic() {
		results = s.fn.CallSlice(args)
	} else {
		results = s.fn.Call(args)
	}

	out := make([]any, 0, len(results))
	for i, r := range results {
		if i == len(results)-1 && t.Out(i) == errorType {
			if !r.IsNil() {
				return nil, r.Interface().(error)
			}
			break
		}
		out = append(out, r.Interface())
	}
	return out, nil
}

func (s *signature) String() string { return s.fn.Type().String() }
