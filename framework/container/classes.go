package container

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// ── Class metadata ────────────────────────────────────────────────────────────

// Class is a constructor registered under a textual class name. Go has no
// runtime class loader, so ClassSpecification and autowiring resolve names
// through a ClassRegistry.
type Class struct {
	name string
	typ  reflect.Type
	sig  *signature
}

// Name returns the registered class name.
func (cl *Class) Name() string { return cl.name }

// Type returns the type the constructor produces.
func (cl *Class) Type() reflect.Type { return cl.typ }

// ParamNames returns the constructor parameter names, if declared.
func (cl *Class) ParamNames() []string { return slices.Clone(cl.sig.names) }

// ClassOption configures a class at definition time.
type ClassOption func(*Class) error

// Named overrides the class name derived from the produced type.
func Named(name string) ClassOption {
	return func(cl *Class) error {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("class name must not be empty")
		}
		cl.name = name
		return nil
	}
}

// ParamNames declares constructor parameter names so params can be given by name.
func ParamNames(names ...string) ClassOption {
	return func(cl *Class) error {
		if len(names) > cl.sig.fn.Type().NumIn() {
			return fmt.Errorf("%d parameter names given for %d parameters", len(names), cl.sig.fn.Type().NumIn())
		}
		cl.sig.names = slices.Clone(names)
		return nil
	}
}

// Default sets the value used when a parameter is neither configured nor
// autowired. param is a declared name or a decimal position.
func Default(param string, value any) ClassOption {
	return func(cl *Class) error {
		i, err := cl.sig.position(param)
		if err != nil {
			return err
		}
		cl.sig.defaults[i] = value
		return nil
	}
}

// Hint sets the expression used to autowire a parameter, e.g. "param(db.dsn)"
// or "service(cache)". param is a declared name or a decimal position.
func Hint(param, expression string) ClassOption {
	return func(cl *Class) error {
		i, err := cl.sig.position(param)
		if err != nil {
			return err
		}
		cl.sig.hints[i] = expression
		return nil
	}
}

// newInstance calls the constructor with already converted arguments.
func (cl *Class) newInstance(args []reflect.Value) (any, error) {
	out, err := cl.sig.call(args)
	if err != nil {
		return nil, wrapError(Generic, err, "constructing %s", cl.name)
	}
	return out[0], nil
}

// ── Registry ──────────────────────────────────────────────────────────────────

// ClassRegistry maps class names to constructors and knows which registered
// interfaces each class implements.
//
//	classes := container.NewClassRegistry()
//	classes.Define(NewSMTPMailer, container.ParamNames("host", "port"), container.Default("port", 25))
//	classes.DefineInterface((*Mailer)(nil))
type ClassRegistry struct {
	mu         sync.RWMutex
	classes    map[string]*Class
	interfaces []namedInterface
}

type namedInterface struct {
	name string
	typ  reflect.Type
}

func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{classes: make(map[string]*Class)}
}

// Define registers a class. ctor is either a constructor func returning a
// value and an optional error, or a pointer to a struct, in which case the
// class is built by allocating a new zero struct.
func (r *ClassRegistry) Define(ctor any, opts ...ClassOption) (*Class, error) {
	cl, err := newClass(ctor)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(cl); err != nil {
			return nil, wrapError(InvalidSpecification, err, "defining class %s", cl.name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[strings.ToLower(cl.name)] = cl
	return cl, nil
}

// DefineInterface registers an interface, given as a nil pointer to it, so
// class specifications auto-alias to its name.
//
//	classes.DefineInterface((*Mailer)(nil))
func (r *ClassRegistry) DefineInterface(ptr any, name ...string) (string, error) {
	t := reflect.TypeOf(ptr)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Interface {
		return "", newError(InvalidSpecification, "DefineInterface expects a nil pointer to an interface, got %T", ptr)
	}
	iface := t.Elem()
	n := TypeName(iface)
	if len(name) > 0 && name[0] != "" {
		n = name[0]
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.interfaces = slices.DeleteFunc(r.interfaces, func(ni namedInterface) bool {
		return strings.EqualFold(ni.name, n)
	})
	r.interfaces = append(r.interfaces, namedInterface{name: n, typ: iface})
	return n, nil
}

// Lookup returns the class registered under name (case-insensitive).
func (r *ClassRegistry) Lookup(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cl, ok := r.classes[strings.ToLower(name)]
	return cl, ok
}

// Has reports whether a class is registered under name.
func (r *ClassRegistry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Implements lists the registered interface names the class satisfies, in
// registration order.
func (r *ClassRegistry) Implements(class string) []string {
	cl, ok := r.Lookup(class)
	if !ok {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, ni := range r.interfaces {
		if cl.typ.Implements(ni.typ) {
			out = append(out, ni.name)
		}
	}
	return out
}

// Names returns all registered class names, sorted.
func (r *ClassRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.classes))
	for _, cl := range r.classes {
		out = append(out, cl.name)
	}
	slices.Sort(out)
	return out
}

func newClass(ctor any) (*Class, error) {
	v := reflect.ValueOf(ctor)
	if !v.IsValid() {
		return nil, newError(InvalidSpecification, "class constructor must not be nil")
	}

	if v.Kind() == reflect.Pointer && v.Type().Elem().Kind() == reflect.Struct {
		elem := v.Type().Elem()
		fn := reflect.MakeFunc(reflect.FuncOf(nil, []reflect.Type{v.Type()}, false),
			func([]reflect.Value) []reflect.Value { return []reflect.Value{reflect.New(elem)} })
		return &Class{name: TypeName(v.Type()), typ: v.Type(), sig: newSignature(fn)}, nil
	}

	if v.Kind() != reflect.Func {
		return nil, newError(InvalidSpecification, "class constructor must be a func or a struct pointer, got %T", ctor)
	}
	t := v.Type()
	if t.NumOut() == 0 || t.NumOut() > 2 || (t.NumOut() == 2 && t.Out(1) != errorType) {
		return nil, newError(InvalidSpecification, "constructor %s must return a value and an optional error", t)
	}
	return &Class{name: TypeName(t.Out(0)), typ: t.Out(0), sig: newSignature(v)}, nil
}

// ── Type names ────────────────────────────────────────────────────────────────

// TypeName returns the package-qualified name of t with pointers stripped,
// e.g. "github.com/acme/app.Mailer". Unnamed types yield their Go syntax.
func TypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// TypeKey returns TypeName for the dynamic type of v. Pass a nil pointer to
// name an interface.
//
//	key := container.TypeKey((*UserRepository)(nil))  // "main.UserRepository"
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Interface {
		return TypeName(t.Elem())
	}
	return TypeName(t)
}

// autowireTypeName returns the service id a parameter type autowires from,
// or "" for builtin and unnamed types.
func autowireTypeName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return ""
	}
	return TypeName(t)
}

func positionKey(i int) string { return strconv.Itoa(i) }
