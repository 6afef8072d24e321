package container

import (
	"fmt"
	"reflect"
	"strings"
	"unsafe"
)

// ── Injectors ─────────────────────────────────────────────────────────────────

// Injector runs after an instance is built or obtained from a delegate.
// spec is nil when the instance has no specification.
type Injector interface {
	InjectDependencies(instance any, c *Container, spec Specification) error
}

// InjectorFunc adapts a func to Injector.
type InjectorFunc func(instance any, c *Container, spec Specification) error

func (f InjectorFunc) InjectDependencies(instance any, c *Container, spec Specification) error {
	return f(instance, c, spec)
}

// ContainerAwareInjector hands the root container to ContainerAware
// instances. It is registered on every new container.
type ContainerAwareInjector struct{}

func (ContainerAwareInjector) InjectDependencies(instance any, c *Container, _ Specification) error {
	if aware, ok := instance.(ContainerAware); ok {
		aware.SetContainer(c.Root())
	}
	return nil
}

// ── Tag injection ─────────────────────────────────────────────────────────────

// InjectionAnnotationProvider marks instances whose `inject` struct tags are
// honoured. Embed Annotated to implement it.
type InjectionAnnotationProvider interface {
	injectionAnnotations()
}

// Annotated enables `inject` tag processing on the embedding struct.
//
//	type ReportService struct {
//	    container.Annotated
//	    Title   string      `inject:"param=app.name,default=Reports"`
//	    mailer  Mailer      `inject:"service=mailer"`
//	    Printer *Printer    `inject:"class"`
//	    logger  *zap.Logger `inject:"service=logger,setter=SetLogger"`
//	}
type Annotated struct{}

func (Annotated) injectionAnnotations() {}

// injection is one parsed `inject` tag.
type injection struct {
	param      string
	def        string
	hasDefault bool
	class      string
	isClass    bool
	service    string
	setter     string
}

// parseInjectTag parses `inject:"key=value,..."`. A bare "class" or an empty
// tag asks for a fresh instance of the field's type.
func parseInjectTag(tag string) (injection, error) {
	var inj injection
	if strings.TrimSpace(tag) == "" {
		inj.isClass = true
		return inj, nil
	}
	for _, part := range strings.Split(tag, ",") {
		key, value, hasValue := strings.Cut(strings.TrimSpace(part), "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		switch key {
		case "param":
			inj.param = value
		case "default":
			inj.def, inj.hasDefault = value, true
		case "class":
			inj.isClass = true
			inj.class = value
		case "service":
			inj.service = value
		case "setter":
			inj.setter = value
		default:
			return inj, fmt.Errorf("unknown inject option %q", key)
		}
		if !hasValue && key != "class" {
			return inj, fmt.Errorf("inject option %q needs a value", key)
		}
	}
	if inj.param == "" && inj.service == "" {
		inj.isClass = true
	}
	return inj, nil
}

// InjectDependencies runs every registered injector on instance, then
// processes `inject` tags when instance embeds Annotated.
func (c *Container) InjectDependencies(instance any, spec Specification) error {
	if instance == nil {
		return nil
	}

	c.mu.RLock()
	injectors := append([]Injector(nil), c.injectors...)
	c.mu.RUnlock()

	for _, injector := range injectors {
		if err := injector.InjectDependencies(instance, c, spec); err != nil {
			return err
		}
	}

	if _, ok := instance.(InjectionAnnotationProvider); ok {
		return c.injectTagged(instance)
	}
	return nil
}

func (c *Container) injectTagged(instance any) error {
	v := reflect.ValueOf(instance)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil
	}
	elem := v.Elem()
	t := elem.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag, ok := field.Tag.Lookup("inject")
		if !ok || tag == "-" {
			continue
		}
		inj, err := parseInjectTag(tag)
		if err != nil {
			return wrapError(InvalidSpecification, err, "%s.%s", t, field.Name)
		}

		dep, err := c.resolveInjection(field, inj)
		if err != nil {
			return err
		}

		if inj.setter != "" {
			m := v.MethodByName(inj.setter)
			if !m.IsValid() {
				return newError(InvalidSpecification, "%s has no setter %s for field %s", v.Type(), inj.setter, field.Name)
			}
			sig := newSignature(m)
			args, err := c.positionalArguments(sig, []any{dep})
			if err != nil {
				return err
			}
			if _, err := sig.call(args); err != nil {
				return err
			}
			continue
		}

		fv := elem.Field(i)
		if !fv.CanSet() {
			fv = reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
		}
		val, err := convert(dep, fv.Type())
		if err != nil {
			return wrapError(InvalidSpecification, err, "injecting %s.%s", t, field.Name)
		}
		fv.Set(val)
	}
	return nil
}

func (c *Container) resolveInjection(field reflect.StructField, inj injection) (any, error) {
	switch {
	case inj.param != "":
		cfg := c.Config()
		if cfg == nil {
			return nil, newError(Generic, "cannot inject param %q into %s: no config is set", inj.param, field.Name)
		}
		if cfg.Has(inj.param) {
			return cfg.Get(inj.param), nil
		}
		if inj.hasDefault {
			return inj.def, nil
		}
		return nil, newError(Generic, "cannot inject param %q into %s: key is not set and has no default", inj.param, field.Name)

	case inj.service != "":
		if !c.Has(inj.service) {
			return nil, newError(DependencyNotFound, "dependency %q for field %s was not found", inj.service, field.Name)
		}
		return c.Get(inj.service)

	default:
		return c.newInjectedClass(field, inj.class)
	}
}

// newInjectedClass builds a fresh, fully injected instance for a class
// injection. The class comes from the tag or, failing that, from the
// field's type.
func (c *Container) newInjectedClass(field reflect.StructField, className string) (any, error) {
	if className == "" {
		className = autowireTypeName(field.Type)
	}

	var instance any
	if class, ok := c.classes.Lookup(className); className != "" && ok {
		params, err := c.autowire(class.sig, nil)
		if err != nil {
			return nil, err
		}
		args, err := c.arguments(class.sig, params)
		if err != nil {
			return nil, err
		}
		if instance, err = class.newInstance(args); err != nil {
			return nil, err
		}
	} else if field.Type.Kind() == reflect.Pointer && field.Type.Elem().Kind() == reflect.Struct &&
		(className == "" || className == TypeName(field.Type)) {
		instance = reflect.New(field.Type.Elem()).Interface()
	} else {
		return nil, newError(MissingDependencyDefinition,
			"cannot derive a class to inject into field %s (type %s)", field.Name, field.Type)
	}

	if err := c.InjectDependencies(instance, nil); err != nil {
		return nil, err
	}
	return instance, nil
}
