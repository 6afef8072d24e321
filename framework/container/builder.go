package container

import (
	"reflect"
)

// ── Builder ───────────────────────────────────────────────────────────────────

// Builder turns a Specification into an instance. The container asks each
// registered builder in order and uses the first whose Handles returns true.
//
// Build receives the container resolving the service. Dependencies must be
// resolved through it, not through a container captured earlier: a builder
// may be shared by several containers, and c tracks the chain of ids being
// built.
type Builder interface {
	Handles(spec Specification) bool
	Build(c *Container, spec Specification, params Params, serviceID string) (any, error)
}

// ContainerAware is implemented by services that need the container they
// were resolved from.
type ContainerAware interface {
	SetContainer(c *Container)
}

// Aware is an embeddable ContainerAware implementation.
//
//	type ReportService struct{ container.Aware }
type Aware struct {
	container *Container
}

func (a *Aware) SetContainer(c *Container) { a.container = c }

// Container returns the container set through SetContainer, or nil.
func (a *Aware) Container() *Container { return a.container }

func incompatible(b Builder, spec Specification) error {
	return newError(IncompatibleSpecification, "%T cannot build %T (service %q)", b, spec, spec.ID())
}

// ── ClassBuilder ──────────────────────────────────────────────────────────────

// ClassBuilder builds ClassSpecification services through the class
// registry. When no params are configured at all, the constructor is
// autowired; otherwise missing parameters fall back to their defaults.
type ClassBuilder struct{}

func (b *ClassBuilder) Handles(spec Specification) bool {
	_, ok := spec.(*ClassSpecification)
	return ok
}

func (b *ClassBuilder) Build(c *Container, spec Specification, params Params, serviceID string) (any, error) {
	s, ok := spec.(*ClassSpecification)
	if !ok {
		return nil, incompatible(b, spec)
	}

	class, ok := c.classes.Lookup(s.Class)
	if !ok {
		return nil, newError(InvalidSpecification, "cannot build service %q: class %q is not registered", serviceID, s.Class)
	}

	var err error
	merged := s.Params.Merge(params)
	if len(merged) == 0 {
		if merged, err = c.autowire(class.sig, merged); err != nil {
			return nil, err
		}
	}

	args, err := c.arguments(class.sig, merged)
	if err != nil {
		return nil, err
	}
	instance, err := class.newInstance(args)
	if err != nil {
		return nil, err
	}

	for _, setter := range s.Setters {
		if err := c.callSetter(instance, setter.Name, setter.Params); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// callSetter invokes a method by name on instance with processed params.
func (c *Container) callSetter(instance any, name string, params Params) error {
	m := reflect.ValueOf(instance).MethodByName(name)
	if !m.IsValid() {
		return newError(InvalidSpecification, "%T has no method %s", instance, name)
	}
	sig := newSignature(m)
	args, err := c.arguments(sig, params)
	if err != nil {
		return err
	}
	_, err = sig.call(args)
	return err
}

// ── PrefabBuilder ─────────────────────────────────────────────────────────────

// PrefabBuilder returns the instance held by a PrefabSpecification.
type PrefabBuilder struct{}

func (b *PrefabBuilder) Handles(spec Specification) bool {
	_, ok := spec.(*PrefabSpecification)
	return ok
}

func (b *PrefabBuilder) Build(_ *Container, spec Specification, _ Params, _ string) (any, error) {
	s, ok := spec.(*PrefabSpecification)
	if !ok {
		return nil, incompatible(b, spec)
	}
	return s.Instance, nil
}

// ── DelegatedFactoryBuilder ───────────────────────────────────────────────────

// DelegatedFactoryBuilder calls the factory of a DelegatedFactorySpecification
// with (serviceID, container, runtime params..., spec params...). Arguments
// beyond the factory's arity are dropped.
type DelegatedFactoryBuilder struct{}

func (b *DelegatedFactoryBuilder) Handles(spec Specification) bool {
	_, ok := spec.(*DelegatedFactorySpecification)
	return ok
}

func (b *DelegatedFactoryBuilder) Build(c *Container, spec Specification, params Params, serviceID string) (any, error) {
	s, ok := spec.(*DelegatedFactorySpecification)
	if !ok {
		return nil, incompatible(b, spec)
	}
	if err := checkFactory(s.Factory); err != nil {
		return nil, wrapError(InvalidSpecification, err, "service %q", serviceID)
	}

	values := append([]any{serviceID, c}, params.Values()...)
	values = append(values, s.Params.Values()...)

	sig := newSignature(reflect.ValueOf(s.Factory))
	args, err := c.positionalArguments(sig, values)
	if err != nil {
		return nil, err
	}
	out, err := sig.call(args)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}
