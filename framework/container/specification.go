package container

import (
	"maps"
	"reflect"
	"slices"
)

// ── Specification ─────────────────────────────────────────────────────────────

// Specification describes how to obtain one service. Every implementation
// embeds Base, which carries the identity and lifecycle flags.
type Specification interface {
	ID() string
	Aliases() []string
	IsStatic() bool
	IsFinal() bool

	base() *Base
}

// AutoAliaser is implemented by specifications that contribute implicit
// aliases when registered. Implicit aliases never override a final service.
type AutoAliaser interface {
	AutoAliases(classes *ClassRegistry) []string
}

// Base holds the fields shared by all specifications. A zero Base is static
// and not final.
type Base struct {
	id        string
	aliases   []string
	transient bool
	final     bool
}

func (b *Base) ID() string        { return b.id }
func (b *Base) Aliases() []string { return slices.Clone(b.aliases) }
func (b *Base) IsStatic() bool    { return !b.transient }
func (b *Base) IsFinal() bool     { return b.final }

// SetStatic controls whether the built instance is cached.
func (b *Base) SetStatic(static bool) { b.transient = !static }

// SetFinal forbids later registrations from replacing this service.
func (b *Base) SetFinal(final bool) { b.final = final }

// AddAliases appends explicit aliases, skipping duplicates.
func (b *Base) AddAliases(aliases ...string) {
	for _, alias := range aliases {
		if alias != "" && !slices.Contains(b.aliases, alias) {
			b.aliases = append(b.aliases, alias)
		}
	}
}

func (b *Base) base() *Base { return b }

// ── Variants ──────────────────────────────────────────────────────────────────

// Setter is a method invoked on a freshly built class instance.
type Setter struct {
	Name   string
	Params Params
}

// ClassSpecification builds a registered class through its constructor.
//
//	spec := container.NewClassSpecification("mailer", "app.SMTPMailer")
//	spec.Params = container.Params{"host": "param(mail.host)"}
//	spec.AddSetter("SetLogger", container.Ref("logger"))
type ClassSpecification struct {
	Base
	Class   string
	Params  Params
	Setters []Setter
}

func NewClassSpecification(id, class string) *ClassSpecification {
	return &ClassSpecification{Base: Base{id: id}, Class: class, Params: Params{}}
}

// AddSetter appends a setter call with positional params.
func (s *ClassSpecification) AddSetter(name string, params ...any) *ClassSpecification {
	s.Setters = append(s.Setters, Setter{Name: name, Params: Positional(params...)})
	return s
}

// AutoAliases returns the class name and every registered interface it implements.
func (s *ClassSpecification) AutoAliases(classes *ClassRegistry) []string {
	aliases := []string{s.Class}
	if classes != nil {
		for _, iface := range classes.Implements(s.Class) {
			if !slices.Contains(aliases, iface) {
				aliases = append(aliases, iface)
			}
		}
	}
	return aliases
}

// PrefabSpecification returns an already built value.
type PrefabSpecification struct {
	Base
	Instance any
}

func NewPrefabSpecification(id string, instance any) *PrefabSpecification {
	return &PrefabSpecification{Base: Base{id: id}, Instance: instance}
}

// DelegatedFactorySpecification obtains the service from a factory func.
// The factory receives the service id and the container, followed by the
// runtime params and then Params.
//
//	container.NewDelegatedFactorySpecification("clock", func(id string, c *container.Container) *Clock { ... })
type DelegatedFactorySpecification struct {
	Base
	Factory any
	Params  Params
}

func NewDelegatedFactorySpecification(id string, factory any) *DelegatedFactorySpecification {
	return &DelegatedFactorySpecification{Base: Base{id: id}, Factory: factory, Params: Params{}}
}

// UndefinedSpecification keeps a raw definition no builder understands yet.
// A custom Builder may claim it.
type UndefinedSpecification struct {
	Base
	Params map[string]any
}

func NewUndefinedSpecification(id string, params map[string]any) *UndefinedSpecification {
	return &UndefinedSpecification{Base: Base{id: id}, Params: params}
}

// cloneSpecification copies spec under a new id. Used to stamp wildcard
// templates with the concrete id being resolved.
func cloneSpecification(spec Specification, id string) Specification {
	v := reflect.ValueOf(spec)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return spec
	}
	cp := reflect.New(v.Elem().Type())
	cp.Elem().Set(v.Elem())

	clone := cp.Interface().(Specification)
	b := clone.base()
	b.id = id
	b.aliases = slices.Clone(b.aliases)

	switch s := clone.(type) {
	case *ClassSpecification:
		s.Params = maps.Clone(s.Params)
		s.Setters = slices.Clone(s.Setters)
	case *DelegatedFactorySpecification:
		s.Params = maps.Clone(s.Params)
	case *UndefinedSpecification:
		s.Params = maps.Clone(s.Params)
	}
	return clone
}
