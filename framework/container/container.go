package container

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ── Collaborators ─────────────────────────────────────────────────────────────

// Config is the parameter store consulted for `param(...)` style expressions
// and `inject:"param=..."` tags. framework/config.Repository implements it.
type Config interface {
	Has(key string) bool
	Get(key string) any
	ProcessParameter(value any) (any, error)
	ProcessParameters(values []any) ([]any, error)
	RegisterParameterProcessor(keyword string, fn func(arg string) (any, error))
}

// Delegate is another container consulted when an id has no local
// specification.
type Delegate interface {
	Has(id string) bool
	Get(id string) (any, error)
}

// ResolvingDelegate is a Delegate that resolves through the container
// asking for id, so builds it triggers stay on the caller's chain.
type ResolvingDelegate interface {
	Delegate
	GetWith(c *Container, id string) (any, error)
}

// Reference points at another service. Builders replace it with the
// referenced instance.
type Reference struct {
	ID string
}

// Ref returns a Reference to the service id.
//
//	spec.Params = container.Params{"db": container.Ref("db")}
func Ref(id string) Reference { return Reference{ID: id} }

func (r Reference) String() string { return "service(" + r.ID + ")" }

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the services factory: it maps service ids to specifications
// and builds, injects and caches the corresponding instances.
//
// It supports:
//   - class, prefab, delegated-factory and custom specifications
//   - explicit aliases and auto-aliases by class and interface name
//   - static (cached) and transient services, final services
//   - wildcard ids ("repository.*") resolved through clones
//   - constructor/method autowiring and `inject` tag injection
//   - delegate containers
//
// Table access is guarded by a RWMutex; building runs outside the lock.
// Builders, factories and injectors receive a view of the container that
// shares its tables and remembers the ids being built on that resolution
// chain. Resolving through the view is what detects cycles.
type Container struct {
	*registry

	// build in progress on this view, nil on the container returned by New
	frame *frame
}

// registry holds the tables shared by a container and all of its views.
type registry struct {
	mu sync.RWMutex

	// normalized id → specification
	specifications map[string]Specification

	// wildcard specifications, in registration order
	wildcards []Specification

	// normalized alias → normalized id
	aliases map[string]string

	// normalized id → cached static instance
	instances map[string]any

	// normalized id → first build of a static service in progress
	inflight map[string]*flight

	builders  []Builder
	injectors []Injector
	delegates []Delegate

	classes *ClassRegistry
	config  Config
	matcher Matcher
	logger  *zap.Logger

	root *Container
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger used for debug events. Defaults to zap.NewNop.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) { c.logger = logger }
}

// WithClasses shares a class registry between containers.
func WithClasses(classes *ClassRegistry) Option {
	return func(c *Container) { c.classes = classes }
}

// WithConfig sets the config, as SetConfig does.
func WithConfig(cfg Config) Option {
	return func(c *Container) { c.config = cfg }
}

// WithMatcher replaces the wildcard matcher.
func WithMatcher(m Matcher) Option {
	return func(c *Container) { c.matcher = m }
}

// New creates a container with the default builders and the
// ContainerAwareInjector. The container registers itself as "container".
func New(opts ...Option) *Container {
	c := &Container{registry: &registry{
		specifications: make(map[string]Specification),
		aliases:        make(map[string]string),
		instances:      make(map[string]any),
		inflight:       make(map[string]*flight),
		injectors:      []Injector{ContainerAwareInjector{}},
		matcher:        GlobMatcher{},
		logger:         zap.NewNop(),
	}}
	c.root = c
	for _, opt := range opts {
		opt(c)
	}
	if c.classes == nil {
		c.classes = NewClassRegistry()
	}
	for _, b := range []Builder{&ClassBuilder{}, &PrefabBuilder{}, &DelegatedFactoryBuilder{}} {
		c.RegisterBuilder(b)
	}
	if c.config != nil {
		c.SetConfig(c.config)
	}

	self := NewPrefabSpecification("container", c)
	self.AddAliases(TypeKey(c))
	self.SetFinal(true)
	_ = c.RegisterService(self)
	return c
}

// Classes returns the class registry used to build class specifications.
func (c *Container) Classes() *ClassRegistry { return c.classes }

// DefineClass registers a class constructor; see ClassRegistry.Define.
func (c *Container) DefineClass(ctor any, opts ...ClassOption) error {
	_, err := c.classes.Define(ctor, opts...)
	return err
}

// SetLogger replaces the logger.
func (c *Container) SetLogger(logger *zap.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger
}

func (c *Container) log() *zap.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}

// ── Configuration ─────────────────────────────────────────────────────────────

// SetConfig sets the parameter store and registers the `service(id)`
// processor on it, for callers that process parameters outside a build.
func (c *Container) SetConfig(cfg Config) {
	c.mu.Lock()
	c.config = cfg
	c.mu.Unlock()
	root := c.root
	cfg.RegisterParameterProcessor("service", func(id string) (any, error) {
		return root.Get(id)
	})
}

// Config returns the config set through SetConfig, falling back to a
// registered "config" service that implements Config.
func (c *Container) Config() Config {
	c.mu.RLock()
	cfg := c.config
	spec := c.lookup("config")
	c.mu.RUnlock()
	if cfg != nil {
		return cfg
	}
	if prefab, ok := spec.(*PrefabSpecification); ok {
		if cfg, ok := prefab.Instance.(Config); ok {
			return cfg
		}
	}
	return nil
}

// ── Registration ──────────────────────────────────────────────────────────────

// RegisterService registers specifications. Each argument is a
// Specification or a raw map[string]any definition.
//
//	c.RegisterService(map[string]any{"id": "mailer", "class": "app.SMTPMailer", "final": true})
func (c *Container) RegisterService(specs ...any) error {
	for _, raw := range specs {
		spec, err := toSpecification(raw)
		if err != nil {
			return err
		}
		if err := c.register(spec); err != nil {
			return err
		}
	}
	return nil
}

func toSpecification(raw any) (Specification, error) {
	switch s := raw.(type) {
	case Specification:
		return s, nil
	case map[string]any:
		spec, err := NewSpecification(s)
		if err != nil {
			return nil, wrapError(InvalidServiceSpecs, err, "service specification %v could not be processed", s["id"])
		}
		return spec, nil
	}
	return nil, newError(InvalidServiceSpecs, "service specification must be a Specification or a map, got %T", raw)
}

func (c *Container) register(spec Specification) error {
	id := normalize(spec.ID())
	if id == "" {
		return newError(IncompleteSpecification, "service specification has no id")
	}

	var autoAliases []string
	if aa, ok := spec.(AutoAliaser); ok {
		autoAliases = aa.AutoAliases(c.classes)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev := c.lookup(id); prev != nil && prev.IsFinal() {
		return newError(FinalServiceOverridingAttempt, "cannot override final service %q", prev.ID())
	}
	for _, alias := range spec.Aliases() {
		if prev := c.lookup(alias); prev != nil && prev.IsFinal() && normalize(prev.ID()) != id {
			return newError(FinalServiceOverridingAttempt,
				"cannot alias %q to %q: it already points to final service %q", alias, spec.ID(), prev.ID())
		}
	}

	c.specifications[id] = spec
	delete(c.instances, id)
	delete(c.inflight, id)
	if isPattern(id) {
		c.wildcards = slices.DeleteFunc(c.wildcards, func(w Specification) bool { return normalize(w.ID()) == id })
		c.wildcards = append(c.wildcards, spec)
	}
	for _, alias := range spec.Aliases() {
		c.aliases[normalize(alias)] = id
	}
	for _, alias := range autoAliases {
		key := normalize(alias)
		if _, taken := c.specifications[key]; taken {
			continue
		}
		if prev := c.lookup(key); prev != nil && prev.IsFinal() {
			c.logger.Debug("auto-alias skipped for final service",
				zap.String("alias", alias), zap.String("final", prev.ID()))
			continue
		}
		c.aliases[key] = id
	}

	c.logger.Debug("service registered", zap.String("id", spec.ID()), zap.String("type", fmt.Sprintf("%T", spec)))
	return nil
}

// Specification returns the specification for id: a direct match, an
// alias, or a clone of the first matching wildcard specification. It
// returns nil when nothing matches.
func (c *Container) Specification(id string) Specification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookup(id)
}

// lookup must be called with mu held.
func (c *Container) lookup(id string) Specification {
	key := normalize(id)
	if spec, ok := c.specifications[key]; ok {
		return spec
	}
	if target, ok := c.aliases[key]; ok {
		if spec, ok := c.specifications[target]; ok {
			return spec
		}
	}
	for _, w := range c.wildcards {
		if c.matcher.Match(normalize(w.ID()), key) {
			return cloneSpecification(w, id)
		}
	}
	return nil
}

// Has reports whether id can be resolved: locally, through a delegate, or
// as a registered class name, in which case a class specification is
// registered on the fly.
func (c *Container) Has(id string) bool {
	if c.Specification(id) != nil {
		return true
	}
	for _, d := range c.delegateList() {
		if d.Has(id) {
			return true
		}
	}
	return c.registerClass(id)
}

// IsServiceRegistered is an alias of Has.
func (c *Container) IsServiceRegistered(id string) bool { return c.Has(id) }

func (c *Container) registerClass(id string) bool {
	class, ok := c.classes.Lookup(id)
	if !ok {
		return false
	}
	return c.register(NewClassSpecification(id, class.Name())) == nil
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get returns the service registered as id. Static services built without
// runtime params are cached, and their first build runs once even when
// several goroutines ask at the same time. Passing params always builds a
// new instance.
//
//	mailer, err := c.Get("mailer")
//	report, err := c.Get("report", container.Params{"title": "Weekly"})
func (c *Container) Get(id string, params ...Params) (any, error) {
	var runtime Params
	for _, p := range params {
		runtime = runtime.Merge(p)
	}

	spec := c.Specification(id)
	if spec == nil {
		for _, d := range c.delegateList() {
			if !d.Has(id) {
				continue
			}
			instance, err := c.fromDelegate(d, id)
			if err != nil {
				return nil, err
			}
			if instance != nil {
				c.log().Debug("service obtained from delegate", zap.String("id", id), zap.String("delegate", fmt.Sprintf("%T", d)))
				if err := c.InjectDependencies(instance, nil); err != nil {
					return nil, err
				}
				return instance, nil
			}
		}

		if c.registerClass(id) {
			spec = c.Specification(id)
		}
		if spec == nil {
			return nil, &ServiceNotFoundError{
				ID:     id,
				Reason: "matches no registered service in this factory or its delegate containers",
			}
		}
	}

	key := normalize(spec.ID())
	cacheable := spec.IsStatic() && len(runtime) == 0
	if cacheable {
		c.mu.RLock()
		instance, ok := c.instances[key]
		c.mu.RUnlock()
		if ok {
			return instance, nil
		}
	}

	view, err := c.push(key)
	if err != nil {
		return nil, err
	}
	if cacheable {
		return view.buildOnce(spec, key)
	}
	return view.build(spec, runtime, false)
}

func (c *Container) fromDelegate(d Delegate, id string) (any, error) {
	if rd, ok := d.(ResolvingDelegate); ok {
		return rd.GetWith(c, id)
	}
	return d.Get(id)
}

// build runs the builder and injectors for spec on a view pushed for it.
func (c *Container) build(spec Specification, runtime Params, cached bool) (any, error) {
	defer c.frame.done.Store(true)

	builder := c.ResolveBuilder(spec)
	if builder == nil {
		return nil, newError(NoBuilderFound, "no builder found to handle %T (service %q)", spec, spec.ID())
	}
	instance, err := builder.Build(c, spec, runtime, spec.ID())
	if err != nil {
		return nil, err
	}
	if err := c.InjectDependencies(instance, spec); err != nil {
		return nil, err
	}

	c.log().Debug("service built", zap.String("id", spec.ID()), zap.Bool("cached", cached))
	return instance, nil
}

// buildOnce builds a static service, or waits for the build another
// goroutine already started and shares its result.
func (c *Container) buildOnce(spec Specification, key string) (any, error) {
	c.mu.Lock()
	if instance, ok := c.instances[key]; ok {
		c.mu.Unlock()
		c.frame.done.Store(true)
		return instance, nil
	}
	if f, ok := c.inflight[key]; ok {
		defer c.frame.done.Store(true)
		if c.blockedBy(f) {
			c.mu.Unlock()
			return nil, newError(CircularDependency,
				"circular dependency detected: %s waits on a concurrent build that waits on it", c.frame.path())
		}
		c.frame.chain.waiting = f
		c.mu.Unlock()

		<-f.done

		c.mu.Lock()
		c.frame.chain.waiting = nil
		c.mu.Unlock()
		return f.instance, f.err
	}
	f := &flight{done: make(chan struct{}), owner: c.frame.chain}
	c.inflight[key] = f
	c.mu.Unlock()

	f.err = newError(Generic, "build of service %q did not complete", spec.ID())
	defer c.land(key, f)
	f.instance, f.err = c.build(spec, nil, true)
	return f.instance, f.err
}

// land publishes the result of f and releases its waiters. A flight
// orphaned by a re-registration does not populate the cache.
func (c *Container) land(key string, f *flight) {
	c.mu.Lock()
	if c.inflight[key] == f {
		delete(c.inflight, key)
		if f.err == nil {
			c.instances[key] = f.instance
		}
	}
	c.mu.Unlock()
	close(f.done)
}

// blockedBy reports whether waiting on f would close a loop of chains
// waiting on each other. Must be called with mu held.
func (c *Container) blockedBy(f *flight) bool {
	mine := c.frame.chain
	for f != nil {
		if f.owner == mine {
			return true
		}
		f = f.owner.waiting
	}
	return false
}

// ── Resolution chains ─────────────────────────────────────────────────────────

// frame is one build on a resolution chain.
type frame struct {
	key    string
	parent *frame
	chain  *chain
	done   atomic.Bool
}

// chain is the nested builds started by one top-level Get.
type chain struct {
	// flight the chain is blocked on; guarded by registry.mu
	waiting *flight
}

// flight is the first build of a static service.
type flight struct {
	done     chan struct{}
	owner    *chain
	instance any
	err      error
}

func (f *frame) path() string {
	var keys []string
	for ; f != nil; f = f.parent {
		keys = append(keys, f.key)
	}
	slices.Reverse(keys)
	return strings.Join(keys, " -> ")
}

// push returns a view building key on top of the current chain. A view
// whose build has returned starts a new chain.
func (c *Container) push(key string) (*Container, error) {
	parent := c.frame
	if parent != nil && parent.done.Load() {
		parent = nil
	}
	for f := parent; f != nil; f = f.parent {
		if f.key == key {
			return nil, newError(CircularDependency, "circular dependency detected: %s -> %s", parent.path(), key)
		}
	}

	next := &frame{key: key, parent: parent}
	if parent != nil {
		next.chain = parent.chain
	} else {
		next.chain = &chain{}
	}
	return &Container{registry: c.registry, frame: next}, nil
}

// Root returns the container this view was derived from. Keep the root,
// not a view, in long-lived references.
func (c *Container) Root() *Container { return c.root }

// ── Builders, delegates, injectors ────────────────────────────────────────────

// ResolveBuilder returns the first builder that handles spec, or nil.
func (c *Container) ResolveBuilder(spec Specification) Builder {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, b := range c.builders {
		if b.Handles(spec) {
			return b
		}
	}
	return nil
}

// RegisterBuilder appends a builder after the existing ones.
func (c *Container) RegisterBuilder(b Builder) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builders = append(c.builders, b)
	return c
}

// RegisterDelegate appends a container consulted on local misses.
func (c *Container) RegisterDelegate(d Delegate) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delegates = append(c.delegates, d)
	return c
}

// RegisterInjector appends an injector run on every built instance.
func (c *Container) RegisterInjector(i Injector) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.injectors = append(c.injectors, i)
	return c
}

func (c *Container) delegateList() []Delegate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.delegates)
}

// ── Laravel-style helpers ─────────────────────────────────────────────────────

// Factory builds a value from the container.
type Factory func(c *Container) any

// Bind registers a transient factory: every Get builds a new value.
//
//	// Laravel: $app->bind(UserRepository::class, fn($app) => new EloquentUserRepository($app))
//	c.Bind("UserRepository", func(c *container.Container) any {
//	    return &EloquentUserRepository{DB: container.Resolve[*sql.DB](c, "db")}
//	})
func (c *Container) Bind(id string, factory Factory) error {
	spec := NewDelegatedFactorySpecification(id, func(_ string, c *Container) any { return factory(c) })
	spec.SetStatic(false)
	return c.RegisterService(spec)
}

// Singleton registers a factory whose result is cached after first use.
//
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache($app))
func (c *Container) Singleton(id string, factory Factory) error {
	return c.RegisterService(NewDelegatedFactorySpecification(id, func(_ string, c *Container) any { return factory(c) }))
}

// Instance registers an already built value.
//
//	// Laravel: $app->instance(Config::class, $config)
func (c *Container) Instance(id string, instance any) error {
	return c.RegisterService(NewPrefabSpecification(id, instance))
}

// Alias points alias at the service id.
//
//	// Laravel: $app->alias(Cache::class, 'cache')
func (c *Container) Alias(id, alias string) error {
	if normalize(id) == normalize(alias) {
		return newError(InvalidSpecification, "%q is aliased to itself", id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	target := c.lookup(id)
	if target == nil {
		return &ServiceNotFoundError{ID: id, Reason: "cannot be aliased: it is not registered"}
	}
	if prev := c.lookup(alias); prev != nil && prev.IsFinal() && prev != target {
		return newError(FinalServiceOverridingAttempt, "cannot alias %q: it points to final service %q", alias, prev.ID())
	}
	c.aliases[normalize(alias)] = normalize(target.ID())
	return nil
}

// Bound reports whether id has a local specification.
func (c *Container) Bound(id string) bool { return c.Specification(id) != nil }

// Resolved reports whether id has a cached instance.
func (c *Container) Resolved(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := normalize(id)
	if target, ok := c.aliases[key]; ok {
		key = target
	}
	_, ok := c.instances[key]
	return ok
}

// Forget removes the specification, cached instance and aliases of id.
func (c *Container) Forget(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	spec := c.lookup(id)
	if spec == nil {
		return nil
	}
	if spec.IsFinal() {
		return newError(FinalServiceOverridingAttempt, "cannot forget final service %q", spec.ID())
	}
	key := normalize(spec.ID())
	delete(c.specifications, key)
	delete(c.instances, key)
	delete(c.inflight, key)
	c.wildcards = slices.DeleteFunc(c.wildcards, func(w Specification) bool { return normalize(w.ID()) == key })
	maps.DeleteFunc(c.aliases, func(_, target string) bool { return target == key })
	return nil
}

// Make resolves id and panics on failure.
//
//	// Laravel: $app->make(UserRepository::class)
func (c *Container) Make(id string) any {
	instance, err := c.Get(id)
	if err != nil {
		panic(err)
	}
	return instance
}

// AfterResolving registers a callback fired after every built or delegated
// instance.
//
//	// Laravel: $app->afterResolving(fn($object, $app) => ...)
func (c *Container) AfterResolving(cb func(id string, instance any)) *Container {
	return c.RegisterInjector(InjectorFunc(func(instance any, _ *Container, spec Specification) error {
		id := ""
		if spec != nil {
			id = spec.ID()
		}
		cb(id, instance)
		return nil
	}))
}

// Services returns the registered service ids, sorted.
func (c *Container) Services() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.specifications))
	for _, spec := range c.specifications {
		out = append(out, spec.ID())
	}
	slices.Sort(out)
	return out
}

// AliasesOf returns every alias pointing at id, sorted.
func (c *Container) AliasesOf(id string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := normalize(id)
	var out []string
	for alias, target := range c.aliases {
		if target == key {
			out = append(out, alias)
		}
	}
	slices.Sort(out)
	return out
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// GetAs resolves id and asserts its type.
//
//	repo, err := container.GetAs[*UserRepository](c, "users")
func GetAs[T any](c *Container, id string, params ...Params) (T, error) {
	var zero T
	instance, err := c.Get(id, params...)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, newError(Generic, "service %q is %T, not %s", id, instance, reflect.TypeOf((*T)(nil)).Elem())
	}
	return typed, nil
}

// Resolve is like GetAs but panics on failure.
//
//	// Instead of: db := c.Make("db").(*sql.DB)
//	// Write:      db := container.Resolve[*sql.DB](c, "db")
func Resolve[T any](c *Container, id string) T {
	typed, err := GetAs[T](c, id)
	if err != nil {
		panic(err)
	}
	return typed
}

// MustResolve is like Resolve but returns (T, false) instead of panicking.
func MustResolve[T any](c *Container, id string) (T, bool) {
	typed, err := GetAs[T](c, id)
	return typed, err == nil
}

func normalize(id string) string { return strings.ToLower(id) }
