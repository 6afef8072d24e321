// Package container provides a services factory (IoC container) and a
// Service Provider system for Go.
//
// # Overview
//
// Services are described by specifications and built on demand by builders.
// A specification is a class (a constructor registered by name), a prefab
// (an existing value), a delegated factory (a func) or an undefined raw
// definition that a custom builder may claim. Specifications carry explicit
// aliases, a static flag (cache the instance) and a final flag (refuse later
// overrides). Ids are case-insensitive.
//
// # Container Lifecycle
//
//  1. Create: c := container.New(container.WithLogger(logger))
//  2. Define classes: c.DefineClass(NewMailer, container.ParamNames("host"))
//  3. Register services: c.RegisterService(specs...) or providers
//  4. Boot: registry.Boot(), safe to resolve everything after this
//  5. Resolve: c.Get("mailer")
//
// # Specifications
//
//	// Raw definitions, as loaded from a services file
//	c.RegisterService(map[string]any{
//	    "id":     "mailer",
//	    "class":  "app.SMTPMailer",
//	    "params": map[string]any{"host": "param(mail.host)", "log": "service(logger)"},
//	    "alias":  "mail",
//	    "final":  true,
//	})
//
//	// Typed specifications
//	spec := container.NewClassSpecification("report", "app.Report")
//	spec.Params = container.Params{"0": container.Ref("db")}
//	spec.SetStatic(false)
//	c.RegisterService(spec)
//
//	// Wildcards: every "repository.<name>" gets its own clone
//	c.RegisterService(map[string]any{"id": "repository.*", "class": "app.Repository"})
//
// # Laravel-style bindings
//
//	// Laravel: $app->bind(Foo::class, fn($app) => new Foo)
//	c.Bind("Foo", func(c *container.Container) any { return &Foo{} })
//
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache)
//	c.Singleton("cache", func(c *container.Container) any { return cache.New() })
//
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("config", repo)
//
//	// Laravel: $app->alias(Cache::class, 'cache')
//	c.Alias("cache", "cacheManager")
//
// # Resolving
//
//	raw, err := c.Get("cache")
//	fresh, err := c.Get("report", container.Params{"title": "Weekly"}) // never cached
//	cache := container.Resolve[*RedisCache](c, "cache")                  // panics on failure
//
// Factories and builders get the container resolving them and must resolve
// their own dependencies through it; that container knows which ids are
// being built and reports cycles. Keep c.Root() in long-lived references.
//
//	c.Singleton("cache", func(c *container.Container) any {
//	    return cache.New(container.Resolve[*redis.Client](c, "redis"))
//	})
//
// # Autowiring
//
// A class configured without any params has its constructor autowired:
// parameters of named types are resolved from the service registered under
// the type's package-qualified name (class specifications auto-alias to
// their class and to every registered interface they implement), builtin
// parameters use Hint expressions or Default values.
//
//	c.DefineClass(NewConsumer) // func NewConsumer(dep *Dependency) *Consumer
//	c.RegisterService(map[string]any{"id": "consumer", "class": container.TypeKey(&Consumer{})})
//
// # Injection
//
// Structs embedding Annotated receive `inject` tags after being built:
//
//	type Handler struct {
//	    container.Annotated
//	    name   string  `inject:"param=app.name,default=demo"`
//	    mailer Mailer  `inject:"service=mailer"`
//	}
//
// # Service Providers
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&MailServiceProvider{})
//	registry.Boot()
package container
