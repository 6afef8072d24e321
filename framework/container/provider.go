package container

import (
	"fmt"
	"sync"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider mirrors Laravel's Illuminate\Support\ServiceProvider.
//
// Register() registers specifications. Boot() is called after ALL providers
// have been registered, making it safe to resolve other services there.
//
//	type MailServiceProvider struct{ container.BaseProvider }
//
//	func (p *MailServiceProvider) Register(app *container.Container) error {
//	    return app.RegisterService(map[string]any{
//	        "id":     "mailer",
//	        "class":  "app.SMTPMailer",
//	        "params": map[string]any{"host": "param(mail.host)"},
//	    })
//	}
type ServiceProvider interface {
	// Register adds specifications to the container.
	// Do NOT resolve other services here; use Boot() for that.
	Register(app *Container) error

	// Boot is called after all providers are registered.
	Boot(app *Container) error

	// Provides returns the service ids this provider registers.
	// Used for deferred (lazy) provider loading.
	//
	//	// Laravel: public function provides(): array { return [Cache::class]; }
	Provides() []string

	// IsDeferred returns true if this provider should be loaded lazily,
	// only when one of its Provides() ids is first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct that provides no-op implementations
// of Boot(), Provides(), and IsDeferred().
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(app *container.Container) error { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders.
//
// Deferred providers are not registered up front: the registry is added to
// the container as a Delegate, and the first Get of an id a deferred provider
// provides registers (and, after Boot, boots) that provider.
type ProviderRegistry struct {
	mu         sync.Mutex
	app        *Container
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider // normalized id → provider
	booted     bool
	registered map[ServiceProvider]bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	r := &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]ServiceProvider),
		registered: make(map[ServiceProvider]bool),
	}
	app.RegisterDelegate(r)
	return r
}

// Register adds a provider and calls its Register() method unless deferred.
//
//	// Laravel: $app->register(new AppServiceProvider($app))
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		for _, id := range provider.Provides() {
			r.deferred[normalize(id)] = provider
		}
		r.mu.Unlock()
		return nil
	}
	booted := r.booted
	r.eager = append(r.eager, provider)
	r.mu.Unlock()

	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("registering %T: %w", provider, err)
	}
	if booted {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("booting %T: %w", provider, err)
		}
	}
	return nil
}

// Has reports whether a pending deferred provider provides id.
func (r *ProviderRegistry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.deferred[normalize(id)]
	return ok
}

// Get loads the deferred provider for id and resolves id from the container.
func (r *ProviderRegistry) Get(id string) (any, error) {
	return r.GetWith(r.app, id)
}

// GetWith is Get resolving through c, a view of the registry's container.
func (r *ProviderRegistry) GetWith(c *Container, id string) (any, error) {
	r.mu.Lock()
	provider, ok := r.deferred[normalize(id)]
	if ok {
		for key, p := range r.deferred {
			if p == provider {
				delete(r.deferred, key)
			}
		}
		r.eager = append(r.eager, provider)
	}
	booted := r.booted
	r.mu.Unlock()

	if !ok {
		return nil, &ServiceNotFoundError{ID: id, Reason: "is not provided by any deferred provider"}
	}
	if err := provider.Register(r.app); err != nil {
		return nil, fmt.Errorf("registering deferred %T: %w", provider, err)
	}
	if booted {
		if err := provider.Boot(r.app); err != nil {
			return nil, fmt.Errorf("booting deferred %T: %w", provider, err)
		}
	}
	return c.Get(id)
}

// Boot calls Boot() on all eager providers, once.
//
//	// Laravel: $app->boot()
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	providers := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()

	for _, provider := range providers {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("booting %T: %w", provider, err)
		}
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns the loaded providers: eager ones and deferred ones that
// have been triggered.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}
