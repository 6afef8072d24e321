package providers

import (
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/km-arc/go-services/framework/config"
	"github.com/km-arc/go-services/framework/container"
	gohttp "github.com/km-arc/go-services/framework/http"
	"github.com/km-arc/go-services/framework/routing"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider loads the application configuration from .env and
// makes its parameter repository the container's Config.
//
// Bound ids:
//   - "app.config"             → *config.Config
//   - "config", "configuration" → *config.Repository
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Bootstrap\LoadConfiguration
//	$app->instance('config', $config = new Repository($items));
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	cfg := config.Load(p.EnvFiles...)
	if err := app.Instance("app.config", cfg); err != nil {
		return err
	}
	if err := app.Instance("config", cfg.Params); err != nil {
		return err
	}
	app.SetConfig(cfg.Params)
	return app.Alias("config", "configuration")
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider builds the zap logger for APP_ENV and hands it to
// the container.
//
// Bound ids:
//   - "logger" → *zap.Logger
//
// production uses zap.NewProduction, testing a no-op logger, anything else
// zap.NewDevelopment. Set Logger to bypass the environment switch.
type LoggingServiceProvider struct {
	container.BaseProvider
	Logger *zap.Logger
}

func (p *LoggingServiceProvider) Register(app *container.Container) error {
	return app.RegisterService(map[string]any{
		"id":      "logger",
		"factory": p.newLogger,
		"final":   true,
	})
}

func (p *LoggingServiceProvider) Boot(app *container.Container) error {
	logger, err := container.GetAs[*zap.Logger](app, "logger")
	if err != nil {
		return err
	}
	app.SetLogger(logger)
	return nil
}

func (p *LoggingServiceProvider) newLogger(_ string, c *container.Container) (*zap.Logger, error) {
	if p.Logger != nil {
		return p.Logger, nil
	}
	env := "local"
	if cfg, err := container.GetAs[*config.Config](c, "app.config"); err == nil {
		env = cfg.App.Env
	}

	var logger *zap.Logger
	var err error
	switch env {
	case "production":
		logger, err = zap.NewProduction()
	case "testing":
		logger = zap.NewNop()
	default:
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// ── ServicesServiceProvider ───────────────────────────────────────────────────

// ServicesServiceProvider registers the service definitions of a YAML file
// (config.LoadServices). File defaults to SERVICES_FILE; a missing file is
// skipped.
//
// Definitions are registered at boot so that classes defined by any
// provider's Register are known.
type ServicesServiceProvider struct {
	container.BaseProvider
	File string
}

func (p *ServicesServiceProvider) Register(_ *container.Container) error { return nil }

func (p *ServicesServiceProvider) Boot(app *container.Container) error {
	file := p.File
	if file == "" {
		cfg, err := container.GetAs[*config.Config](app, "app.config")
		if err != nil {
			return err
		}
		file = cfg.Services.File
	}

	logger := zap.NewNop()
	if l, err := container.GetAs[*zap.Logger](app, "logger"); err == nil {
		logger = l
	}

	defs, err := config.LoadServices(file)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("services file not found, skipping", zap.String("file", file))
		return nil
	}
	if err != nil {
		return err
	}

	specs := make([]any, len(defs))
	for i, def := range defs {
		specs[i] = def
	}
	if err := app.RegisterService(specs...); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	logger.Info("services loaded", zap.String("file", file), zap.Int("count", len(defs)))
	return nil
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router.
//
// Bound ids:
//   - "router" → *routing.Router
//
// Laravel equivalent:
//
//	// Illuminate\Routing\RoutingServiceProvider
//	$app->singleton('router', fn($app) => new Router($app['events'], $app));
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	return app.Singleton("router", func(c *container.Container) any {
		logger, _ := container.GetAs[*zap.Logger](c, "logger")
		return routing.New(logger)
	})
}

// ── InspectorServiceProvider ──────────────────────────────────────────────────

// InspectorServiceProvider mounts the container inspector on the router when
// APP_DEBUG is on.
//
// Bound ids:
//   - "inspector" → *gohttp.Inspector
type InspectorServiceProvider struct {
	container.BaseProvider
}

func (p *InspectorServiceProvider) Register(app *container.Container) error {
	return app.Singleton("inspector", func(c *container.Container) any {
		return gohttp.NewInspector(c.Root())
	})
}

func (p *InspectorServiceProvider) Boot(app *container.Container) error {
	cfg, err := container.GetAs[*config.Config](app, "app.config")
	if err != nil {
		return err
	}
	if !cfg.App.Debug {
		return nil
	}
	router, err := container.GetAs[*routing.Router](app, "router")
	if err != nil {
		return err
	}
	inspector, err := container.GetAs[*gohttp.Inspector](app, "inspector")
	if err != nil {
		return err
	}
	inspector.Routes(router)
	return nil
}
