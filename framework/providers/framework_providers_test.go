package providers_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/go-services/framework/config"
	"github.com/km-arc/go-services/framework/container"
	"github.com/km-arc/go-services/framework/providers"
	"github.com/km-arc/go-services/framework/routing"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func setAppEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, key := range []string{"APP_NAME", "APP_ENV", "APP_DEBUG", "APP_PORT", "SERVICES_FILE"} {
		t.Setenv(key, env[key])
	}
}

func boot(t *testing.T, list ...container.ServiceProvider) (*container.Container, error) {
	t.Helper()
	c := container.New()
	registry := container.NewProviderRegistry(c)
	for _, p := range list {
		require.NoError(t, registry.Register(p))
	}
	return c, registry.Boot()
}

func configProvider() *providers.ConfigServiceProvider {
	return &providers.ConfigServiceProvider{EnvFiles: []string{"testdata/empty.env"}}
}

type Mailer struct{ Host string }

func NewMailer(host string) *Mailer { return &Mailer{Host: host} }

// classProvider defines the Mailer class the way an application provider would.
type classProvider struct{ container.BaseProvider }

func (p *classProvider) Register(app *container.Container) error {
	return app.DefineClass(NewMailer, container.Named("Mailer"), container.ParamNames("host"))
}

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

func TestConfigServiceProvider(t *testing.T) {
	setAppEnv(t, map[string]string{"APP_NAME": "Services"})
	c, err := boot(t, configProvider())
	require.NoError(t, err)

	cfg := container.Resolve[*config.Config](c, "app.config")
	assert.Equal(t, "Services", cfg.App.Name)

	repo := container.Resolve[*config.Repository](c, "configuration")
	assert.Same(t, cfg.Params, repo)
	assert.Same(t, repo, c.Config())

	require.NoError(t, c.Instance("clock", "wall"))
	got, err := repo.ProcessParameter("service(clock)")
	require.NoError(t, err)
	assert.Equal(t, "wall", got, "the container registers the service processor")
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

func TestLoggingServiceProvider_HandsLoggerToContainer(t *testing.T) {
	setAppEnv(t, nil)
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	c, err := boot(t, configProvider(), &providers.LoggingServiceProvider{Logger: logger})
	require.NoError(t, err)
	assert.Same(t, logger, container.Resolve[*zap.Logger](c, "logger"))

	require.NoError(t, c.Instance("after.boot", 1))
	assert.NotZero(t, logs.FilterMessage("service registered").FilterField(zap.String("id", "after.boot")).Len())
}

func TestLoggingServiceProvider_ByEnvironment(t *testing.T) {
	for _, env := range []string{"production", "testing", "local"} {
		t.Run(env, func(t *testing.T) {
			setAppEnv(t, map[string]string{"APP_ENV": env})
			c, err := boot(t, configProvider(), &providers.LoggingServiceProvider{})
			require.NoError(t, err)

			logger := container.Resolve[*zap.Logger](c, "logger")
			require.NotNil(t, logger)
			assert.Equal(t, env != "testing", logger.Core().Enabled(zapcore.ErrorLevel))
		})
	}
}

func TestLoggingServiceProvider_LoggerIsFinal(t *testing.T) {
	setAppEnv(t, nil)
	c, err := boot(t, &providers.LoggingServiceProvider{Logger: zap.NewNop()})
	require.NoError(t, err)

	err = c.Instance("logger", zap.NewNop())
	assert.Equal(t, container.FinalServiceOverridingAttempt, container.KindOf(err))
}

// ── ServicesServiceProvider ───────────────────────────────────────────────────

func writeServices(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "services.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func TestServicesServiceProvider_RegistersDefinitions(t *testing.T) {
	setAppEnv(t, map[string]string{"SERVICES_FILE": writeServices(t, `
services:
  - id: mailer
    class: Mailer
    params:
      host: "param(mail.host)"
    alias: mail
  - id: greeting
    instance: hello
`)})
	c, err := boot(t, configProvider(), &classProvider{}, &providers.ServicesServiceProvider{})
	require.NoError(t, err)
	container.Resolve[*config.Repository](c, "config").Set("mail.host", "smtp.local")

	assert.Equal(t, "smtp.local", container.Resolve[*Mailer](c, "mail").Host)
	assert.Equal(t, "hello", c.Make("greeting"))
}

func TestServicesServiceProvider_ExplicitFileWins(t *testing.T) {
	setAppEnv(t, map[string]string{"SERVICES_FILE": "testdata/none.yaml"})
	file := writeServices(t, "services:\n  greeting:\n    instance: hi\n")

	c, err := boot(t, configProvider(), &providers.ServicesServiceProvider{File: file})
	require.NoError(t, err)
	assert.Equal(t, "hi", c.Make("greeting"))
}

func TestServicesServiceProvider_MissingFileIsSkipped(t *testing.T) {
	setAppEnv(t, map[string]string{"SERVICES_FILE": "testdata/none.yaml"})
	_, err := boot(t, configProvider(), &providers.ServicesServiceProvider{})
	assert.NoError(t, err)
}

func TestServicesServiceProvider_Errors(t *testing.T) {
	setAppEnv(t, nil)

	_, err := boot(t, configProvider(), &providers.ServicesServiceProvider{File: writeServices(t, "services: [")})
	assert.Error(t, err)

	_, err = boot(t, configProvider(), &providers.ServicesServiceProvider{
		File: writeServices(t, "services:\n  - class: Mailer\n"),
	})
	assert.Equal(t, container.InvalidServiceSpecs, container.KindOf(err))

	_, err = boot(t, &providers.ServicesServiceProvider{})
	assert.Error(t, err, "no config to read SERVICES_FILE from")
}

// ── Routing / Inspector ───────────────────────────────────────────────────────

func TestInspectorServiceProvider(t *testing.T) {
	tests := []struct {
		debug string
		want  int
	}{
		{"true", http.StatusOK},
		{"false", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run("APP_DEBUG="+tt.debug, func(t *testing.T) {
			setAppEnv(t, map[string]string{"APP_DEBUG": tt.debug})
			c, err := boot(t,
				configProvider(),
				&providers.RoutingServiceProvider{},
				&providers.InspectorServiceProvider{},
			)
			require.NoError(t, err)

			router := container.Resolve[*routing.Router](c, "router")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/_container/services/router", nil))
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}
