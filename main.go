package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/km-arc/go-services/framework/app"
	"github.com/km-arc/go-services/framework/container"
	gohttp "github.com/km-arc/go-services/framework/http"
	"github.com/km-arc/go-services/framework/routing"
)

// ── Demo services ────────────────────────────────────────────────────────────

type Greeter interface {
	Greet(name string) string
}

type PoliteGreeter struct {
	Greeting string
}

func NewPoliteGreeter(greeting string) *PoliteGreeter { return &PoliteGreeter{Greeting: greeting} }

func (g *PoliteGreeter) Greet(name string) string { return fmt.Sprintf("%s, %s!", g.Greeting, name) }

type Welcome struct {
	container.Annotated

	AppName string  `inject:"param=app.name"`
	greeter Greeter `inject:"service=greeter"`
	logger  *zap.Logger
}

func (w *Welcome) SetLogger(logger *zap.Logger) { w.logger = logger }

func (w *Welcome) Message(name string) string {
	w.logger.Debug("welcoming", zap.String("name", name))
	return w.greeter.Greet(name) + " Welcome to " + w.AppName + "."
}

// AppServiceProvider defines the demo classes and services.
type AppServiceProvider struct {
	container.BaseProvider
}

func (p *AppServiceProvider) Register(a *container.Container) error {
	if err := a.DefineClass(NewPoliteGreeter, container.Named("PoliteGreeter"),
		container.ParamNames("greeting"), container.Default("greeting", "Hello")); err != nil {
		return err
	}
	if _, err := a.Classes().DefineInterface((*Greeter)(nil), "Greeter"); err != nil {
		return err
	}
	if err := a.DefineClass(&Welcome{}, container.Named("Welcome")); err != nil {
		return err
	}
	return a.RegisterService(
		map[string]any{"id": "greeter", "class": "PoliteGreeter"},
		map[string]any{
			"id":      "welcome",
			"class":   "Welcome",
			"setters": map[string]any{"SetLogger": []any{container.Ref("logger")}},
		},
	)
}

func main() {
	application, err := app.New() // loads .env automatically
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := application.Register(&AppServiceProvider{}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := application.Boot(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	r := application.Router()
	welcome := container.Resolve[*Welcome](application.Container, "welcome")

	// ── Routes ───────────────────────────────────────────────────────────────

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		gohttp.NewResponse(w).Success(map[string]any{"message": "Welcome to Go-Services!"})
	})

	r.Prefix("/api/v1", func(api *routing.Router) {
		// GET /api/v1/welcome/{name}
		api.Get("/welcome/{name}", func(w http.ResponseWriter, req *http.Request) {
			gohttp.NewResponse(w).Success(map[string]any{"message": welcome.Message(routing.Param(req, "name"))})
		})
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := application.Run(ctx); err != nil {
		application.Logger().Fatal("server error", zap.Error(err))
	}
}
