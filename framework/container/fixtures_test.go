package container_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-services/framework/config"
	"github.com/km-arc/go-services/framework/container"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type Widget struct {
	Size  int
	Label string
}

func NewWidget(size int) *Widget { return &Widget{Size: size} }

func (w *Widget) SetLabel(label string) { w.Label = label }

type Dependency struct{ ID int }

type Consumer struct{ Dep *Dependency }

func NewConsumer(dep *Dependency) *Consumer { return &Consumer{Dep: dep} }

type Pair struct {
	Dep  *Dependency
	Size int
}

func NewPair(dep *Dependency, size int) *Pair { return &Pair{Dep: dep, Size: size} }

type Greeter struct{ Name string }

func NewGreeter(name string) *Greeter { return &Greeter{Name: name} }

type Shape interface{ Area() int }

type Square struct{ Side int }

func NewSquare(side int) *Square { return &Square{Side: side} }

func (s *Square) Area() int { return s.Side * s.Side }

type Printer struct{ Pages int }

type awareService struct {
	container.Aware
}

var (
	widgetClass     = "Widget"
	dependencyClass = container.TypeKey(&Dependency{})
	consumerClass   = container.TypeKey(&Consumer{})
	pairClass       = container.TypeKey(&Pair{})
	greeterClass    = container.TypeKey(&Greeter{})
	squareClass     = container.TypeKey(&Square{})
	shapeInterface  = container.TypeKey((*Shape)(nil))
)

// newContainer returns a container with the fixture classes defined.
func newContainer(t *testing.T) *container.Container {
	t.Helper()
	c := container.New()
	require.NoError(t, c.DefineClass(NewWidget,
		container.Named(widgetClass), container.ParamNames("size"), container.Default("size", 1)))
	require.NoError(t, c.DefineClass(&Dependency{}))
	require.NoError(t, c.DefineClass(NewConsumer))
	require.NoError(t, c.DefineClass(NewPair, container.ParamNames("dep", "size")))
	require.NoError(t, c.DefineClass(NewGreeter, container.ParamNames("name")))
	require.NoError(t, c.DefineClass(NewSquare, container.ParamNames("side")))
	_, err := c.Classes().DefineInterface((*Shape)(nil))
	require.NoError(t, err)
	return c
}

// newConfiguredContainer also sets a config repository holding items.
func newConfiguredContainer(t *testing.T, items map[string]any) (*container.Container, *config.Repository) {
	t.Helper()
	c := newContainer(t)
	repo := config.NewRepository(items)
	c.SetConfig(repo)
	return c, repo
}
