package http

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/km-arc/go-services/framework/container"
	"github.com/km-arc/go-services/framework/routing"
)

// ServiceInfo describes one registered specification.
type ServiceInfo struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Class    string   `json:"class,omitempty"`
	Factory  string   `json:"factory,omitempty"`
	Instance string   `json:"instance,omitempty"`
	Static   bool     `json:"static"`
	Final    bool     `json:"final"`
	Aliases  []string `json:"aliases"`
	Resolved bool     `json:"resolved"`
}

// Inspector serves read-mostly JSON views of a container.
type Inspector struct {
	app *container.Container
}

// NewInspector creates an Inspector over app.
func NewInspector(app *container.Container) *Inspector {
	return &Inspector{app: app}
}

// Routes mounts the inspector under /_container.
func (i *Inspector) Routes(r *routing.Router) {
	r.Prefix("/_container", func(r *routing.Router) {
		r.Get("/services", i.Index)
		r.Get("/services/{id}", i.Show)
		r.Delete("/services/{id}", i.Destroy)
		r.Get("/classes", i.Classes)
	})
}

// Index lists every registered service.
func (i *Inspector) Index(w http.ResponseWriter, r *http.Request) {
	ids := i.app.Services()
	out := make([]ServiceInfo, 0, len(ids))
	for _, id := range ids {
		if spec := i.app.Specification(id); spec != nil {
			out = append(out, i.describe(spec))
		}
	}
	NewResponse(w).Success(out)
}

// Show describes the service matching {id}.
func (i *Inspector) Show(w http.ResponseWriter, r *http.Request) {
	id := routing.Param(r, "id")
	spec := i.app.Specification(id)
	if spec == nil {
		NewResponse(w).NotFound(fmt.Sprintf("Service %q is not registered.", id))
		return
	}
	NewResponse(w).Success(i.describe(spec))
}

// Destroy forgets the service {id}.
func (i *Inspector) Destroy(w http.ResponseWriter, r *http.Request) {
	res := NewResponse(w)
	id := routing.Param(r, "id")
	if !i.app.Bound(id) {
		res.NotFound(fmt.Sprintf("Service %q is not registered.", id))
		return
	}
	if err := i.app.Forget(id); err != nil {
		res.Error(http.StatusConflict, err.Error())
		return
	}
	res.NoContent()
}

// Classes lists the class registry.
func (i *Inspector) Classes(w http.ResponseWriter, r *http.Request) {
	NewResponse(w).Success(i.app.Classes().Names())
}

func (i *Inspector) describe(spec container.Specification) ServiceInfo {
	info := ServiceInfo{
		ID:       spec.ID(),
		Static:   spec.IsStatic(),
		Final:    spec.IsFinal(),
		Aliases:  i.app.AliasesOf(spec.ID()),
		Resolved: i.app.Resolved(spec.ID()),
	}
	if info.Aliases == nil {
		info.Aliases = []string{}
	}
	switch s := spec.(type) {
	case *container.ClassSpecification:
		info.Type = "class"
		info.Class = s.Class
	case *container.PrefabSpecification:
		info.Type = "prefab"
		info.Instance = fmt.Sprintf("%T", s.Instance)
	case *container.DelegatedFactorySpecification:
		info.Type = "factory"
		info.Factory = reflect.TypeOf(s.Factory).String()
	case *container.UndefinedSpecification:
		info.Type = "undefined"
	default:
		info.Type = fmt.Sprintf("%T", spec)
	}
	return info
}
