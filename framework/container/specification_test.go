package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-services/framework/container"
)

func TestNewSpecification_Variants(t *testing.T) {
	factory := func(string, *container.Container) int { return 1 }

	tests := []struct {
		name string
		raw  map[string]any
		want any
	}{
		{"class inferred", map[string]any{"id": "a", "class": "Widget"}, &container.ClassSpecification{}},
		{"prefab inferred", map[string]any{"id": "a", "instance": 1}, &container.PrefabSpecification{}},
		{"factory inferred", map[string]any{"id": "a", "factory": factory}, &container.DelegatedFactorySpecification{}},
		{"undefined inferred", map[string]any{"id": "a", "foo": "bar"}, &container.UndefinedSpecification{}},
		{"explicit prefab", map[string]any{"id": "a", "type": "prefab", "instance": nil}, &container.PrefabSpecification{}},
		{"explicit instance", map[string]any{"id": "a", "type": "instance", "instance": 1}, &container.PrefabSpecification{}},
		{"explicit type wins over keys", map[string]any{"id": "a", "type": "class", "class": "Widget", "instance": 1}, &container.ClassSpecification{}},
		{"explicit undefined", map[string]any{"id": "a", "type": "undefined", "class": "Widget"}, &container.UndefinedSpecification{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := container.NewSpecification(tt.raw)
			require.NoError(t, err)
			assert.IsType(t, tt.want, spec)
			assert.Equal(t, "a", spec.ID())
			assert.True(t, spec.IsStatic())
			assert.False(t, spec.IsFinal())
		})
	}
}

func TestNewSpecification_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		kind container.Kind
	}{
		{"missing id", map[string]any{"class": "Widget", "instance": 1, "factory": 2}, container.IncompleteSpecification},
		{"empty id", map[string]any{"id": ""}, container.InvalidSpecification},
		{"ambiguous", map[string]any{"id": "a", "class": "Widget", "instance": 1}, container.AmbiguousSpecification},
		{"unknown type", map[string]any{"id": "a", "type": "service"}, container.InvalidSpecification},
		{"class missing", map[string]any{"id": "a", "type": "class"}, container.IncompleteSpecification},
		{"class not a string", map[string]any{"id": "a", "class": 12}, container.InvalidSpecification},
		{"class empty", map[string]any{"id": "a", "class": " "}, container.InvalidSpecification},
		{"instance missing", map[string]any{"id": "a", "type": "prefab"}, container.IncompleteSpecification},
		{"factory missing", map[string]any{"id": "a", "type": "factory"}, container.IncompleteSpecification},
		{"factory not a func", map[string]any{"id": "a", "factory": "NewThing"}, container.InvalidSpecification},
		{"factory without result", map[string]any{"id": "a", "factory": func() {}}, container.InvalidSpecification},
		{"bad params", map[string]any{"id": "a", "class": "Widget", "params": 3}, container.InvalidSpecification},
		{"bad setters", map[string]any{"id": "a", "class": "Widget", "setters": "SetLabel"}, container.InvalidSpecification},
		{"bad static", map[string]any{"id": "a", "instance": 1, "static": "sometimes"}, container.InvalidSpecification},
		{"bad alias", map[string]any{"id": "a", "instance": 1, "alias": 3}, container.InvalidSpecification},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := container.NewSpecification(tt.raw)
			require.Error(t, err)
			assert.Equal(t, tt.kind, container.KindOf(err))
		})
	}
}

func TestNewSpecification_FlagsAndAliases(t *testing.T) {
	spec, err := container.NewSpecification(map[string]any{
		"id":       "mailer",
		"instance": "smtp",
		"static":   false,
		"final":    "true",
		"alias":    "mail",
		"aliases":  []any{"postman", "mail"},
	})
	require.NoError(t, err)

	assert.False(t, spec.IsStatic())
	assert.True(t, spec.IsFinal())
	assert.Equal(t, []string{"mail", "postman"}, spec.Aliases())
}

func TestNewSpecification_ClassParamsAndSetters(t *testing.T) {
	spec, err := container.NewSpecification(map[string]any{
		"id":     "w",
		"class":  "Widget",
		"params": []any{3, "x"},
		"setters": []any{
			map[string]any{"SetLabel": "first"},
			map[string]any{"SetSize": []any{4}},
			map[string]any{"Reset": nil},
		},
	})
	require.NoError(t, err)

	cs := spec.(*container.ClassSpecification)
	assert.Equal(t, "Widget", cs.Class)
	assert.Equal(t, container.Params{"0": 3, "1": "x"}, cs.Params)
	require.Len(t, cs.Setters, 3)
	assert.Equal(t, container.Setter{Name: "SetLabel", Params: container.Params{"0": "first"}}, cs.Setters[0])
	assert.Equal(t, container.Setter{Name: "SetSize", Params: container.Params{"0": 4}}, cs.Setters[1])
	assert.Equal(t, container.Setter{Name: "Reset", Params: container.Params{}}, cs.Setters[2])
}

func TestClassSpecification_AutoAliases(t *testing.T) {
	c := newContainer(t)
	spec := container.NewClassSpecification("square", squareClass)

	assert.Equal(t, []string{squareClass, shapeInterface}, spec.AutoAliases(c.Classes()))
	assert.Equal(t, []string{squareClass}, spec.AutoAliases(nil))
}

func TestClassSpecification_AddSetter(t *testing.T) {
	spec := container.NewClassSpecification("w", "Widget").AddSetter("SetLabel", "x")
	assert.Equal(t, []container.Setter{{Name: "SetLabel", Params: container.Params{"0": "x"}}}, spec.Setters)
}
