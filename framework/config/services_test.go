package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-services/framework/config"
)

func TestLoadServices(t *testing.T) {
	defs, err := config.LoadServices("testdata/services.yaml")
	require.NoError(t, err)
	require.Len(t, defs, 3)

	assert.Equal(t, "greeting", defs[0]["id"])
	assert.Equal(t, "hello", defs[0]["instance"])
	assert.Equal(t, []any{"salutation"}, defs[0]["alias"])

	assert.Equal(t, "Widget", defs[1]["class"])
	assert.Equal(t, map[string]any{"size": "param(widget.size)"}, defs[1]["params"])
	assert.Equal(t, false, defs[1]["static"])

	assert.Equal(t, "repository.*", defs[2]["id"])
	assert.Equal(t, []any{3}, defs[2]["params"])
}

func TestLoadServices_MissingFile(t *testing.T) {
	_, err := config.LoadServices("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestParseServices_Mapping(t *testing.T) {
	defs, err := config.ParseServices([]byte(`
services:
  mailer:
    class: Mailer
  cache:
    instance: memory
  empty:
`))
	require.NoError(t, err)
	require.Len(t, defs, 3)

	assert.Equal(t, map[string]any{"id": "cache", "instance": "memory"}, defs[0])
	assert.Equal(t, map[string]any{"id": "empty"}, defs[1])
	assert.Equal(t, map[string]any{"id": "mailer", "class": "Mailer"}, defs[2])
}

func TestParseServices_MappingSettersKeepOrder(t *testing.T) {
	defs, err := config.ParseServices([]byte(`
services:
  - id: widget
    class: Widget
    setters:
      SetZ: last
      SetA: [1, 2]
  - id: plain
    setters:
      - SetB: b
`))
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, []any{
		map[string]any{"SetZ": "last"},
		map[string]any{"SetA": []any{1, 2}},
	}, defs[0]["setters"])
	assert.Equal(t, []any{map[string]any{"SetB": "b"}}, defs[1]["setters"])
}

func TestParseServices_Empty(t *testing.T) {
	for _, doc := range []string{"", "services:", "other: 1"} {
		defs, err := config.ParseServices([]byte(doc))
		require.NoError(t, err, doc)
		assert.Nil(t, defs, doc)
	}
}

func TestParseServices_Errors(t *testing.T) {
	tests := map[string]string{
		"invalid yaml":     "services: [",
		"scalar services":  "services: 3",
		"scalar entry":     "services:\n  - mailer",
		"scalar map entry": "services:\n  mailer: Mailer",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.ParseServices([]byte(doc))
			assert.Error(t, err)
		})
	}

	defs, err := config.ParseServices([]byte("other: true"))
	require.NoError(t, err)
	assert.Empty(t, defs)
}
