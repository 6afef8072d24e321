package container

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsFrom(t *testing.T) {
	p, err := ParamsFrom([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, Params{"0": "a", "1": "b"}, p)

	p, err = ParamsFrom(map[string]int{"size": 3})
	require.NoError(t, err)
	assert.Equal(t, Params{"size": 3}, p)

	p, err = ParamsFrom(nil)
	require.NoError(t, err)
	assert.Empty(t, p)

	_, err = ParamsFrom(map[int]string{1: "a"})
	assert.Equal(t, InvalidSpecification, KindOf(err))
}

func TestParams_MergeAndValues(t *testing.T) {
	spec := Params{"0": "a", "size": 1}
	merged := spec.Merge(Params{"size": 2, "1": "b", "10": "c"})

	assert.Equal(t, Params{"0": "a", "size": 1}, spec, "merge does not mutate the receiver")
	assert.Equal(t, []any{"a", "b", "c", 2}, merged.Values())
}

func TestParams_UnknownKeys(t *testing.T) {
	p := Params{"0": 1, "size": 2, "3": 3, "colour": "red"}

	assert.Equal(t, []string{"3", "colour"}, p.unknownKeys(2, []string{"size"}, false))
	assert.Equal(t, []string{"colour"}, p.unknownKeys(2, []string{"size"}, true))
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		in   any
		to   reflect.Type
		want any
	}{
		{"assignable", 3, reflect.TypeOf(0), 3},
		{"int to int64", 3, reflect.TypeOf(int64(0)), int64(3)},
		{"float to int", 2.0, reflect.TypeOf(0), 2},
		{"string to bool", "true", reflect.TypeOf(false), true},
		{"string to uint", "7", reflect.TypeOf(uint(0)), uint(7)},
		{"string to float", "1.5", reflect.TypeOf(0.0), 1.5},
		{"list to typed slice", []any{"1", 2}, reflect.TypeOf([]int{}), []int{1, 2}},
		{"map to typed map", map[string]any{"a": "1"}, reflect.TypeOf(map[string]int{}), map[string]int{"a": 1}},
		{"nil to zero", nil, reflect.TypeOf(""), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convert(tt.in, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Interface())
		})
	}

	_, err := convert(struct{}{}, reflect.TypeOf(0))
	assert.Error(t, err)

	_, err = convert(2.5, reflect.TypeOf(0))
	assert.ErrorContains(t, err, "fractional part")

	_, err = convert(-1, reflect.TypeOf(uint(0)))
	assert.ErrorContains(t, err, "negative")

	got, err := convert(2.5, reflect.TypeOf(float32(0)))
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), got.Interface())
}

func TestGlobMatcher(t *testing.T) {
	m := GlobMatcher{}
	assert.True(t, m.Match("repository.*", "repository.users"))
	assert.True(t, m.Match("cache.?", "cache.a"))
	assert.True(t, m.Match("db.[rw]", "db.r"))
	assert.False(t, m.Match("repository.*", "service.users"))
	assert.False(t, m.Match("[", "["), "malformed patterns never match")

	assert.True(t, isPattern("a.*"))
	assert.False(t, isPattern("a.b"))
}

func TestCloneSpecification(t *testing.T) {
	tpl := NewClassSpecification("repository.*", "Repo")
	tpl.Params = Params{"table": "x"}
	tpl.AddAliases("repo")
	tpl.SetFinal(true)

	clone := cloneSpecification(tpl, "repository.users").(*ClassSpecification)
	clone.Params["table"] = "users"
	clone.AddAliases("users")

	assert.Equal(t, "repository.users", clone.ID())
	assert.True(t, clone.IsFinal())
	assert.Equal(t, "Repo", clone.Class)
	assert.Equal(t, "x", tpl.Params["table"])
	assert.Equal(t, []string{"repo"}, tpl.Aliases())
	assert.Equal(t, "repository.*", tpl.ID())
}
