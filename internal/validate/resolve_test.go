package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/routemock/internal/spec"
)

func TestResolve_SharedDefinition(t *testing.T) {
	t.Parallel()
	defs := spec.Definitions{
		"owner": {Type: "string", Required: true, Description: "account owner"},
		"page":  {Type: "integer"},
	}
	raw := spec.ParamMap{
		"$owner": nil,
		"$page":  {Description: "page number"},
		"repo":   {Type: "string"},
	}

	params, err := NewResolver(defs).Resolve(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"owner", "page", "repo"}, params.Names())

	owner, ok := params.Lookup("owner")
	require.True(t, ok)
	assert.True(t, owner.Spec.Required)
	assert.Equal(t, KindString, owner.Type.Kind)

	page, _ := params.Lookup("page")
	assert.Equal(t, "integer", page.Spec.Type)
	assert.Equal(t, "page number", page.Spec.Description)

	// the shared table is untouched
	assert.Empty(t, defs["page"].Description)
}

func TestResolve_ExplicitEntryWinsOverMarker(t *testing.T) {
	t.Parallel()
	defs := spec.Definitions{"owner": {Type: "string", Required: true}}
	raw := spec.ParamMap{
		"$owner": nil,
		"owner":  {Type: "integer"},
	}
	params, err := NewResolver(defs).Resolve(raw)
	require.NoError(t, err)
	owner, _ := params.Lookup("owner")
	assert.Equal(t, "integer", owner.Spec.Type)
	assert.False(t, owner.Spec.Required)
}

func TestResolve_Errors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		raw  spec.ParamMap
		want error
	}{
		{"unknown definition", spec.ParamMap{"$missing": nil}, ErrUnknownDefinition},
		{"empty plain param", spec.ParamMap{"owner": nil}, ErrEmptyParam},
		{"unknown alias", spec.ParamMap{"user": {Type: "string", Alias: "nobody"}}, ErrUnknownAlias},
		{"self alias", spec.ParamMap{"user": {Alias: "user"}}, ErrAliasCycle},
		{"alias cycle", spec.ParamMap{"a": {Alias: "b"}, "b": {Alias: "a"}}, ErrAliasCycle},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewResolver(nil).Resolve(tc.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestResolve_AliasTakesTargetContract(t *testing.T) {
	t.Parallel()
	raw := spec.ParamMap{
		"user":     {Type: "string", Required: true, Validation: "^[a-z]+$"},
		"username": {Alias: "user", Description: "deprecated"},
	}
	params, err := NewResolver(nil).Resolve(raw)
	require.NoError(t, err)

	alias, ok := params.Lookup("username")
	require.True(t, ok)
	assert.Equal(t, "string", alias.Spec.Type)
	assert.Equal(t, "^[a-z]+$", alias.Spec.Validation)
	assert.False(t, alias.Spec.Required, "alias keeps its own required flag")
	assert.Equal(t, "user", alias.Spec.Alias)
	assert.Equal(t, "deprecated", alias.Spec.Description)
	assert.Equal(t, []string{"username"}, params.AliasesOf("user"))
}

func TestResolve_AliasChainPointsAtRoot(t *testing.T) {
	t.Parallel()
	raw := spec.ParamMap{
		"a": {Type: "integer"},
		"b": {Alias: "a"},
		"c": {Alias: "b"},
	}
	params, err := NewResolver(nil).Resolve(raw)
	require.NoError(t, err)
	c, _ := params.Lookup("c")
	assert.Equal(t, "a", c.Spec.Alias)
	assert.Equal(t, "integer", c.Spec.Type)
}

func TestResolve_NestedAliasRewritesLastSegment(t *testing.T) {
	t.Parallel()
	raw := spec.ParamMap{
		"owner":       {Type: "object"},
		"owner.name":  {Type: "string", Enum: []any{"a", "b"}},
		"owner.login": {Alias: "name"},
	}
	params, err := NewResolver(nil).Resolve(raw)
	require.NoError(t, err)
	login, _ := params.Lookup("owner.login")
	assert.Equal(t, "owner.name", login.Spec.Alias)
	assert.Equal(t, []any{"a", "b"}, login.Spec.Enum)

	children := params.Children("owner")
	require.Len(t, children, 2)
	assert.Equal(t, "owner.login", children[0].Key())
	assert.Equal(t, "owner.name", children[1].Key())
}

func TestResolve_Idempotent(t *testing.T) {
	t.Parallel()
	defs := spec.Definitions{"sha": {Type: "string", Validation: "^[0-9a-f]{40}$"}}
	raw := spec.ParamMap{
		"$sha":         nil,
		"ref":          {Alias: "sha", Required: true},
		"author":       {Type: "object"},
		"author.email": {Type: "string", Required: true},
		"author.mail":  {Alias: "email"},
		"labels":       {Type: "string[]", Enum: []any{"bug", "docs"}},
	}
	r := NewResolver(defs)

	first, err := r.Resolve(raw)
	require.NoError(t, err)
	second, err := r.Resolve(first.Concrete())
	require.NoError(t, err)
	third, err := r.Resolve(second.Concrete())
	require.NoError(t, err)

	assert.Equal(t, first.Concrete(), second.Concrete())
	assert.Equal(t, second.Concrete(), third.Concrete())
	assert.Len(t, raw, 6, "raw map is not modified")
	assert.Nil(t, raw["$sha"])
}

func TestResolve_UnknownTypeIsKept(t *testing.T) {
	t.Parallel()
	params, err := NewResolver(nil).Resolve(spec.ParamMap{"blob": {Type: "binary"}})
	require.NoError(t, err)
	blob, _ := params.Lookup("blob")
	assert.ErrorIs(t, blob.TypeErr, ErrUnknownType)
}
