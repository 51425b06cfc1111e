package casing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var caseFixtures = []struct {
	camel string
	kebab string
}{
	{camel: "getTestString", kebab: "get-test-string"},
	{camel: "hi", kebab: "hi"},
	{camel: "fooBar", kebab: "foo-bar"},
}

func TestToCamelCase(t *testing.T) {
	t.Parallel()
	for _, fx := range caseFixtures {
		assert.Equal(t, fx.camel, ToCamelCase(fx.kebab), "camel case %q", fx.kebab)
	}
	assert.Equal(t, "fooBarBaz", ToCamelCase("Foo bar-BAZ"))
	assert.Equal(t, "", ToCamelCase(" - "))
}

func TestToKebabCase(t *testing.T) {
	t.Parallel()
	for _, fx := range caseFixtures {
		assert.Equal(t, fx.kebab, ToKebabCase(fx.camel), "kebab case %q", fx.camel)
	}
}

func TestIdentifier(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"listPets":       "listPets",
		"pets/list_all":  "petsListAll",
		"get /pets/{id}": "getPetsId",
		"  create-pet ":  "createPet",
		"repos.get":      "reposGet",
	}
	for in, want := range cases {
		assert.Equal(t, want, Identifier(in), "identifier %q", in)
	}
}
