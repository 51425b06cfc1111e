// Package casing converts method and namespace names between the camelCase
// used by client code and the kebab-case used in route documents.
package casing

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var wordBoundary = regexp.MustCompile(`(\w)([A-Z])`)

// ToCamelCase lowercases input and upper-cases the first letter following
// every dash or whitespace run: "get-test-string" becomes "getTestString".
func ToCamelCase(input string) string {
	title := cases.Title(language.Und)
	words := strings.FieldsFunc(cases.Lower(language.Und).String(input), func(r rune) bool {
		return r == '-' || unicode.IsSpace(r)
	})
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(words[0])
	for _, w := range words[1:] {
		b.WriteString(title.String(w))
	}
	return b.String()
}

// ToKebabCase splits input before every upper-case letter that follows a word
// character and lowercases the result: "fooBar" becomes "foo-bar".
func ToKebabCase(input string) string {
	return cases.Lower(language.Und).String(wordBoundary.ReplaceAllString(input, "$1-$2"))
}

// Identifier turns free-form text such as an operationId ("pets/list_all",
// "listPets") into a camelCase identifier.
func Identifier(input string) string {
	var b strings.Builder
	for _, r := range ToKebabCase(strings.TrimSpace(input)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('-')
	}
	return ToCamelCase(b.String())
}
