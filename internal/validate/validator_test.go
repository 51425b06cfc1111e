package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/routemock/internal/spec"
)

type fakeRecorder struct {
	calls []Call
}

func (f *fakeRecorder) Called() bool { return len(f.calls) > 0 }

func (f *fakeRecorder) LastCall() Call {
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeRecorder) Calls() []Call { return f.calls }

func (f *fakeRecorder) record(args ...any) { f.calls = append(f.calls, CallArgs(args)) }

func newValidator(t *testing.T, raw spec.ParamMap) *Validator {
	t.Helper()
	params, err := NewResolver(nil).Resolve(raw)
	require.NoError(t, err)
	return New(params)
}

func check(v *Validator, args ...any) *Report {
	r := &Report{}
	v.CheckCall(r.Assert, CallArgs(args))
	return r
}

func TestArgumentsValid_NotYetCalled(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{"owner": {Type: "string", Required: true}})
	r := &Report{}
	v.ArgumentsValid(r.Assert, &fakeRecorder{})
	require.Len(t, r.Assertions, 1)
	assert.Equal(t, Assertion{Passed: true, Message: "Not yet called"}, r.Assertions[0])

	r.Reset()
	v.ArgumentsValid(r.Assert, nil)
	assert.True(t, r.Passed())
}

func TestCheckCall_NoParameters(t *testing.T) {
	t.Parallel()
	v := newValidator(t, nil)
	assert.True(t, check(v).Passed())
	assert.True(t, check(v, map[string]any{}).Passed())
	assert.True(t, check(v, nil).Passed())
}

func TestCheckCall_ZeroArgsWithRequired(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{"owner": {Type: "string", Required: true}})
	r := check(v)
	assert.Equal(t, []string{"Requires arguments but none were passed in"}, failureMessages(r))
}

func TestCheckCall_ZeroArgsNestedRequired(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{
		"author":       {Type: "object"},
		"author.email": {Type: "string", Required: true},
	})
	assert.False(t, check(v).Passed())
}

func TestCheckCall_TooManyParameters(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{"owner": {Type: "string", Required: true}})
	r := check(v, map[string]any{"owner": 1}, map[string]any{"bogus": nil})
	require.Len(t, r.Assertions, 1)
	assert.Equal(t, Assertion{Passed: false, Message: "Too many parameters were given"}, r.Assertions[0])
}

func TestCheckCall_RequiredOwner(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{
		"owner": {Type: "string", Required: true},
		"repo":  {Type: "string"},
	})

	r := check(v, map[string]any{})
	assert.Equal(t, []string{"owner is required and not set"}, failureMessages(r))

	r = check(v, map[string]any{"owner": "foo"})
	assert.True(t, r.Passed())
}

func TestCheckCall_UndeclaredKey(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{"repo": {Type: "string"}})
	r := check(v, map[string]any{"repo": "x", "colour": "red"})
	assert.Equal(t, []string{"colour is not a declared parameter"}, failureMessages(r))
}

func TestCheckCall_NonObjectArgument(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{"repo": {Type: "string"}})
	r := check(v, "repo")
	assert.Equal(t, []string{"Arguments must be an object"}, failureMessages(r))
}

func TestCheckCall_NestedRequiredField(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{
		"author":       {Type: "object"},
		"author.email": {Type: "string", Required: true},
		"author.name":  {Type: "string", Required: true},
		"author.date":  {Type: "date"},
	})

	r := check(v, map[string]any{"author": map[string]any{}})
	assert.ElementsMatch(t, []string{
		"email property missing for author",
		"name property missing for author",
	}, failureMessages(r))

	r = check(v, map[string]any{"author": map[string]any{"email": "a@b.com", "name": "A"}})
	assert.True(t, r.Passed(), failureMessages(r))

	r = check(v, map[string]any{"author": map[string]any{"email": "a@b.com", "name": "A", "date": "yesterday"}})
	assert.Equal(t, []string{"author.date is not formatted as an ISO Date"}, failureMessages(r))
}

func TestCheckCall_ArrayOfObjects(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{
		"files":         {Type: "object[]"},
		"files.path":    {Type: "string", Required: true},
		"files.content": {Type: "string"},
	})

	r := check(v, map[string]any{"files": []any{
		map[string]any{"path": "a.txt"},
		map[string]any{"content": "orphan"},
	}})
	assert.Equal(t, []string{"path property missing for files"}, failureMessages(r))

	r = check(v, map[string]any{"files": map[string]any{"path": "a.txt"}})
	assert.Equal(t, []string{"files array value is not an array"}, failureMessages(r))
}

func TestCheckCall_DeepNesting(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{
		"a":     {Type: "object"},
		"a.b":   {Type: "object", Required: true},
		"a.b.c": {Type: "integer", Required: true},
	})
	r := check(v, map[string]any{"a": map[string]any{"b": map[string]any{"c": "nope"}}})
	assert.Equal(t, []string{"a.b.c is not a valid number"}, failureMessages(r))

	r = check(v, map[string]any{"a": map[string]any{"b": map[string]any{}}})
	assert.Equal(t, []string{"c property missing for a.b"}, failureMessages(r))
}

func TestCheckCall_Enum(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{
		"state":  {Type: "string", Enum: []any{"open", "closed", "all"}},
		"per":    {Type: "integer", Enum: []any{10, 50}},
		"labels": {Type: "string[]", Enum: []any{"bug", "docs"}},
	})

	for _, member := range []string{"open", "closed", "all"} {
		assert.True(t, check(v, map[string]any{"state": member}).Passed(), member)
	}
	r := check(v, map[string]any{"state": "merged"})
	assert.Equal(t, []string{"state is not in the set of allowed values of open, closed, all"}, failureMessages(r))

	assert.True(t, check(v, map[string]any{"per": 50.0}).Passed())
	assert.False(t, check(v, map[string]any{"per": 20}).Passed())

	assert.True(t, check(v, map[string]any{"labels": []string{"bug", "docs"}}).Passed())
	assert.False(t, check(v, map[string]any{"labels": []string{"bug", "wontfix"}}).Passed())
}

func TestCheckCall_Pattern(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{
		"sha":  {Type: "string", Validation: "^[0-9a-f]{7,40}$"},
		"page": {Type: "integer", Validation: "[0-9]"},
		"bad":  {Type: "string", Validation: "("},
	})

	assert.True(t, check(v, map[string]any{"sha": "abc1234"}).Passed())

	r := check(v, map[string]any{"sha": "XYZ"})
	assert.Equal(t, []string{`sha does not match the required pattern of "^[0-9a-f]{7,40}$"`}, failureMessages(r))

	// numeric values are stringified and searched unanchored
	assert.True(t, check(v, map[string]any{"page": 120}).Passed())

	r = check(v, map[string]any{"bad": "x"})
	require.Len(t, r.Failures(), 1)
	assert.Contains(t, r.Failures()[0].Message, "invalid pattern")
}

func TestCheckCall_Null(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{
		"milestone": {Type: "integer", AllowNull: true, Enum: []any{1, 2}},
		"title":     {Type: "string"},
	})

	assert.True(t, check(v, map[string]any{"milestone": nil}).Passed())

	r := check(v, map[string]any{"title": nil})
	assert.Equal(t, []string{"title may not be null"}, failureMessages(r))
}

func TestCheckCall_UnknownType(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{"blob": {Type: "binary"}})
	r := check(v, map[string]any{"blob": "x"})
	assert.Equal(t, []string{"Unknown argument type binary for blob"}, failureMessages(r))
}

func TestCheckCall_AliasSatisfiesRequired(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{
		"user":     {Type: "string", Required: true},
		"username": {Alias: "user"},
	})

	assert.True(t, check(v, map[string]any{"username": "octocat"}).Passed())
	assert.False(t, check(v, map[string]any{"username": 12}).Passed())
	assert.Equal(t, []string{"user is required and not set"}, failureMessages(check(v, map[string]any{})))
}

func TestCheckCall_MultipleIndependentFailures(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{
		"owner":  {Type: "string", Required: true},
		"config": {Type: "json"},
		"state":  {Type: "string", Enum: []any{"open"}},
	})
	r := check(v, map[string]any{"config": "{", "state": "x"})
	assert.Equal(t, []string{
		JSONParseFailure,
		"state is not in the set of allowed values of open",
		"owner is required and not set",
	}, failureMessages(r))
}

func TestAllArgumentsValid_ReplaysEveryCall(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{"owner": {Type: "string", Required: true}})
	rec := &fakeRecorder{}
	rec.record(map[string]any{"owner": "a"})
	rec.record(map[string]any{})
	rec.record(map[string]any{"owner": "b"})

	r := &Report{}
	v.AllArgumentsValid(r.Assert, rec)
	assert.Equal(t, []string{"owner is required and not set"}, failureMessages(r))

	first := failureMessages(r)
	r.Reset()
	v.AllArgumentsValid(r.Assert, rec)
	assert.Equal(t, first, failureMessages(r))

	r.Reset()
	v.ArgumentsValid(r.Assert, rec)
	assert.True(t, r.Passed())
}

func TestCheckArg(t *testing.T) {
	t.Parallel()
	v := newValidator(t, spec.ParamMap{"page": {Type: "integer"}})
	r := &Report{}
	v.CheckArg(r.Assert, "page", "3")
	assert.True(t, r.Passed())
	v.CheckArg(r.Assert, "limit", 3)
	assert.Equal(t, []string{"limit is not a declared parameter"}, failureMessages(r))
}
