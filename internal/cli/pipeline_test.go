package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalSpecYAML = "" +
	"openapi: 3.0.0\n" +
	"info:\n" +
	"  title: Test API\n" +
	"  version: '1.0.0'\n" +
	"paths:\n" +
	"  /repos/{owner}/{repo}:\n" +
	"    get:\n" +
	"      operationId: get\n" +
	"      tags: [repos]\n" +
	"      parameters:\n" +
	"        - name: owner\n" +
	"          in: path\n" +
	"          required: true\n" +
	"          schema: {type: string}\n" +
	"        - name: repo\n" +
	"          in: path\n" +
	"          required: true\n" +
	"          schema: {type: string}\n" +
	"      responses:\n" +
	"        '200':\n" +
	"          description: ok\n"

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestImportPipeline_DryRun(t *testing.T) {
	dir := t.TempDir()
	specPath := writeFixture(t, dir, "spec.yaml", minimalSpecYAML)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "import", "--input", specPath, "--out", outDir, "--dry-run")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "Planned writes to") || !strings.Contains(out, "- routes.json") {
		t.Fatalf("expected dry-run plan output, got: %s", out)
	}
	// Dry-run should not create the directory
	if _, err := os.Stat(outDir); err == nil {
		t.Fatalf("expected no writes on dry-run")
	}
}

func TestImportPipeline_BadSpecIsUsageError(t *testing.T) {
	dir := t.TempDir()
	specPath := writeFixture(t, dir, "spec.yaml", "swagger: '1.0'\n")

	_, err := execute(t, "import", "--input", specPath, "--out", filepath.Join(dir, "out"))
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "spec: ") || !strings.Contains(err.Error(), "Location: ") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestImportCheckReplayPipeline(t *testing.T) {
	dir := t.TempDir()
	specPath := writeFixture(t, dir, "spec.yaml", minimalSpecYAML)
	outDir := filepath.Join(dir, "routes")

	out, err := execute(t, "import", "--input", specPath, "--out", outDir, "--format", "yaml")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Wrote 1 namespaces (1 methods)") {
		t.Fatalf("unexpected import output: %s", out)
	}
	routesPath := filepath.Join(outDir, "routes.yaml")

	good := writeFixture(t, dir, "good.yaml", strings.TrimSpace(`
- namespace: repos
  method: get
  args:
    - owner: octocat
      repo: hello
`)+"\n")
	out, err = execute(t, "check", "--routes", routesPath, "--calls", good)
	if err != nil {
		t.Fatalf("check good calls: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Checked 1 calls: 0 failures") {
		t.Fatalf("unexpected check output: %s", out)
	}

	bad := writeFixture(t, dir, "bad.yaml", strings.TrimSpace(`
- namespace: repos
  method: get
  args:
    - owner: octocat
- namespace: repos
  method: get
  args:
    - owner: octocat
      repo: hello
      ref: main
`)+"\n")
	out, err = execute(t, "check", "--routes", routesPath, "--calls", bad)
	if !errors.Is(err, ErrChecksFailed) {
		t.Fatalf("expected failed checks, got %v", err)
	}
	for _, want := range []string{
		"FAIL repos.get: repo is required and not set",
		"FAIL repos.get: ref is not a declared parameter",
		"Checked 2 calls: 2 failures",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("check output missing %q:\n%s", want, out)
		}
	}

	fixtures := writeFixture(t, dir, "fixtures.json", `[
  {"method": "GET", "path": "/repos/octocat/hello", "status": 200},
  {"method": "GET", "path": "/users/octocat", "status": 200}
]`)
	out, err = execute(t, "replay", "--routes", routesPath, "--fixtures", fixtures)
	if err != nil {
		t.Fatalf("replay: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Replayed 2 requests: 1 matched, 1 skipped, 0 failed") {
		t.Fatalf("unexpected replay output: %s", out)
	}
}

func TestCheck_UnknownMethod(t *testing.T) {
	dir := t.TempDir()
	routesPath := writeFixture(t, dir, "routes.json", `{"repos": {"get": {"method": "GET", "url": "/repos/:owner", "params": {"owner": {"type": "string", "required": true}}}}}`)
	calls := writeFixture(t, dir, "calls.yaml", "- namespace: repos\n  method: list\n  args: []\n")

	_, err := execute(t, "check", "--routes", routesPath, "--calls", calls)
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "repos.list") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestCheckAndReplay_RequiredFlags(t *testing.T) {
	for _, args := range [][]string{
		{"check", "--calls", "c.yaml"},
		{"check", "--routes", "r.json"},
		{"replay", "--routes", "r.json"},
		{"replay", "--fixtures", "f.json"},
	} {
		_, err := execute(t, args...)
		if !errors.Is(err, ErrUsage) || !strings.Contains(err.Error(), "is required") {
			t.Errorf("%v: expected required-flag usage error, got %v", args, err)
		}
	}
}

func TestReplay_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	routesPath := writeFixture(t, dir, "routes.json", `{"repos": {"get": {"method": "GET", "url": "/repos/:owner", "params": {"owner": {"type": "string", "required": true}, "per_page": {"type": "integer"}}}}}`)
	fixtures := writeFixture(t, dir, "fixtures.json", `[{"method": "GET", "path": "/repos/hubot?per_page=abc"}]`)
	cfg := writeFixture(t, dir, "routemock.yaml", "routes: "+routesPath+"\nfixtures: "+fixtures+"\n")

	out, err := execute(t, "--config", cfg, "replay")
	if !errors.Is(err, ErrChecksFailed) {
		t.Fatalf("expected failed checks, got %v\n%s", err, out)
	}
	if !strings.Contains(out, "FAIL GET /repos/hubot?per_page=abc (repos.get): per_page is not a valid number") {
		t.Fatalf("unexpected replay output: %s", out)
	}
}

func TestSample_FeedsCheck(t *testing.T) {
	dir := t.TempDir()
	routesPath := writeFixture(t, dir, "routes.json", `{
  "repos": {
    "get": {"method": "GET", "url": "/repos/:owner", "params": {"owner": {"type": "string", "required": true, "validation": "^[0-9]+$"}, "per_page": {"type": "integer"}}},
    "getRepo": {"alias": "repos.get"}
  },
  "misc": {
    "getRateLimit": {"method": "GET", "url": "/rate_limit", "params": {}}
  }
}`)

	out, err := execute(t, "sample", "--routes", routesPath)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	for _, want := range []string{"namespace: repos", "method: getRepo", "owner: \"1\"", "per_page: 1", "method: getRateLimit"} {
		if !strings.Contains(out, want) {
			t.Errorf("sample output missing %q:\n%s", want, out)
		}
	}

	calls := writeFixture(t, dir, "calls.yaml", out)
	report, err := execute(t, "check", "--routes", routesPath, "--calls", calls)
	if err != nil {
		t.Fatalf("check sampled calls: %v\n%s", err, report)
	}
	if !strings.Contains(report, "Checked 3 calls: 0 failures") {
		t.Fatalf("unexpected check output: %s", report)
	}

	out, err = execute(t, "sample", "--routes", routesPath, "--namespace", "misc")
	if err != nil {
		t.Fatalf("sample misc: %v", err)
	}
	if strings.Contains(out, "repos") || !strings.Contains(out, "getRateLimit") {
		t.Fatalf("namespace filter ignored:\n%s", out)
	}
	if _, err := execute(t, "sample", "--routes", routesPath, "--namespace", "nope"); !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error for unknown namespace, got %v", err)
	}
}
