package spec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	openapi2 "github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	NetworkError    ErrorCode = "NetworkError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
	ConversionError ErrorCode = "ConversionError"
)

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path or URL
	JSONPointer string // e.g. "#/repos/get"
	Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
	// AllowFileRefs lets OpenAPI documents loaded from a URL pull in file:// refs.
	// Documents loaded from a local file may always reference sibling files.
	AllowFileRefs bool
	Logger        *log.Logger
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
		Logger:      log.New(io.Discard),
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithAllowFileRefs(allow bool) Option { return func(s *Settings) { s.AllowFileRefs = allow } }
func WithLogger(l *log.Logger) Option { return func(s *Settings) { s.Logger = l } }

func newSettings(opts []Option) Settings {
	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.Logger == nil {
		settings.Logger = log.New(io.Discard)
	}
	return settings
}

// source is a raw document plus where it came from.
type source struct {
	raw      []byte
	location string
	url      *url.URL // nil for local files
}

// readSource reads input from an http/https URL or a local path. file:// URLs
// are rejected.
func readSource(ctx context.Context, input string, settings Settings) (*source, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &SpecError{Code: InputError, Message: "spec: input is empty"}
	}

	u, uerr := url.Parse(input)
	isURL := uerr == nil && u.Scheme != "" && u.Host != ""
	if uerr == nil && strings.EqualFold(u.Scheme, "file") {
		return nil, &SpecError{Code: InputError, Message: "spec: file:// URLs are blocked by default", Location: input}
	}
	if isURL {
		scheme := strings.ToLower(u.Scheme)
		if scheme != "http" && scheme != "https" {
			return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}
		settings.Logger.Debug("fetching document", "url", input)
		raw, err := fetchWithRetry(ctx, input, settings)
		if err != nil {
			return nil, &SpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, err), Location: input, Cause: err}
		}
		return &source{raw: raw, location: input, url: u}, nil
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
	}
	settings.Logger.Debug("reading document", "path", abs)
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}
	return &source{raw: raw, location: abs}, nil
}

// ReadDocument returns the raw bytes of input, a local path or http/https URL,
// and the resolved location they were read from.
func ReadDocument(ctx context.Context, input string, opts ...Option) ([]byte, string, error) {
	src, err := readSource(ctx, input, newSettings(opts))
	if err != nil {
		return nil, "", err
	}
	return src.raw, src.location, nil
}

// LoadRoutes reads a route schema document (JSON or YAML) from a path or
// http/https URL and checks its shape.
func LoadRoutes(ctx context.Context, input string, opts ...Option) (RouteSchema, error) {
	settings := newSettings(opts)
	src, err := readSource(ctx, input, settings)
	if err != nil {
		return nil, err
	}
	var routes RouteSchema
	if err := yaml.Unmarshal(src.raw, &routes); err != nil {
		return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse routes: %v", err), Location: src.location, Cause: err}
	}
	if err := checkRoutes(routes, src.location); err != nil {
		return nil, err
	}
	settings.Logger.Debug("loaded routes", "location", src.location, "namespaces", len(routes))
	return routes, nil
}

// LoadDefinitions reads a shared definitions document (JSON or YAML).
func LoadDefinitions(ctx context.Context, input string, opts ...Option) (Definitions, error) {
	settings := newSettings(opts)
	src, err := readSource(ctx, input, settings)
	if err != nil {
		return nil, err
	}
	var defs Definitions
	if err := yaml.Unmarshal(src.raw, &defs); err != nil {
		return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse definitions: %v", err), Location: src.location, Cause: err}
	}
	for _, name := range sortedKeys(defs) {
		if defs[name] == nil {
			return nil, &SpecError{Code: ValidationError, Message: fmt.Sprintf("definition %q is empty", name), Location: src.location, JSONPointer: "#/" + escapePointer(name)}
		}
	}
	settings.Logger.Debug("loaded definitions", "location", src.location, "count", len(defs))
	return defs, nil
}

func checkRoutes(routes RouteSchema, location string) error {
	if len(routes) == 0 {
		return &SpecError{Code: ValidationError, Message: "routes: document declares no namespaces", Location: location}
	}
	for _, ns := range sortedKeys(routes) {
		for _, name := range sortedKeys(routes[ns]) {
			pointer := "#/" + escapePointer(ns) + "/" + escapePointer(name)
			m := routes[ns][name]
			if m == nil {
				return &SpecError{Code: ValidationError, Message: fmt.Sprintf("routes: %s.%s has no spec", ns, name), Location: location, JSONPointer: pointer}
			}
			if m.Alias != "" {
				parts := strings.Split(m.Alias, ".")
				if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
					return &SpecError{Code: ValidationError, Message: fmt.Sprintf("routes: %s.%s alias %q must be namespace.method", ns, name, m.Alias), Location: location, JSONPointer: pointer + "/alias"}
				}
				continue
			}
			for _, p := range sortedKeys(m.Params) {
				if strings.TrimSpace(strings.TrimPrefix(p, AliasMarker)) == "" {
					return &SpecError{Code: ValidationError, Message: fmt.Sprintf("routes: %s.%s declares an unnamed parameter", ns, name), Location: location, JSONPointer: pointer + "/params"}
				}
			}
		}
	}
	return nil
}

// LoadOpenAPI reads, validates, and returns an OpenAPI v3 document. Swagger
// v2.0 input is converted to v3 via kin-openapi openapi2conv.
func LoadOpenAPI(ctx context.Context, input string, opts ...Option) (*openapi3.T, error) {
	settings := newSettings(opts)
	src, err := readSource(ctx, input, settings)
	if err != nil {
		return nil, err
	}

	version, derr := detectSpecVersion(src.raw)
	if derr != nil {
		return nil, &SpecError{Code: ParseError, Message: derr.Error(), Location: src.location, Cause: derr}
	}

	var doc *openapi3.T
	switch version {
	case 3:
		loader := newLoader(settings, src.url == nil)
		if src.url != nil {
			doc, err = loader.LoadFromURI(src.url)
		} else {
			doc, err = loader.LoadFromFile(src.location)
		}
		if err != nil {
			return nil, mapValidateOrParseErr(err, src.location)
		}
	case 2:
		doc, err = convertV2ToV3(src.raw)
		if err != nil {
			return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v2→v3: %v", err), Location: src.location, Cause: err}
		}
		loader := newLoader(settings, src.url == nil)
		if err := loader.ResolveRefsIn(doc, nil); err != nil {
			settings.Logger.Warn("failed to resolve refs after conversion", "err", err)
		}
	default:
		return nil, &SpecError{Code: ParseError, Message: "spec: unknown or unsupported OpenAPI/Swagger version", Location: src.location}
	}

	if err := doc.Validate(ctx); err != nil {
		if !canProceedDespiteValidation(err) {
			return nil, mapValidateOrParseErr(err, src.location)
		}
		settings.Logger.Warn("proceeding despite validation error", "err", err)
	}
	return doc, nil
}

func newLoader(settings Settings, rootIsFile bool) *openapi3.Loader {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	client := &http.Client{Timeout: settings.HTTPTimeout}
	allowFile := settings.AllowFileRefs || rootIsFile
	loader.ReadFromURIFunc = func(l *openapi3.Loader, uri *url.URL) ([]byte, error) {
		switch strings.ToLower(uri.Scheme) {
		case "", "file":
			if !allowFile {
				return nil, fmt.Errorf("blocked file ref: %s", uri.String())
			}
			path := uri.Path
			if path == "" {
				path = uri.Opaque
			}
			return os.ReadFile(path)
		case "http", "https":
			req, err := http.NewRequest(http.MethodGet, uri.String(), nil)
			if err != nil {
				return nil, err
			}
			resp, err := client.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 400 {
				return nil, fmt.Errorf("http %d: %s", resp.StatusCode, uri.String())
			}
			return io.ReadAll(resp.Body)
		default:
			return nil, fmt.Errorf("unsupported ref scheme: %s", uri.Scheme)
		}
	}
	return loader
}

// detectSpecVersion returns 3 for OpenAPI v3, 2 for Swagger v2, else error.
func detectSpecVersion(data []byte) (int, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return 0, fmt.Errorf("parse spec: %w", err)
	}
	if v, ok := root["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return 3, nil
		}
	}
	if v, ok := root["swagger"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "2.") {
			return 2, nil
		}
	}
	return 0, fmt.Errorf("spec: missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')")
}

func convertV2ToV3(data []byte) (*openapi3.T, error) {
	var v2 openapi2.T
	if err := yaml.Unmarshal(data, &v2); err != nil {
		return nil, err
	}
	return openapi2conv.ToV3(&v2)
}

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
	client := &http.Client{Timeout: settings.HTTPTimeout}
	var lastErr error
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		body, retry, err := fetchOnce(ctx, client, rawURL)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		settings.Logger.Debug("transient fetch failure", "url", rawURL, "attempt", i+1, "err", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}

// fetchOnce performs a single GET. retry reports whether the failure is transient.
func fetchOnce(ctx context.Context, client *http.Client, rawURL string) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		return body, false, err
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("transient http error %d", resp.StatusCode)
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return nil, false, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}

func mapValidateOrParseErr(err error, location string) error {
	pointer := extractJSONPointer(err)
	code := ValidationError
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "parse") || strings.Contains(lower, "invalid character") {
		code = ParseError
	}
	return &SpecError{Code: code, Message: err.Error(), Location: location, JSONPointer: pointer, Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'\"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	if me, ok := err.(openapi3.MultiError); ok {
		if len(me) > 0 {
			return extractJSONPointer(me[0])
		}
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	if m := jsonPtrRe.FindString(err.Error()); m != "" {
		return m
	}
	return ""
}

// canProceedDespiteValidation returns true for validation errors where the
// document is still usable (e.g., unresolved $ref entries).
func canProceedDespiteValidation(err error) bool {
	if err == nil {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unresolved ref") || strings.Contains(s, "found unresolved ref")
}

func escapePointer(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
