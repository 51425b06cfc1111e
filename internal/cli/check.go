package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/routemock/internal/spec"
	"github.com/mark3labs/routemock/internal/stub"
	"github.com/mark3labs/routemock/internal/validate"
)

// CheckConfig captures the inputs of the check command.
type CheckConfig struct {
	Routes      string
	Definitions string
	Calls       string
	ConfigPath  string
	Verbose     bool

	stdout io.Writer
	logger *log.Logger
}

// recordedCall is one entry of a calls document.
type recordedCall struct {
	Namespace string `yaml:"namespace"`
	Method    string `yaml:"method"`
	Args      []any  `yaml:"args"`
}

var checkRunner = runCheck

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check recorded client calls against a route schema",
		Long: "Invoke the stub client with every call listed in a calls document and report " +
			"each argument that violates the route schema.",
		Example: strings.TrimSpace(`  routemock check --routes routes/routes.json --definitions routes/definitions.json --calls calls.yaml`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveCheckConfig(cmd)
			if err != nil {
				return err
			}
			return checkRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("routes", "", "Path or URL to the route schema document")
	flags.String("definitions", "", "Path or URL to the shared definitions document")
	flags.String("calls", "", "Path or URL to the recorded calls document")

	return cmd
}

func resolveCheckConfig(cmd *cobra.Command) (*CheckConfig, error) {
	cfg := CheckConfig{}

	path, err := configPath(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if path != "" {
		cfg.ConfigPath = path
		fc, err := loadConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Routes, cfg.Definitions, cfg.Calls, cfg.Verbose = fc.Routes, fc.Definitions, fc.Calls, fc.Verbose
	}

	flags := cmd.Flags()
	for name, dst := range map[string]*string{"routes": &cfg.Routes, "definitions": &cfg.Definitions, "calls": &cfg.Calls} {
		if err := overrideString(flags, name, dst); err != nil {
			return nil, err
		}
	}
	if err := overrideBool(flags, "verbose", &cfg.Verbose); err != nil {
		return nil, err
	}

	if cfg.Routes == "" {
		return nil, newUsageError("check: --routes is required (set via flag or config file)")
	}
	if cfg.Calls == "" {
		return nil, newUsageError("check: --calls is required (set via flag or config file)")
	}
	cfg.stdout = cmd.OutOrStdout()
	cfg.logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	return &cfg, nil
}

func runCheck(ctx context.Context, cfg *CheckConfig) error {
	stdout, logger := outputs(cfg.stdout, cfg.logger)

	routes, defs, err := loadSchema(ctx, cfg.Routes, cfg.Definitions, logger)
	if err != nil {
		return err
	}
	client, err := newStubClient(routes, defs, logger)
	if err != nil {
		return err
	}
	calls, err := loadCalls(ctx, cfg.Calls, logger)
	if err != nil {
		return specUsageError("calls", err)
	}

	for i, c := range calls {
		s, err := client.Method(c.Namespace, c.Method)
		if err != nil {
			return newUsageError(fmt.Sprintf("calls: entry %d: %v", i, err))
		}
		s.Invoke(c.Args...)
	}

	failures := 0
	for _, s := range client.Stubs() {
		if !s.Called() {
			continue
		}
		var report validate.Report
		s.AllArgumentsValid(report.Assert)
		for _, f := range report.Failures() {
			failures++
			fmt.Fprintf(stdout, "FAIL %s: %s\n", s.Name(), f.Message)
		}
		logger.Debug("checked method", "method", s.Name(), "calls", s.CallCount(), "assertions", len(report.Assertions))
	}

	fmt.Fprintf(stdout, "Checked %d calls: %d failures\n", len(calls), failures)
	if failures > 0 {
		return ErrChecksFailed
	}
	return nil
}

// loadSchema reads the route schema and, when defsPath is set, the shared
// definitions table.
func loadSchema(ctx context.Context, routesPath, defsPath string, logger *log.Logger) (spec.RouteSchema, spec.Definitions, error) {
	routes, err := spec.LoadRoutes(ctx, routesPath, spec.WithLogger(logger))
	if err != nil {
		return nil, nil, specUsageError("routes", err)
	}
	var defs spec.Definitions
	if defsPath != "" {
		defs, err = spec.LoadDefinitions(ctx, defsPath, spec.WithLogger(logger))
		if err != nil {
			return nil, nil, specUsageError("definitions", err)
		}
	}
	return routes, defs, nil
}

func newStubClient(routes spec.RouteSchema, defs spec.Definitions, logger *log.Logger) (*stub.Client, error) {
	client, err := stub.NewClient(routes, stub.WithDefinitions(defs), stub.WithLogger(logger))
	if err != nil {
		return nil, newUsageError(fmt.Sprintf("routes: %v", err))
	}
	return client, nil
}

func loadCalls(ctx context.Context, input string, logger *log.Logger) ([]recordedCall, error) {
	raw, location, err := spec.ReadDocument(ctx, input, spec.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	var calls []recordedCall
	if err := yaml.Unmarshal(raw, &calls); err != nil {
		return nil, &spec.SpecError{Code: spec.ParseError, Message: fmt.Sprintf("parse calls: %v", err), Location: location, Cause: err}
	}
	for i, c := range calls {
		if c.Namespace == "" || c.Method == "" {
			return nil, &spec.SpecError{
				Code:        spec.ValidationError,
				Message:     fmt.Sprintf("call %d needs both namespace and method", i),
				Location:    location,
				JSONPointer: fmt.Sprintf("#/%d", i),
			}
		}
	}
	if len(calls) == 0 {
		return nil, &spec.SpecError{Code: spec.ValidationError, Message: "calls document lists no calls", Location: location}
	}
	return calls, nil
}
