package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// SampleConfig captures the inputs of the sample command.
type SampleConfig struct {
	Routes      string
	Definitions string
	Namespaces  []string
	ConfigPath  string
	Verbose     bool

	stdout io.Writer
	logger *log.Logger
}

var sampleRunner = runSample

func newSampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print a calls document with one valid call per method",
		Long: "Build argument objects that satisfy each method's parameters and print them " +
			"as a calls document that check accepts.",
		Example: strings.TrimSpace(`  routemock sample --routes routes/routes.json --definitions routes/definitions.json > calls.yaml
  routemock sample --routes routes/routes.json --namespace repos,issues`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveSampleConfig(cmd)
			if err != nil {
				return err
			}
			return sampleRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("routes", "", "Path or URL to the route schema document")
	flags.String("definitions", "", "Path or URL to the shared definitions document")
	flags.StringSlice("namespace", nil, "Only sample methods of these namespaces")

	return cmd
}

func resolveSampleConfig(cmd *cobra.Command) (*SampleConfig, error) {
	cfg := SampleConfig{}

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
		cfg.Routes, cfg.Definitions, cfg.Verbose = fc.Routes, fc.Definitions, fc.Verbose
	}

	flags := cmd.Flags()
	for name, dst := range map[string]*string{"routes": &cfg.Routes, "definitions": &cfg.Definitions} {
		if err := overrideString(flags, name, dst); err != nil {
			return nil, err
		}
	}
	if err := overrideTags(flags, "namespace", &cfg.Namespaces); err != nil {
		return nil, err
	}
	if err := overrideBool(flags, "verbose", &cfg.Verbose); err != nil {
		return nil, err
	}

	if cfg.Routes == "" {
		return nil, newUsageError("sample: --routes is required (set via flag or config file)")
	}
	cfg.stdout = cmd.OutOrStdout()
	cfg.logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	return &cfg, nil
}

func runSample(ctx context.Context, cfg *SampleConfig) error {
	stdout, logger := outputs(cfg.stdout, cfg.logger)

	routes, defs, err := loadSchema(ctx, cfg.Routes, cfg.Definitions, logger)
	if err != nil {
		return err
	}
	client, err := newStubClient(routes, defs, logger)
	if err != nil {
		return err
	}

	namespaces := client.Namespaces()
	if len(cfg.Namespaces) > 0 {
		for _, ns := range cfg.Namespaces {
			if client.Namespace(ns) == nil {
				return newUsageError(fmt.Sprintf("sample: unknown namespace %q", ns))
			}
		}
		namespaces = append([]string(nil), cfg.Namespaces...)
		sort.Strings(namespaces)
	}

	var calls []recordedCall
	for _, ns := range namespaces {
		stubs := client.Namespace(ns)
		methods := make([]string, 0, len(stubs))
		for name := range stubs {
			methods = append(methods, name)
		}
		sort.Strings(methods)
		for _, name := range methods {
			s := stubs[name]
			if !s.HasValidator() {
				continue
			}
			call := recordedCall{Namespace: ns, Method: name, Args: []any{}}
			if s.Validator().Params().Len() > 0 {
				call.Args = []any{s.Validator().SampleArgs()}
			}
			calls = append(calls, call)
		}
	}
	logger.Debug("sampled methods", "calls", len(calls))

	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(calls); err != nil {
		return fmt.Errorf("sample: encode calls: %w", err)
	}
	return enc.Close()
}
