package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mark3labs/routemock/internal/emitter"
	"github.com/mark3labs/routemock/internal/spec"
)

// ImportConfig captures all inputs that influence the import command after
// merging defaults, config file values, and CLI overrides.
type ImportConfig struct {
	Input       string
	Out         string
	Format      string
	IncludeTags []string
	ExcludeTags []string
	ConfigPath  string
	DryRun      bool
	Force       bool
	Verbose     bool

	stdout io.Writer
	logger *log.Logger
}

func defaultImportConfig() ImportConfig {
	return ImportConfig{Out: "routes", Format: string(emitter.FormatJSON)}
}

var importRunner = runImport

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Convert an OpenAPI/Swagger document into a route schema",
		Long: "Convert an OpenAPI/Swagger document into a route schema and shared definitions table. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  routemock import --input openapi.yaml --out ./routes
  routemock --config routemock.yaml import --format yaml --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveImportConfig(cmd)
			if err != nil {
				return err
			}
			return importRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Swagger/OpenAPI document")
	flags.String("out", "", "Output directory for routes and definitions; defaults to ./routes")
	flags.String("format", "", "Document encoding to write (json|yaml); defaults to json")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")

	return cmd
}

func resolveImportConfig(cmd *cobra.Command) (*ImportConfig, error) {
	cfg := defaultImportConfig()

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
		cfg.applyFile(fc)
	}

	if err := applyImportFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.stdout = cmd.OutOrStdout()
	cfg.logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	return &cfg, nil
}

func (c *ImportConfig) applyFile(fc *fileConfig) {
	if fc.Input != "" {
		c.Input = fc.Input
	}
	if fc.Out != "" {
		c.Out = fc.Out
	}
	if fc.Format != "" {
		c.Format = fc.Format
	}
	c.IncludeTags = fc.IncludeTags
	c.ExcludeTags = fc.ExcludeTags
	c.DryRun = fc.DryRun
	c.Force = fc.Force
	c.Verbose = fc.Verbose
}

func applyImportFlagOverrides(flags *pflag.FlagSet, cfg *ImportConfig) error {
	for name, dst := range map[string]*string{"input": &cfg.Input, "out": &cfg.Out, "format": &cfg.Format} {
		if err := overrideString(flags, name, dst); err != nil {
			return err
		}
	}
	if err := overrideTags(flags, "include-tags", &cfg.IncludeTags); err != nil {
		return err
	}
	if err := overrideTags(flags, "exclude-tags", &cfg.ExcludeTags); err != nil {
		return err
	}
	for name, dst := range map[string]*bool{"dry-run": &cfg.DryRun, "force": &cfg.Force, "verbose": &cfg.Verbose} {
		if err := overrideBool(flags, name, dst); err != nil {
			return err
		}
	}
	return nil
}

func (c *ImportConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
}

func (c *ImportConfig) validate() error {
	if c.Input == "" {
		return newUsageError("import: --input is required (set via flag or config file)")
	}
	if c.Out == "" {
		c.Out = "routes"
	}

	switch emitter.Format(c.Format) {
	case emitter.FormatJSON, emitter.FormatYAML:
	case "":
		c.Format = string(emitter.FormatJSON)
	default:
		return newUsageError(fmt.Sprintf("import: unsupported --format %q (allowed: json, yaml)", c.Format))
	}

	overlap := intersect(c.IncludeTags, c.ExcludeTags)
	if len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("import: include/exclude tags overlap: %s", strings.Join(overlap, ", ")))
	}

	return nil
}

func runImport(ctx context.Context, cfg *ImportConfig) error {
	stdout, logger := outputs(cfg.stdout, cfg.logger)

	doc, err := spec.LoadOpenAPI(ctx, cfg.Input, spec.WithLogger(logger))
	if err != nil {
		return specUsageError("spec", err)
	}

	routes, defs, err := spec.BuildRoutes(
		ctx,
		doc,
		spec.WithIncludeTags(cfg.IncludeTags),
		spec.WithExcludeTags(cfg.ExcludeTags),
	)
	if err != nil {
		return fmt.Errorf("build routes: %w", err)
	}
	logger.Debug("built route schema", "namespaces", len(routes), "definitions", len(defs))

	// Absolute only for display; the emitter handles creation and writes.
	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}

	res, err := emitter.Emit(ctx, routes, defs, emitter.Options{
		OutDir:  cfg.Out,
		Format:  emitter.Format(cfg.Format),
		Force:   cfg.Force,
		DryRun:  cfg.DryRun,
		Verbose: cfg.Verbose,
	})
	if err != nil {
		return wrapOutputError(err, absOut)
	}
	if cfg.DryRun {
		paths := make([]string, 0, len(res.Planned))
		for _, p := range res.Planned {
			paths = append(paths, p.RelPath)
		}
		printPlan(stdout, absOut, len(res.Planned), paths)
		return nil
	}
	fmt.Fprintf(stdout, "Wrote %d namespaces (%d methods) to %s\n", res.Namespaces, res.Methods, absOut)
	return nil
}

// outputs fills in defaults for runners invoked without a resolved command.
func outputs(stdout io.Writer, logger *log.Logger) (io.Writer, *log.Logger) {
	if stdout == nil {
		stdout = os.Stdout
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return stdout, logger
}

func printPlan(w io.Writer, outDir string, count int, relPaths []string) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", outDir, count)
	for _, p := range relPaths {
		fmt.Fprintf(w, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "output directory") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg))
	}
	return err
}
