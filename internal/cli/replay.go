package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mark3labs/routemock/internal/replay"
	"github.com/mark3labs/routemock/internal/spec"
)

// ReplayConfig captures the inputs of the replay command.
type ReplayConfig struct {
	Routes      string
	Definitions string
	Fixtures    string
	ConfigPath  string
	Verbose     bool

	stdout io.Writer
	logger *log.Logger
}

var replayRunner = runReplay

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded HTTP fixtures through the stub client",
		Long: "Map every recorded request onto its route schema method, rebuild the call " +
			"arguments, and check them. Requests no method matches are skipped.",
		Example: strings.TrimSpace(`  routemock replay --routes routes/routes.json --fixtures fixtures/repos.json`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveReplayConfig(cmd)
			if err != nil {
				return err
			}
			return replayRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("routes", "", "Path or URL to the route schema document")
	flags.String("definitions", "", "Path or URL to the shared definitions document")
	flags.String("fixtures", "", "Path or URL to the recorded request fixtures")

	return cmd
}

func resolveReplayConfig(cmd *cobra.Command) (*ReplayConfig, error) {
	cfg := ReplayConfig{}

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
		cfg.Routes, cfg.Definitions, cfg.Fixtures, cfg.Verbose = fc.Routes, fc.Definitions, fc.Fixtures, fc.Verbose
	}

	flags := cmd.Flags()
	for name, dst := range map[string]*string{"routes": &cfg.Routes, "definitions": &cfg.Definitions, "fixtures": &cfg.Fixtures} {
		if err := overrideString(flags, name, dst); err != nil {
			return nil, err
		}
	}
	if err := overrideBool(flags, "verbose", &cfg.Verbose); err != nil {
		return nil, err
	}

	if cfg.Routes == "" {
		return nil, newUsageError("replay: --routes is required (set via flag or config file)")
	}
	if cfg.Fixtures == "" {
		return nil, newUsageError("replay: --fixtures is required (set via flag or config file)")
	}
	cfg.stdout = cmd.OutOrStdout()
	cfg.logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	return &cfg, nil
}

func runReplay(ctx context.Context, cfg *ReplayConfig) error {
	stdout, logger := outputs(cfg.stdout, cfg.logger)

	routes, defs, err := loadSchema(ctx, cfg.Routes, cfg.Definitions, logger)
	if err != nil {
		return err
	}
	client, err := newStubClient(routes, defs, logger)
	if err != nil {
		return err
	}
	matcher, err := replay.NewMatcher(routes, defs)
	if err != nil {
		return newUsageError(fmt.Sprintf("routes: %v", err))
	}
	reqs, err := replay.LoadFixtures(ctx, cfg.Fixtures, spec.WithLogger(logger))
	if err != nil {
		return specUsageError("fixtures", err)
	}

	outcomes := replay.NewRunner(client, matcher, logger).Run(reqs)
	for _, o := range outcomes {
		if !o.Failed() || !o.Matched {
			continue
		}
		target := o.Namespace + "." + o.Method
		if o.Err != nil {
			fmt.Fprintf(stdout, "FAIL %s (%s): %v\n", o.Request, target, o.Err)
		}
		for _, f := range o.Report.Failures() {
			fmt.Fprintf(stdout, "FAIL %s (%s): %s\n", o.Request, target, f.Message)
		}
	}

	sum := replay.Summarize(outcomes)
	fmt.Fprintf(stdout, "Replayed %d requests: %d matched, %d skipped, %d failed\n", sum.Total, sum.Matched, sum.Skipped, sum.Failed)
	if sum.Failed > 0 {
		return ErrChecksFailed
	}
	return nil
}
