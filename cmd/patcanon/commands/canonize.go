// Package commands implements CLI command handlers for patcanon.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/changemine/patcanon/internal/batch"
	"github.com/changemine/patcanon/internal/config"
	"github.com/changemine/patcanon/internal/observability"
	"github.com/changemine/patcanon/internal/pattern"
)

// CanonizeCommand holds configuration and dependencies for the canonize
// command.
type CanonizeCommand struct {
	configPath string
	workers    int
	isoBudget  int
	describe   bool
	manual     bool
	diagAddr   string

	outWriter io.Writer
	inReader  io.Reader
}

// NewCanonizeCommand creates the canonize cobra command.
func NewCanonizeCommand() *cobra.Command {
	return newCanonizeCommand(os.Stdout, os.Stdin)
}

func newCanonizeCommand(out io.Writer, in io.Reader) *cobra.Command {
	cc := &CanonizeCommand{outWriter: out, inReader: in}

	cmd := &cobra.Command{
		Use:   "canonize <source-dir> [dest-dir]",
		Short: "Canonicalize a directory of mined patterns",
		Long: `Canonize processes every pattern subdirectory of <source-dir>:
fragment graphs are merged into one canonical pattern graph, variable
vertices are classified, per-sample edit scripts are aligned, and the
results are written one subdirectory per pattern under [dest-dir].

Per-pattern failures are reported and skipped; the batch always runs to
completion.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: cc.run,
	}

	cmd.Flags().StringVar(&cc.configPath, "config", "", "config file path (default: .patcanon.yaml in CWD or $HOME)")
	cmd.Flags().IntVar(&cc.workers, "workers", config.DefaultWorkers, "concurrent pattern workers (0 = one per CPU)")
	cmd.Flags().IntVar(&cc.isoBudget, "iso-budget", config.DefaultIsoBudget, "isomorphism search step budget per query")
	cmd.Flags().BoolVar(&cc.describe, "describe", config.DefaultDescribe, "write a human-readable description per pattern")
	cmd.Flags().BoolVar(&cc.manual, "manual", config.DefaultManual, "classify variables interactively instead of heuristically")
	cmd.Flags().StringVar(&cc.diagAddr, "diag-addr", config.DefaultDiagAddr, "diagnostics HTTP listen address (empty disables)")

	return cmd
}

func (cc *CanonizeCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cc.configPath)
	if err != nil {
		return err
	}

	cc.applyFlags(cmd, cfg)

	destDir := cfg.Output.Dir
	if len(args) == 2 {
		destDir = args[1]
	}

	tel, err := observability.NewTelemetry()
	if err != nil {
		return err
	}

	defer func() {
		shutdownErr := tel.Shutdown(context.Background())
		if shutdownErr != nil {
			slog.Warn("telemetry shutdown", "error", shutdownErr)
		}
	}()

	metrics, err := observability.NewRunMetrics(tel.Meter())
	if err != nil {
		return err
	}

	if cfg.Diagnostics.Addr != "" {
		srv, diagErr := observability.NewDiagnosticsServer(cfg.Diagnostics.Addr, tel.Handler())
		if diagErr != nil {
			return diagErr
		}

		slog.Info("diagnostics endpoint up", "addr", srv.Addr())

		defer func() {
			closeErr := srv.Close()
			if closeErr != nil {
				slog.Warn("diagnostics shutdown", "error", closeErr)
			}
		}()
	}

	opts := batch.Options{
		Workers:   cfg.Pipeline.Workers,
		IsoBudget: cfg.Oracle.IsoBudget,
		Describe:  cfg.Pipeline.Describe,
		Metrics:   metrics,
	}

	if cfg.Pipeline.Manual {
		// The prompt shares one terminal; interactive runs are sequential.
		opts.Decider = &pattern.PromptDecider{In: cc.inReader, Out: cc.outWriter}
		opts.Workers = 1
	}

	summary, err := batch.NewRunner(opts).Run(cmd.Context(), args[0], destDir)
	if err != nil {
		return err
	}

	summary.Render(cc.outWriter)

	if summary.Failed > 0 {
		fmt.Fprintf(cc.outWriter, "%d pattern(s) failed; see log for details\n", summary.Failed)
	}

	return nil
}

// applyFlags overlays explicitly set flags onto the loaded config. Flag >
// config file > default.
func (cc *CanonizeCommand) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("workers") {
		cfg.Pipeline.Workers = cc.workers
	}

	if cmd.Flags().Changed("iso-budget") {
		cfg.Oracle.IsoBudget = cc.isoBudget
	}

	if cmd.Flags().Changed("describe") {
		cfg.Pipeline.Describe = cc.describe
	}

	if cmd.Flags().Changed("manual") {
		cfg.Pipeline.Manual = cc.manual
	}

	if cmd.Flags().Changed("diag-addr") {
		cfg.Diagnostics.Addr = cc.diagAddr
	}
}
