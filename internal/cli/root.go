package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/comigor/llm-smoke/internal/agent"
	"github.com/comigor/llm-smoke/internal/config"
	"github.com/comigor/llm-smoke/internal/llm"
	"github.com/comigor/llm-smoke/internal/logger"
	"github.com/comigor/llm-smoke/internal/report"
	"github.com/comigor/llm-smoke/internal/state"
)

// ErrRunFailed is returned by the root command when the smoke test did not pass.
// The report has already been printed, so Execute does not print it again.
var ErrRunFailed = errors.New("smoke test failed")

// NewRootCmd constructs the single, flagless command. Behaviour is driven by the environment.
func NewRootCmd(opts ...config.Option) *cobra.Command {
	return &cobra.Command{
		Use:           "llm-smoke",
		Short:         "Send one chat completion to the configured LLM and report PASSED/FAILED",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if code := Run(cmd.Context(), cmd.OutOrStdout(), opts...); code != 0 {
				return ErrRunFailed
			}
			return nil
		},
	}
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, ErrRunFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// Run performs one full pass (load config, build state, run workflow, report) and returns the exit code.
func Run(ctx context.Context, stdout io.Writer, opts ...config.Option) int {
	p := report.New(stdout)

	// Load hands back whatever it resolved even when validation fails, so the
	// header shows the provider and source before the failure is explained.
	cfg, err := config.Load(opts...)
	if cfg != nil {
		logger.SetLevel(cfg.LogLevel)
	}
	p.Header(cfg)
	if err != nil {
		logger.L.Error("failed to load configuration", "error", err)
		p.Failure(err)
		return 1
	}

	provider, err := llm.New(cfg.LLM)
	if err != nil {
		logger.L.Error("failed to initialise LLM provider", "error", err)
		p.Failure(err)
		return 1
	}

	initial := state.New(state.Human(cfg.Agent.Prompt))
	logger.L.Info("starting run",
		"run_id", initial.RunID,
		"agent", cfg.Agent.Name,
		"version", cfg.Agent.Version,
		"provider", provider.Name(),
		"model", provider.Model(),
	)

	final, err := agent.New(provider, agent.WithMockData(cfg.Mock)).Process(ctx, initial)
	if err != nil {
		logger.L.Error("run failed", "run_id", initial.RunID, "error", err)
		p.Failure(err)
		return 1
	}

	logger.L.Info("run passed", "run_id", final.RunID, "messages", len(final.Messages))
	p.Success(final)
	return 0
}
