// Package report renders the console output of a smoke-test run.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/comigor/llm-smoke/internal/config"
	"github.com/comigor/llm-smoke/internal/llm"
	"github.com/comigor/llm-smoke/internal/state"
)

var (
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#2C4A54")
)

const rule = "--------------------------------------------------"

// Printer writes the report to w. Colors are dropped automatically when w is not a terminal.
type Printer struct {
	w       io.Writer
	title   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

// New creates a Printer bound to w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		title:   r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(colorMuted),
		success: r.NewStyle().Bold(true).Foreground(colorSuccess),
		failure: r.NewStyle().Bold(true).Foreground(colorError),
	}
}

func (p *Printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Header prints the run title and the masked configuration summary.
func (p *Printer) Header(cfg *config.Config) {
	name := config.DefaultAgentName
	if cfg != nil && cfg.Agent.Name != "" {
		name = cfg.Agent.Name
	}
	p.line("%s", p.title.Render(fmt.Sprintf("Running %s...", name)))
	p.line("%s", rule)
	if cfg == nil {
		return
	}

	if cfg.EnvFile != "" {
		p.line("%s", p.success.Render("✓")+" Loaded configuration from "+cfg.EnvFile)
	} else {
		p.line("%s", p.success.Render("✓")+" Using environment variables for configuration")
	}
	p.line("\nConfiguration loaded:")
	for _, f := range cfg.Summary() {
		p.line("  %s: %s", f.Name, f.Value)
	}
	p.line("")
}

// Success prints the output, the numbered history and the PASSED banner.
func (p *Printer) Success(s *state.AgentState) {
	p.line("\n%s Agent executed successfully!", p.success.Render("✓"))
	p.line("\nOutput: %s", s.Output)
	if s.Test != nil {
		p.line("%s", p.muted.Render(fmt.Sprintf("Test: %s (%s)", s.Test.Name, s.Test.Log)))
	}
	if s.File != nil {
		p.line("%s", p.muted.Render(fmt.Sprintf("File: %s (%d bytes)", s.File.Name, len(s.File.Content))))
	}
	p.line("\nConversation history (%d messages):", len(s.Messages))
	for i, m := range s.Messages {
		p.line("  %d. [%s] %s", i+1, m.Role.Label(), m.Content)
	}
	p.line("%s", p.muted.Render("Run ID: "+s.RunID))
	p.line("\n%s", rule)
	p.line("%s", p.success.Render("✓ CI/CD Test: PASSED"))
}

// Failure explains err and prints the FAILED banner.
func (p *Printer) Failure(err error) {
	var cfgErr *config.ConfigError
	var callErr *llm.CallError
	switch {
	case errors.As(err, &cfgErr):
		p.line("\n%s Configuration validation failed: %s", p.failure.Render("✗"), cfgErr.Reason)
		p.line("\nTo fix this, set these in your .env file or as environment variables:")
		for _, v := range cfgErr.Vars {
			p.line("   - %s", v)
		}
	case errors.As(err, &callErr) && callErr.IsAuthFailure():
		p.line("\n%s Authentication failed (HTTP %d) calling %s: check the API key.", p.failure.Render("✗"), callErr.StatusCode, callErr.Provider)
		p.line("   %s", callErr.Error())
	case errors.As(err, &callErr):
		p.line("\n%s LLM call failed: %s", p.failure.Render("✗"), callErr.Error())
	default:
		p.line("\n%s Error: %v", p.failure.Render("✗"), err)
	}
	p.line("\n%s", rule)
	p.line("%s", p.failure.Render("✗ CI/CD Test: FAILED"))
}
