// Package report renders veracity outcomes for terminals and files.
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"verax/internal/inquiry"
	"verax/internal/veracity/models"
)

type consoleStyles struct {
	identity lipgloss.Style
	present  lipgloss.Style
	absent   lipgloss.Style
	failure  lipgloss.Style
	summary  lipgloss.Style
}

func newConsoleStyles(color bool) consoleStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return consoleStyles{
			identity: plain,
			present:  plain,
			absent:   plain,
			failure:  plain,
			summary:  plain,
		}
	}
	return consoleStyles{
		identity: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		present:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		absent:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		failure:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		summary:  lipgloss.NewStyle().Bold(true),
	}
}

// Console renders outcomes as styled terminal text.
type Console struct {
	out    io.Writer
	styles consoleStyles
}

// ConsoleOption configures the console reporter.
type ConsoleOption func(*Console)

// WithoutColor disables all styling.
func WithoutColor() ConsoleOption {
	return func(c *Console) {
		c.styles = newConsoleStyles(false)
	}
}

// NewConsole creates a console reporter writing to out.
func NewConsole(out io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{
		out:    out,
		styles: newConsoleStyles(true),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Checks renders the evidence held for a single package.
func (c *Console) Checks(pkg models.Package, checks models.Checks) {
	fmt.Fprintln(c.out, c.styles.identity.Render(pkg.Purl()))
	fmt.Fprintf(c.out, "  veracity: %s\n", c.styles.summary.Render(checks.Level().String()))
	c.factor(string(models.FactorProvenance), checks.ProvenanceEvidence)
	c.factor(string(models.FactorReproducible), checks.ReproducibilityEvidence)
}

func (c *Console) factor(name, evidence string) {
	if evidence == "" {
		fmt.Fprintf(c.out, "  %s: %s\n", name, c.styles.absent.Render("not evidenced"))
		return
	}
	fmt.Fprintf(c.out, "  %s: %s\n", name, c.styles.present.Render(evidence))
}

// Batch renders per-package outcomes followed by a summary line.
func (c *Console) Batch(results models.Results) {
	for _, outcome := range results.Outcomes {
		c.outcome(outcome)
	}

	failed := 0
	for _, outcome := range results.Outcomes {
		if outcome.Failed() {
			failed++
		}
	}
	stats := results.Statistics
	summary := fmt.Sprintf("%d packages analysed: %d with trusted publishing, %d with reproducible builds, %d failed",
		stats.Total, stats.ProvenanceAttested, stats.ReproducibleBuilds, failed)
	fmt.Fprintf(c.out, "\n%s\n", c.styles.summary.Render(summary))
}

// Inquiry renders ecosystem inquiry results with presence percentages.
func (c *Console) Inquiry(results inquiry.Results) {
	title := fmt.Sprintf("Ecosystem inquiry (%s coverage, %d crates)", results.Coverage, results.TotalInquired)
	fmt.Fprintf(c.out, "%s\n\n", c.styles.summary.Render(title))

	for _, outcome := range results.Outcomes {
		c.outcome(outcome)
	}

	fmt.Fprintf(c.out, "\n%s %d of %d (%.1f%%)\n",
		c.styles.summary.Render("trusted publishing:"),
		results.WithProvenance, results.TotalInquired, results.PresenceOfProvenance)
	fmt.Fprintf(c.out, "%s %d of %d (%.1f%%)\n",
		c.styles.summary.Render("reproducible builds:"),
		results.WithReproducibility, results.TotalInquired, results.PresenceOfReproducibility)
}

// outcome writes one per-package line. A failed evaluation and a package
// with zero evidence read differently on purpose.
func (c *Console) outcome(outcome models.Outcome) {
	identity := c.styles.identity.Render(outcome.Package.Purl())
	if outcome.Failed() {
		fmt.Fprintf(c.out, "%s  %s\n", identity, c.styles.failure.Render("analysis failed"))
		return
	}

	level := outcome.Checks.Level()
	if level == models.LevelNotAvailable {
		fmt.Fprintf(c.out, "%s  %s\n", identity, c.styles.absent.Render(level.String()))
		return
	}
	fmt.Fprintf(c.out, "%s  %s\n", identity, c.styles.present.Render(level.String()))
}
