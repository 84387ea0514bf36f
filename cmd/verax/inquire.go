package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"verax/internal/inquiry"
	"verax/internal/report"
)

var (
	flagCoverage string
	flagReport   string

	inquireCmd = &cobra.Command{
		Use:   "inquire",
		Short: "Measure veracity presence across the most downloaded crates",
		Long: `Samples the registry's most downloaded crates and reports how many carry
trusted publishing provenance and reproducible build attestations.`,
		RunE: runInquire,
	}
)

func init() {
	inquireCmd.Flags().StringVar(&flagCoverage, "coverage", string(inquiry.CoverageSmall),
		"sample size: "+strings.Join(inquiry.Coverages(), ", "))
	inquireCmd.Flags().StringVar(&flagReport, "report", "console", "report format: console, html")
}

func runInquire(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	coverage, err := inquiry.ParseCoverage(flagCoverage)
	if err != nil {
		return err
	}
	if flagReport != "console" && flagReport != "html" {
		return fmt.Errorf("unknown report format %q, expected console or html", flagReport)
	}

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	service, err := app.inquiryService(ctx)
	if err != nil {
		return err
	}
	results, err := service.Inquire(ctx, coverage)
	if err != nil {
		return err
	}

	if flagReport == "html" {
		page := report.NewHTML("")
		if err := page.Inquiry(results); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", page.Path())
		return nil
	}

	app.console.Inquiry(results)
	return nil
}
