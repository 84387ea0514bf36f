package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"verax/internal/veracity/models"
)

var checkCmd = &cobra.Command{
	Use:   "check [purl]",
	Short: "Check the veracity factors of one published crate",
	Long: `Analyses the crate identified by pkg:cargo/<name>@<version> and prints the
evidence held for each veracity factor.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pkg, err := models.ParsePurl(args[0])
	if err != nil {
		return err
	}

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	analysis, err := app.analysis(ctx)
	if err != nil {
		return err
	}
	checks, err := analysis.Analyse(ctx, pkg)
	if err != nil {
		return fmt.Errorf("analyse %s: %w", pkg, err)
	}

	app.console.Checks(pkg, checks)
	return nil
}
