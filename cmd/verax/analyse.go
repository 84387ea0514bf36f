package main

import (
	"github.com/spf13/cobra"

	"verax/internal/resolver"
	"verax/internal/veracity/models"
)

var (
	analyseCmd = &cobra.Command{
		Use:   "analyse",
		Short: "Analyse the veracity of a Cargo project or a published crate",
	}

	analyseProjectCmd = &cobra.Command{
		Use:   "project [path]",
		Short: "Analyse every crates.io dependency locked by the project at path",
		Long: `Reads the project's Cargo.lock, generating it with cargo when absent, and
evaluates every locked crates.io dependency. Git and path dependencies are
not published crates and are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyseProject,
	}

	analyseCrateCmd = &cobra.Command{
		Use:   "crate [purl]",
		Short: "Analyse a published crate together with its locked dependencies",
		Long: `Downloads the crate identified by pkg:cargo/<name>@<version>, verifies the
registry checksum, unpacks it and evaluates the crate plus everything its
lockfile pins.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyseCrate,
	}
)

func init() {
	analyseCmd.AddCommand(analyseProjectCmd, analyseCrateCmd)
}

func runAnalyseProject(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	project := resolver.NewProject(resolver.WithLogger(app.logger))
	packages, err := project.Resolve(ctx, args[0])
	if err != nil {
		return err
	}

	return app.evaluateAndReport(ctx, packages)
}

func runAnalyseCrate(cmd *cobra.Command, args []string) error {
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

	registry, err := app.registryClient()
	if err != nil {
		return err
	}
	archives, err := resolver.NewArchives(registry, app.dirs.Downloads(),
		resolver.WithArchivesLogger(app.logger))
	if err != nil {
		return err
	}

	crateDir, err := archives.Fetch(ctx, pkg)
	if err != nil {
		return err
	}
	dependencies, err := resolver.NewProject(resolver.WithLogger(app.logger)).Resolve(ctx, crateDir)
	if err != nil {
		return err
	}

	// The crate under analysis leads its own batch.
	return app.evaluateAndReport(ctx, append([]models.Package{pkg}, dependencies...))
}
