package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"verax/internal/platform/config"
	"verax/internal/platform/datadir"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup [scope]",
	Short: "Remove cached analysis data and downloaded package sources",
	Long:  "Scopes: " + scopeList() + ".",
	Args:  cobra.ExactArgs(1),
	RunE:  runCleanup,
}

func runCleanup(cmd *cobra.Command, args []string) error {
	scope, err := datadir.ParseScope(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	dirs, err := datadir.New(cfg.DataDir)
	if err != nil {
		return err
	}

	if err := dirs.Clean(scope); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cleaned %s under %s\n", scope, dirs.Root())
	return nil
}

func scopeList() string {
	scopes := datadir.Scopes()
	names := make([]string, len(scopes))
	for i, scope := range scopes {
		names[i] = string(scope)
	}
	return strings.Join(names, ", ")
}
