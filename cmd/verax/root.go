package main

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	flagVerbose bool
	flagNoColor bool
	flagTrace   bool
	flagConfig  string

	rootCmd = &cobra.Command{
		Use:   "verax",
		Short: "Veracity analysis for cargo crates",
		Long: `verax checks published crates for two veracity factors: provenance
through trusted publishing and independently reproduced builds. Results are
cached under ~/.verax so settled evidence is never re-fetched.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.Version = version()
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable styled output")
	rootCmd.PersistentFlags().BoolVar(&flagTrace, "trace", false, "emit trace spans to stderr")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.verax/config.yaml)")

	rootCmd.AddCommand(analyseCmd, checkCmd, inquireCmd, cleanupCmd)
}

func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}
