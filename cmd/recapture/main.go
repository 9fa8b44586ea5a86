package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	noColor bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:           "recapture",
	Short:         "Guardian dashboard for the recapture radicalization-response API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the recapture version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("recapture version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print raw JSON instead of tables")

	rootCmd.AddCommand(
		subjectsCmd,
		authoritiesCmd,
		subjectCmd,
		atRiskCmd,
		clonesCmd,
		intelCmd,
		trendsCmd,
		listenCmd,
		scanCmd,
		analyzeCmd,
		argumentCmd,
		askCmd,
		langCmd,
		configCmd,
		serveCmd,
		mcpCmd,
		versionCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
