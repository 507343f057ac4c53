package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"firecrawl/pkg/ui"
)

var (
	// Version information
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	apiURL     string
	apiKey     string
	profile    string
	quiet      bool
	noNotify   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "firecrawl",
	Short: "Command-line client for the Firecrawl Simple API",
	Long: `firecrawl talks to a Firecrawl Simple server to scrape pages, crawl sites
and map their URLs.

Features:
  - Batch scraping with a worker pool and rate limiting
  - Crawl jobs tracked locally (file, SQLite or Redis)
  - Live crawl progress in a terminal UI
  - Pages saved as markdown, HTML, screenshots and metadata
  - Optional Kafka export, Prometheus metrics and OpenTelemetry tracing
  - API keys kept in the system keychain or an encrypted file`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetOutput(cmd.OutOrStdout())
		ui.SetQuiet(quiet)

		// Don't show logo for certain commands
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "show" {
			ui.PrintLogo()
		}
	},
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError("Error", err)
		stop()
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "firecrawl %s\n", rootCmd.Version)
		fmt.Fprintf(cmd.OutOrStdout(), "Go Version: %s\nOS/Arch: %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default searches ./.firecrawl.yaml and the XDG config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Firecrawl API base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key (overrides stored credentials)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "stored credential profile to use")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "print only results and errors")
	rootCmd.PersistentFlags().BoolVar(&noNotify, "no-notify", false, "disable desktop notifications")

	rootCmd.SetVersionTemplate(`firecrawl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(versionCmd)
}
