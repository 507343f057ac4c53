package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"firecrawl/pkg/ui"
)

var (
	// Shared output flags
	outputDir string
	formats   []string
	overwrite bool
	noRetry   bool

	// Scrape command flags
	workers int
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>...",
	Short: "Scrape one or more pages",
	Long: `Scrape pages and save them to the output directory.

Each page is written as <slug>.md, <slug>.html and a screenshot depending on
the requested formats, next to <slug>.json with its metadata and links.
Pages saved by an earlier run are skipped unless --overwrite is given.`,
	Example: `  # Scrape a single page as markdown
  firecrawl scrape https://example.com

  # Scrape several pages with HTML and screenshots
  firecrawl scrape https://example.com https://example.org --formats markdown,rawHtml,screenshot

  # Use more workers and a different output directory
  firecrawl scrape $(cat urls.txt) --workers 8 --output ./pages`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of concurrent scrapes (default from config)")
	addOutputFlags(scrapeCmd)
}

// addOutputFlags registers the flags shared by commands that save pages
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config)")
	cmd.Flags().StringSliceVarP(&formats, "formats", "f", nil, "formats to request: markdown, rawHtml, screenshot")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite pages saved by earlier runs")
	cmd.Flags().BoolVar(&noRetry, "no-retry", false, "disable retries of failed requests")
}

func outputFlags() map[string]interface{} {
	return map[string]interface{}{
		"output":   outputDir,
		"formats":  formats,
		"workers":  workers,
		"no-retry": noRetry,
	}
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(outputFlags())
	if err != nil {
		return err
	}
	if overwrite {
		cfg.Output.OverwriteExisting = true
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	urls := make([]string, 0, len(args))
	for _, arg := range args {
		urls = append(urls, strings.TrimSpace(arg))
	}

	ui.PrintInfo("Output", a.scraper.Storage().OutputDir())
	ui.PrintHighlight(fmt.Sprintf("[SCRAPING %d PAGES]", len(urls)))

	results, err := a.scraper.ScrapeURLs(cmd.Context(), urls)

	tracker := ui.NewStatusTracker(len(results))
	out := cmd.OutOrStdout()
	for _, r := range results {
		switch {
		case r.Error != nil:
			tracker.IncrementFailed()
			ui.PrintError("failed "+r.Job.URL, r.Error)
		case r.Skipped:
			tracker.IncrementSkipped()
			ui.PrintWarning("skipped " + r.Job.URL + " (already saved)")
		default:
			tracker.IncrementSaved()
			if quiet {
				fmt.Fprintln(out, r.Files.Paths[0])
			} else {
				ui.PrintSuccess("saved " + r.Job.URL)
			}
		}
	}
	tracker.PrintSummary()

	return err
}
