package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"firecrawl/pkg/firecrawl"
	"firecrawl/pkg/ui"
)

var (
	mapSearch            string
	mapLimit             int
	mapIgnoreSitemap     bool
	mapIncludeSubdomains bool
)

// mapCmd represents the map command
var mapCmd = &cobra.Command{
	Use:   "map <url>",
	Short: "List the URLs of a site",
	Long: `Ask the server for the URLs of a site without scraping them. Links are
printed one per line; a markdown listing is also saved to the output
directory when reports are enabled.`,
	Example: `  # All URLs of a site
  firecrawl map https://example.com

  # Only URLs related to "pricing", at most 20
  firecrawl map https://example.com --search pricing --limit 20 -q`,
	Args: cobra.ExactArgs(1),
	RunE: runMap,
}

func init() {
	rootCmd.AddCommand(mapCmd)

	mapCmd.Flags().StringVar(&mapSearch, "search", "", "only return links related to this query")
	mapCmd.Flags().IntVar(&mapLimit, "limit", 0, "maximum number of links")
	mapCmd.Flags().BoolVar(&mapIgnoreSitemap, "ignore-sitemap", false, "do not read the sitemap")
	mapCmd.Flags().BoolVar(&mapIncludeSubdomains, "include-subdomains", false, "include links on subdomains")
	mapCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory for the sitemap report (default from config)")
}

func runMap(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{"output": outputDir})
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	req := firecrawl.MapRequest{URL: args[0], Search: mapSearch}
	f := cmd.Flags()
	if f.Changed("limit") {
		req.Limit = firecrawl.Int(mapLimit)
	}
	if f.Changed("ignore-sitemap") {
		req.IgnoreSitemap = firecrawl.Bool(mapIgnoreSitemap)
	}
	if f.Changed("include-subdomains") {
		req.IncludeSubdomains = firecrawl.Bool(mapIncludeSubdomains)
	}

	result, err := a.scraper.Sitemap(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, link := range result.Links {
		fmt.Fprintln(out, link)
	}
	ui.PrintInfo("Links", fmt.Sprintf("%d", len(result.Links)))
	if result.ReportPath != "" {
		ui.PrintInfo("Report", result.ReportPath)
	}
	return nil
}
