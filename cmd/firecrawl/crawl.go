package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"firecrawl/pkg/config"
	"firecrawl/pkg/firecrawl"
	"firecrawl/pkg/jobs"
	"firecrawl/pkg/poller"
	"firecrawl/pkg/scraper"
	"firecrawl/pkg/ui"
	"firecrawl/pkg/ui/tui"
)

var (
	// Crawl start flags
	crawlLimit         int
	crawlMaxDepth      int
	crawlInclude       []string
	crawlExclude       []string
	crawlIgnoreSitemap bool
	crawlBackward      bool
	crawlExternal      bool
	crawlWebhook       string
	crawlWait          bool
	cancelOnTimeout    bool
	pollTimeout        time.Duration
	pollInterval       time.Duration

	// Crawl status flags
	statusJSON bool

	// Crawl watch flags
	watchTUI bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Start, inspect and cancel crawl jobs",
	Long: `Crawl jobs run on the server. Every crawl started from this machine is
recorded in the local job store so it can be listed and watched later.`,
}

var crawlStartCmd = &cobra.Command{
	Use:   "start <url>",
	Short: "Start a crawl",
	Long: `Start a crawl of a site. With --wait the command polls the job until it
finishes, saves every page to the output directory and writes a report.`,
	Example: `  # Start a crawl and return immediately
  firecrawl crawl start https://example.com --limit 50

  # Crawl the docs only and wait for the result
  firecrawl crawl start https://example.com --include '/docs/.*' --max-depth 3 --wait

  # Give up after two minutes and cancel the job on the server
  firecrawl crawl start https://example.com --wait --poll-timeout 2m --cancel-on-timeout`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawlStart,
}

var crawlStatusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Show the status of a crawl",
	Args:  cobra.ExactArgs(1),
	RunE:  runCrawlStatus,
}

var crawlCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a running crawl",
	Args:  cobra.ExactArgs(1),
	RunE:  runCrawlCancel,
}

var crawlWatchCmd = &cobra.Command{
	Use:   "watch [id]...",
	Short: "Follow crawls until they finish",
	Long: `Poll crawls until they finish. Without arguments every recorded crawl that
is still running is watched. --tui shows all of them in a live view.`,
	RunE: runCrawlWatch,
}

var crawlListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded crawls",
	Args:  cobra.NoArgs,
	RunE:  runCrawlList,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	crawlCmd.AddCommand(crawlStartCmd, crawlStatusCmd, crawlCancelCmd, crawlWatchCmd, crawlListCmd)

	f := crawlStartCmd.Flags()
	f.IntVar(&crawlLimit, "limit", 0, "maximum number of pages to crawl")
	f.IntVar(&crawlMaxDepth, "max-depth", 0, "maximum link depth")
	f.StringSliceVar(&crawlInclude, "include", nil, "only crawl paths matching these patterns")
	f.StringSliceVar(&crawlExclude, "exclude", nil, "skip paths matching these patterns")
	f.BoolVar(&crawlIgnoreSitemap, "ignore-sitemap", false, "do not seed the crawl from the sitemap")
	f.BoolVar(&crawlBackward, "allow-backward-links", false, "follow links outside the starting path")
	f.BoolVar(&crawlExternal, "allow-external-links", false, "follow links to other domains")
	f.StringVar(&crawlWebhook, "webhook", "", "URL the server notifies about crawl progress")
	f.BoolVar(&crawlWait, "wait", false, "wait for the crawl to finish and save its pages")
	f.BoolVar(&cancelOnTimeout, "cancel-on-timeout", false, "cancel the crawl when --poll-timeout elapses")
	addOutputFlags(crawlStartCmd)

	for _, cmd := range []*cobra.Command{crawlStartCmd, crawlWatchCmd} {
		cmd.Flags().DurationVar(&pollTimeout, "poll-timeout", 0, "stop waiting after this long (default from config)")
		cmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "time between status requests (default from config)")
	}

	crawlStatusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the full status response as JSON")
	crawlWatchCmd.Flags().BoolVar(&watchTUI, "tui", false, "show a live terminal UI")
}

func crawlRequest(cmd *cobra.Command, url string) firecrawl.CrawlRequest {
	req := firecrawl.CrawlRequest{
		URL:          url,
		IncludePaths: crawlInclude,
		ExcludePaths: crawlExclude,
		WebhookURL:   crawlWebhook,
	}

	// Only send options the user set so server defaults apply otherwise
	f := cmd.Flags()
	if f.Changed("limit") {
		req.Limit = firecrawl.Int(crawlLimit)
	}
	if f.Changed("max-depth") {
		req.MaxDepth = firecrawl.Int(crawlMaxDepth)
	}
	if f.Changed("ignore-sitemap") {
		req.IgnoreSitemap = firecrawl.Bool(crawlIgnoreSitemap)
	}
	if f.Changed("allow-backward-links") {
		req.AllowBackwardLinks = firecrawl.Bool(crawlBackward)
	}
	if f.Changed("allow-external-links") {
		req.AllowExternalLinks = firecrawl.Bool(crawlExternal)
	}
	return req
}

func applyPollFlags(cfg *config.Config) {
	if pollTimeout > 0 {
		cfg.Poll.Timeout = config.Duration(pollTimeout)
	}
	if pollInterval > 0 {
		cfg.Poll.Interval = config.Duration(pollInterval)
	}
}

func runCrawlStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(outputFlags())
	if err != nil {
		return err
	}
	if overwrite {
		cfg.Output.OverwriteExisting = true
	}
	if cancelOnTimeout {
		cfg.Poll.CancelOnTimeout = true
	}
	applyPollFlags(cfg)

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	req := crawlRequest(cmd, args[0])
	ui.PrintInfo("Target", req.URL)

	result, err := a.scraper.Crawl(cmd.Context(), scraper.CrawlOptions{
		Request: req,
		Wait:    crawlWait,
		OnUpdate: func(status *firecrawl.CrawlStatusResponse) {
			ui.PrintCrawlStatus(req.URL, string(status.Status), status.Completed, status.Total)
		},
	})
	if result != nil {
		printResult(cmd, "Crawl ID", result.ID)
	}
	if err != nil {
		return err
	}

	if !crawlWait {
		ui.PrintInfo("Follow with", "firecrawl crawl watch "+result.ID)
		return nil
	}

	ui.PrintSuccess(fmt.Sprintf("\nCrawl completed: %d pages saved, %d skipped", result.Saved, result.Skipped))
	if result.Status != nil && result.Status.Next != nil {
		ui.PrintWarning("More results are available on the server", *result.Status.Next)
	}
	if result.ReportPath != "" {
		ui.PrintInfo("Report", result.ReportPath)
	}
	return nil
}

func runCrawlStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.scraper.Status(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if statusJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	printResult(cmd, "Status", string(status.Status))
	ui.PrintInfo("Progress", ui.RenderProgressBar(status.Completed, status.Total))
	ui.PrintInfo("Pages returned", fmt.Sprintf("%d", len(status.Data)))
	if status.ExpiresAt != "" {
		ui.PrintInfo("Expires", status.ExpiresAt)
	}
	return nil
}

func runCrawlCancel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.scraper.Cancel(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("server did not cancel crawl %s: %s", args[0], resp.Message)
	}

	message := resp.Message
	if message == "" {
		message = "cancelled"
	}
	printResult(cmd, "Crawl "+args[0], message)
	return nil
}

func runCrawlWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	applyPollFlags(cfg)

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	targets, err := watchTargets(cmd, a, args)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		ui.PrintInfo("Nothing to watch", "no running crawls are recorded")
		return nil
	}

	if watchTUI {
		view := tui.NewTUI(true)
		view.Watch(cmd.Context(), a.scraper, targets, cfg.Poll.Interval.Std())
		return view.Run()
	}

	var failed int
	for _, target := range targets {
		status, err := poller.WaitForCrawl(cmd.Context(), a.scraper, target.ID, poller.Options{
			Interval: cfg.Poll.Interval.Std(),
			Timeout:  cfg.Poll.Timeout.Std(),
			Logger:   a.log,
			OnUpdate: func(status *firecrawl.CrawlStatusResponse) {
				ui.PrintCrawlStatus(target.ID, string(status.Status), status.Completed, status.Total)
			},
		})
		if err != nil {
			failed++
			ui.PrintError("\n"+target.ID, err)
			continue
		}
		ui.PrintSuccess(fmt.Sprintf("\n%s completed with %d pages", target.ID, status.Completed))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d crawls did not complete", failed, len(targets))
	}
	return nil
}

func watchTargets(cmd *cobra.Command, a *app, ids []string) ([]tui.Target, error) {
	var targets []tui.Target
	if len(ids) > 0 {
		for _, id := range ids {
			target := tui.Target{ID: id}
			if record, err := a.jobs.Get(cmd.Context(), id); err == nil {
				target.URL = record.URL
			}
			targets = append(targets, target)
		}
		return targets, nil
	}

	records, err := a.jobs.List(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to list crawls: %w", err)
	}
	for _, record := range records {
		if record.Status.Terminal() || record.Status == jobs.StatusCancelled {
			continue
		}
		targets = append(targets, tui.Target{ID: record.ID, URL: record.URL})
	}
	return targets, nil
}

func runCrawlList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		ui.PrintInfo("No crawls recorded", "start one with 'firecrawl crawl start <url>'")
		return nil
	}

	out := cmd.OutOrStdout()
	for _, r := range records {
		fmt.Fprintf(out, "%-36s  %-10s  %6s  %s  %s\n",
			r.ID,
			r.Status,
			fmt.Sprintf("%d/%d", r.Completed, r.Total),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.URL,
		)
	}
	return nil
}
