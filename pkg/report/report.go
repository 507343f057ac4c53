// Package report renders crawl and sitemap results as Markdown.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"firecrawl/pkg/firecrawl"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// Crawl is the input for a crawl summary
type Crawl struct {
	JobID       string
	URL         string
	Status      *firecrawl.CrawlStatusResponse
	GeneratedAt time.Time
}

// Sitemap is the input for a sitemap listing
type Sitemap struct {
	URL         string
	Links       []string
	GeneratedAt time.Time
}

// WriteCrawl writes a crawl summary: job properties, a status code chart and
// one table row per page
func WriteCrawl(w io.Writer, c Crawl) error {
	md := markdown.NewMarkdown(w)

	md.H1("Crawl Report")
	md.PlainText("")

	status := c.Status
	if status == nil {
		status = &firecrawl.CrawlStatusResponse{}
	}

	rows := [][]string{
		{"Job ID", "`" + c.JobID + "`"},
		{"Start URL", c.URL},
		{"Status", statusText(status.Status)},
		{"Pages", fmt.Sprintf("%d / %d", status.Completed, status.Total)},
	}
	if status.ExpiresAt != "" {
		rows = append(rows, []string{"Expires", status.ExpiresAt})
	}
	rows = append(rows, []string{"Generated", generatedAt(c.GeneratedAt)})
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")

	if status.Next != nil && *status.Next != "" {
		md.Note("The server returned more pages than this report contains.")
		md.PlainText("")
	}

	md.H2("Pages")
	md.PlainText("")
	if len(status.Data) == 0 {
		md.PlainText("No pages were returned.")
		md.PlainText("")
		return md.Build()
	}

	writeStatusChart(md, status.Data)

	pageRows := make([][]string, 0, len(status.Data))
	for _, doc := range status.Data {
		pageRows = append(pageRows, pageRow(doc))
	}
	md.Table(markdown.TableSet{
		Header: []string{"Title", "Status", "Source URL"},
		Rows:   pageRows,
	})
	md.PlainText("")

	return md.Build()
}

// WriteSitemap writes the links returned by a map request as a bullet list
func WriteSitemap(w io.Writer, s Sitemap) error {
	md := markdown.NewMarkdown(w)

	md.H1("Sitemap")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", s.URL},
			{"Links", strconv.Itoa(len(s.Links))},
			{"Generated", generatedAt(s.GeneratedAt)},
		},
	})
	md.PlainText("")

	if len(s.Links) == 0 {
		md.PlainText("No links were found.")
		md.PlainText("")
		return md.Build()
	}

	links := append([]string(nil), s.Links...)
	sort.Strings(links)
	md.BulletList(links...)
	md.PlainText("")

	return md.Build()
}

func statusText(s firecrawl.CrawlStatus) string {
	switch s {
	case firecrawl.CrawlStatusCompleted:
		return "✅ completed"
	case firecrawl.CrawlStatusFailed:
		return "❌ failed"
	case "":
		return "unknown"
	default:
		return "⏳ " + string(s)
	}
}

func pageRow(doc firecrawl.Document) []string {
	title, code, source := "-", "-", "-"
	if m := doc.Metadata; m != nil {
		if m.Title != "" {
			title = escapeCell(m.Title)
		}
		if m.StatusCode != 0 {
			code = strconv.Itoa(m.StatusCode)
		}
		if m.SourceURL != "" {
			source = m.SourceURL
		}
	}
	return []string{title, code, source}
}

func writeStatusChart(md *markdown.Markdown, docs []firecrawl.Document) {
	counts := make(map[string]uint64)
	for _, doc := range docs {
		class := "unknown"
		if doc.Metadata != nil && doc.Metadata.StatusCode > 0 {
			class = fmt.Sprintf("%dxx", doc.Metadata.StatusCode/100)
		}
		counts[class]++
	}

	classes := make([]string, 0, len(counts))
	for class := range counts {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("HTTP status codes"),
		piechart.WithShowData(true),
	)
	for _, class := range classes {
		chart.LabelAndIntValue(class, counts[class])
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

func generatedAt(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format(timeLayout)
}
