package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"opticost/core/types"
)

// MarkdownFormatter renders the quote as markdown tables
type MarkdownFormatter struct {
	opts Options
}

// Format implements Formatter
func (f *MarkdownFormatter) Format() Format {
	return FormatMarkdown
}

// Render implements Formatter
func (f *MarkdownFormatter) Render(w io.Writer, report *Report) error {
	b := bufio.NewWriter(w)
	q := report.Quote

	fmt.Fprintf(b, "# Installation quote\n\n")
	fmt.Fprintf(b, "- **Address:** %s\n", cellText(report.Job.Address))
	fmt.Fprintf(b, "- **Model:** %s, %d spots (%s)\n", cellText(report.Job.Model), report.Job.Spots, report.Job.Service)
	if report.Job.StartDate != "" {
		fmt.Fprintf(b, "- **Start:** %s\n", report.Job.StartDate)
	}
	fmt.Fprintf(b, "- **Quote:** `%s`\n", report.ID)

	for _, s := range sections(q) {
		fmt.Fprintf(b, "\n## %s\n\n", s.title)
		fmt.Fprintf(b, "| Item | Details | Amount |\n|---|---|---:|\n")
		for _, item := range s.items {
			label := cellText(item.Label)
			if item.Bold {
				label = "**" + label + "**"
			}
			fmt.Fprintf(b, "| %s | %s | %s |\n", label, cellText(item.Details), Money(item.Value))
		}
		fmt.Fprintf(b, "| **Subtotal** | | **%s** |\n", Money(types.SumItems(s.items)))
	}

	fmt.Fprintf(b, "\n## Details\n\n| | |\n|---|---|\n")
	for _, fc := range facts(q) {
		fmt.Fprintf(b, "| %s | %s |\n", fc.label, cellText(fc.value))
	}

	if f.opts.ShowSchedule && len(q.Schedule) > 0 {
		fmt.Fprintf(b, "\n## Crew schedule\n\n")
		for _, step := range q.Schedule {
			fmt.Fprintf(b, "- %s\n", step)
		}
	}

	fmt.Fprintf(b, "\n## Total\n\n")
	fmt.Fprintf(b, "| Total cost | Margin | Sell price |\n|---:|---:|---:|\n")
	fmt.Fprintf(b, "| %s | %s | **%s** |\n", Money(q.TotalCost), Percent(q.MarginPercent), Money(q.SellPrice))

	if len(report.Warnings) > 0 {
		fmt.Fprintf(b, "\n> **Warnings**\n")
		for _, warning := range report.Warnings {
			fmt.Fprintf(b, "> - %s\n", warning)
		}
	}
	return b.Flush()
}

// cellText keeps user text from breaking the table
func cellText(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
