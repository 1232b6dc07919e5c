package output

import (
	"io"

	"opticost/core/types"
	"opticost/core/ui"
)

// CLIFormatter renders a quote as terminal tables
type CLIFormatter struct {
	opts Options
}

// Format implements Formatter
func (f *CLIFormatter) Format() Format {
	return FormatCLI
}

// Render implements Formatter
func (f *CLIFormatter) Render(w io.Writer, report *Report) error {
	out := ui.NewWriter(w, f.opts.NoColor)
	q := report.Quote

	out.Header("Installation Quote")
	out.Println("%s %s", out.Paint(ui.Bold, "Address:"), report.Job.Address)
	out.Println("%s %s, %d spots (%s)", out.Paint(ui.Bold, "Model:  "), report.Job.Model, report.Job.Spots, report.Job.Service)
	if report.Job.StartDate != "" {
		out.Println("%s %s", out.Paint(ui.Bold, "Start:  "), report.Job.StartDate)
	}
	out.Line(out.Paint(ui.Dim, "Quote "+report.ID+", inputs "+shortHash(report.InputHash)))

	for _, s := range sections(q) {
		out.Line("")
		out.SubHeader(s.title)
		table := out.NewTable("Item", "Details", "Amount").AlignRight(2)
		for _, item := range s.items {
			if item.Bold {
				table.AddBoldRow(item.Label, item.Details, Money(item.Value))
			} else {
				table.AddRow(item.Label, item.Details, Money(item.Value))
			}
		}
		table.AddBoldRow("Subtotal", "", Money(types.SumItems(s.items)))
		table.Render()
	}

	out.Line("")
	out.SubHeader("Details")
	details := out.NewTable("", "")
	for _, fc := range facts(q) {
		details.AddRow(fc.label, fc.value)
	}
	details.Render()

	if f.opts.ShowSchedule && len(q.Schedule) > 0 {
		out.Line("")
		out.SubHeader("Crew schedule")
		for _, step := range q.Schedule {
			out.Line("  " + step)
		}
	}

	summary := out.NewQuoteSummary()
	summary.TotalCost = Money(q.TotalCost)
	summary.SellPrice = Money(q.SellPrice)
	summary.Margin = Percent(q.MarginPercent)
	summary.Warnings = len(report.Warnings)
	summary.Render()

	for _, warning := range report.Warnings {
		out.Warning("%s", warning)
	}
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
