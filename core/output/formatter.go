// Package output provides output formatting for quotes.
// This package produces human and machine-readable outputs.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"opticost/core/determinism"
	"opticost/core/types"
	"opticost/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatMarkdown is a markdown report
	FormatMarkdown Format = "markdown"

	// FormatXLSX is an Excel workbook
	FormatXLSX Format = "xlsx"
)

// Formats lists the supported formats
var Formats = []Format{FormatCLI, FormatJSON, FormatMarkdown, FormatXLSX}

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "md" {
		return FormatMarkdown, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.Newf(errors.TypeInput, "unknown output format %q", name)
}

// Binary reports whether the format must not be written to a terminal
func (f Format) Binary() bool {
	return f == FormatXLSX
}

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given report
	Render(w io.Writer, report *Report) error
}

// Options tune the human-readable formats
type Options struct {
	NoColor      bool
	ShowSchedule bool
}

// New returns the formatter for a format
func New(format Format, opts Options) (Formatter, error) {
	switch format {
	case FormatCLI:
		return &CLIFormatter{opts: opts}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatMarkdown:
		return &MarkdownFormatter{opts: opts}, nil
	case FormatXLSX:
		return &XLSXFormatter{}, nil
	default:
		return nil, errors.Newf(errors.TypeInput, "unknown output format %q", format)
	}
}

// Report is one computed quote with the context needed to present it
type Report struct {
	// ID identifies this quote
	ID string `json:"id"`

	// InputHash is a hash of the job inputs; equal inputs give equal hashes
	InputHash string `json:"input_hash"`

	// CreatedAt is when the quote was computed
	CreatedAt time.Time `json:"created_at"`

	// Job summarizes what was quoted
	Job JobSummary `json:"job"`

	// Quote is the engine result
	Quote types.QuoteResult `json:"quote"`

	// Warnings are non-fatal problems, like a failed logistics lookup
	Warnings []string `json:"warnings"`
}

// JobSummary identifies the quoted job
type JobSummary struct {
	Service   types.ServiceKind `json:"service"`
	Address   string            `json:"address"`
	Model     string            `json:"model"`
	Spots     int               `json:"spots"`
	StartDate string            `json:"start_date,omitempty"`
}

// NewReport wraps a quote with a fresh id and the hash of its inputs
func NewReport(in types.JobInputs, quote types.QuoteResult, warnings []string) (*Report, error) {
	hash, err := determinism.HashJSON(in)
	if err != nil {
		return nil, errors.Internal("failed to hash job inputs", err)
	}
	if warnings == nil {
		warnings = []string{}
	}

	job := JobSummary{
		Service: in.Service,
		Address: in.Address,
		Model:   in.ModelName,
		Spots:   in.Spots,
	}
	if !in.StartDate.IsZero() {
		job.StartDate = in.StartDate.Format("2006-01-02")
	}

	return &Report{
		ID:        uuid.NewString(),
		InputHash: hash.Hex(),
		CreatedAt: time.Now().UTC(),
		Job:       job,
		Quote:     quote,
		Warnings:  warnings,
	}, nil
}

// section is one titled group of cost lines
type section struct {
	title string
	items []types.CostLineItem
}

// sections returns the non-empty cost groups in display order
func sections(q types.QuoteResult) []section {
	all := []section{
		{"Internal team", q.InternalTeamCosts},
		{"External team", q.ExternalTeamCosts},
		{"General logistics", q.GeneralLogisticsCosts},
		{"Extra costs", q.ExtraCostItems},
	}
	out := all[:0]
	for _, s := range all {
		if len(s.items) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// fact is one label/value row of the quote summary
type fact struct {
	label string
	value string
}

// facts lists the summary figures shared by every human-readable format
func facts(q types.QuoteResult) []fact {
	out := []fact{
		{"Total weight", fmt.Sprintf("%s kg", quantity(q.TotalWeight))},
		{"Structure weight", fmt.Sprintf("%s kg", quantity(q.StructureWeight))},
	}
	if q.BallastCount > 0 {
		out = append(out, fact{"Ballast", fmt.Sprintf("%d pcs, %s kg", q.BallastCount, quantity(q.BallastWeight))})
	}
	out = append(out,
		fact{"Labour hours", quantity(q.TotalHours)},
		fact{"Days on site", fmt.Sprintf("%d", q.TotalDays)},
	)
	if q.DiscountAppliedPerc > 0 {
		out = append(out, fact{"Volume discount", fmt.Sprintf("%s%%", quantity(q.DiscountAppliedPerc))})
	}
	out = append(out, fact{"Transport method", q.TransportMethod})
	if q.TruckCount > 1 {
		out = append(out, fact{"Trucks", fmt.Sprintf("%d", q.TruckCount)})
	}
	forklift := "rented"
	switch {
	case q.ForkliftProvidedByCrane:
		forklift = "crane truck"
	case q.ForkliftAvailable:
		forklift = "client"
	}
	out = append(out,
		fact{"Forklift", forklift},
		fact{"Installation", Money(q.InstallationTotal)},
		fact{"Transport", Money(q.TransportTotal)},
		fact{"Equipment", Money(q.EquipmentTotal)},
		fact{"Extras", Money(q.ExtraCostsTotal)},
	)
	return out
}

// Money formats an amount as euros with thousands separators
func Money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "€" + b.String() + "." + frac
}

// Percent formats a margin percentage
func Percent(d decimal.Decimal) string {
	return d.String() + "%"
}

// quantity prints hours, kilograms and percentages without trailing zeros
func quantity(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
