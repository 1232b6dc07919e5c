// Package ui - Terminal user interface
// CLI output with tables, colors, and spinners around slow steps.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

// Colors for terminal output
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
)

// Writer is the UI output destination
type Writer struct {
	out       io.Writer
	noColor   bool
	verbosity int
}

// NewWriter creates a UI writer
func NewWriter(out io.Writer, noColor bool) *Writer {
	if out == nil {
		out = os.Stdout
	}
	return &Writer{
		out:       out,
		noColor:   noColor,
		verbosity: 1,
	}
}

// SetVerbosity sets output verbosity (0=quiet, 1=normal, 2=verbose)
func (w *Writer) SetVerbosity(level int) {
	w.verbosity = level
}

// Paint applies color if enabled
func (w *Writer) Paint(c, text string) string {
	if w.noColor {
		return text
	}
	return c + text + Reset
}

// Print writes formatted text
func (w *Writer) Print(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format, args...)
}

// Println writes formatted text with newline
func (w *Writer) Println(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Line writes text verbatim with newline
func (w *Writer) Line(text string) {
	fmt.Fprintln(w.out, text)
}

// Header prints a section header
func (w *Writer) Header(title string) {
	w.Line("")
	w.Line(w.Paint(Bold+Cyan, "━━━ "+title+" ━━━"))
	w.Line("")
}

// SubHeader prints a subsection header
func (w *Writer) SubHeader(title string) {
	w.Line(w.Paint(Bold, "▸ "+title))
}

// Success prints a success message
func (w *Writer) Success(format string, args ...interface{}) {
	w.Line(w.Paint(Green, "✓ ") + fmt.Sprintf(format, args...))
}

// Warning prints a warning
func (w *Writer) Warning(format string, args ...interface{}) {
	w.Line(w.Paint(Yellow, "⚠ ") + fmt.Sprintf(format, args...))
}

// Error prints an error
func (w *Writer) Error(format string, args ...interface{}) {
	w.Line(w.Paint(Red, "✗ ") + fmt.Sprintf(format, args...))
}

// Info prints an info message
func (w *Writer) Info(format string, args ...interface{}) {
	if w.verbosity < 1 {
		return
	}
	w.Line(w.Paint(Blue, "ℹ ") + fmt.Sprintf(format, args...))
}

// Debug prints a debug message
func (w *Writer) Debug(format string, args ...interface{}) {
	if w.verbosity < 2 {
		return
	}
	w.Line(w.Paint(Dim, "  "+fmt.Sprintf(format, args...)))
}

// Table renders a table
type Table struct {
	w       *Writer
	headers []string
	rows    [][]string
	bold    []bool
	widths  []int
	right   map[int]bool
}

// NewTable creates a table
func (w *Writer) NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	return &Table{
		w:       w,
		headers: headers,
		widths:  widths,
		right:   make(map[int]bool),
	}
}

// AlignRight right-aligns a column, for amounts
func (t *Table) AlignRight(col int) *Table {
	t.right[col] = true
	return t
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	t.add(false, cells)
}

// AddBoldRow adds an emphasized row
func (t *Table) AddBoldRow(cells ...string) {
	t.add(true, cells)
}

func (t *Table) add(bold bool, cells []string) {
	// Pad or truncate cells to match header count
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		}
		if n := utf8.RuneCountInString(row[i]); n > t.widths[i] {
			t.widths[i] = n
		}
	}
	t.rows = append(t.rows, row)
	t.bold = append(t.bold, bold)
}

// Render prints the table
func (t *Table) Render() {
	t.w.Line(t.w.Paint(Bold, t.format(t.headers)))

	sep := make([]string, len(t.widths))
	for i, w := range t.widths {
		sep[i] = strings.Repeat("─", w)
	}
	t.w.Line(strings.Join(sep, "─┼─"))

	for i, row := range t.rows {
		line := t.format(row)
		if t.bold[i] {
			line = t.w.Paint(Bold, line)
		}
		t.w.Line(line)
	}
}

func (t *Table) format(cells []string) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		pad := strings.Repeat(" ", t.widths[i]-utf8.RuneCountInString(cell))
		if t.right[i] {
			parts[i] = pad + cell
		} else {
			parts[i] = cell + pad
		}
	}
	return strings.TrimRight(strings.Join(parts, " │ "), " ")
}

// QuoteSummary renders the boxed total of a quote
type QuoteSummary struct {
	w         *Writer
	TotalCost string
	SellPrice string
	Margin    string
	Warnings  int
}

// NewQuoteSummary creates a quote summary
func (w *Writer) NewQuoteSummary() *QuoteSummary {
	return &QuoteSummary{w: w}
}

// Render prints the quote summary
func (s *QuoteSummary) Render() {
	s.w.Header("Quote Summary")

	s.w.Line(s.w.Paint(Bold, "╭─────────────────────────────────────╮"))
	s.w.Line(s.w.Paint(Bold, "│") + s.w.Paint(Dim, fmt.Sprintf("  Total cost:  %-22s", s.TotalCost)) + s.w.Paint(Bold, "│"))
	s.w.Line(s.w.Paint(Bold, "│") + s.w.Paint(Green, fmt.Sprintf("  Sell price:  %-22s", s.SellPrice)) + s.w.Paint(Bold, "│"))
	s.w.Line(s.w.Paint(Bold, "│") + s.w.Paint(Dim, fmt.Sprintf("  Margin:      %-22s", s.Margin)) + s.w.Paint(Bold, "│"))
	s.w.Line(s.w.Paint(Bold, "╰─────────────────────────────────────╯"))

	if s.Warnings > 0 {
		s.w.Line("")
		s.w.Warning("%d warnings", s.Warnings)
	}
}

// Spinner shows a loading spinner
type Spinner struct {
	w       *Writer
	label   string
	frames  []string
	current int
	stop    chan struct{}
	done    chan struct{}
}

// NewSpinner creates a spinner
func (w *Writer) NewSpinner(label string) *Spinner {
	return &Spinner{
		w:      w,
		label:  label,
		frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start starts the spinner
func (s *Spinner) Start() {
	go func() {
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				close(s.done)
				return
			case <-ticker.C:
				s.current = (s.current + 1) % len(s.frames)
				fmt.Fprintf(s.w.out, "\r%s %s", s.w.Paint(Cyan, s.frames[s.current]), s.label)
			}
		}
	}()
}

// Stop stops the spinner
func (s *Spinner) Stop(success bool) {
	close(s.stop)
	<-s.done

	icon := s.w.Paint(Green, "✓")
	if !success {
		icon = s.w.Paint(Red, "✗")
	}
	fmt.Fprintf(s.w.out, "\r%s %s\n", icon, s.label)
}

// Step runs fn behind a spinner. Quiet writers run it silently.
func (w *Writer) Step(label string, fn func() error) error {
	if w.verbosity < 1 {
		return fn()
	}
	spinner := w.NewSpinner(label)
	spinner.Start()
	err := fn()
	spinner.Stop(err == nil)
	return err
}
