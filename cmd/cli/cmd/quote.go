// Package cmd - quote command
package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"opticost/adapters/jobfile"
	"opticost/adapters/logistics"
	"opticost/adapters/ratesheet"
	"opticost/core/output"
	"opticost/core/types"
	"opticost/core/ui"
	"opticost/internal/config"
	"opticost/internal/errors"
	"opticost/internal/quoting"
)

var (
	outputFormat   string
	outputFile     string
	logisticsFile  string
	externalPolicy string
	jobVars        []string
	showSchedule   bool
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote <job-file>",
	Short: "Compute the quote for an installation job",
	Long: `Read a job description (HCL, or JSON with a .json extension), load the
rate sheets and print the itemized quote.

Logistics come from, in order: an inline logistics block in the job, the
--logistics snapshot file, the configured lookup endpoint. When none is
available the quote is still computed without travel costs and a warning
is printed.

Examples:
  opticost quote job.hcl
  opticost quote job.hcl --format markdown --out quote.md
  opticost quote job.hcl --format xlsx --out quote.xlsx
  opticost quote job.hcl --var address="Via Roma 1, Bari" --var spots=20`,
	Args: cobra.ExactArgs(1),
	RunE: runQuote,
}

func init() {
	flags := quoteCmd.Flags()
	flags.StringVarP(&outputFormat, "format", "f", "", "output format (cli, json, markdown, xlsx); default from config")
	flags.StringVarP(&outputFile, "out", "o", "", "write the quote to a file instead of stdout")
	flags.StringVarP(&logisticsFile, "logistics", "l", "", "JSON logistics snapshot to use instead of a lookup")
	flags.StringVar(&externalPolicy, "external-policy", "", "external crew policy (per_diem_only, full_reimbursement)")
	flags.StringArrayVar(&jobVars, "var", nil, "set a job variable, referenced as var.<name> (repeatable)")
	flags.BoolVar(&showSchedule, "schedule", false, "print the crew schedule")
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := config.Get()
	progress := newProgress(cfg)

	format, err := resolveFormat(cfg)
	if err != nil {
		return err
	}
	if format.Binary() && outputFile == "" && isTerminal(os.Stdout) {
		return errors.Newf(errors.TypeInput, "%s output is binary; use --out FILE or redirect stdout", format)
	}

	vars, err := jobfile.ParseVars(jobVars)
	if err != nil {
		return err
	}
	spec, err := jobfile.Load(args[0], vars)
	if err != nil {
		return err
	}

	var tables *ratesheet.Tables
	err = progress.Step("Loading rate sheets", func() error {
		fetcher := ratesheet.NewFetcher(cfg.Sources.Timeout())
		tables, err = fetcher.LoadAll(ctx, cfg.Sources.Sheets())
		return err
	})
	if err != nil {
		return err
	}

	svc := &quoting.Service{
		Provider: newProvider(cfg),
		APIKey:   cfg.Logistics.APIKey(),
		Policy:   cfg.Policy.ExternalCrew,
	}
	if externalPolicy != "" {
		svc.Policy = types.ExternalPolicy(externalPolicy)
	}
	if logisticsFile != "" {
		svc.Provider = logistics.NewFileProvider(logisticsFile)
	}

	var report *output.Report
	label := "Computing quote"
	if svc.Provider != nil && !spec.HasLogistics() {
		label = "Looking up logistics and computing quote"
	}
	err = progress.Step(label, func() error {
		report, err = svc.Quote(ctx, tables, quoting.Request{Spec: spec})
		return err
	})
	if err != nil {
		return err
	}

	formatter, err := output.New(format, output.Options{
		NoColor:      cfg.Output.NoColor || outputFile != "" || format != output.FormatCLI,
		ShowSchedule: showSchedule || cfg.Output.ShowSchedule,
	})
	if err != nil {
		return err
	}

	if outputFile == "" {
		if err := formatter.Render(cmd.OutOrStdout(), report); err != nil {
			return errors.Internal("render quote", err)
		}
		return nil
	}
	if err := writeQuote(outputFile, formatter, report); err != nil {
		return err
	}
	progress.Success("Quote written to %s", outputFile)
	return nil
}

// writeQuote renders the report into path. A failed render removes the
// partial file.
func writeQuote(path string, formatter output.Formatter, report *output.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.TypeInput, err, "create %s", path)
	}
	if err := formatter.Render(f, report); err != nil {
		f.Close()
		os.Remove(path)
		return errors.Internal("render quote", err)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(errors.TypeInternal, err, "close %s", path)
	}
	return nil
}

// resolveFormat picks the --format flag, else the configured default
func resolveFormat(cfg *config.Config) (output.Format, error) {
	name := outputFormat
	if name == "" {
		name = cfg.Output.DefaultFormat
	}
	if name == "" {
		return output.FormatCLI, nil
	}
	return output.ParseFormat(name)
}

// newProgress writes progress to stderr so stdout carries only the quote
func newProgress(cfg *config.Config) *ui.Writer {
	w := ui.NewWriter(os.Stderr, cfg.Output.NoColor || !isTerminal(os.Stderr))
	switch {
	case quiet || !isTerminal(os.Stderr):
		w.SetVerbosity(0)
	case verbose:
		w.SetVerbosity(2)
	}
	return w
}

// newProvider returns the configured lookup provider, or nil when lookups are off
func newProvider(cfg *config.Config) logistics.Provider {
	if cfg.Logistics.Endpoint == "" {
		return nil
	}
	httpCfg := logistics.DefaultHTTPConfig(cfg.Logistics.Endpoint)
	httpCfg.Timeout = cfg.Logistics.Timeout()
	return logistics.NewHTTPProvider(httpCfg)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// ExitError reports err on stderr
func ExitError(err error) {
	ui.NewWriter(os.Stderr, config.Get().Output.NoColor).Error("%v", err)
}
