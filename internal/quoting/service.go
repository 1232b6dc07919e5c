// Package quoting runs one quote end to end: resolve the job against the
// catalog, find logistics, call the engine, and wrap the result in a report.
// The CLI and the HTTP API share it; neither performs cost logic itself.
package quoting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"opticost/adapters/jobfile"
	"opticost/adapters/logistics"
	"opticost/adapters/ratesheet"
	"opticost/core/engine"
	"opticost/core/output"
	"opticost/core/types"
	"opticost/internal/errors"
	"opticost/internal/logging"
	"opticost/internal/metrics"
)

// WarningNoLogistics is reported when a quote is computed without travel data
const WarningNoLogistics = "logistics not available: distance, travel and ferry costs are not included"

// Service computes quotes
type Service struct {
	// Provider looks up logistics; nil disables lookups
	Provider logistics.Provider

	// APIKey is passed to the provider
	APIKey string

	// Policy overrides the external crew policy of the rate tables when set
	Policy types.ExternalPolicy
}

// Request is one job to quote
type Request struct {
	Spec *jobfile.Spec

	// Logistics, when set, is used as given and no lookup is made
	Logistics *types.LogisticsData
}

// Quote computes the quote for req with the given tables. Logistics failures
// become warnings; only invalid jobs are errors.
func (s *Service) Quote(ctx context.Context, tables *ratesheet.Tables, req Request) (*output.Report, error) {
	started := time.Now()
	if req.Spec == nil {
		return nil, errors.Input("job is required")
	}
	if tables == nil {
		return nil, errors.New(errors.TypeConfig, "rate tables are not loaded")
	}

	job, err := req.Spec.Resolve(tables.Catalog)
	if err != nil {
		return nil, err
	}
	in := job.Inputs

	rates := tables.Rates
	if s.Policy != "" {
		if !s.Policy.IsValid() {
			return nil, errors.Newf(errors.TypeConfig, "unknown external crew policy %q", s.Policy)
		}
		rates.ExternalPolicy = s.Policy
	}

	var warnings []string
	switch {
	case req.Logistics != nil:
		jobfile.ApplyLogistics(&in, *req.Logistics)
	case req.Spec.HasLogistics():
		// resolved from the job itself
	default:
		// The lookup wants the job length, which the engine estimates from
		// the job alone before any travel is known.
		draft := engine.Compute(in, rates, tables.Transport, job.Model, job.Ballast)
		data, err := logistics.Resolve(ctx, s.Provider, logistics.Request{
			Address:      in.Address,
			APIKey:       s.APIKey,
			StartDate:    in.StartDate,
			DurationDays: draft.TotalDays,
		})
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("logistics lookup failed: %v", err))
		}
		jobfile.ApplyLogistics(&in, data)
	}
	if !in.Logistics.Fetched {
		warnings = append(warnings, WarningNoLogistics)
	}

	quote := engine.Compute(in, rates, tables.Transport, job.Model, job.Ballast)
	report, err := output.NewReport(in, quote, warnings)
	if err != nil {
		return nil, err
	}
	metrics.ObserveQuote(string(in.Service), started)

	logging.Info("quote computed",
		zap.String("id", report.ID),
		zap.String("service", string(in.Service)),
		zap.String("model", in.ModelName),
		zap.Int("spots", in.Spots),
		zap.String("total_cost", quote.TotalCost.StringFixed(2)),
		zap.String("sell_price", quote.SellPrice.StringFixed(2)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return report, nil
}
