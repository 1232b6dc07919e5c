package ratesheet

import (
	"context"
	"time"

	"go.uber.org/zap"

	"opticost/core/types"
	"opticost/internal/errors"
	"opticost/internal/logging"
	"opticost/internal/metrics"
)

// Sources locates the three sheets
type Sources struct {
	Variables string
	Transport string
	Catalog   string
}

// Tables is everything the engine needs besides the job itself
type Tables struct {
	Rates     types.RateConfig      `json:"rates"`
	Transport []types.TransportRate `json:"transport"`
	Catalog   Catalog               `json:"catalog"`
	LoadedAt  time.Time             `json:"loaded_at"`
}

// LoadVariables fetches and parses the variables sheet
func (f *Fetcher) LoadVariables(ctx context.Context, location string) (types.RateConfig, error) {
	rows, err := f.Rows(ctx, location)
	if err != nil {
		return types.DefaultRateConfig(), err
	}
	return ParseVariables(rows)
}

// LoadTransport fetches and parses the transport sheet
func (f *Fetcher) LoadTransport(ctx context.Context, location string) ([]types.TransportRate, error) {
	rows, err := f.Rows(ctx, location)
	if err != nil {
		return nil, err
	}
	return ParseTransport(rows)
}

// LoadCatalog fetches and parses the catalog sheet
func (f *Fetcher) LoadCatalog(ctx context.Context, location string) (Catalog, error) {
	rows, err := f.Rows(ctx, location)
	if err != nil {
		return Catalog{}, err
	}
	return ParseCatalog(rows)
}

// LoadAll loads the three sheets. A failed variables or transport sheet is
// logged and replaced by defaults (an empty transport table makes every tier use
// its flat fallback price). A failed or empty catalog is an error, since no
// model can be quoted without it.
func (f *Fetcher) LoadAll(ctx context.Context, src Sources) (*Tables, error) {
	tables := &Tables{LoadedAt: time.Now().UTC()}

	rates, err := f.LoadVariables(ctx, src.Variables)
	recordLoad("variables", src.Variables, err)
	if err != nil {
		rates = types.DefaultRateConfig()
	}
	tables.Rates = rates

	transport, err := f.LoadTransport(ctx, src.Transport)
	recordLoad("transport", src.Transport, err)
	tables.Transport = transport

	catalog, err := f.LoadCatalog(ctx, src.Catalog)
	recordLoad("catalog", src.Catalog, err)
	if err != nil {
		return nil, err
	}
	if len(catalog.Models) == 0 {
		return nil, errors.Newf(errors.TypeParsing, "catalog %s lists no models", src.Catalog)
	}
	tables.Catalog = catalog

	logging.Info("rate tables loaded",
		zap.Int("discount_tiers", len(rates.DiscountTiers)),
		zap.Int("transport_rows", len(transport)),
		zap.Int("models", len(catalog.Models)),
		zap.Int("ballasts", len(catalog.Ballasts)),
	)
	return tables, nil
}

func recordLoad(sheet, location string, err error) {
	if err != nil {
		metrics.RateSheetLoads.WithLabelValues(sheet, "error").Inc()
		logging.Warn("rate sheet unavailable",
			zap.String("sheet", sheet),
			zap.String("location", location),
			zap.String("category", string(errors.TypeOf(err))),
			zap.Error(err),
		)
		return
	}
	metrics.RateSheetLoads.WithLabelValues(sheet, "ok").Inc()
	logging.Debug("rate sheet loaded", zap.String("sheet", sheet), zap.String("location", location))
}
