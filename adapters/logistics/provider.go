// Package logistics resolves travel data (distance, durations, hotel and ticket
// prices, ferries) for a job address. Lookups may fail; callers always get a
// usable record back together with a categorized error.
package logistics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"opticost/core/types"
	"opticost/internal/errors"
	"opticost/internal/logging"
	"opticost/internal/metrics"
)

// Prices applied when the provider leaves them out
var (
	DefaultHotelPrice    = decimal.NewFromInt(110)
	DefaultLastMilePrice = decimal.NewFromInt(20)
)

// Request describes one lookup
type Request struct {
	Address      string    `json:"address"`
	APIKey       string    `json:"-"`
	StartDate    time.Time `json:"start_date"`
	DurationDays int       `json:"duration_days"`
}

// Provider looks up logistics for an address
type Provider interface {
	Lookup(ctx context.Context, req Request) (types.LogisticsData, error)
}

// Resolve asks the provider for logistics. On failure it logs the category and
// returns the unfetched record with the error, so the quote can still be computed.
// A nil provider means lookups are disabled.
func Resolve(ctx context.Context, p Provider, req Request) (types.LogisticsData, error) {
	if p == nil {
		return types.UnfetchedLogistics(), nil
	}

	started := time.Now()
	data, err := p.Lookup(ctx, req)
	if err != nil {
		category := errors.TypeOf(err)
		metrics.LogisticsFailures.WithLabelValues(string(category)).Inc()
		logging.Warn("logistics lookup failed",
			zap.String("address", req.Address),
			zap.String("category", string(category)),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		return types.UnfetchedLogistics(), err
	}

	logging.Debug("logistics resolved",
		zap.String("address", req.Address),
		zap.Float64("distance_km", data.DistanceKm),
		zap.String("recommended_mode", string(data.RecommendedMode)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return data, nil
}

// Record is the wire form of a lookup answer. Prices are pointers so a missing
// field can be told apart from an explicit zero.
type Record struct {
	DistanceKm              float64 `json:"distance_km"`
	DriveDurationMinutes    float64 `json:"drive_duration_minutes"`
	TrainDurationMinutes    float64 `json:"train_duration_minutes"`
	PlaneDurationMinutes    float64 `json:"plane_duration_minutes"`
	LastMileDurationMinutes float64 `json:"last_mile_duration_minutes"`

	AvgHotelPrice *decimal.Decimal `json:"avg_hotel_price"`
	TrainPrice    *decimal.Decimal `json:"train_price"`
	PlanePrice    *decimal.Decimal `json:"plane_price"`
	LastMilePrice *decimal.Decimal `json:"last_mile_price"`

	FerryCostVan   *decimal.Decimal `json:"ferry_cost_van"`
	FerryCostTruck *decimal.Decimal `json:"ferry_cost_truck"`
	IsIsland       bool             `json:"is_island"`
}

// Normalize applies defaults and picks the recommended public transport mode
func (r Record) Normalize() types.LogisticsData {
	data := types.LogisticsData{
		DistanceKm:              nonNegative(r.DistanceKm),
		DriveDurationMinutes:    nonNegative(r.DriveDurationMinutes),
		TrainDurationMinutes:    nonNegative(r.TrainDurationMinutes),
		PlaneDurationMinutes:    nonNegative(r.PlaneDurationMinutes),
		LastMileDurationMinutes: nonNegative(r.LastMileDurationMinutes),
		AvgHotelPrice:           price(r.AvgHotelPrice, DefaultHotelPrice),
		TrainPrice:              price(r.TrainPrice, decimal.Zero),
		PlanePrice:              price(r.PlanePrice, decimal.Zero),
		LastMilePrice:           price(r.LastMilePrice, DefaultLastMilePrice),
		FerryCostVan:            price(r.FerryCostVan, decimal.Zero),
		FerryCostTruck:          price(r.FerryCostTruck, decimal.Zero),
		IsIsland:                r.IsIsland,
		Fetched:                 true,
	}
	if r.AvgHotelPrice != nil && !r.AvgHotelPrice.IsPositive() {
		data.AvgHotelPrice = DefaultHotelPrice
	}
	data.RecommendedMode = recommend(data.TrainPrice, data.PlanePrice)
	return data
}

// recommend picks the cheaper priced mode
func recommend(train, plane decimal.Decimal) types.TransportMode {
	switch {
	case plane.IsPositive() && (!train.IsPositive() || plane.LessThan(train)):
		return types.TransportPlane
	case train.IsPositive():
		return types.TransportTrain
	default:
		return types.TransportNone
	}
}

func price(v *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if v == nil {
		return fallback
	}
	if v.IsNegative() {
		return decimal.Zero
	}
	return *v
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
