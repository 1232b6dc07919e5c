// Package types - Logistics types
package types

import "github.com/shopspring/decimal"

// LogisticsData is the resolved travel information for a destination.
// An unfetched record has Fetched=false and zero values everywhere.
type LogisticsData struct {
	// One-way figures
	DistanceKm              float64 `json:"distance_km"`
	DriveDurationMinutes    float64 `json:"drive_duration_minutes"`
	TrainDurationMinutes    float64 `json:"train_duration_minutes"`
	PlaneDurationMinutes    float64 `json:"plane_duration_minutes"`
	LastMileDurationMinutes float64 `json:"last_mile_duration_minutes"`

	// AvgHotelPrice is the price of one night for one person
	AvgHotelPrice decimal.Decimal `json:"avg_hotel_price"`

	// Round-trip prices per person
	TrainPrice    decimal.Decimal `json:"train_price"`
	PlanePrice    decimal.Decimal `json:"plane_price"`
	LastMilePrice decimal.Decimal `json:"last_mile_price"`

	// Round-trip ferry costs
	FerryCostVan   decimal.Decimal `json:"ferry_cost_van"`
	FerryCostTruck decimal.Decimal `json:"ferry_cost_truck"`
	IsIsland       bool            `json:"is_island"`

	RecommendedMode TransportMode `json:"recommended_mode,omitempty"`

	Fetched bool `json:"fetched"`
}

// UnfetchedLogistics returns the record used when no lookup succeeded
func UnfetchedLogistics() LogisticsData {
	return LogisticsData{RecommendedMode: TransportNone}
}
