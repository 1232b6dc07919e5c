// Package types - Rate table types
package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountTier grants a percentage off total hours above a spot-count threshold
type DiscountTier struct {
	// Threshold must be strictly exceeded by the spot count
	Threshold int `json:"threshold"`

	// Percentage is taken off the total hours (e.g. 8.5)
	Percentage float64 `json:"percentage"`
}

// ExternalPolicy decides which travel costs the external crew is reimbursed for
type ExternalPolicy string

const (
	// ExternalPerDiemOnly pays external crew hourly work plus per-diem, nothing else
	ExternalPerDiemOnly ExternalPolicy = "per_diem_only"

	// ExternalFullReimbursement also bills hotel nights and public transport tickets
	ExternalFullReimbursement ExternalPolicy = "full_reimbursement"
)

// IsValid checks if the policy is known. The empty policy means ExternalPerDiemOnly.
func (p ExternalPolicy) IsValid() bool {
	switch p {
	case "", ExternalPerDiemOnly, ExternalFullReimbursement:
		return true
	default:
		return false
	}
}

// RateConfig holds the externally maintained global variables
type RateConfig struct {
	TravelThresholdKm  float64         `json:"travel_threshold_km"`
	InternalPerDiem    decimal.Decimal `json:"internal_per_diem"`
	ExternalPerDiem    decimal.Decimal `json:"external_per_diem"`
	StandardDailyHours float64         `json:"standard_daily_hours"`
	VanKmPerLitre      float64         `json:"van_km_per_litre"`
	FuelPricePerLitre  decimal.Decimal `json:"fuel_price_per_litre"`
	VehicleWearPerKm   decimal.Decimal `json:"vehicle_wear_per_km"`
	InternalHourlyRate decimal.Decimal `json:"internal_hourly_rate"`
	ExternalHourlyRate decimal.Decimal `json:"external_hourly_rate"`
	MarginPercent      decimal.Decimal `json:"margin_percent"`
	ForkliftBaseCost   decimal.Decimal `json:"forklift_base_cost"`
	ForkliftExtraDay   decimal.Decimal `json:"forklift_extra_day"`

	// DiscountTiers are sorted by descending threshold
	DiscountTiers []DiscountTier `json:"discount_tiers,omitempty"`

	// ExternalPolicy selects the external crew reimbursement rules
	ExternalPolicy ExternalPolicy `json:"external_policy,omitempty"`
}

// DefaultRateConfig returns the values used when a variable is missing from the sheet
func DefaultRateConfig() RateConfig {
	return RateConfig{
		TravelThresholdKm:  150,
		InternalPerDiem:    decimal.NewFromInt(50),
		ExternalPerDiem:    decimal.NewFromInt(70),
		StandardDailyHours: 8,
		VanKmPerLitre:      11,
		FuelPricePerLitre:  decimal.RequireFromString("1.8"),
		VehicleWearPerKm:   decimal.RequireFromString("0.037"),
		InternalHourlyRate: decimal.NewFromInt(25),
		ExternalHourlyRate: decimal.RequireFromString("26.5"),
		MarginPercent:      decimal.NewFromInt(25),
		ForkliftBaseCost:   decimal.NewFromInt(700),
		ForkliftExtraDay:   decimal.NewFromInt(120),
		ExternalPolicy:     ExternalPerDiemOnly,
	}
}

// VehicleTier is one parsed price column of the transport sheet.
// Labels such as "Camion gru 10-20" or "Bilico > 15" are parsed once at load time.
type VehicleTier struct {
	// Label is the original column header
	Label string `json:"label"`

	// Vehicle is the vehicle the column prices
	Vehicle VehicleKind `json:"vehicle"`

	// Ranged tiers carry a spot range in their label
	Ranged bool `json:"ranged"`

	// MinSpots is the inclusive lower bound
	MinSpots int `json:"min_spots,omitempty"`

	// MaxSpots is the inclusive upper bound when Bounded is true
	MaxSpots int  `json:"max_spots,omitempty"`
	Bounded  bool `json:"bounded,omitempty"`

	// Generic tiers have no digits in their label
	Generic bool `json:"generic,omitempty"`

	// Price is the flat price for the trip
	Price decimal.Decimal `json:"price"`
}

// Covers reports whether the tier's range includes the spot count
func (t VehicleTier) Covers(spots int) bool {
	if !t.Ranged || spots < t.MinSpots {
		return false
	}
	return !t.Bounded || spots <= t.MaxSpots
}

// TransportRate is one region/province row of the transport sheet
type TransportRate struct {
	Province string        `json:"province"`
	Region   string        `json:"region"`
	Tiers    []VehicleTier `json:"tiers"`
}

// PriceFor returns the price for a vehicle and spot count.
// Range matches win in sheet order, then a generic column, then the first column for
// the vehicle. The boolean is false when the row has no column for the vehicle.
func (r TransportRate) PriceFor(vehicle VehicleKind, spots int) (decimal.Decimal, bool) {
	var generic, first *VehicleTier
	for i := range r.Tiers {
		tier := &r.Tiers[i]
		if tier.Vehicle != vehicle {
			continue
		}
		if tier.Covers(spots) {
			return tier.Price, true
		}
		if tier.Generic && generic == nil {
			generic = tier
		}
		if first == nil {
			first = tier
		}
	}
	if generic != nil {
		return generic.Price, true
	}
	if first != nil {
		return first.Price, true
	}
	return decimal.Zero, false
}

// FindTransportRate matches the destination address against province names first,
// then region names (case-insensitive substring). Empty names never match.
func FindTransportRate(rates []TransportRate, address string) (TransportRate, bool) {
	dest := strings.ToLower(strings.TrimSpace(address))
	if dest == "" {
		return TransportRate{}, false
	}
	for _, r := range rates {
		if name := strings.ToLower(strings.TrimSpace(r.Province)); name != "" && strings.Contains(dest, name) {
			return r, true
		}
	}
	for _, r := range rates {
		if name := strings.ToLower(strings.TrimSpace(r.Region)); name != "" && strings.Contains(dest, name) {
			return r, true
		}
	}
	return TransportRate{}, false
}

// ModelData is one structure model of the catalog
type ModelData struct {
	Name string `json:"name"`

	// StructureWeightPerSpot is in kg
	StructureWeightPerSpot float64 `json:"structure_weight_per_spot"`

	// Installation hours per spot
	StructureHoursPerSpot    float64 `json:"structure_hours_per_spot"`
	PhotovoltaicHoursPerSpot float64 `json:"photovoltaic_hours_per_spot"`
	TarpHoursPerSpot         float64 `json:"tarp_hours_per_spot"`
	LEDHoursPerSpot          float64 `json:"led_hours_per_spot"`
	InsulatedHoursPerSpot    float64 `json:"insulated_hours_per_spot"`

	// Spot capacity per vehicle; zero means unlimited
	MaxSpotsVan         int `json:"max_spots_van,omitempty"`
	MaxSpotsCraneTruck  int `json:"max_spots_crane_truck,omitempty"`
	MaxSpotsArticulated int `json:"max_spots_articulated,omitempty"`
}

// BallastData is one ballast entry of the catalog
type BallastData struct {
	Name     string  `json:"name"`
	WeightKg float64 `json:"weight_kg"`
}
