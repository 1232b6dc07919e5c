// Package types - Quote cost types
package types

import "github.com/shopspring/decimal"

// ExtraCost is a free-form cost entered by the user, billed verbatim
type ExtraCost struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// CostLineItem represents a single line of the itemized quote
type CostLineItem struct {
	// Label is a human-readable label
	Label string `json:"label"`

	// Value is the line amount
	Value decimal.Decimal `json:"value"`

	// Details explains how the value was obtained
	Details string `json:"details,omitempty"`

	// Bold marks headline lines (labour totals, main shipping line)
	Bold bool `json:"bold,omitempty"`
}

// SumItems returns the sum of the item values
func SumItems(items []CostLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Value)
	}
	return total
}

// VehicleKind identifies the material transport tier
type VehicleKind string

const (
	VehicleNone        VehicleKind = "none"
	VehicleVan         VehicleKind = "van"
	VehicleCraneTruck  VehicleKind = "crane_truck"
	VehicleArticulated VehicleKind = "articulated"
	VehicleOther       VehicleKind = "other"
)

// String returns the string representation
func (v VehicleKind) String() string {
	return string(v)
}

// QuoteResult is the complete output of one engine invocation
type QuoteResult struct {
	// TotalCost is the raw cost before margin
	TotalCost decimal.Decimal `json:"total_cost"`

	// SellPrice is TotalCost x (1 + margin/100)
	SellPrice decimal.Decimal `json:"sell_price"`

	// MarginPercent is the margin that produced SellPrice
	MarginPercent decimal.Decimal `json:"margin_percent"`

	// Currency is the cost currency
	Currency Currency `json:"currency"`

	// Itemized buckets
	InternalTeamCosts     []CostLineItem `json:"internal_team_costs"`
	ExternalTeamCosts     []CostLineItem `json:"external_team_costs"`
	GeneralLogisticsCosts []CostLineItem `json:"general_logistics_costs"`
	ExtraCostItems        []CostLineItem `json:"extra_cost_items"`

	// Scalar summaries
	InstallationTotal decimal.Decimal `json:"installation_total"`
	TransportTotal    decimal.Decimal `json:"transport_total"`
	EquipmentTotal    decimal.Decimal `json:"equipment_total"`
	ExtraCostsTotal   decimal.Decimal `json:"extra_costs_total"`

	// Weights in kg
	TotalWeight     float64 `json:"total_weight"`
	StructureWeight float64 `json:"structure_weight"`
	BallastCount    int     `json:"ballast_count"`
	BallastWeight   float64 `json:"ballast_weight"`

	// Labour
	TotalHours          float64 `json:"total_hours"`
	TotalDays           int     `json:"total_days"`
	DiscountAppliedPerc float64 `json:"discount_applied_perc"`

	// Travel schedule flags
	LostTravelDay    bool     `json:"lost_travel_day"`
	ExtraReturnNight bool     `json:"extra_return_night"`
	Schedule         []string `json:"schedule,omitempty"`

	// Material transport
	TransportMethod string      `json:"transport_method"`
	TransportTier   VehicleKind `json:"transport_tier"`
	TruckCount      int         `json:"truck_count,omitempty"`

	// ForkliftAvailable is the effective forklift flag used for billing
	ForkliftAvailable bool `json:"forklift_available"`

	// ForkliftProvidedByCrane is true when the crane truck replaced the rental
	ForkliftProvidedByCrane bool `json:"forklift_provided_by_crane,omitempty"`
}
