// Package types defines core domain types shared across all layers.
// This package contains NO business logic - only type definitions.
package types

import "time"

// ServiceKind identifies the kind of job being quoted
type ServiceKind string

const (
	// ServiceFullInstall is a complete car-port installation (material + crew)
	ServiceFullInstall ServiceKind = "install"

	// ServiceSupport is a technicians-only support visit, no material shipped
	ServiceSupport ServiceKind = "support"
)

// String returns the string representation
func (k ServiceKind) String() string {
	return string(k)
}

// IsValid checks if the service kind is known
func (k ServiceKind) IsValid() bool {
	switch k {
	case ServiceFullInstall, ServiceSupport:
		return true
	default:
		return false
	}
}

// TransportMode is the public transport mode used by the crew
type TransportMode string

const (
	TransportTrain TransportMode = "train"
	TransportPlane TransportMode = "plane"
	TransportNone  TransportMode = "none"
)

// String returns the string representation
func (m TransportMode) String() string {
	return string(m)
}

// Currency represents a currency code
type Currency string

const (
	CurrencyEUR Currency = "EUR"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// JobInputs is the complete input snapshot for one quote.
// The engine reads it and never modifies it.
type JobInputs struct {
	// Service is the kind of job
	Service ServiceKind `json:"service"`

	// StartDate is the planned first day on site
	StartDate time.Time `json:"start_date"`

	// Address is the full destination address of the site
	Address string `json:"address"`

	// Logistics is the resolved logistics record (may be unfetched)
	Logistics LogisticsData `json:"logistics"`

	// ModelName is the structure model selected from the catalog
	ModelName string `json:"model"`

	// Spots is the number of car-port spots
	Spots int `json:"spots"`

	// Crew composition
	UseInternalTechs bool `json:"use_internal_techs"`
	InternalTechs    int  `json:"internal_techs"`
	UseExternalTechs bool `json:"use_external_techs"`
	ExternalTechs    int  `json:"external_techs"`

	// Support-service sizing
	SupportDays        int `json:"support_days"`
	SupportTechnicians int `json:"support_technicians"`

	// Per-service options
	Tarp            bool `json:"tarp"`
	Photovoltaic    bool `json:"photovoltaic"`
	LED             bool `json:"led"`
	InsulatedPanels bool `json:"insulated_panels"`

	// Ballast selection
	BallastEnabled bool   `json:"ballast_enabled"`
	BallastName    string `json:"ballast_name,omitempty"`

	// ClientHasForklift is false when a forklift must be rented
	ClientHasForklift bool `json:"client_has_forklift"`

	// Crew travel
	UsePublicTransport  bool          `json:"use_public_transport"`
	PublicTransportMode TransportMode `json:"public_transport_mode,omitempty"`

	// ExtraCosts are free-form user-entered costs
	ExtraCosts []ExtraCost `json:"extra_costs,omitempty"`
}

// ActiveInternalTechs returns the internal headcount if the pool is enabled
func (j JobInputs) ActiveInternalTechs() int {
	if !j.UseInternalTechs || j.InternalTechs < 0 {
		return 0
	}
	return j.InternalTechs
}

// ActiveExternalTechs returns the external headcount if the pool is enabled
func (j JobInputs) ActiveExternalTechs() int {
	if !j.UseExternalTechs || j.ExternalTechs < 0 {
		return 0
	}
	return j.ExternalTechs
}
