// Package jobfile decodes job descriptions written in HCL (CLI) or JSON (API)
// and resolves them against the catalog into engine inputs.
package jobfile

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"opticost/adapters/logistics"
	"opticost/core/types"
	"opticost/internal/errors"
)

// DateLayout is the start_date format
const DateLayout = "2006-01-02"

// Spec is one job description
type Spec struct {
	Service           string `hcl:"service,optional" json:"service"`
	StartDate         string `hcl:"start_date,optional" json:"start_date"`
	Address           string `hcl:"address" json:"address"`
	Model             string `hcl:"model,optional" json:"model"`
	Spots             int    `hcl:"spots,optional" json:"spots"`
	ClientHasForklift bool   `hcl:"client_has_forklift,optional" json:"client_has_forklift"`

	Crew            *CrewSpec            `hcl:"crew,block" json:"crew,omitempty"`
	Options         *OptionsSpec         `hcl:"options,block" json:"options,omitempty"`
	Ballast         *BallastSpec         `hcl:"ballast,block" json:"ballast,omitempty"`
	PublicTransport *PublicTransportSpec `hcl:"public_transport,block" json:"public_transport,omitempty"`
	Support         *SupportSpec         `hcl:"support,block" json:"support,omitempty"`
	Extras          []ExtraSpec          `hcl:"extra,block" json:"extras,omitempty"`
	Logistics       *LogisticsSpec       `hcl:"logistics,block" json:"logistics,omitempty"`
}

// CrewSpec sizes the two technician pools; a pool is used when its count is positive
type CrewSpec struct {
	Internal int `hcl:"internal,optional" json:"internal"`
	External int `hcl:"external,optional" json:"external"`
}

// OptionsSpec selects the per-spot options
type OptionsSpec struct {
	Tarp            bool `hcl:"tarp,optional" json:"tarp"`
	Photovoltaic    bool `hcl:"photovoltaic,optional" json:"photovoltaic"`
	LED             bool `hcl:"led,optional" json:"led"`
	InsulatedPanels bool `hcl:"insulated_panels,optional" json:"insulated_panels"`
}

// BallastSpec enables ballast; the block alone enables it unless enabled = false
type BallastSpec struct {
	Enabled *bool  `hcl:"enabled,optional" json:"enabled,omitempty"`
	Type    string `hcl:"type,optional" json:"type"`
}

// PublicTransportSpec sends the crew by train or plane
type PublicTransportSpec struct {
	Enabled *bool  `hcl:"enabled,optional" json:"enabled,omitempty"`
	Mode    string `hcl:"mode,optional" json:"mode"`
}

// SupportSpec sizes a support visit
type SupportSpec struct {
	Days        int `hcl:"days,optional" json:"days"`
	Technicians int `hcl:"technicians,optional" json:"technicians"`
}

// ExtraSpec is one free-form cost
type ExtraSpec struct {
	Label  string  `hcl:"label,label" json:"label"`
	Amount float64 `hcl:"amount" json:"amount"`
}

// LogisticsSpec is logistics entered by hand instead of looked up
type LogisticsSpec struct {
	DistanceKm              float64 `hcl:"distance_km,optional" json:"distance_km"`
	DriveDurationMinutes    float64 `hcl:"drive_duration_minutes,optional" json:"drive_duration_minutes"`
	TrainDurationMinutes    float64 `hcl:"train_duration_minutes,optional" json:"train_duration_minutes"`
	PlaneDurationMinutes    float64 `hcl:"plane_duration_minutes,optional" json:"plane_duration_minutes"`
	LastMileDurationMinutes float64 `hcl:"last_mile_duration_minutes,optional" json:"last_mile_duration_minutes"`

	AvgHotelPrice  *float64 `hcl:"avg_hotel_price,optional" json:"avg_hotel_price,omitempty"`
	TrainPrice     *float64 `hcl:"train_price,optional" json:"train_price,omitempty"`
	PlanePrice     *float64 `hcl:"plane_price,optional" json:"plane_price,omitempty"`
	LastMilePrice  *float64 `hcl:"last_mile_price,optional" json:"last_mile_price,omitempty"`
	FerryCostVan   *float64 `hcl:"ferry_cost_van,optional" json:"ferry_cost_van,omitempty"`
	FerryCostTruck *float64 `hcl:"ferry_cost_truck,optional" json:"ferry_cost_truck,omitempty"`
	IsIsland       bool     `hcl:"is_island,optional" json:"is_island"`
}

// Data converts the hand-entered values with the same defaults as a lookup
func (l *LogisticsSpec) Data() types.LogisticsData {
	return logistics.Record{
		DistanceKm:              l.DistanceKm,
		DriveDurationMinutes:    l.DriveDurationMinutes,
		TrainDurationMinutes:    l.TrainDurationMinutes,
		PlaneDurationMinutes:    l.PlaneDurationMinutes,
		LastMileDurationMinutes: l.LastMileDurationMinutes,
		AvgHotelPrice:           money(l.AvgHotelPrice),
		TrainPrice:              money(l.TrainPrice),
		PlanePrice:              money(l.PlanePrice),
		LastMilePrice:           money(l.LastMilePrice),
		FerryCostVan:            money(l.FerryCostVan),
		FerryCostTruck:          money(l.FerryCostTruck),
		IsIsland:                l.IsIsland,
	}.Normalize()
}

func money(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}

// Catalog resolves model and ballast names
type Catalog interface {
	Model(name string) (types.ModelData, bool)
	HasModel(name string) bool
	Ballast(name string) (types.BallastData, bool)
}

// Resolved is a job ready for the engine
type Resolved struct {
	Inputs  types.JobInputs
	Model   types.ModelData
	Ballast *types.BallastData
}

// HasLogistics reports whether the job carries its own logistics
func (s *Spec) HasLogistics() bool {
	return s.Logistics != nil
}

// Resolve validates the job and looks up its model and ballast.
// An empty model name picks the first catalog model.
func (s *Spec) Resolve(catalog Catalog) (*Resolved, error) {
	in := types.JobInputs{
		Service:           types.ServiceKind(strings.ToLower(strings.TrimSpace(s.Service))),
		Address:           strings.TrimSpace(s.Address),
		ModelName:         strings.TrimSpace(s.Model),
		Spots:             s.Spots,
		ClientHasForklift: s.ClientHasForklift,
		Logistics:         types.UnfetchedLogistics(),
	}
	if in.Service == "" {
		in.Service = types.ServiceFullInstall
	}
	if !in.Service.IsValid() {
		return nil, errors.Newf(errors.TypeInput, "unknown service %q (want install or support)", s.Service)
	}
	if in.Address == "" {
		return nil, errors.Input("address is required")
	}
	if s.Spots < 0 {
		return nil, errors.Newf(errors.TypeInput, "spots must not be negative, got %d", s.Spots)
	}

	if date := strings.TrimSpace(s.StartDate); date != "" {
		start, err := time.Parse(DateLayout, date)
		if err != nil {
			return nil, errors.Wrapf(errors.TypeInput, err, "invalid start_date %q (want YYYY-MM-DD)", s.StartDate)
		}
		in.StartDate = start
	}

	if s.Crew != nil {
		if s.Crew.Internal < 0 || s.Crew.External < 0 {
			return nil, errors.Input("crew counts must not be negative")
		}
		in.UseInternalTechs, in.InternalTechs = s.Crew.Internal > 0, s.Crew.Internal
		in.UseExternalTechs, in.ExternalTechs = s.Crew.External > 0, s.Crew.External
	}

	if s.Options != nil {
		in.Tarp = s.Options.Tarp
		in.Photovoltaic = s.Options.Photovoltaic
		in.LED = s.Options.LED
		in.InsulatedPanels = s.Options.InsulatedPanels
	}

	if s.Support != nil {
		if s.Support.Days < 0 || s.Support.Technicians < 0 {
			return nil, errors.Input("support days and technicians must not be negative")
		}
		in.SupportDays = s.Support.Days
		in.SupportTechnicians = s.Support.Technicians
	}

	if pt := s.PublicTransport; pt != nil && enabled(pt.Enabled) {
		in.UsePublicTransport = true
		switch mode := types.TransportMode(strings.ToLower(strings.TrimSpace(pt.Mode))); mode {
		case "", types.TransportTrain, types.TransportPlane:
			in.PublicTransportMode = mode
		default:
			return nil, errors.Newf(errors.TypeInput, "unknown public transport mode %q (want train or plane)", pt.Mode)
		}
	}

	for _, extra := range s.Extras {
		in.ExtraCosts = append(in.ExtraCosts, types.ExtraCost{
			Label:  extra.Label,
			Amount: decimal.NewFromFloat(extra.Amount),
		})
	}

	model, ok := catalog.Model(in.ModelName)
	if !ok {
		return nil, errors.NotFound("catalog model", in.ModelName)
	}
	if in.Service == types.ServiceFullInstall && in.ModelName != "" && !catalog.HasModel(in.ModelName) {
		return nil, errors.NotFound("catalog model", in.ModelName)
	}
	in.ModelName = model.Name

	res := &Resolved{Model: model}
	if b := s.Ballast; b != nil && enabled(b.Enabled) {
		in.BallastEnabled = true
		in.BallastName = strings.TrimSpace(b.Type)
		if ballast, found := catalog.Ballast(in.BallastName); found {
			in.BallastName = ballast.Name
			res.Ballast = &ballast
		}
	}

	if s.Logistics != nil {
		ApplyLogistics(&in, s.Logistics.Data())
	}
	res.Inputs = in
	return res, nil
}

// ApplyLogistics stores the logistics on the job. A public transport job
// without a mode takes the recommended one, or the train.
func ApplyLogistics(in *types.JobInputs, data types.LogisticsData) {
	in.Logistics = data
	if !in.UsePublicTransport || in.PublicTransportMode != "" {
		return
	}
	in.PublicTransportMode = types.TransportTrain
	if data.RecommendedMode == types.TransportPlane {
		in.PublicTransportMode = types.TransportPlane
	}
}

func enabled(flag *bool) bool {
	return flag == nil || *flag
}
