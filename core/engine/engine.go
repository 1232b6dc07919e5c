// Package engine provides the quote calculation engine.
// Compute is a pure function: no I/O, no logging, no shared state.
// The CLI and HTTP API are thin wrappers that resolve inputs and call it.
package engine

import (
	"github.com/shopspring/decimal"

	"opticost/core/types"
)

// Schedule clock times, in decimal hours
const (
	crewDepartureClock  = 7.0
	lostDayArrivalClock = 14.0
	hotelDepartureClock = 8.0
	supportEndClock     = 17.0
	lateReturnClock     = 19.0
	truckDepartureClock = 6.0
)

// Fixed tariffs and limits not carried by the rate sheets
const (
	defaultDailyHours     = 8.0
	intraSiteKmPerDay     = 30.0
	daysPerRoundTrip      = 5
	forkliftIncludedDays  = 5
	vanWeightLimitKg      = 1000.0
	vanMaxSpots           = 3
	craneWeightLimitKg    = 16000.0
	articulatedCapacityKg = 24000.0
	unlimitedSpots        = 9999
	ballastUnloadMinutes  = 20
)

var (
	defaultHotelPerNight     = decimal.NewFromInt(120)
	tollsPerKm               = decimal.RequireFromString("0.12")
	localTransportPerDay     = decimal.NewFromInt(20)
	dedicatedDriverCost      = decimal.NewFromInt(250)
	craneFallbackPrice       = decimal.NewFromInt(1300)
	craneUnloadSurcharge     = decimal.NewFromInt(100)
	ballastUnloadHourlyRate  = decimal.NewFromInt(100)
	articulatedFallbackPrice = decimal.NewFromInt(1600)
)

// Compute turns a job description and the rate tables into an itemized quote.
// It never fails: missing optional data falls back to documented defaults.
// ballast may be nil when no ballast catalog entry is selected.
func Compute(
	in types.JobInputs,
	rates types.RateConfig,
	transportRates []types.TransportRate,
	model types.ModelData,
	ballast *types.BallastData,
) types.QuoteResult {
	c := &calculation{
		in:             in,
		rates:          rates,
		transportRates: transportRates,
		model:          model,
		ballast:        ballast,
	}
	return c.run()
}

// calculation carries the intermediate state of one Compute call
type calculation struct {
	in             types.JobInputs
	rates          types.RateConfig
	transportRates []types.TransportRate
	model          types.ModelData
	ballast        *types.BallastData

	travel   travelProfile
	weight   weightBreakdown
	work     workload
	schedule schedule
	days     int

	internal  []types.CostLineItem
	external  []types.CostLineItem
	transport []types.CostLineItem
	equipment []types.CostLineItem
	extras    []types.CostLineItem
}

func (c *calculation) run() types.QuoteResult {
	c.internal = []types.CostLineItem{}
	c.external = []types.CostLineItem{}
	c.transport = []types.CostLineItem{}
	c.equipment = []types.CostLineItem{}
	c.extras = []types.CostLineItem{}

	c.travel = resolveTravel(c.in, c.rates)
	c.weight = resolveWeight(c.in, c.model, c.ballast)

	if c.in.Service == types.ServiceSupport {
		c.work = estimateSupportHours(c.in, c.rates)
		c.schedule = simulateSupport(c.travel, c.work)
	} else {
		c.work = estimateInstallHours(c.in, c.rates, c.model)
		c.schedule = simulateInstall(c.travel, c.work)
	}
	c.days = c.schedule.totalDays(c.work)

	if c.in.Service == types.ServiceSupport {
		c.allocateSupportCrew()
	} else {
		c.allocateInstallCrew()
	}

	shipment := c.selectTransport()
	forklift := effectiveForklift(c.in.ClientHasForklift, shipment.tier, c.weight.ballastCount)
	c.billForklift(forklift)
	c.billExtras()

	return c.aggregate(shipment, forklift)
}
