package engine

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"opticost/core/types"
)

// shipment is the chosen material transport
type shipment struct {
	tier   types.VehicleKind
	method string
	trucks int
}

// capacity treats a zero model capacity as unlimited
func capacity(spots int) int {
	if spots <= 0 {
		return unlimitedSpots
	}
	return spots
}

// SelectTier picks the material transport tier from weight, spots, ballast and
// model capacities. The first eligible tier wins: van, crane truck, articulated truck.
func SelectTier(totalWeightKg float64, spots int, ballastEnabled bool, model types.ModelData) types.VehicleKind {
	switch {
	case totalWeightKg < vanWeightLimitKg && !ballastEnabled &&
		spots <= vanMaxSpots && spots <= capacity(model.MaxSpotsVan):
		return types.VehicleVan
	case totalWeightKg <= craneWeightLimitKg && spots <= capacity(model.MaxSpotsCraneTruck):
		return types.VehicleCraneTruck
	default:
		return types.VehicleArticulated
	}
}

// TruckCount is the number of articulated trucks needed for weight and volume
func TruckCount(totalWeightKg float64, spots int, model types.ModelData) int {
	byWeight := int(math.Ceil(totalWeightKg / articulatedCapacityKg))
	byVolume := int(math.Ceil(float64(spots) / float64(capacity(model.MaxSpotsArticulated))))
	trucks := byWeight
	if byVolume > trucks {
		trucks = byVolume
	}
	if trucks < 1 {
		trucks = 1
	}
	return trucks
}

func (c *calculation) selectTransport() shipment {
	if c.in.Service == types.ServiceSupport {
		return shipment{tier: types.VehicleNone, method: "Not required (support)"}
	}

	spots := nonNegative(c.in.Spots)
	rate, _ := types.FindTransportRate(c.transportRates, c.in.Address)

	switch SelectTier(c.weight.total, spots, c.in.BallastEnabled, c.model) {
	case types.VehicleVan:
		return c.shipByVan()
	case types.VehicleCraneTruck:
		return c.shipByCraneTruck(rate, spots)
	default:
		return c.shipByArticulated(rate, spots)
	}
}

// shipByVan charges nothing when the material travels in the crew van.
// With the crew on public transport a dedicated van and driver are billed.
func (c *calculation) shipByVan() shipment {
	if !c.in.UsePublicTransport {
		c.transport = append(c.transport, types.CostLineItem{
			Label:   "Material transport (van)",
			Value:   decimal.Zero,
			Details: "included in the crew van",
			Bold:    true,
		})
		return shipment{tier: types.VehicleVan, method: "Company van (material travels with crew)"}
	}

	km := c.travel.distanceKm * 2
	c.transport = append(c.transport, types.CostLineItem{
		Label:   "Dedicated shipment (van)",
		Value:   fuelCost(km, c.rates).Add(wearAndTolls(km, c.rates)).Add(dedicatedDriverCost),
		Details: fmt.Sprintf("%.0f km + driver €%s", km, dedicatedDriverCost),
		Bold:    true,
	})
	if l := c.in.Logistics; l.IsIsland && l.FerryCostVan.IsPositive() {
		c.transport = append(c.transport, types.CostLineItem{
			Label: "Shipment ferry",
			Value: l.FerryCostVan,
		})
	}
	return shipment{tier: types.VehicleVan, method: "Dedicated van shipment"}
}

// shipByCraneTruck prices the truck from the region table and adds unloading
// surcharges and driver logistics for a 06:00 departure.
func (c *calculation) shipByCraneTruck(rate types.TransportRate, spots int) shipment {
	base, ok := rate.PriceFor(types.VehicleCraneTruck, spots)
	if !ok || !base.IsPositive() {
		base = craneFallbackPrice
	}
	c.transport = append(c.transport,
		types.CostLineItem{Label: "Crane truck hire", Value: base, Bold: true},
		types.CostLineItem{Label: "Crane unloading surcharge", Value: craneUnloadSurcharge},
	)

	n := c.weight.ballastCount
	if n > 0 {
		minutes := n * ballastUnloadMinutes
		extraHours := int(math.Ceil(float64(minutes) / 60))
		c.transport = append(c.transport, types.CostLineItem{
			Label:   "Ballast unloading surcharge",
			Value:   ballastUnloadHourlyRate.Mul(count(extraHours)),
			Details: fmt.Sprintf("%d ballasts (%d min) = %dh extra", n, minutes, extraHours),
		})
	}

	unloadHours := 1 + float64(n*ballastUnloadMinutes)/60
	truckReturn := truckDepartureClock + c.travel.driveHours*2 + unloadHours
	driver := c.rates.InternalPerDiem
	details := fmt.Sprintf("per-diem, back at %s", formatClock(truckReturn))
	if truckReturn > lateReturnClock {
		driver = driver.Add(c.rates.InternalPerDiem).Add(c.travel.hotelPerNight)
		details = fmt.Sprintf("per-diem + hotel, back at %s", formatClock(truckReturn))
	}
	c.transport = append(c.transport, types.CostLineItem{
		Label:   "Crane truck driver logistics",
		Value:   driver,
		Details: details,
	})

	if l := c.in.Logistics; l.IsIsland && l.FerryCostTruck.IsPositive() {
		c.transport = append(c.transport, types.CostLineItem{
			Label: "Truck ferry (round trip)",
			Value: l.FerryCostTruck,
		})
	}
	return shipment{tier: types.VehicleCraneTruck, method: "Crane truck (self-unloading)"}
}

// shipByArticulated bills the region rate per truck, driver costs included
func (c *calculation) shipByArticulated(rate types.TransportRate, spots int) shipment {
	base, ok := rate.PriceFor(types.VehicleArticulated, spots)
	if !ok || !base.IsPositive() {
		base = articulatedFallbackPrice
	}

	trucks := TruckCount(c.weight.total, spots, c.model)
	method := "Articulated truck"
	if trucks > 1 {
		method = fmt.Sprintf("Articulated truck x%d", trucks)
	}

	c.transport = append(c.transport, types.CostLineItem{
		Label:   method,
		Value:   base.Mul(count(trucks)),
		Details: fmt.Sprintf("%d x €%s, %.0f kg", trucks, base, c.weight.total),
		Bold:    true,
	})
	if l := c.in.Logistics; l.IsIsland && l.FerryCostTruck.IsPositive() {
		c.transport = append(c.transport, types.CostLineItem{
			Label:   "Articulated truck ferry (round trip)",
			Value:   l.FerryCostTruck.Mul(count(trucks)),
			Details: fmt.Sprintf("%d trucks", trucks),
		})
	}
	return shipment{tier: types.VehicleArticulated, method: method, trucks: trucks}
}
