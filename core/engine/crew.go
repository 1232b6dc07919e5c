package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"opticost/core/types"
)

// roundTrips is one trip per working day for a daily commute.
// A trasferta needs one trip, plus one more for every further block of 5 days.
func roundTrips(trasferta bool, days int) int {
	if days <= 0 {
		return 0
	}
	if !trasferta {
		return days
	}
	if days > daysPerRoundTrip {
		return 1 + (days-1)/daysPerRoundTrip
	}
	return 1
}

// hotelNights is max(0, days-1) plus the late-return night
func hotelNights(days int, extraNight bool) int {
	nights := days - 1
	if nights < 0 {
		nights = 0
	}
	if extraNight {
		nights++
	}
	return nights
}

// vanKm estimates the kilometres driven by the crew van
func vanKm(t travelProfile, days, trips int) float64 {
	roundTrip := t.distanceKm * 2
	if !t.trasferta {
		return roundTrip * float64(days)
	}
	return roundTrip*float64(trips) + float64(days)*intraSiteKmPerDay
}

func (c *calculation) allocateInstallCrew() {
	w := c.work
	techs := w.techs()
	if techs == 0 {
		return
	}

	if w.internalTechs > 0 {
		share := w.hours * float64(w.internalTechs) / float64(techs)
		c.internal = append(c.internal, types.CostLineItem{
			Label:   "On-site labour",
			Value:   hoursCost(share, c.rates.InternalHourlyRate),
			Details: fmt.Sprintf("%.1fh x €%s", share, c.rates.InternalHourlyRate),
			Bold:    true,
		})
		c.internal = append(c.internal, c.internalTravel(w.internalTechs)...)
	}

	if w.externalTechs > 0 {
		share := w.hours * float64(w.externalTechs) / float64(techs)
		c.external = append(c.external, types.CostLineItem{
			Label:   "External labour",
			Value:   hoursCost(share, c.rates.ExternalHourlyRate),
			Details: fmt.Sprintf("%.1fh x €%s", share, c.rates.ExternalHourlyRate),
			Bold:    true,
		})
		c.external = append(c.external, c.externalTravel(w.externalTechs)...)
	}
}

func (c *calculation) allocateSupportCrew() {
	w := c.work
	if w.internalTechs == 0 {
		return
	}
	c.internal = append(c.internal, types.CostLineItem{
		Label:   "On-site labour",
		Value:   hoursCost(w.hours, c.rates.InternalHourlyRate),
		Details: fmt.Sprintf("%gh total (%d days x %gh x %d techs) x €%s", w.hours, w.workDays, w.dailyHours, w.internalTechs, c.rates.InternalHourlyRate),
		Bold:    true,
	})
	c.internal = append(c.internal, c.internalTravel(w.internalTechs)...)
}

// internalTravel bills paid travel time and travel expenses for the internal crew
func (c *calculation) internalTravel(techs int) []types.CostLineItem {
	var items []types.CostLineItem
	t := c.travel
	trips := roundTrips(t.trasferta, c.days)
	nights := hotelNights(c.days, c.schedule.extraNight)

	travelHours := t.oneWayHours * 2 * float64(trips) * float64(techs)
	if travelHours > 0 {
		items = append(items, types.CostLineItem{
			Label:   "Paid travel hours",
			Value:   hoursCost(travelHours, c.rates.InternalHourlyRate),
			Details: fmt.Sprintf("%.1fh (%d round trips x %d techs)", travelHours, trips, techs),
		})
	}

	if t.publicTransport {
		items = append(items, types.CostLineItem{
			Label:   "Public transport tickets (round trip)",
			Value:   t.ticketPerPerson.Mul(count(techs * trips)),
			Details: fmt.Sprintf("%d round trips x %d techs", trips, techs),
		})
		items = append(items, types.CostLineItem{
			Label:   "Local transport",
			Value:   localTransportPerDay.Mul(count(c.days)),
			Details: fmt.Sprintf("%d days", c.days),
		})
		items = appendHotel(items, "Crew hotel", nights, techs, t.hotelPerNight, c.schedule.extraNight)
		items = append(items, perDiem("Per-diem", techs, c.days, c.rates.InternalPerDiem))
		return items
	}

	km := vanKm(t, c.days, trips)
	if km > 0 {
		items = append(items, types.CostLineItem{
			Label:   "Van fuel",
			Value:   fuelCost(km, c.rates),
			Details: fmt.Sprintf("%.0f km estimated", km),
		})
		items = append(items, types.CostLineItem{
			Label: "Vehicle wear & tolls",
			Value: wearAndTolls(km, c.rates),
		})
	}
	if c.in.Logistics.IsIsland && c.in.Logistics.FerryCostVan.IsPositive() && trips > 0 {
		items = append(items, types.CostLineItem{
			Label:   "Van ferry",
			Value:   c.in.Logistics.FerryCostVan.Mul(count(trips)),
			Details: fmt.Sprintf("%d round trips", trips),
		})
	}
	if t.trasferta {
		items = appendHotel(items, "Crew hotel", nights, techs, t.hotelPerNight, c.schedule.extraNight)
		items = append(items, perDiem("Per-diem", techs, c.days, c.rates.InternalPerDiem))
	}
	return items
}

// externalTravel applies the external crew reimbursement policy.
// Per-diem is always paid; hotel nights and tickets only under full reimbursement.
func (c *calculation) externalTravel(techs int) []types.CostLineItem {
	items := []types.CostLineItem{perDiem("External per-diem", techs, c.days, c.rates.ExternalPerDiem)}
	if c.rates.ExternalPolicy != types.ExternalFullReimbursement {
		return items
	}

	t := c.travel
	if t.publicTransport {
		trips := roundTrips(t.trasferta, c.days)
		items = append(items, types.CostLineItem{
			Label:   "External public transport tickets",
			Value:   t.ticketPerPerson.Mul(count(techs * trips)),
			Details: fmt.Sprintf("%d round trips x %d techs", trips, techs),
		})
	}
	if t.trasferta || t.publicTransport {
		items = appendHotel(items, "External crew hotel", hotelNights(c.days, c.schedule.extraNight), techs, t.hotelPerNight, c.schedule.extraNight)
	}
	return items
}

func appendHotel(items []types.CostLineItem, label string, nights, techs int, perNight decimal.Decimal, extraNight bool) []types.CostLineItem {
	value := perNight.Mul(count(nights * techs))
	if !value.IsPositive() {
		return items
	}
	details := fmt.Sprintf("%d nights x %d techs", nights, techs)
	if extraNight {
		details += " (includes late-return night)"
	}
	return append(items, types.CostLineItem{Label: label, Value: value, Details: details})
}

func perDiem(label string, techs, days int, rate decimal.Decimal) types.CostLineItem {
	return types.CostLineItem{
		Label:   label,
		Value:   rate.Mul(count(techs * days)),
		Details: fmt.Sprintf("%d days x %d techs", days, techs),
	}
}

// hoursCost prices float hours at an hourly rate, rounded to the cent
func hoursCost(hours float64, rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(hours).Mul(rate).Round(2)
}

func count(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

// fuelCost is km / (km per litre) x price per litre; zero without a fuel economy figure
func fuelCost(km float64, rates types.RateConfig) decimal.Decimal {
	if rates.VanKmPerLitre <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(km).Mul(rates.FuelPricePerLitre).Div(decimal.NewFromFloat(rates.VanKmPerLitre))
}

func wearAndTolls(km float64, rates types.RateConfig) decimal.Decimal {
	return decimal.NewFromFloat(km).Mul(rates.VehicleWearPerKm.Add(tollsPerKm))
}
