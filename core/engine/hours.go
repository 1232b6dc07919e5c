package engine

import (
	"math"

	"opticost/core/types"
)

// workload is the labour sizing of a job
type workload struct {
	// hours are the man-hours after discount
	hours        float64
	discountPerc float64
	dailyHours   float64

	internalTechs int
	externalTechs int

	// workDays excludes a lost travel day
	workDays int
}

func (w workload) techs() int {
	return w.internalTechs + w.externalTechs
}

// discountFor returns the tier with the highest threshold strictly below spots.
// The result does not depend on the order of tiers.
func discountFor(tiers []types.DiscountTier, spots int) (types.DiscountTier, bool) {
	var best types.DiscountTier
	found := false
	for _, tier := range tiers {
		if spots <= tier.Threshold {
			continue
		}
		if !found || tier.Threshold > best.Threshold {
			best = tier
			found = true
		}
	}
	return best, found
}

// requiredWorkDays is ceil(hours / (dailyHours x techs)), zero without technicians
func requiredWorkDays(hours, dailyHours float64, techs int) int {
	if techs <= 0 || dailyHours <= 0 || hours <= 0 {
		return 0
	}
	return int(math.Ceil(hours / (dailyHours * float64(techs))))
}

func dailyHours(rates types.RateConfig) float64 {
	if rates.StandardDailyHours <= 0 {
		return defaultDailyHours
	}
	return rates.StandardDailyHours
}

func estimateInstallHours(in types.JobInputs, rates types.RateConfig, model types.ModelData) workload {
	spots := nonNegative(in.Spots)

	perSpot := model.StructureHoursPerSpot
	if in.Photovoltaic {
		perSpot += model.PhotovoltaicHoursPerSpot
	}
	if in.LED {
		perSpot += model.LEDHoursPerSpot
	}
	if in.Tarp {
		perSpot += model.TarpHoursPerSpot
	}
	if in.InsulatedPanels {
		perSpot += model.InsulatedHoursPerSpot
	}

	w := workload{
		hours:         perSpot * float64(spots),
		dailyHours:    dailyHours(rates),
		internalTechs: in.ActiveInternalTechs(),
		externalTechs: in.ActiveExternalTechs(),
	}
	if tier, ok := discountFor(rates.DiscountTiers, spots); ok {
		w.discountPerc = tier.Percentage
		w.hours = w.hours * (100 - tier.Percentage) / 100
	}
	w.workDays = requiredWorkDays(w.hours, w.dailyHours, w.techs())
	return w
}

// estimateSupportHours sizes a support visit: days x daily hours x technicians.
// Support visits use the internal crew only and get no volume discount.
// A visit without technicians has no days.
func estimateSupportHours(in types.JobInputs, rates types.RateConfig) workload {
	techs := nonNegative(in.SupportTechnicians)
	w := workload{
		dailyHours:    dailyHours(rates),
		internalTechs: techs,
	}
	if techs > 0 {
		w.workDays = nonNegative(in.SupportDays)
	}
	w.hours = float64(w.workDays) * w.dailyHours * float64(techs)
	return w
}
