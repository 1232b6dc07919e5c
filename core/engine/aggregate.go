package engine

import (
	"github.com/shopspring/decimal"

	"opticost/core/types"
)

// SellPrice applies the margin multiplier (1 + margin/100) without rounding
func SellPrice(totalCost, marginPercent decimal.Decimal) decimal.Decimal {
	return totalCost.Mul(decimal.NewFromInt(1).Add(marginPercent.Shift(-2)))
}

func (c *calculation) aggregate(s shipment, forklift bool) types.QuoteResult {
	installation := types.SumItems(c.internal).Add(types.SumItems(c.external))
	transport := types.SumItems(c.transport)
	equipment := types.SumItems(c.equipment)
	extras := types.SumItems(c.extras)
	total := installation.Add(transport).Add(equipment).Add(extras)

	general := make([]types.CostLineItem, 0, len(c.transport)+len(c.equipment))
	general = append(general, c.transport...)
	general = append(general, c.equipment...)

	return types.QuoteResult{
		TotalCost:     total,
		SellPrice:     SellPrice(total, c.rates.MarginPercent),
		MarginPercent: c.rates.MarginPercent,
		Currency:      types.CurrencyEUR,

		InternalTeamCosts:     c.internal,
		ExternalTeamCosts:     c.external,
		GeneralLogisticsCosts: general,
		ExtraCostItems:        c.extras,

		InstallationTotal: installation,
		TransportTotal:    transport,
		EquipmentTotal:    equipment,
		ExtraCostsTotal:   extras,

		TotalWeight:     c.weight.total,
		StructureWeight: c.weight.structure,
		BallastCount:    c.weight.ballastCount,
		BallastWeight:   c.weight.ballast,

		TotalHours:          c.work.hours,
		TotalDays:           c.days,
		DiscountAppliedPerc: c.work.discountPerc,

		LostTravelDay:    c.schedule.lostDay,
		ExtraReturnNight: c.schedule.extraNight,
		Schedule:         c.schedule.narrative,

		TransportMethod: s.method,
		TransportTier:   s.tier,
		TruckCount:      s.trucks,

		ForkliftAvailable:       forklift,
		ForkliftProvidedByCrane: forklift && !c.in.ClientHasForklift,
	}
}
