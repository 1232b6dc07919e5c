package engine

import (
	"fmt"
	"strings"

	"opticost/core/types"
)

// effectiveForklift is the forklift availability used for billing.
// A crane truck delivering ballast unloads it itself, so no rental is needed.
// Tier selection never reads the forklift flag, so this single evaluation is
// the fixed point: recomputing with the result as input yields the same result.
func effectiveForklift(clientHasForklift bool, tier types.VehicleKind, ballastCount int) bool {
	return clientHasForklift || (tier == types.VehicleCraneTruck && ballastCount > 0)
}

// billForklift bills the base rental plus a fee for every day beyond the fifth
func (c *calculation) billForklift(available bool) {
	if available {
		return
	}
	extraDays := c.days - forkliftIncludedDays
	if extraDays < 0 {
		extraDays = 0
	}
	c.equipment = append(c.equipment, types.CostLineItem{
		Label:   "Forklift rental",
		Value:   c.rates.ForkliftBaseCost.Add(c.rates.ForkliftExtraDay.Mul(count(extraDays))),
		Details: fmt.Sprintf("base + %d extra days", extraDays),
	})
}

// billExtras lists user-entered costs verbatim
func (c *calculation) billExtras() {
	for _, extra := range c.in.ExtraCosts {
		label := strings.TrimSpace(extra.Label)
		if label == "" {
			label = "Extra cost"
		}
		c.extras = append(c.extras, types.CostLineItem{Label: label, Value: extra.Amount})
	}
}
