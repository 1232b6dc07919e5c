package ratesheet

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"opticost/core/types"
	"opticost/internal/errors"
)

var discountThreshold = regexp.MustCompile(`>\s*(\d+)`)

// variableSetters maps a key fragment to the field it sets. Keys are matched by
// substring, so "costo_medio_gasolio_euro_litro" sets the fuel price. A key may
// match several fragments of the same field.
var variableSetters = []struct {
	fragment string
	set      func(r *types.RateConfig, v decimal.Decimal)
}{
	{"distanza_trasferta", func(r *types.RateConfig, v decimal.Decimal) { r.TravelThresholdKm = v.InexactFloat64() }},
	{"diaria_interna", func(r *types.RateConfig, v decimal.Decimal) { r.InternalPerDiem = v }},
	{"diaria_squadra_interna", func(r *types.RateConfig, v decimal.Decimal) { r.InternalPerDiem = v }},
	{"diaria_esterna", func(r *types.RateConfig, v decimal.Decimal) { r.ExternalPerDiem = v }},
	{"diaria_squadra_esterna", func(r *types.RateConfig, v decimal.Decimal) { r.ExternalPerDiem = v }},
	{"km_litro", func(r *types.RateConfig, v decimal.Decimal) { r.VanKmPerLitre = v.InexactFloat64() }},
	{"km_per_litro", func(r *types.RateConfig, v decimal.Decimal) { r.VanKmPerLitre = v.InexactFloat64() }},
	{"gasolio", func(r *types.RateConfig, v decimal.Decimal) { r.FuelPricePerLitre = v }},
	{"usura", func(r *types.RateConfig, v decimal.Decimal) { r.VehicleWearPerKm = v }},
	{"orario_interno", func(r *types.RateConfig, v decimal.Decimal) { r.InternalHourlyRate = v }},
	{"orario_tecnico_interno", func(r *types.RateConfig, v decimal.Decimal) { r.InternalHourlyRate = v }},
	{"orario_esterna", func(r *types.RateConfig, v decimal.Decimal) { r.ExternalHourlyRate = v }},
	{"orario_squadra_esterna", func(r *types.RateConfig, v decimal.Decimal) { r.ExternalHourlyRate = v }},
	{"margine", func(r *types.RateConfig, v decimal.Decimal) { r.MarginPercent = v }},
	{"muletto_base", func(r *types.RateConfig, v decimal.Decimal) { r.ForkliftBaseCost = v }},
	{"muletto_extra", func(r *types.RateConfig, v decimal.Decimal) { r.ForkliftExtraDay = v }},
}

// ParseVariables reads the two-column key/value variables sheet.
// Missing keys keep their defaults. The standard daily hours are never read
// from the sheet. Rows like "sconto ore per >150 posti auto (%)" become
// discount tiers, sorted by descending threshold.
func ParseVariables(rows [][]string) (types.RateConfig, error) {
	rates := types.DefaultRateConfig()
	if len(rows) == 0 {
		return rates, errors.Parsing("variables sheet is empty", nil)
	}

	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(row[0]))
		if key == "" {
			continue
		}
		value := ParseDecimal(row[1])

		for _, setter := range variableSetters {
			if strings.Contains(key, setter.fragment) {
				setter.set(&rates, value)
			}
		}

		if strings.Contains(key, "sconto ore") && strings.Contains(key, "posti") {
			if m := discountThreshold.FindStringSubmatch(key); m != nil {
				threshold, _ := strconv.Atoi(m[1])
				rates.DiscountTiers = append(rates.DiscountTiers, types.DiscountTier{
					Threshold:  threshold,
					Percentage: value.InexactFloat64(),
				})
			}
		}
	}

	sort.SliceStable(rates.DiscountTiers, func(i, j int) bool {
		return rates.DiscountTiers[i].Threshold > rates.DiscountTiers[j].Threshold
	})
	return rates, nil
}
