package ratesheet

import (
	"regexp"
	"strconv"
	"strings"

	"opticost/core/types"
	"opticost/internal/errors"
)

var (
	spotRange = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)
	spotAbove = regexp.MustCompile(`>\s*(\d+)`)
	anyDigit  = regexp.MustCompile(`\d`)
)

// ParseTierLabel turns a price column header into a typed tier without a price.
// "Camion gru 10-20" covers 10..20 spots, "Bilico > 15" covers 16 and more,
// and a label without digits is the vehicle's generic price.
func ParseTierLabel(label string) types.VehicleTier {
	lower := strings.ToLower(strings.TrimSpace(label))
	tier := types.VehicleTier{Label: strings.TrimSpace(label), Vehicle: vehicleOf(lower)}

	if m := spotRange.FindStringSubmatch(lower); m != nil {
		tier.Ranged = true
		tier.Bounded = true
		tier.MinSpots, _ = strconv.Atoi(m[1])
		tier.MaxSpots, _ = strconv.Atoi(m[2])
		return tier
	}
	if m := spotAbove.FindStringSubmatch(lower); m != nil {
		above, _ := strconv.Atoi(m[1])
		tier.Ranged = true
		tier.MinSpots = above + 1
		return tier
	}
	tier.Generic = !anyDigit.MatchString(lower)
	return tier
}

func vehicleOf(label string) types.VehicleKind {
	switch {
	case strings.Contains(label, "gru"):
		return types.VehicleCraneTruck
	case strings.Contains(label, "bilico"):
		return types.VehicleArticulated
	case strings.Contains(label, "furgone"):
		return types.VehicleVan
	default:
		return types.VehicleOther
	}
}

// ParseTransport reads the region transport sheet. The header must name the
// "regione" and/or "provincia" columns; every other named column is a vehicle tier.
// Only positive prices are kept, and rows without region and province are skipped.
func ParseTransport(rows [][]string) ([]types.TransportRate, error) {
	if len(rows) < 1 {
		return nil, errors.Parsing("transport sheet is empty", nil)
	}

	header := rows[0]
	regionIdx, provinceIdx := -1, -1
	for i, h := range header {
		lower := strings.ToLower(h)
		if regionIdx < 0 && strings.Contains(lower, "regione") {
			regionIdx = i
		} else if provinceIdx < 0 && strings.Contains(lower, "provincia") {
			provinceIdx = i
		}
	}
	if regionIdx < 0 && provinceIdx < 0 {
		return nil, errors.Parsing("transport sheet has no regione or provincia column", nil)
	}

	type column struct {
		idx  int
		tier types.VehicleTier
	}
	var columns []column
	for i, h := range header {
		if i == regionIdx || i == provinceIdx || h == "" {
			continue
		}
		columns = append(columns, column{idx: i, tier: ParseTierLabel(h)})
	}

	rates := make([]types.TransportRate, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rate := types.TransportRate{
			Region:   cell(row, regionIdx),
			Province: cell(row, provinceIdx),
		}
		if rate.Region == "" && rate.Province == "" {
			continue
		}
		for _, col := range columns {
			price := ParseDecimal(cell(row, col.idx))
			if !price.IsPositive() {
				continue
			}
			tier := col.tier
			tier.Price = price
			rate.Tiers = append(rate.Tiers, tier)
		}
		rates = append(rates, rate)
	}
	return rates, nil
}
