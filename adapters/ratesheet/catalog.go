package ratesheet

import (
	"regexp"
	"strconv"
	"strings"

	"opticost/core/types"
	"opticost/internal/errors"
)

// Catalog column headers, compared upper-cased
const (
	colName          = "MODELLO_STRUTTURA"
	colWeight        = "KG"
	colStructure     = "ORE_INSTALLAZIONE_1PA"
	colPhotovoltaic  = "ORE_INSTALLAZIONE_1PA_PF"
	colTarp          = "ORE_INSTALLAZIONE_PANNELLI_TELO_TENSIONATO"
	colInsulated     = "ORE_INSTALLAZIONE_PANNELLI_COIBENTATI"
	colMaxVan        = "MAX_PA_FURGONE"
	colMaxCrane      = "MAX_PA_CAMION_GRU"
	colMaxArticulate = "MAX_PA_BILICO"
)

// Defaults applied to models whose sheet leaves these hours empty
const (
	defaultTarpHours = 1.0
	defaultLEDHours  = 0.5
)

var firstInteger = regexp.MustCompile(`\d+`)

// DefaultBallast is used when the catalog lists no ballast
var DefaultBallast = types.BallastData{Name: "Zavorra Standard", WeightKg: 60}

// Catalog is the parsed model and ballast catalog
type Catalog struct {
	Models   []types.ModelData   `json:"models"`
	Ballasts []types.BallastData `json:"ballasts"`
}

// Model finds a model by case-insensitive name; unknown or empty names fall
// back to the first model. The boolean is false only for an empty catalog.
func (c Catalog) Model(name string) (types.ModelData, bool) {
	if len(c.Models) == 0 {
		return types.ModelData{}, false
	}
	for _, m := range c.Models {
		if strings.EqualFold(strings.TrimSpace(m.Name), strings.TrimSpace(name)) {
			return m, true
		}
	}
	return c.Models[0], true
}

// HasModel reports whether the catalog lists the model by name
func (c Catalog) HasModel(name string) bool {
	for _, m := range c.Models {
		if strings.EqualFold(strings.TrimSpace(m.Name), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

// Ballast finds a ballast by case-insensitive name, falling back to the first entry
func (c Catalog) Ballast(name string) (types.BallastData, bool) {
	if len(c.Ballasts) == 0 {
		return types.BallastData{}, false
	}
	for _, b := range c.Ballasts {
		if strings.EqualFold(strings.TrimSpace(b.Name), strings.TrimSpace(name)) {
			return b, true
		}
	}
	return c.Ballasts[0], true
}

// ParseCatalog reads the catalog sheet. Rows whose name contains "zavorra" are
// ballasts; all other named rows are structure models.
func ParseCatalog(rows [][]string) (Catalog, error) {
	if len(rows) < 1 {
		return Catalog{}, errors.Parsing("catalog sheet is empty", nil)
	}

	idx := headerIndex(rows[0])
	nameIdx := idx(colName)
	if nameIdx < 0 {
		nameIdx = 0
	}
	ledIdx := -1
	for i, h := range rows[0] {
		upper := strings.ToUpper(h)
		if strings.Contains(upper, "LED") || strings.Contains(upper, "ILLUMINAZIONE") {
			ledIdx = i
			break
		}
	}

	get := func(row []string, column string) float64 {
		return ParseNumber(cell(row, idx(column)))
	}

	var catalog Catalog
	for _, row := range rows[1:] {
		name := cell(row, nameIdx)
		if name == "" {
			continue
		}

		if strings.Contains(strings.ToLower(name), "zavorra") {
			weight := get(row, colWeight)
			if weight == 0 {
				weight = weightFromName(name)
			}
			catalog.Ballasts = append(catalog.Ballasts, types.BallastData{Name: name, WeightKg: weight})
			continue
		}

		model := types.ModelData{
			Name:                     name,
			StructureWeightPerSpot:   get(row, colWeight),
			StructureHoursPerSpot:    get(row, colStructure),
			PhotovoltaicHoursPerSpot: get(row, colPhotovoltaic),
			TarpHoursPerSpot:         get(row, colTarp),
			InsulatedHoursPerSpot:    get(row, colInsulated),
			LEDHoursPerSpot:          ParseNumber(cell(row, ledIdx)),
			MaxSpotsVan:              ParseInt(cell(row, idx(colMaxVan))),
			MaxSpotsCraneTruck:       ParseInt(cell(row, idx(colMaxCrane))),
			MaxSpotsArticulated:      ParseInt(cell(row, idx(colMaxArticulate))),
		}
		if model.TarpHoursPerSpot == 0 {
			model.TarpHoursPerSpot = defaultTarpHours
		}
		if model.LEDHoursPerSpot == 0 {
			model.LEDHoursPerSpot = defaultLEDHours
		}
		catalog.Models = append(catalog.Models, model)
	}

	if len(catalog.Ballasts) == 0 {
		catalog.Ballasts = []types.BallastData{DefaultBallast}
	}
	return catalog, nil
}

// headerIndex returns an exact, case-insensitive column lookup
func headerIndex(header []string) func(string) int {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToUpper(strings.TrimSpace(h))
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}
	return func(column string) int {
		if i, ok := positions[column]; ok {
			return i
		}
		return -1
	}
}

// weightFromName reads "Zavorra 80kg" as 80; numbers of 10 or less are ignored
func weightFromName(name string) float64 {
	m := firstInteger.FindString(name)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil || n <= 10 {
		return 0
	}
	return float64(n)
}
