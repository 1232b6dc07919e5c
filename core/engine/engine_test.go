package engine

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"opticost/core/types"
)

func testRates() types.RateConfig {
	r := types.DefaultRateConfig()
	r.VanKmPerLitre = 10
	r.DiscountTiers = []types.DiscountTier{
		{Threshold: 20, Percentage: 10},
		{Threshold: 10, Percentage: 5},
	}
	return r
}

func testModel() types.ModelData {
	return types.ModelData{
		Name:                     "Solar Carport",
		StructureWeightPerSpot:   250,
		StructureHoursPerSpot:    10,
		PhotovoltaicHoursPerSpot: 2,
		TarpHoursPerSpot:         1,
		LEDHoursPerSpot:          0.5,
		InsulatedHoursPerSpot:    1.5,
	}
}

func testBallast() *types.BallastData {
	return &types.BallastData{Name: "Zavorra 60kg", WeightKg: 60}
}

func fetched(distanceKm, driveMinutes float64) types.LogisticsData {
	return types.LogisticsData{
		DistanceKm:           distanceKm,
		DriveDurationMinutes: driveMinutes,
		Fetched:              true,
	}
}

func installJob(spots, internalTechs int) types.JobInputs {
	return types.JobInputs{
		Service:          types.ServiceFullInstall,
		Address:          "Via Roma 1, 20100 Milano MI",
		Logistics:        types.UnfetchedLogistics(),
		Spots:            spots,
		UseInternalTechs: internalTechs > 0,
		InternalTechs:    internalTechs,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func findItem(items []types.CostLineItem, label string) (types.CostLineItem, bool) {
	for _, item := range items {
		if item.Label == label {
			return item, true
		}
	}
	return types.CostLineItem{}, false
}

func assertItem(t *testing.T, items []types.CostLineItem, label, want string) {
	t.Helper()
	item, ok := findItem(items, label)
	if !ok {
		t.Fatalf("missing line item %q in %+v", label, items)
	}
	if !item.Value.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", label, item.Value, want)
	}
}

func TestCompute_DailyCommuteCraneTruck(t *testing.T) {
	in := installJob(4, 2)
	in.Logistics = fetched(50, 60)

	got := Compute(in, testRates(), nil, testModel(), nil)

	if got.TransportTier != types.VehicleCraneTruck {
		t.Fatalf("expected crane truck, got %s", got.TransportTier)
	}
	if got.TotalHours != 40 || got.TotalDays != 3 {
		t.Errorf("hours/days = %v/%d, want 40/3", got.TotalHours, got.TotalDays)
	}
	if got.LostTravelDay || got.ExtraReturnNight {
		t.Errorf("unexpected schedule flags: lost=%v extra=%v", got.LostTravelDay, got.ExtraReturnNight)
	}

	assertItem(t, got.InternalTeamCosts, "On-site labour", "1000")
	assertItem(t, got.InternalTeamCosts, "Paid travel hours", "300")
	assertItem(t, got.InternalTeamCosts, "Van fuel", "54")
	assertItem(t, got.InternalTeamCosts, "Vehicle wear & tolls", "47.1")
	if _, ok := findItem(got.InternalTeamCosts, "Crew hotel"); ok {
		t.Error("daily commute must not bill a hotel")
	}

	assertItem(t, got.GeneralLogisticsCosts, "Crane truck hire", "1300")
	assertItem(t, got.GeneralLogisticsCosts, "Crane unloading surcharge", "100")
	assertItem(t, got.GeneralLogisticsCosts, "Crane truck driver logistics", "50")
	assertItem(t, got.GeneralLogisticsCosts, "Forklift rental", "700")

	if !got.TotalCost.Equal(dec("3551.1")) {
		t.Errorf("TotalCost = %s, want 3551.1", got.TotalCost)
	}
	if !got.SellPrice.Equal(dec("4438.875")) {
		t.Errorf("SellPrice = %s, want 4438.875", got.SellPrice)
	}
}

func TestCompute_LostTravelDay(t *testing.T) {
	in := installJob(4, 2)
	in.Logistics = fetched(700, 480)
	in.ClientHasForklift = true

	got := Compute(in, testRates(), nil, testModel(), nil)

	if !got.LostTravelDay {
		t.Fatal("arrival at 15:00 should lose the travel day")
	}
	// 40h over 16 crew-hours a day = 3 working days, plus the travel day
	if got.TotalDays != 4 {
		t.Errorf("TotalDays = %d, want 4", got.TotalDays)
	}
	// last day: 08:00 + 4h = 12:00, back at 20:00
	if !got.ExtraReturnNight {
		t.Error("return at 20:00 should add an extra night")
	}
	assertItem(t, got.InternalTeamCosts, "Crew hotel", "960")
	assertItem(t, got.InternalTeamCosts, "Per-diem", "400")
	// one round trip of 16h for two technicians
	assertItem(t, got.InternalTeamCosts, "Paid travel hours", "800")
	if len(got.Schedule) == 0 {
		t.Error("expected a schedule narrative")
	}
}

func TestCompute_SameDayExtraReturnNight(t *testing.T) {
	in := installJob(1, 1)
	in.Logistics = fetched(120, 180)
	model := testModel()
	model.StructureHoursPerSpot = 8

	got := Compute(in, testRates(), nil, model, nil)

	// arrive 10:00, work 8h until 18:00, back at 21:00
	if got.TotalDays != 1 || got.LostTravelDay {
		t.Fatalf("days=%d lost=%v, want 1/false", got.TotalDays, got.LostTravelDay)
	}
	if !got.ExtraReturnNight {
		t.Error("expected extra return night")
	}
	want := []string{
		"Day 1: depart 07:00, arrive on site 10:00, work starts.",
		"Last day: work ends at 18:00, back at headquarters at 21:00.",
		"Return after 19:00: one extra hotel night included.",
	}
	if !reflect.DeepEqual(got.Schedule, want) {
		t.Errorf("Schedule = %q, want %q", got.Schedule, want)
	}
}

func TestCompute_ZeroTechnicians(t *testing.T) {
	in := installJob(6, 0)
	in.Logistics = fetched(700, 480)

	got := Compute(in, testRates(), nil, testModel(), nil)

	if got.TotalDays != 0 {
		t.Errorf("TotalDays = %d, want 0", got.TotalDays)
	}
	if !got.InstallationTotal.IsZero() {
		t.Errorf("InstallationTotal = %s, want 0", got.InstallationTotal)
	}
	if len(got.InternalTeamCosts) != 0 || len(got.ExternalTeamCosts) != 0 {
		t.Errorf("expected no crew items, got %+v / %+v", got.InternalTeamCosts, got.ExternalTeamCosts)
	}
}

func TestCompute_VanRejectedAboveThreeSpots(t *testing.T) {
	in := installJob(4, 2)
	model := testModel()
	model.StructureWeightPerSpot = 100

	got := Compute(in, testRates(), nil, model, nil)

	if got.TotalWeight >= vanWeightLimitKg {
		t.Fatalf("fixture weight %v should be below the van limit", got.TotalWeight)
	}
	if got.TransportTier != types.VehicleCraneTruck {
		t.Errorf("tier = %s, want crane truck", got.TransportTier)
	}
}

func TestCompute_BallastTenSpots(t *testing.T) {
	in := installJob(10, 2)
	in.BallastEnabled = true

	got := Compute(in, testRates(), nil, testModel(), testBallast())

	if got.BallastCount != 6 {
		t.Errorf("BallastCount = %d, want 6", got.BallastCount)
	}
	if got.BallastWeight != 360 {
		t.Errorf("BallastWeight = %v, want 360", got.BallastWeight)
	}
	if got.TotalWeight != got.StructureWeight+got.BallastWeight {
		t.Errorf("TotalWeight %v != %v + %v", got.TotalWeight, got.StructureWeight, got.BallastWeight)
	}
	// 6 ballasts x 20 min = 2h extra
	assertItem(t, got.GeneralLogisticsCosts, "Ballast unloading surcharge", "200")
}

func TestCompute_ForkliftProvidedByCrane(t *testing.T) {
	in := installJob(10, 2)
	in.BallastEnabled = true
	in.ClientHasForklift = false

	first := Compute(in, testRates(), nil, testModel(), testBallast())
	if !first.ForkliftAvailable || !first.ForkliftProvidedByCrane {
		t.Fatalf("crane truck with ballast should provide the forklift: %+v", first)
	}
	if !first.EquipmentTotal.IsZero() {
		t.Errorf("EquipmentTotal = %s, want 0", first.EquipmentTotal)
	}

	// feeding the effective flag back in must not change the quote
	in.ClientHasForklift = first.ForkliftAvailable
	second := Compute(in, testRates(), nil, testModel(), testBallast())
	if !second.TotalCost.Equal(first.TotalCost) || second.TransportTier != first.TransportTier {
		t.Errorf("recomputation changed the quote: %s/%s vs %s/%s",
			first.TotalCost, first.TransportTier, second.TotalCost, second.TransportTier)
	}
	if in.ClientHasForklift != second.ForkliftAvailable {
		t.Error("forklift flag is not a fixed point")
	}
}

func TestCompute_ForkliftExtraDays(t *testing.T) {
	in := installJob(8, 1)

	got := Compute(in, testRates(), nil, testModel(), nil)

	// 80h / 8h = 10 days, 5 beyond the included week
	if got.TotalDays != 10 {
		t.Fatalf("TotalDays = %d, want 10", got.TotalDays)
	}
	assertItem(t, got.GeneralLogisticsCosts, "Forklift rental", "1300")
	if !got.EquipmentTotal.Equal(dec("1300")) {
		t.Errorf("EquipmentTotal = %s, want 1300", got.EquipmentTotal)
	}
}

func TestCompute_CraneDriverLateReturn(t *testing.T) {
	cases := map[string]struct {
		driveMinutes float64
		want         string
		details      string
	}{
		"back at 19:00":    {360, "50", "per-diem, back at 19:00"},
		"back after 19:00": {361, "190", "per-diem + hotel, back at 19:02"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := installJob(4, 2)
			in.ClientHasForklift = true
			in.Logistics = fetched(500, tc.driveMinutes)
			in.Logistics.AvgHotelPrice = dec("90")

			got := Compute(in, testRates(), nil, testModel(), nil)

			if got.TransportTier != types.VehicleCraneTruck {
				t.Fatalf("tier = %s, want crane truck", got.TransportTier)
			}
			// 06:00 departure, two drives and one hour unloading
			assertItem(t, got.GeneralLogisticsCosts, "Crane truck driver logistics", tc.want)
			item, _ := findItem(got.GeneralLogisticsCosts, "Crane truck driver logistics")
			if item.Details != tc.details {
				t.Errorf("details = %q, want %q", item.Details, tc.details)
			}
		})
	}
}

func TestCompute_IslandFerries(t *testing.T) {
	in := installJob(4, 2)
	in.ClientHasForklift = true
	in.Logistics = fetched(300, 180)
	in.Logistics.IsIsland = true
	in.Logistics.FerryCostVan = dec("80")
	in.Logistics.FerryCostTruck = dec("300")

	got := Compute(in, testRates(), nil, testModel(), nil)

	if got.TransportTier != types.VehicleCraneTruck {
		t.Fatalf("tier = %s, want crane truck", got.TransportTier)
	}
	assertItem(t, got.InternalTeamCosts, "Van ferry", "80")
	van, _ := findItem(got.InternalTeamCosts, "Van ferry")
	if van.Details != "1 round trips" {
		t.Errorf("van ferry details = %q", van.Details)
	}
	assertItem(t, got.GeneralLogisticsCosts, "Truck ferry (round trip)", "300")
	// hire 1300 + unloading 100 + driver per-diem 50 + ferry 300
	if !got.TransportTotal.Equal(dec("1750")) {
		t.Errorf("TransportTotal = %s, want 1750", got.TransportTotal)
	}

	in.Logistics.IsIsland = false
	mainland := Compute(in, testRates(), nil, testModel(), nil)
	if _, ok := findItem(mainland.InternalTeamCosts, "Van ferry"); ok {
		t.Error("mainland job billed a van ferry")
	}
	if _, ok := findItem(mainland.GeneralLogisticsCosts, "Truck ferry (round trip)"); ok {
		t.Error("mainland job billed a truck ferry")
	}
}

func TestCompute_TravelHoursRoundedToCents(t *testing.T) {
	in := installJob(1, 1)
	in.ClientHasForklift = true
	in.Logistics = fetched(80, 100)

	got := Compute(in, testRates(), nil, testModel(), nil)

	// 10h over 8h days = 2 commutes of 2 x 100 min at 25/h = 166.666...
	assertItem(t, got.InternalTeamCosts, "Paid travel hours", "166.67")
	item, _ := findItem(got.InternalTeamCosts, "Paid travel hours")
	if item.Value.String() != "166.67" {
		t.Errorf("Paid travel hours = %s, want 166.67", item.Value)
	}
}

func TestCompute_SupportWithoutTechnicians(t *testing.T) {
	in := types.JobInputs{
		Service:     types.ServiceSupport,
		Logistics:   fetched(50, 60),
		SupportDays: 8,
	}

	got := Compute(in, testRates(), nil, testModel(), nil)

	if got.TotalDays != 0 || got.TotalHours != 0 {
		t.Errorf("hours/days = %v/%d, want 0/0", got.TotalHours, got.TotalDays)
	}
	if !got.InstallationTotal.IsZero() || len(got.InternalTeamCosts) != 0 {
		t.Errorf("expected no crew cost, got %s %+v", got.InstallationTotal, got.InternalTeamCosts)
	}
	// no days on site, so no forklift days beyond the base rental
	assertItem(t, got.GeneralLogisticsCosts, "Forklift rental", "700")
}

func TestCompute_SupportVisit(t *testing.T) {
	in := types.JobInputs{
		Service:            types.ServiceSupport,
		Logistics:          fetched(50, 60),
		SupportDays:        2,
		SupportTechnicians: 2,
		ClientHasForklift:  true,
		ExternalTechs:      3,
		UseExternalTechs:   true,
	}

	got := Compute(in, testRates(), nil, testModel(), nil)

	if got.TotalHours != 32 || got.TotalDays != 2 {
		t.Errorf("hours/days = %v/%d, want 32/2", got.TotalHours, got.TotalDays)
	}
	if got.TransportTier != types.VehicleNone || !got.TransportTotal.IsZero() {
		t.Errorf("support visits ship no material: %s %s", got.TransportTier, got.TransportTotal)
	}
	if len(got.ExternalTeamCosts) != 0 {
		t.Errorf("support visits use the internal crew only: %+v", got.ExternalTeamCosts)
	}
	assertItem(t, got.InternalTeamCosts, "On-site labour", "800")
	// daily commute: 2 trips x 2h x 2 techs
	assertItem(t, got.InternalTeamCosts, "Paid travel hours", "200")
}

func TestCompute_PublicTransport(t *testing.T) {
	in := installJob(2, 2)
	in.ClientHasForklift = true
	in.UsePublicTransport = true
	in.PublicTransportMode = types.TransportTrain
	in.Logistics = types.LogisticsData{
		DistanceKm:              600,
		DriveDurationMinutes:    360,
		TrainDurationMinutes:    180,
		LastMileDurationMinutes: 30,
		TrainPrice:              dec("90"),
		LastMilePrice:           dec("20"),
		AvgHotelPrice:           dec("100"),
		Fetched:                 true,
	}
	model := testModel()
	model.StructureWeightPerSpot = 100

	got := Compute(in, testRates(), nil, model, nil)

	// 20h / 16 = 2 days, arrival 10:30
	if got.TotalDays != 2 || got.LostTravelDay {
		t.Fatalf("days=%d lost=%v", got.TotalDays, got.LostTravelDay)
	}
	assertItem(t, got.InternalTeamCosts, "Public transport tickets (round trip)", "220")
	assertItem(t, got.InternalTeamCosts, "Local transport", "40")
	assertItem(t, got.InternalTeamCosts, "Crew hotel", "200")
	assertItem(t, got.InternalTeamCosts, "Per-diem", "200")
	if _, ok := findItem(got.InternalTeamCosts, "Van fuel"); ok {
		t.Error("public transport crews bill no van fuel")
	}

	// material still goes by van, with its own driver
	if got.TransportMethod != "Dedicated van shipment" {
		t.Errorf("TransportMethod = %q", got.TransportMethod)
	}
	// 1200 km: fuel 216 + wear & tolls 188.4 + driver 250
	assertItem(t, got.GeneralLogisticsCosts, "Dedicated shipment (van)", "654.4")
}

func TestCompute_ExternalCrewPolicy(t *testing.T) {
	in := installJob(4, 1)
	in.UseExternalTechs = true
	in.ExternalTechs = 1
	in.ClientHasForklift = true
	in.Logistics = fetched(400, 240)

	perDiemOnly := Compute(in, testRates(), nil, testModel(), nil)
	if len(perDiemOnly.ExternalTeamCosts) != 2 {
		t.Fatalf("per-diem only policy: got %+v", perDiemOnly.ExternalTeamCosts)
	}
	// 40h split evenly
	assertItem(t, perDiemOnly.ExternalTeamCosts, "External labour", "530")
	assertItem(t, perDiemOnly.InternalTeamCosts, "On-site labour", "500")

	rates := testRates()
	rates.ExternalPolicy = types.ExternalFullReimbursement
	full := Compute(in, rates, nil, testModel(), nil)
	if _, ok := findItem(full.ExternalTeamCosts, "External crew hotel"); !ok {
		t.Errorf("full reimbursement should bill the external hotel: %+v", full.ExternalTeamCosts)
	}
	if !full.TotalCost.GreaterThan(perDiemOnly.TotalCost) {
		t.Errorf("full reimbursement %s should cost more than %s", full.TotalCost, perDiemOnly.TotalCost)
	}
}

func TestCompute_ArticulatedByWeight(t *testing.T) {
	in := installJob(40, 4)
	in.Address = "Cantiere, Catania (CT), Sicilia"
	in.Logistics = fetched(1200, 720)
	in.Logistics.IsIsland = true
	in.Logistics.FerryCostTruck = dec("400")
	model := testModel()
	model.StructureWeightPerSpot = 1000

	rates := []types.TransportRate{{
		Province: "Catania",
		Region:   "Sicilia",
		Tiers: []types.VehicleTier{
			{Label: "Bilico", Vehicle: types.VehicleArticulated, Generic: true, Price: dec("2500")},
		},
	}}

	got := Compute(in, testRates(), rates, model, nil)

	if got.TransportTier != types.VehicleArticulated || got.TruckCount != 2 {
		t.Fatalf("tier=%s trucks=%d, want articulated x2", got.TransportTier, got.TruckCount)
	}
	assertItem(t, got.GeneralLogisticsCosts, "Articulated truck x2", "5000")
	assertItem(t, got.GeneralLogisticsCosts, "Articulated truck ferry (round trip)", "800")
	if !got.TransportTotal.Equal(dec("5800")) {
		t.Errorf("TransportTotal = %s, want 5800", got.TransportTotal)
	}
}

func TestCompute_ExtraCostsVerbatim(t *testing.T) {
	in := installJob(2, 1)
	in.ExtraCosts = []types.ExtraCost{
		{Label: "Scaffolding", Amount: dec("350.50")},
		{Label: " ", Amount: dec("-20")},
	}

	got := Compute(in, testRates(), nil, testModel(), nil)

	if !got.ExtraCostsTotal.Equal(dec("330.5")) {
		t.Errorf("ExtraCostsTotal = %s, want 330.5", got.ExtraCostsTotal)
	}
	if got.ExtraCostItems[1].Label != "Extra cost" {
		t.Errorf("blank label should be replaced, got %q", got.ExtraCostItems[1].Label)
	}
}

func TestCompute_Totals(t *testing.T) {
	rates := testRates()
	rates.MarginPercent = dec("17.5")

	jobs := map[string]types.JobInputs{
		"commute":  installJob(4, 2),
		"ballast":  func() types.JobInputs { j := installJob(12, 3); j.BallastEnabled = true; return j }(),
		"far":      func() types.JobInputs { j := installJob(30, 2); j.Logistics = fetched(900, 600); return j }(),
		"external": func() types.JobInputs { j := installJob(5, 0); j.UseExternalTechs = true; j.ExternalTechs = 2; return j }(),
		"support":  {Service: types.ServiceSupport, SupportDays: 3, SupportTechnicians: 1, Logistics: fetched(300, 200)},
		"empty":    {},
	}

	for name, in := range jobs {
		t.Run(name, func(t *testing.T) {
			got := Compute(in, rates, nil, testModel(), testBallast())

			sum := got.InstallationTotal.Add(got.TransportTotal).Add(got.EquipmentTotal).Add(got.ExtraCostsTotal)
			if !got.TotalCost.Equal(sum) {
				t.Errorf("TotalCost %s != sum of buckets %s", got.TotalCost, sum)
			}
			want := got.TotalCost.Mul(dec("1.175"))
			if !got.SellPrice.Equal(want) {
				t.Errorf("SellPrice %s, want %s", got.SellPrice, want)
			}
			crew := types.SumItems(got.InternalTeamCosts).Add(types.SumItems(got.ExternalTeamCosts))
			if !got.InstallationTotal.Equal(crew) {
				t.Errorf("InstallationTotal %s != crew items %s", got.InstallationTotal, crew)
			}
		})
	}
}

func TestCompute_Idempotent(t *testing.T) {
	in := installJob(12, 2)
	in.BallastEnabled = true
	in.UseExternalTechs = true
	in.ExternalTechs = 1
	in.Logistics = fetched(800, 500)
	in.ExtraCosts = []types.ExtraCost{{Label: "Permit", Amount: dec("120")}}

	first := Compute(in, testRates(), nil, testModel(), testBallast())
	second := Compute(in, testRates(), nil, testModel(), testBallast())

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("results differ:\n%s\n%s", a, b)
	}
}

func TestCompute_DoesNotMutateInputs(t *testing.T) {
	in := installJob(10, 2)
	in.BallastEnabled = true
	in.ExtraCosts = []types.ExtraCost{{Label: "Permit", Amount: dec("120")}}
	rates := testRates()
	snapshot, _ := json.Marshal(in)
	tiers := append([]types.DiscountTier(nil), rates.DiscountTiers...)

	Compute(in, rates, nil, testModel(), testBallast())

	after, _ := json.Marshal(in)
	if string(snapshot) != string(after) {
		t.Error("inputs were modified")
	}
	if !reflect.DeepEqual(tiers, rates.DiscountTiers) {
		t.Error("discount tiers were modified")
	}
}
