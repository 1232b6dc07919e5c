package ratesheet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"opticost/core/types"
	"opticost/internal/errors"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"€ 1.234,56", "1234.56"},
		{"26,5", "26.5"},
		{"0.037", "0.037"},
		{"60 kg", "60"},
		{"8,5%", "8.5"},
		{"1300", "1300"},
		{"-12,5", "-12.5"},
		{"12.", "12"},
		{"", "0"},
		{"n/a", "0"},
		{"  ", "0"},
	}
	for _, tt := range tests {
		got := ParseDecimal(tt.in)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ParseDecimal(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseVariables(t *testing.T) {
	rows := [][]string{
		{"chiave", "valore"},
		{"soglia_distanza_trasferta_km", "200"},
		{"diaria_squadra_interna", "55"},
		{"ore_lavoro_giornaliere_standard", "10"},
		{"km_per_litro_furgone", "12,5"},
		{"costo_medio_gasolio_euro_litro", "1,75"},
		{"costo_usura_mezzo_euro_km", "0,04"},
		{"costo_orario_tecnico_interno", "28"},
		{"costo_orario_squadra_esterna", "30"},
		{"margine_percentuale_installazione", "30%"},
		{"costo_noleggio_muletto_base", "€ 750"},
		{"sconto ore per >10 posti auto (%)", "5"},
		{"sconto ore per >50 posti auto (%)", "12"},
		{"sconto ore per >20 posti auto (%)", "8"},
		{"solo chiave"},
	}

	rates, err := ParseVariables(rows)
	if err != nil {
		t.Fatalf("ParseVariables: %v", err)
	}

	if rates.TravelThresholdKm != 200 || rates.VanKmPerLitre != 12.5 {
		t.Errorf("threshold/economy = %v/%v", rates.TravelThresholdKm, rates.VanKmPerLitre)
	}
	if rates.StandardDailyHours != 8 {
		t.Errorf("daily hours must stay 8, got %v", rates.StandardDailyHours)
	}
	checks := map[string]struct{ got, want decimal.Decimal }{
		"internal per-diem": {rates.InternalPerDiem, decimal.NewFromInt(55)},
		"external per-diem": {rates.ExternalPerDiem, decimal.NewFromInt(70)},
		"fuel":              {rates.FuelPricePerLitre, decimal.RequireFromString("1.75")},
		"wear":              {rates.VehicleWearPerKm, decimal.RequireFromString("0.04")},
		"internal rate":     {rates.InternalHourlyRate, decimal.NewFromInt(28)},
		"external rate":     {rates.ExternalHourlyRate, decimal.NewFromInt(30)},
		"margin":            {rates.MarginPercent, decimal.NewFromInt(30)},
		"forklift base":     {rates.ForkliftBaseCost, decimal.NewFromInt(750)},
		"forklift extra":    {rates.ForkliftExtraDay, decimal.NewFromInt(120)},
	}
	for name, c := range checks {
		if !c.got.Equal(c.want) {
			t.Errorf("%s = %s, want %s", name, c.got, c.want)
		}
	}

	want := []types.DiscountTier{
		{Threshold: 50, Percentage: 12},
		{Threshold: 20, Percentage: 8},
		{Threshold: 10, Percentage: 5},
	}
	if len(rates.DiscountTiers) != len(want) {
		t.Fatalf("tiers = %+v", rates.DiscountTiers)
	}
	for i := range want {
		if rates.DiscountTiers[i] != want[i] {
			t.Errorf("tier %d = %+v, want %+v", i, rates.DiscountTiers[i], want[i])
		}
	}
}

func TestParseVariables_Empty(t *testing.T) {
	rates, err := ParseVariables(nil)
	if !errors.IsType(err, errors.TypeParsing) {
		t.Errorf("expected parsing error, got %v", err)
	}
	if rates.TravelThresholdKm != 150 {
		t.Errorf("defaults expected, got %+v", rates)
	}
}

func TestParseTierLabel(t *testing.T) {
	tests := []struct {
		label string
		want  types.VehicleTier
	}{
		{"Camion gru 10-20", types.VehicleTier{Label: "Camion gru 10-20", Vehicle: types.VehicleCraneTruck, Ranged: true, Bounded: true, MinSpots: 10, MaxSpots: 20}},
		{"Bilico > 15", types.VehicleTier{Label: "Bilico > 15", Vehicle: types.VehicleArticulated, Ranged: true, MinSpots: 16}},
		{"BILICO", types.VehicleTier{Label: "BILICO", Vehicle: types.VehicleArticulated, Generic: true}},
		{"Camion gru 3 assi", types.VehicleTier{Label: "Camion gru 3 assi", Vehicle: types.VehicleCraneTruck}},
		{"Furgone", types.VehicleTier{Label: "Furgone", Vehicle: types.VehicleVan, Generic: true}},
		{"Motrice 1 - 5", types.VehicleTier{Label: "Motrice 1 - 5", Vehicle: types.VehicleOther, Ranged: true, Bounded: true, MinSpots: 1, MaxSpots: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got := ParseTierLabel(tt.label)
			if got.Label != tt.want.Label || got.Vehicle != tt.want.Vehicle || got.Ranged != tt.want.Ranged ||
				got.Bounded != tt.want.Bounded || got.MinSpots != tt.want.MinSpots ||
				got.MaxSpots != tt.want.MaxSpots || got.Generic != tt.want.Generic {
				t.Errorf("ParseTierLabel(%q) = %+v, want %+v", tt.label, got, tt.want)
			}
		})
	}
}

func TestParseTransport(t *testing.T) {
	rows := [][]string{
		{"Regione", "Provincia", "Camion gru 1-10", "Camion gru > 10", "Bilico", ""},
		{"Lombardia", "Milano", "900", "1.100,00", "1500", "x"},
		{"", "", "1", "2", "3"},
		{},
		{"Sicilia", "Palermo", "", "0", "2400"},
	}

	rates, err := ParseTransport(rows)
	if err != nil {
		t.Fatalf("ParseTransport: %v", err)
	}
	if len(rates) != 2 {
		t.Fatalf("rows = %d, want 2: %+v", len(rates), rates)
	}

	milano := rates[0]
	if milano.Province != "Milano" || len(milano.Tiers) != 3 {
		t.Fatalf("milano = %+v", milano)
	}
	if price, _ := milano.PriceFor(types.VehicleCraneTruck, 12); !price.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("crane 12 spots = %s, want 1100", price)
	}

	palermo := rates[1]
	if len(palermo.Tiers) != 1 || !palermo.Tiers[0].Price.Equal(decimal.NewFromInt(2400)) {
		t.Errorf("palermo tiers = %+v", palermo.Tiers)
	}
}

func TestParseTransport_MissingColumns(t *testing.T) {
	_, err := ParseTransport([][]string{{"Zona", "Bilico"}})
	if !errors.IsType(err, errors.TypeParsing) {
		t.Errorf("expected parsing error, got %v", err)
	}
}

func TestParseCatalog(t *testing.T) {
	rows := [][]string{
		{"MODELLO_STRUTTURA", "KG", "ORE_INSTALLAZIONE_1PA", "ORE_INSTALLAZIONE_1PA_PF", "ORE_INSTALLAZIONE_PANNELLI_TELO_TENSIONATO", "ORE_INSTALLAZIONE_PANNELLI_COIBENTATI", "ORE_ILLUMINAZIONE_LED", "MAX_PA_FURGONE", "MAX_PA_CAMION_GRU", "MAX_PA_BILICO"},
		{"Modello A", "320", "6,5", "2", "", "1,5", "", "2", "12", "40"},
		{"Zavorra 80kg", "", "", "", "", "", "", "", "", ""},
		{"Zavorra cemento", "95", "", "", "", "", "", "", "", ""},
		{"", "1", "1"},
		{"Modello B", "410", "8", "2,5", "1,2", "2", "0,8"},
	}

	catalog, err := ParseCatalog(rows)
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if len(catalog.Models) != 2 || len(catalog.Ballasts) != 2 {
		t.Fatalf("catalog = %+v", catalog)
	}

	a := catalog.Models[0]
	if a.StructureWeightPerSpot != 320 || a.StructureHoursPerSpot != 6.5 || a.InsulatedHoursPerSpot != 1.5 {
		t.Errorf("model A = %+v", a)
	}
	if a.TarpHoursPerSpot != defaultTarpHours || a.LEDHoursPerSpot != defaultLEDHours {
		t.Errorf("model A defaults = %v/%v", a.TarpHoursPerSpot, a.LEDHoursPerSpot)
	}
	if a.MaxSpotsVan != 2 || a.MaxSpotsCraneTruck != 12 || a.MaxSpotsArticulated != 40 {
		t.Errorf("model A capacities = %+v", a)
	}
	if b := catalog.Models[1]; b.LEDHoursPerSpot != 0.8 || b.MaxSpotsVan != 0 {
		t.Errorf("model B = %+v", b)
	}

	if catalog.Ballasts[0].WeightKg != 80 || catalog.Ballasts[1].WeightKg != 95 {
		t.Errorf("ballasts = %+v", catalog.Ballasts)
	}

	if m, _ := catalog.Model("modello b"); m.Name != "Modello B" {
		t.Errorf("Model lookup = %q", m.Name)
	}
	if m, _ := catalog.Model("unknown"); m.Name != "Modello A" {
		t.Errorf("fallback model = %q", m.Name)
	}
	if catalog.HasModel("unknown") {
		t.Error("HasModel(unknown) should be false")
	}
}

func TestParseCatalog_DefaultBallast(t *testing.T) {
	catalog, err := ParseCatalog([][]string{{"MODELLO_STRUTTURA", "KG"}, {"Modello A", "300"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(catalog.Ballasts) != 1 || catalog.Ballasts[0] != DefaultBallast {
		t.Errorf("ballasts = %+v", catalog.Ballasts)
	}
	if b, ok := catalog.Ballast("anything"); !ok || b.Name != "Zavorra Standard" {
		t.Errorf("Ballast fallback = %+v/%v", b, ok)
	}
}

func TestFetcher_Rows(t *testing.T) {
	dir := t.TempDir()
	fetcher := NewFetcher(5 * time.Second)
	ctx := context.Background()

	t.Run("semicolon csv", func(t *testing.T) {
		path := filepath.Join(dir, "transport.csv")
		body := "\ufeffRegione;Provincia;Bilico\n\"Lombardia\";Milano;\"1.500,00\"\n"
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		rows, err := fetcher.Rows(ctx, path)
		if err != nil {
			t.Fatalf("Rows: %v", err)
		}
		if len(rows) != 2 || rows[0][0] != "Regione" || rows[1][2] != "1.500,00" {
			t.Errorf("rows = %q", rows)
		}
	})

	t.Run("comma csv", func(t *testing.T) {
		path := filepath.Join(dir, "variables.csv")
		if err := os.WriteFile(path, []byte("chiave,valore\nmargine,\"27,5\"\n"), 0644); err != nil {
			t.Fatal(err)
		}
		rows, err := fetcher.Rows(ctx, path)
		if err != nil {
			t.Fatalf("Rows: %v", err)
		}
		if len(rows) != 2 || rows[1][1] != "27,5" {
			t.Errorf("rows = %q", rows)
		}
	})

	t.Run("xlsx", func(t *testing.T) {
		path := filepath.Join(dir, "catalog.xlsx")
		f := excelize.NewFile()
		sheet := f.GetSheetName(0)
		_ = f.SetSheetRow(sheet, "A1", &[]interface{}{"MODELLO_STRUTTURA", "KG"})
		_ = f.SetSheetRow(sheet, "A2", &[]interface{}{"Modello A", 320})
		if err := f.SaveAs(path); err != nil {
			t.Fatalf("SaveAs: %v", err)
		}
		rows, err := fetcher.Rows(ctx, path)
		if err != nil {
			t.Fatalf("Rows: %v", err)
		}
		if len(rows) != 2 || rows[1][0] != "Modello A" || rows[1][1] != "320" {
			t.Errorf("rows = %q", rows)
		}
	})

	t.Run("url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("chiave,valore\nmargine,30\n"))
		}))
		defer srv.Close()

		rows, err := fetcher.Rows(ctx, srv.URL+"/pub?output=csv")
		if err != nil {
			t.Fatalf("Rows: %v", err)
		}
		if len(rows) != 2 || rows[1][1] != "30" {
			t.Errorf("rows = %q", rows)
		}
	})

	t.Run("url error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := fetcher.Rows(ctx, srv.URL)
		if !errors.IsType(err, errors.TypeNetwork) {
			t.Errorf("expected network error, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := fetcher.Rows(ctx, filepath.Join(dir, "absent.csv"))
		if !errors.IsType(err, errors.TypeNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})
}

func TestFetcher_LoadAll(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	src := Sources{
		Variables: filepath.Join(dir, "missing-variables.csv"),
		Transport: write("transport.csv", "Regione;Provincia;Camion gru\nLazio;Roma;1200\n"),
		Catalog:   write("catalog.csv", "MODELLO_STRUTTURA;KG;ORE_INSTALLAZIONE_1PA\nModello A;300;6\n"),
	}

	tables, err := NewFetcher(time.Second).LoadAll(context.Background(), src)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if tables.Rates.TravelThresholdKm != 150 {
		t.Errorf("missing variables sheet should fall back to defaults: %+v", tables.Rates)
	}
	if len(tables.Transport) != 1 || len(tables.Catalog.Models) != 1 {
		t.Errorf("tables = %+v", tables)
	}

	src.Catalog = write("empty-catalog.csv", "MODELLO_STRUTTURA;KG\nZavorra 60;60\n")
	if _, err := NewFetcher(time.Second).LoadAll(context.Background(), src); !errors.IsType(err, errors.TypeParsing) {
		t.Errorf("catalog without models should fail, got %v", err)
	}
}
