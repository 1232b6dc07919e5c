package quoting

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"opticost/adapters/jobfile"
	"opticost/adapters/logistics"
	"opticost/adapters/ratesheet"
	"opticost/core/types"
	"opticost/internal/errors"
	"opticost/internal/logging"
)

func init() {
	logging.UseNop()
}

type stubProvider struct {
	data  types.LogisticsData
	err   error
	calls int
	last  logistics.Request
}

func (p *stubProvider) Lookup(ctx context.Context, req logistics.Request) (types.LogisticsData, error) {
	p.calls++
	p.last = req
	if p.err != nil {
		return types.UnfetchedLogistics(), p.err
	}
	return p.data, nil
}

func testTables() *ratesheet.Tables {
	return &ratesheet.Tables{
		Rates: types.DefaultRateConfig(),
		Catalog: ratesheet.Catalog{
			Models: []types.ModelData{
				{Name: "Bifalda", StructureWeightPerSpot: 450, StructureHoursPerSpot: 8},
			},
		},
	}
}

func testSpec() *jobfile.Spec {
	return &jobfile.Spec{
		Service:   "install",
		StartDate: "2026-04-13",
		Address:   "Via Emilia 10, Modena",
		Model:     "Bifalda",
		Spots:     4,
		Crew:      &jobfile.CrewSpec{Internal: 2},
	}
}

func farAway() types.LogisticsData {
	return types.LogisticsData{
		DistanceKm:           400,
		DriveDurationMinutes: 240,
		AvgHotelPrice:        decimal.NewFromInt(90),
		LastMilePrice:        decimal.NewFromInt(20),
		RecommendedMode:      types.TransportTrain,
		Fetched:              true,
	}
}

func TestQuoteUsesProvider(t *testing.T) {
	p := &stubProvider{data: farAway()}
	svc := &Service{Provider: p, APIKey: "k"}

	report, err := svc.Quote(context.Background(), testTables(), Request{Spec: testSpec()})
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", p.calls)
	}
	if p.last.Address != "Via Emilia 10, Modena" || p.last.APIKey != "k" {
		t.Errorf("request = %+v", p.last)
	}
	if p.last.DurationDays <= 0 {
		t.Errorf("lookup duration = %d, want the estimated job length", p.last.DurationDays)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("warnings = %v", report.Warnings)
	}
	if !report.Quote.SellPrice.GreaterThan(report.Quote.TotalCost) {
		t.Errorf("sell %s not above cost %s", report.Quote.SellPrice, report.Quote.TotalCost)
	}
}

func TestQuoteLookupFailureIsWarning(t *testing.T) {
	p := &stubProvider{err: errors.New(errors.TypeQuotaExhausted, "quota used up")}
	svc := &Service{Provider: p, APIKey: "k"}

	report, err := svc.Quote(context.Background(), testTables(), Request{Spec: testSpec()})
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	joined := strings.Join(report.Warnings, "\n")
	if !strings.Contains(joined, string(errors.TypeQuotaExhausted)) {
		t.Errorf("warnings %q do not name the category", joined)
	}
	if !strings.Contains(joined, WarningNoLogistics) {
		t.Errorf("warnings %q missing the no-logistics notice", joined)
	}
}

func TestQuoteExplicitLogisticsSkipsLookup(t *testing.T) {
	p := &stubProvider{}
	svc := &Service{Provider: p}
	data := farAway()

	withData, err := svc.Quote(context.Background(), testTables(), Request{Spec: testSpec(), Logistics: &data})
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if p.calls != 0 {
		t.Errorf("provider called %d times", p.calls)
	}

	without, err := (&Service{}).Quote(context.Background(), testTables(), Request{Spec: testSpec()})
	if err != nil {
		t.Fatal(err)
	}
	if !withData.Quote.TotalCost.GreaterThan(without.Quote.TotalCost) {
		t.Errorf("travel did not raise cost: %s vs %s", withData.Quote.TotalCost, without.Quote.TotalCost)
	}
	if len(without.Warnings) != 1 || without.Warnings[0] != WarningNoLogistics {
		t.Errorf("warnings = %v", without.Warnings)
	}
}

func TestQuoteInlineLogisticsSkipsLookup(t *testing.T) {
	p := &stubProvider{}
	spec := testSpec()
	spec.Logistics = &jobfile.LogisticsSpec{DistanceKm: 50, DriveDurationMinutes: 45}

	if _, err := (&Service{Provider: p}).Quote(context.Background(), testTables(), Request{Spec: spec}); err != nil {
		t.Fatal(err)
	}
	if p.calls != 0 {
		t.Errorf("provider called %d times", p.calls)
	}
}

func TestQuotePolicyOverride(t *testing.T) {
	spec := testSpec()
	spec.Crew = &jobfile.CrewSpec{External: 2}
	spec.PublicTransport = &jobfile.PublicTransportSpec{Mode: "train"}
	data := farAway()
	data.TrainPrice = decimal.NewFromInt(80)

	perDiem, err := (&Service{}).Quote(context.Background(), testTables(), Request{Spec: spec, Logistics: &data})
	if err != nil {
		t.Fatal(err)
	}
	full, err := (&Service{Policy: types.ExternalFullReimbursement}).Quote(context.Background(), testTables(), Request{Spec: spec, Logistics: &data})
	if err != nil {
		t.Fatal(err)
	}
	if !full.Quote.TotalCost.GreaterThan(perDiem.Quote.TotalCost) {
		t.Errorf("full reimbursement %s should cost more than per diem %s", full.Quote.TotalCost, perDiem.Quote.TotalCost)
	}

	_, err = (&Service{Policy: "everything"}).Quote(context.Background(), testTables(), Request{Spec: spec})
	if !errors.IsType(err, errors.TypeConfig) {
		t.Errorf("unknown policy error = %v", err)
	}
}

func TestQuoteRejectsBadJobs(t *testing.T) {
	svc := &Service{}
	ctx := context.Background()

	if _, err := svc.Quote(ctx, testTables(), Request{}); !errors.IsType(err, errors.TypeInput) {
		t.Errorf("nil job error = %v", err)
	}
	if _, err := svc.Quote(ctx, nil, Request{Spec: testSpec()}); !errors.IsType(err, errors.TypeConfig) {
		t.Errorf("nil tables error = %v", err)
	}

	spec := testSpec()
	spec.Model = "Trifalda"
	if _, err := svc.Quote(ctx, testTables(), Request{Spec: spec}); !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("unknown model error = %v", err)
	}
}
