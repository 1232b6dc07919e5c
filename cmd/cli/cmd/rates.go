// Package cmd - rates command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"opticost/adapters/ratesheet"
	"opticost/core/output"
	"opticost/core/types"
	"opticost/core/ui"
	"opticost/internal/config"
)

var ratesJSON bool

// ratesCmd prints the loaded rate tables
var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Show the loaded rate sheets",
	Long: `Load the configured rate sheets and print what the quote engine will use:
global variables, discount tiers, transport prices per region and the
model catalog. Useful to check a sheet after editing it.`,
	Args: cobra.NoArgs,
	RunE: runRates,
}

func init() {
	ratesCmd.Flags().BoolVar(&ratesJSON, "json", false, "print the tables as JSON")
}

func runRates(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	fetcher := ratesheet.NewFetcher(cfg.Sources.Timeout())
	tables, err := fetcher.LoadAll(context.Background(), cfg.Sources.Sheets())
	if err != nil {
		return err
	}

	if ratesJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(tables)
	}

	out := ui.NewWriter(cmd.OutOrStdout(), cfg.Output.NoColor)
	printVariables(out, tables.Rates)
	printTransport(out, tables.Transport)
	printCatalog(out, tables.Catalog)
	return nil
}

func printVariables(out *ui.Writer, r types.RateConfig) {
	out.Header("Variables")
	table := out.NewTable("Variable", "Value").AlignRight(1)
	table.AddRow("Travel threshold", fmt.Sprintf("%.0f km", r.TravelThresholdKm))
	table.AddRow("Internal hourly rate", output.Money(r.InternalHourlyRate))
	table.AddRow("External hourly rate", output.Money(r.ExternalHourlyRate))
	table.AddRow("Internal per-diem", output.Money(r.InternalPerDiem))
	table.AddRow("External per-diem", output.Money(r.ExternalPerDiem))
	table.AddRow("Standard day", fmt.Sprintf("%.0f h", r.StandardDailyHours))
	table.AddRow("Van fuel economy", fmt.Sprintf("%.1f km/l", r.VanKmPerLitre))
	table.AddRow("Fuel price", output.Money(r.FuelPricePerLitre)+"/l")
	table.AddRow("Vehicle wear", r.VehicleWearPerKm.String()+" €/km")
	table.AddRow("Forklift", fmt.Sprintf("%s + %s/day", output.Money(r.ForkliftBaseCost), output.Money(r.ForkliftExtraDay)))
	table.AddRow("Margin", output.Percent(r.MarginPercent))
	table.AddRow("External crew policy", string(r.ExternalPolicy))
	table.Render()

	if len(r.DiscountTiers) == 0 {
		return
	}
	out.SubHeader("Hour discounts")
	tiers := out.NewTable("Spots", "Discount").AlignRight(1)
	for _, tier := range r.DiscountTiers {
		tiers.AddRow(fmt.Sprintf("> %d", tier.Threshold), fmt.Sprintf("%g%%", tier.Percentage))
	}
	tiers.Render()
}

func printTransport(out *ui.Writer, rates []types.TransportRate) {
	out.Header("Transport")
	if len(rates) == 0 {
		out.Warning("no transport rates loaded; flat fallback prices apply")
		return
	}

	// one column per distinct tier label, in sheet order
	var labels []string
	seen := map[string]bool{}
	for _, row := range rates {
		for _, tier := range row.Tiers {
			if !seen[tier.Label] {
				seen[tier.Label] = true
				labels = append(labels, tier.Label)
			}
		}
	}

	table := out.NewTable(append([]string{"Region", "Province"}, labels...)...)
	for i := range labels {
		table.AlignRight(i + 2)
	}
	for _, row := range rates {
		prices := make(map[string]string, len(row.Tiers))
		for _, tier := range row.Tiers {
			prices[tier.Label] = output.Money(tier.Price)
		}
		cells := []string{row.Region, row.Province}
		for _, label := range labels {
			cells = append(cells, prices[label])
		}
		table.AddRow(cells...)
	}
	table.Render()
}

func printCatalog(out *ui.Writer, catalog ratesheet.Catalog) {
	out.Header("Catalog")
	table := out.NewTable("Model", "kg/spot", "h/spot", "Van", "Crane", "Artic.").
		AlignRight(1).AlignRight(2).AlignRight(3).AlignRight(4).AlignRight(5)
	for _, m := range catalog.Models {
		table.AddRow(m.Name,
			fmt.Sprintf("%g", m.StructureWeightPerSpot),
			fmt.Sprintf("%g", m.StructureHoursPerSpot),
			capacity(m.MaxSpotsVan),
			capacity(m.MaxSpotsCraneTruck),
			capacity(m.MaxSpotsArticulated),
		)
	}
	table.Render()

	names := make([]string, 0, len(catalog.Ballasts))
	for _, b := range catalog.Ballasts {
		names = append(names, fmt.Sprintf("%s (%g kg)", b.Name, b.WeightKg))
	}
	sort.Strings(names)
	out.Info("Ballasts: %s", strings.Join(names, ", "))
}

func capacity(n int) string {
	if n <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}
