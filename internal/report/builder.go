package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"fleetbook/internal/ledger"
	"fleetbook/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the symbol used in money column headers
const DefaultCurrency = "₹"

// Builder assembles the sections of a period report
type Builder struct {
	Org      string
	Currency string
}

// NewBuilder creates a builder for the given organisation
func NewBuilder(org, currency string) Builder {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Builder{Org: org, Currency: currency}
}

// Build produces the report sections for the period anchored at ref:
// Summary, Trips and Costs, plus P&L for monthly reports
func (b Builder) Build(s *models.AppState, p ledger.Period, ref time.Time) []Section {
	sl := ledger.Filter(s, p, ref)

	sections := []Section{
		b.summary(s, sl, p, ref),
		b.trips(s, sl, p),
		b.costs(s, sl, p),
	}
	if p == ledger.Monthly {
		sections = append(sections, b.profitAndLoss(sl, ref))
	}
	return sections
}

func (b Builder) title(name string) string {
	return fmt.Sprintf("%s - %s", strings.ToUpper(b.Org), name)
}

func (b Builder) money(label string) string {
	cur := b.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	return fmt.Sprintf("%s (%s)", label, cur)
}

// TotalLabel names the fleet total row of the summary
func TotalLabel(p ledger.Period) string {
	if p == ledger.Monthly {
		return "MONTHLY TOTAL"
	}
	return "GRAND TOTAL"
}

func odometer(reading *int64) any {
	if reading == nil {
		return "N/A"
	}
	return *reading
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func (b Builder) summary(s *models.AppState, sl ledger.Slice, p ledger.Period, ref time.Time) Section {
	title := b.title("FLEET SUMMARY")
	subtitle := fmt.Sprintf("%s Report - %s", p, models.DateOf(ref))
	if len(s.Vehicles) == 0 {
		return placeholder(SheetSummary, title, subtitle)
	}

	rollups, total := ledger.FleetRollup(s.Vehicles, sl)

	sec := Section{
		Sheet:    SheetSummary,
		Title:    title,
		Subtitle: subtitle,
		Columns: []string{
			"Vehicle", "Number", "Opening Odo (KM)", "Closing Odo (KM)", "Net Run (KM)",
			b.money("Gross Revenue"), b.money("Expenses"), b.money("Net Profit"),
		},
	}
	for i, v := range s.Vehicles {
		r := rollups[i]
		sec.Rows = append(sec.Rows, []any{
			v.Name, v.Number, odometer(r.OpeningOdo), odometer(r.ClosingOdo), r.SpanKm,
			r.Income, r.TotalCost(), r.NetProfit(),
		})
	}
	sec.Rows = append(sec.Rows, []any{
		TotalLabel(p), "", "-", "-", total.SpanKm,
		total.Income, total.TotalCost(), total.NetProfit(),
	})
	return sec
}

func (b Builder) trips(s *models.AppState, sl ledger.Slice, p ledger.Period) Section {
	title := b.title("TRIP LEDGER")
	subtitle := fmt.Sprintf("Detailed Entries for %s", p)
	if len(sl.Trips) == 0 {
		return placeholder(SheetTrips, title, subtitle)
	}

	trips := append([]models.DailyLog{}, sl.Trips...)
	if p == ledger.Monthly {
		sort.SliceStable(trips, func(i, j int) bool { return trips[i].Date < trips[j].Date })
	}

	sec := Section{
		Sheet:    SheetTrips,
		Title:    title,
		Subtitle: subtitle,
		Columns: []string{
			"Date", "Vehicle", "Reg No", "Driver", "Trip Type", "Customer Name", "Customer Contact",
			"Trip/Route", "Opening KM", "Closing KM", "Running KM", b.money("Amount"), "Payment", "Status",
		},
	}

	var km int64
	income := decimal.Zero
	for _, l := range trips {
		sec.Rows = append(sec.Rows, []any{
			l.Date.String(), s.VehicleName(l.VehicleID), s.VehicleNumber(l.VehicleID), l.DriverName,
			string(l.TripType), orDash(l.CustomerName), orDash(l.CustomerContact), orDash(l.RouteDetails),
			l.OpeningKm, l.ClosingKm, l.TotalKm(), l.Income, string(l.PaymentMode), paymentStatus(l),
		})
		km += l.TotalKm()
		income = income.Add(l.Income)
	}
	sec.Rows = append(sec.Rows, []any{
		"TOTAL", "", "", "", "", "", "", "", "", "", km, income, "", "",
	})
	return sec
}

func paymentStatus(l models.DailyLog) string {
	if l.IsPaymentPending() {
		return "PENDING"
	}
	return "PAID"
}

type costRow struct {
	date  models.Date
	cells []any
}

func (b Builder) costs(s *models.AppState, sl ledger.Slice, p ledger.Period) Section {
	title := b.title("OPERATIONAL COSTS")
	subtitle := fmt.Sprintf("Itemized Expenses for %s", p)
	if len(sl.Fuel) == 0 && len(sl.Expenses) == 0 {
		return placeholder(SheetCosts, title, subtitle)
	}

	total := decimal.Zero
	rows := make([]costRow, 0, len(sl.Fuel)+len(sl.Expenses))
	for _, f := range sl.Fuel {
		station := f.StationName
		if strings.TrimSpace(station) == "" {
			station = "Pump"
		}
		rows = append(rows, costRow{f.Date, []any{
			f.Date.String(), "FUEL", s.VehicleName(f.VehicleID),
			fmt.Sprintf("%s Refill at %s", f.FuelType, station), f.Quantity, f.Cost,
		}})
		total = total.Add(f.Cost)
	}
	for _, e := range sl.Expenses {
		rows = append(rows, costRow{e.Date, []any{
			e.Date.String(), "EXPENSE", s.VehicleName(e.VehicleID),
			fmt.Sprintf("%s: %s", e.Category, orDash(e.Notes)), "-", e.Amount,
		}})
		total = total.Add(e.Amount)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date > rows[j].date })

	sec := Section{
		Sheet:    SheetCosts,
		Title:    title,
		Subtitle: subtitle,
		Columns:  []string{"Date", "Type", "Vehicle", "Description", "Qty", b.money("Amount")},
	}
	for _, r := range rows {
		sec.Rows = append(sec.Rows, r.cells)
	}
	sec.Rows = append(sec.Rows, []any{"TOTAL", "", "", "", "", total})
	return sec
}

func (b Builder) profitAndLoss(sl ledger.Slice, ref time.Time) Section {
	r := ledger.Whole(sl)
	return Section{
		Sheet:    SheetPnL,
		Title:    b.title("PROFIT & LOSS"),
		Subtitle: fmt.Sprintf("Financial Overview for %s", ref.Format("January 2006")),
		Columns:  []string{"Particulars", b.money("Amount")},
		Rows: [][]any{
			{"Gross Revenue", r.Income},
			{"Total Fuel Cost", r.FuelCost},
			{"Total Maintenance & Other Cost", r.OtherCost},
			{"", ""},
			{"Net Profit", r.NetProfit()},
		},
	}
}
