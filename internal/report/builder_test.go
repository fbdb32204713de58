package report

import (
	"testing"
	"time"

	"fleetbook/internal/ledger"
	"fleetbook/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ref = time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

func fixture() *models.AppState {
	s := models.DefaultState()
	s.DailyLogs = []models.DailyLog{
		{Date: "2026-03-14", VehicleID: "v1", DriverName: "Ramesh", OpeningKm: 150, ClosingKm: 180,
			TripType: models.TripLocal, Income: decimal.NewFromInt(300), PaymentMode: models.PaymentCredit},
		{Date: "2026-03-14", VehicleID: "v1", DriverName: "Ramesh", OpeningKm: 100, ClosingKm: 150,
			TripType: models.TripAirport, CustomerName: "Mehta", Income: decimal.NewFromInt(500), PaymentMode: models.PaymentCash},
		{Date: "2026-03-02", VehicleID: "v2", DriverName: "Suresh", OpeningKm: 8900, ClosingKm: 9000,
			TripType: models.TripOutstation, Income: decimal.NewFromInt(1200), PaymentMode: models.PaymentUPI},
	}
	s.FuelLogs = []models.FuelLog{
		{Date: "2026-03-03", VehicleID: "v2", FuelType: models.FuelPetrol, Quantity: 10, Cost: decimal.NewFromInt(900)},
		{Date: "2026-03-14", VehicleID: "v1", FuelType: models.FuelCNG, Quantity: 5, Cost: decimal.NewFromInt(400), StationName: "HP"},
	}
	s.ExpenseLogs = []models.ExpenseLog{
		{Date: "2026-03-14", VehicleID: "v1", Category: models.ExpenseToll, Amount: decimal.NewFromInt(100)},
		{Date: "2026-03-10", VehicleID: "v3", Category: models.ExpenseWash, Amount: decimal.NewFromInt(250), Notes: "interior"},
	}
	return s
}

func builder() Builder {
	return NewBuilder("Ansh Tours", "")
}

func sheets(sections []Section) []string {
	var names []string
	for _, s := range sections {
		names = append(names, s.Sheet)
	}
	return names
}

func column(sec Section, name string) int {
	for i, c := range sec.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func TestBuild_SectionsPerPeriod(t *testing.T) {
	daily := builder().Build(fixture(), ledger.Daily, ref)
	assert.Equal(t, []string{SheetSummary, SheetTrips, SheetCosts}, sheets(daily))

	monthly := builder().Build(fixture(), ledger.Monthly, ref)
	assert.Equal(t, []string{SheetSummary, SheetTrips, SheetCosts, SheetPnL}, sheets(monthly))
}

func TestBuild_EverySectionHasHeaderAndRows(t *testing.T) {
	for _, s := range []*models.AppState{fixture(), models.DefaultState(), {}} {
		for _, p := range []ledger.Period{ledger.Daily, ledger.Monthly} {
			for _, sec := range builder().Build(s, p, ref) {
				require.NotEmpty(t, sec.Columns, sec.Sheet)
				require.NotEmpty(t, sec.Rows, sec.Sheet)
				for _, row := range sec.Rows {
					assert.Len(t, row, len(sec.Columns), sec.Sheet)
				}
			}
		}
	}
}

func TestBuild_EmptyDataUsesPlaceholder(t *testing.T) {
	sections := builder().Build(models.DefaultState(), ledger.Daily, ref)

	trips := sections[1]
	assert.True(t, trips.Empty())
	assert.Equal(t, [][]any{{PlaceholderText}}, trips.Rows)
	assert.Equal(t, "ANSH TOURS - TRIP LEDGER", trips.Title)
	assert.True(t, sections[2].Empty())

	// Vehicles still get summary rows with no trips.
	assert.False(t, sections[0].Empty())
}

func TestSummary_Rows(t *testing.T) {
	sec := builder().Build(fixture(), ledger.Daily, ref)[0]

	assert.Equal(t, "ANSH TOURS - FLEET SUMMARY", sec.Title)
	assert.Equal(t, "Daily Report - 2026-03-14", sec.Subtitle)
	assert.Equal(t, "Gross Revenue (₹)", sec.Columns[5])
	require.Len(t, sec.Rows, 4)

	v1 := sec.Rows[0]
	assert.Equal(t, "Swift Dzire (White)", v1[0])
	assert.Equal(t, int64(100), v1[2])
	assert.Equal(t, int64(180), v1[3])
	assert.Equal(t, int64(80), v1[4])
	assert.Equal(t, "800", v1[5].(decimal.Decimal).String())
	assert.Equal(t, "500", v1[6].(decimal.Decimal).String())
	assert.Equal(t, "300", v1[7].(decimal.Decimal).String())

	v2 := sec.Rows[1]
	assert.Equal(t, "N/A", v2[2])
	assert.Equal(t, "N/A", v2[3])
	assert.Equal(t, int64(0), v2[4])

	total := sec.Rows[3]
	assert.Equal(t, "GRAND TOTAL", total[0])
	assert.Equal(t, "-", total[2])
	assert.Equal(t, "-", total[3])
}

func TestSummary_TotalRowIsSumOfRows(t *testing.T) {
	sec := builder().Build(fixture(), ledger.Monthly, ref)[0]
	total := sec.Rows[len(sec.Rows)-1]
	assert.Equal(t, "MONTHLY TOTAL", total[0])

	var km int64
	sums := []decimal.Decimal{decimal.Zero, decimal.Zero, decimal.Zero}
	for _, row := range sec.Rows[:len(sec.Rows)-1] {
		km += row[4].(int64)
		for i := range sums {
			sums[i] = sums[i].Add(row[5+i].(decimal.Decimal))
		}
	}

	assert.Equal(t, km, total[4])
	for i := range sums {
		assert.True(t, sums[i].Equal(total[5+i].(decimal.Decimal)), sec.Columns[5+i])
	}

	income, costs, profit := total[5].(decimal.Decimal), total[6].(decimal.Decimal), total[7].(decimal.Decimal)
	assert.True(t, profit.Equal(income.Sub(costs)))
}

func TestTrips_MonthlySortedAscending(t *testing.T) {
	sec := builder().Build(fixture(), ledger.Monthly, ref)[1]
	require.Len(t, sec.Rows, 4)

	assert.Equal(t, "2026-03-02", sec.Rows[0][0])
	// Same-day trips keep their stored order.
	assert.Equal(t, int64(150), sec.Rows[1][column(sec, "Opening KM")])
	assert.Equal(t, int64(100), sec.Rows[2][column(sec, "Opening KM")])

	total := sec.Rows[3]
	assert.Equal(t, "TOTAL", total[0])
	assert.Equal(t, int64(180), total[column(sec, "Running KM")])
	assert.Equal(t, "2000", total[column(sec, "Amount (₹)")].(decimal.Decimal).String())
}

func TestTrips_DailyKeepsStoredOrderAndStatus(t *testing.T) {
	sec := builder().Build(fixture(), ledger.Daily, ref)[1]
	require.Len(t, sec.Rows, 3)

	status := column(sec, "Status")
	assert.Equal(t, "PENDING", sec.Rows[0][status])
	assert.Equal(t, "PAID", sec.Rows[1][status])
	assert.Equal(t, "-", sec.Rows[0][column(sec, "Customer Name")])
	assert.Equal(t, "Mehta", sec.Rows[1][column(sec, "Customer Name")])
	assert.Equal(t, "Airport Transfer", sec.Rows[1][column(sec, "Trip Type")])
}

func TestCosts_SortedDescendingWithDescriptions(t *testing.T) {
	sec := builder().Build(fixture(), ledger.Monthly, ref)[2]
	require.Len(t, sec.Rows, 5)

	assert.Equal(t, []any{"2026-03-14", "FUEL", "Swift Dzire (White)", "CNG Refill at HP", 5.0, decimal.NewFromInt(400)}, sec.Rows[0])
	assert.Equal(t, "EXPENSE", sec.Rows[1][1])
	assert.Equal(t, "Toll: -", sec.Rows[1][3])
	assert.Equal(t, "Car Wash: interior", sec.Rows[2][3])
	assert.Equal(t, "-", sec.Rows[2][4])
	assert.Equal(t, "Petrol Refill at Pump", sec.Rows[3][3])

	total := sec.Rows[4]
	assert.Equal(t, "TOTAL", total[0])
	assert.Equal(t, "1650", total[5].(decimal.Decimal).String())
}

func TestProfitAndLoss(t *testing.T) {
	sec := builder().Build(fixture(), ledger.Monthly, ref)[3]

	assert.Equal(t, "ANSH TOURS - PROFIT & LOSS", sec.Title)
	assert.Equal(t, "Financial Overview for March 2026", sec.Subtitle)
	assert.Equal(t, []string{"Particulars", "Amount (₹)"}, sec.Columns)
	require.Len(t, sec.Rows, 5)

	assert.Equal(t, "2000", sec.Rows[0][1].(decimal.Decimal).String())
	assert.Equal(t, "1300", sec.Rows[1][1].(decimal.Decimal).String())
	assert.Equal(t, "350", sec.Rows[2][1].(decimal.Decimal).String())
	assert.Equal(t, []any{"", ""}, sec.Rows[3])
	assert.Equal(t, "Net Profit", sec.Rows[4][0])
	assert.Equal(t, "350", sec.Rows[4][1].(decimal.Decimal).String())
}

func TestBuild_DeletedVehicleRendersDash(t *testing.T) {
	s := fixture()
	s.Vehicles = s.Vehicles[1:] // drop v1, which owns every log dated today

	sections := builder().Build(s, ledger.Daily, ref)

	require.Len(t, sections[0].Rows, 3)
	for _, row := range sections[0].Rows {
		assert.NotEqual(t, "Swift Dzire (White)", row[0])
	}

	trips := sections[1]
	require.Len(t, trips.Rows, 3)
	assert.Equal(t, models.UnknownVehicle, trips.Rows[0][1])
	assert.Equal(t, models.UnknownVehicle, trips.Rows[0][2])

	costs := sections[2]
	assert.Equal(t, models.UnknownVehicle, costs.Rows[0][2])
}

func TestBuild_CustomCurrency(t *testing.T) {
	sec := NewBuilder("Acme", "$").Build(fixture(), ledger.Daily, ref)[0]
	assert.Equal(t, "Net Profit ($)", sec.Columns[7])
	assert.Equal(t, "ACME - FLEET SUMMARY", sec.Title)
}
