package ledger

import (
	"fleetbook/internal/models"

	"github.com/shopspring/decimal"
)

// Rollup aggregates one vehicle's (or the whole fleet's) logs over a period.
//
// KmRun sums per-trip distances; SpanKm is max(closing) - min(opening) across
// the trips. Both are kept because different report views use different ones.
type Rollup struct {
	VehicleID string
	Trips     int
	Income    decimal.Decimal
	FuelCost  decimal.Decimal
	OtherCost decimal.Decimal
	KmRun     int64
	SpanKm    int64
	FuelQty   float64

	// OpeningOdo and ClosingOdo are nil when there were no trips
	OpeningOdo *int64
	ClosingOdo *int64
}

// TotalCost is fuel plus every other expense
func (r Rollup) TotalCost() decimal.Decimal {
	return r.FuelCost.Add(r.OtherCost)
}

// NetProfit is income minus total cost
func (r Rollup) NetProfit() decimal.Decimal {
	return r.Income.Sub(r.TotalCost())
}

// Mileage returns distance per fuel unit. ok is false when no fuel was bought.
func (r Rollup) Mileage() (kmPerUnit float64, ok bool) {
	if r.FuelQty <= 0 {
		return 0, false
	}
	return float64(r.KmRun) / r.FuelQty, true
}

// VehicleRollup aggregates the logs of one vehicle inside the slice
func VehicleRollup(vehicleID string, sl Slice) Rollup {
	r := Rollup{VehicleID: vehicleID}

	for _, l := range sl.Trips {
		if l.VehicleID != vehicleID {
			continue
		}
		r.Trips++
		r.Income = r.Income.Add(l.Income)
		r.KmRun += l.TotalKm()

		if r.OpeningOdo == nil || l.OpeningKm < *r.OpeningOdo {
			opening := l.OpeningKm
			r.OpeningOdo = &opening
		}
		if r.ClosingOdo == nil || l.ClosingKm > *r.ClosingOdo {
			closing := l.ClosingKm
			r.ClosingOdo = &closing
		}
	}
	if r.OpeningOdo != nil && r.ClosingOdo != nil {
		r.SpanKm = *r.ClosingOdo - *r.OpeningOdo
	}

	for _, f := range sl.Fuel {
		if f.VehicleID != vehicleID {
			continue
		}
		r.FuelCost = r.FuelCost.Add(f.Cost)
		r.FuelQty += f.Quantity
	}

	for _, e := range sl.Expenses {
		if e.VehicleID != vehicleID {
			continue
		}
		r.OtherCost = r.OtherCost.Add(e.Amount)
	}

	return r
}

// FleetRollup computes a rollup per vehicle, in fleet order, and their sum.
// Logs of deleted vehicles belong to no row and are left out.
func FleetRollup(vehicles []models.Vehicle, sl Slice) ([]Rollup, Rollup) {
	rollups := make([]Rollup, 0, len(vehicles))
	for _, v := range vehicles {
		rollups = append(rollups, VehicleRollup(v.ID, sl))
	}
	return rollups, Sum(rollups)
}

// Sum adds rollups together. Odometer readings are not additive and stay unset.
func Sum(rollups []Rollup) Rollup {
	var total Rollup
	for _, r := range rollups {
		total.Trips += r.Trips
		total.Income = total.Income.Add(r.Income)
		total.FuelCost = total.FuelCost.Add(r.FuelCost)
		total.OtherCost = total.OtherCost.Add(r.OtherCost)
		total.KmRun += r.KmRun
		total.SpanKm += r.SpanKm
		total.FuelQty += r.FuelQty
	}
	return total
}

// Whole aggregates every log in the slice regardless of vehicle, including
// logs whose vehicle has since been deleted
func Whole(sl Slice) Rollup {
	var r Rollup
	for _, l := range sl.Trips {
		r.Trips++
		r.Income = r.Income.Add(l.Income)
		r.KmRun += l.TotalKm()
	}
	for _, f := range sl.Fuel {
		r.FuelCost = r.FuelCost.Add(f.Cost)
		r.FuelQty += f.Quantity
	}
	for _, e := range sl.Expenses {
		r.OtherCost = r.OtherCost.Add(e.Amount)
	}
	return r
}
