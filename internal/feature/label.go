package feature

import (
	"time"

	"stockout-service/internal/models"
)

type branchItem struct {
	branch string
	item   string
}

// CreateLabel derives the supervised stockout target for each stock row.
//
// future_sales is a genuine forward-looking sum: sales for the row's
// (branch, item) in the window (t, t+horizon days] anchored at the row's
// snapshot timestamp. Rows without a usable timestamp fall back to the
// trailing horizon window over that pair's most recent sales, which keeps
// the "expected sales over the horizon" reading for stale snapshots.
//
// The output row count always equals the stock snapshot row count: rows
// with no matching sales or movement get zero-filled derived columns,
// never dropped. FromBranchID/ToBranchID default to the row's own branch
// so downstream hashing has no implicit column dependency on the caller.
func CreateLabel(sales []models.SalesRecord, stock []models.StockRecord, horizonDays int, movement []models.MovementRecord) []models.LabeledRow {
	horizon := time.Duration(horizonDays) * 24 * time.Hour

	salesByKey := make(map[branchItem][]models.SalesRecord)
	for _, s := range sales {
		key := branchItem{s.BranchID, s.ItemCode}
		salesByKey[key] = append(salesByKey[key], s)
	}

	netMovement := aggregateMovement(movement)

	rows := make([]models.LabeledRow, len(stock))
	for i, st := range stock {
		key := branchItem{st.BranchID, st.ItemCode}

		futureSales := windowSum(salesByKey[key], st.LastUpdatedAt, horizon)
		net := netMovement[key]
		projected := st.CurrentQuantity - st.ReservedQuantity - futureSales + net

		label := 0
		if projected < st.SafetyStockLevel {
			label = 1
		}

		rows[i] = models.LabeledRow{
			BranchID:         st.BranchID,
			ItemCode:         st.ItemCode,
			FromBranchID:     st.BranchID,
			ToBranchID:       st.BranchID,
			CurrentQuantity:  st.CurrentQuantity,
			ReservedQuantity: st.ReservedQuantity,
			SafetyStockLevel: st.SafetyStockLevel,
			LastUpdatedAt:    st.LastUpdatedAt,
			FutureSales:      futureSales,
			NetMovement:      net,
			ProjectedStock:   projected,
			LabelStockout:    label,
		}
	}
	return rows
}

// windowSum sums quantities sold in (anchor, anchor+horizon]. A zero anchor
// uses the trailing horizon ending at the pair's latest sale instead.
func windowSum(sales []models.SalesRecord, anchor time.Time, horizon time.Duration) float64 {
	if len(sales) == 0 {
		return 0
	}

	var lo, hi time.Time
	if anchor.IsZero() {
		latest := sales[0].Date
		for _, s := range sales[1:] {
			if s.Date.After(latest) {
				latest = s.Date
			}
		}
		lo, hi = latest.Add(-horizon), latest
	} else {
		lo, hi = anchor, anchor.Add(horizon)
	}

	var sum float64
	for _, s := range sales {
		if s.Date.After(lo) && !s.Date.After(hi) {
			sum += s.QuantitySold
		}
	}
	return sum
}

// aggregateMovement computes inflow minus outflow per (branch, item).
// Missing legs default to zero.
func aggregateMovement(movement []models.MovementRecord) map[branchItem]float64 {
	net := make(map[branchItem]float64)
	for _, m := range movement {
		net[branchItem{m.ToBranchID, m.ItemCode}] += m.QuantityMoved
		net[branchItem{m.FromBranchID, m.ItemCode}] -= m.QuantityMoved
	}
	return net
}
