package store

import (
	"context"
	"fmt"
	"time"

	"stockout-service/internal/dataset"
)

// Row shapes matching the ingestion tables. Kept separate from the feature
// models so the generic datasets carry every schema column and the schema
// validator has something real to check.

type stockRow struct {
	BranchID         string    `db:"branch_id"`
	BranchName       string    `db:"branch_name"`
	ItemCode         string    `db:"item_code"`
	ItemName         string    `db:"item_name"`
	CurrentQuantity  float64   `db:"current_quantity"`
	ReservedQuantity float64   `db:"reserved_quantity"`
	SafetyStockLevel float64   `db:"safety_stock_level"`
	LastUpdatedAt    time.Time `db:"last_updated_at"`
}

type salesRow struct {
	Date          time.Time `db:"date"`
	BranchID      string    `db:"branch_id"`
	BranchName    string    `db:"branch_name"`
	InvoiceNumber string    `db:"invoice_number"`
	ItemCode      string    `db:"item_code"`
	ItemName      string    `db:"item_name"`
	QuantitySold  float64   `db:"quantity_sold"`
}

type movementRow struct {
	MovementID     string    `db:"movement_id"`
	Date           time.Time `db:"date"`
	FromBranchID   string    `db:"from_branch_id"`
	FromBranchName string    `db:"from_branch_name"`
	ToBranchID     string    `db:"to_branch_id"`
	ToBranchName   string    `db:"to_branch_name"`
	ItemCode       string    `db:"item_code"`
	ItemName       string    `db:"item_name"`
	QuantityMoved  float64   `db:"quantity_moved"`
}

// LoadDatasets reads the three ingestion tables into column-typed
// datasets keyed by their schema names.
func (s *Store) LoadDatasets(ctx context.Context) (map[string]*dataset.Dataset, error) {
	stock, err := s.loadStockDataset(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", dataset.StockCurrent, err)
	}
	sales, err := s.loadSalesDataset(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", dataset.SalesTransactions, err)
	}
	movement, err := s.loadMovementDataset(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", dataset.StockMovement, err)
	}

	return map[string]*dataset.Dataset{
		dataset.StockCurrent:      stock,
		dataset.SalesTransactions: sales,
		dataset.StockMovement:     movement,
	}, nil
}

func (s *Store) loadStockDataset(ctx context.Context) (*dataset.Dataset, error) {
	var rows []stockRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT branch_id, branch_name, item_code, item_name, current_quantity, reserved_quantity, safety_stock_level, last_updated_at FROM stock_current")
	if err != nil {
		return nil, err
	}

	n := len(rows)
	branchIDs := make([]string, n)
	branchNames := make([]string, n)
	itemCodes := make([]string, n)
	itemNames := make([]string, n)
	current := make([]float64, n)
	reserved := make([]float64, n)
	safety := make([]float64, n)
	updated := make([]time.Time, n)
	for i, r := range rows {
		branchIDs[i] = r.BranchID
		branchNames[i] = r.BranchName
		itemCodes[i] = r.ItemCode
		itemNames[i] = r.ItemName
		current[i] = r.CurrentQuantity
		reserved[i] = r.ReservedQuantity
		safety[i] = r.SafetyStockLevel
		updated[i] = r.LastUpdatedAt
	}

	ds := dataset.New(dataset.StockCurrent, n)
	setters := []error{
		ds.SetStrings("BranchID", branchIDs),
		ds.SetStrings("BranchName", branchNames),
		ds.SetStrings("ItemCode", itemCodes),
		ds.SetStrings("ItemName", itemNames),
		ds.SetFloats("CurrentQuantity", current),
		ds.SetFloats("ReservedQuantity", reserved),
		ds.SetFloats("SafetyStockLevel", safety),
		ds.SetTimes("LastUpdatedAt", updated),
	}
	return ds, firstError(setters)
}

func (s *Store) loadSalesDataset(ctx context.Context) (*dataset.Dataset, error) {
	var rows []salesRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT date, branch_id, branch_name, invoice_number, item_code, item_name, quantity_sold FROM sales_transactions ORDER BY date")
	if err != nil {
		return nil, err
	}

	n := len(rows)
	dates := make([]time.Time, n)
	branchIDs := make([]string, n)
	branchNames := make([]string, n)
	invoices := make([]string, n)
	itemCodes := make([]string, n)
	itemNames := make([]string, n)
	quantities := make([]float64, n)
	for i, r := range rows {
		dates[i] = r.Date
		branchIDs[i] = r.BranchID
		branchNames[i] = r.BranchName
		invoices[i] = r.InvoiceNumber
		itemCodes[i] = r.ItemCode
		itemNames[i] = r.ItemName
		quantities[i] = r.QuantitySold
	}

	ds := dataset.New(dataset.SalesTransactions, n)
	setters := []error{
		ds.SetTimes("Date", dates),
		ds.SetStrings("BranchID", branchIDs),
		ds.SetStrings("BranchName", branchNames),
		ds.SetStrings("InvoiceNumber", invoices),
		ds.SetStrings("ItemCode", itemCodes),
		ds.SetStrings("ItemName", itemNames),
		ds.SetFloats("QuantitySold", quantities),
	}
	return ds, firstError(setters)
}

func (s *Store) loadMovementDataset(ctx context.Context) (*dataset.Dataset, error) {
	var rows []movementRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT movement_id, date, from_branch_id, from_branch_name, to_branch_id, to_branch_name, item_code, item_name, quantity_moved FROM stock_movement ORDER BY date")
	if err != nil {
		return nil, err
	}

	n := len(rows)
	movementIDs := make([]string, n)
	dates := make([]time.Time, n)
	fromIDs := make([]string, n)
	fromNames := make([]string, n)
	toIDs := make([]string, n)
	toNames := make([]string, n)
	itemCodes := make([]string, n)
	itemNames := make([]string, n)
	quantities := make([]float64, n)
	for i, r := range rows {
		movementIDs[i] = r.MovementID
		dates[i] = r.Date
		fromIDs[i] = r.FromBranchID
		fromNames[i] = r.FromBranchName
		toIDs[i] = r.ToBranchID
		toNames[i] = r.ToBranchName
		itemCodes[i] = r.ItemCode
		itemNames[i] = r.ItemName
		quantities[i] = r.QuantityMoved
	}

	ds := dataset.New(dataset.StockMovement, n)
	setters := []error{
		ds.SetStrings("MovementID", movementIDs),
		ds.SetTimes("Date", dates),
		ds.SetStrings("FromBranchID", fromIDs),
		ds.SetStrings("FromBranchName", fromNames),
		ds.SetStrings("ToBranchID", toIDs),
		ds.SetStrings("ToBranchName", toNames),
		ds.SetStrings("ItemCode", itemCodes),
		ds.SetStrings("ItemName", itemNames),
		ds.SetFloats("QuantityMoved", quantities),
	}
	return ds, firstError(setters)
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
