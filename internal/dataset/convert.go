package dataset

import (
	"fmt"

	"stockout-service/internal/models"
)

// StockRecords converts a validated stock_current dataset into typed rows.
func StockRecords(d *Dataset) ([]models.StockRecord, error) {
	if err := requireColumns(d, "BranchID", "ItemCode", "CurrentQuantity", "ReservedQuantity", "SafetyStockLevel", "LastUpdatedAt"); err != nil {
		return nil, err
	}

	records := make([]models.StockRecord, d.Rows())
	for i := 0; i < d.Rows(); i++ {
		records[i] = models.StockRecord{
			BranchID:         d.Strings("BranchID")[i],
			BranchName:       optionalString(d, "BranchName", i),
			ItemCode:         d.Strings("ItemCode")[i],
			ItemName:         optionalString(d, "ItemName", i),
			CurrentQuantity:  d.Floats("CurrentQuantity")[i],
			ReservedQuantity: d.Floats("ReservedQuantity")[i],
			SafetyStockLevel: d.Floats("SafetyStockLevel")[i],
			LastUpdatedAt:    d.Times("LastUpdatedAt")[i],
		}
	}
	return records, nil
}

// SalesRecords converts a validated sales_transactions dataset into typed rows.
func SalesRecords(d *Dataset) ([]models.SalesRecord, error) {
	if err := requireColumns(d, "Date", "BranchID", "ItemCode", "QuantitySold"); err != nil {
		return nil, err
	}

	records := make([]models.SalesRecord, d.Rows())
	for i := 0; i < d.Rows(); i++ {
		records[i] = models.SalesRecord{
			Date:          d.Times("Date")[i],
			BranchID:      d.Strings("BranchID")[i],
			BranchName:    optionalString(d, "BranchName", i),
			InvoiceNumber: optionalString(d, "InvoiceNumber", i),
			ItemCode:      d.Strings("ItemCode")[i],
			ItemName:      optionalString(d, "ItemName", i),
			QuantitySold:  d.Floats("QuantitySold")[i],
		}
	}
	return records, nil
}

// MovementRecords converts a validated stock_movement dataset into typed rows.
func MovementRecords(d *Dataset) ([]models.MovementRecord, error) {
	if err := requireColumns(d, "Date", "FromBranchID", "ToBranchID", "ItemCode", "QuantityMoved"); err != nil {
		return nil, err
	}

	records := make([]models.MovementRecord, d.Rows())
	for i := 0; i < d.Rows(); i++ {
		records[i] = models.MovementRecord{
			MovementID:     optionalString(d, "MovementID", i),
			Date:           d.Times("Date")[i],
			FromBranchID:   d.Strings("FromBranchID")[i],
			FromBranchName: optionalString(d, "FromBranchName", i),
			ToBranchID:     d.Strings("ToBranchID")[i],
			ToBranchName:   optionalString(d, "ToBranchName", i),
			ItemCode:       d.Strings("ItemCode")[i],
			ItemName:       optionalString(d, "ItemName", i),
			QuantityMoved:  d.Floats("QuantityMoved")[i],
		}
	}
	return records, nil
}

func requireColumns(d *Dataset, cols ...string) error {
	for _, col := range cols {
		if !d.HasColumn(col) {
			return fmt.Errorf("dataset %s: missing column %s", d.Name, col)
		}
	}
	return nil
}

func optionalString(d *Dataset, col string, i int) string {
	vals := d.Strings(col)
	if vals == nil {
		return ""
	}
	return vals[i]
}
