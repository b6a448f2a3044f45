package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Dataset names used by the pipeline.
const (
	StockCurrent      = "stock_current"
	SalesTransactions = "sales_transactions"
	StockMovement     = "stock_movement"
)

// Schemas declares the expected column set per dataset.
var Schemas = map[string]map[string]ColumnType{
	StockCurrent: {
		"BranchID":         TypeString,
		"BranchName":       TypeString,
		"ItemCode":         TypeString,
		"ItemName":         TypeString,
		"CurrentQuantity":  TypeFloat,
		"ReservedQuantity": TypeFloat,
		"SafetyStockLevel": TypeFloat,
		"LastUpdatedAt":    TypeDatetime,
	},
	SalesTransactions: {
		"Date":          TypeDatetime,
		"BranchID":      TypeString,
		"BranchName":    TypeString,
		"InvoiceNumber": TypeString,
		"ItemCode":      TypeString,
		"ItemName":      TypeString,
		"QuantitySold":  TypeFloat,
	},
	StockMovement: {
		"MovementID":     TypeString,
		"Date":           TypeDatetime,
		"FromBranchID":   TypeString,
		"FromBranchName": TypeString,
		"ToBranchID":     TypeString,
		"ToBranchName":   TypeString,
		"ItemCode":       TypeString,
		"ItemName":       TypeString,
		"QuantityMoved":  TypeFloat,
	},
}

// CheckSchema validates a dataset against declared column types and returns
// the full list of problems rather than stopping at the first. String
// columns are not type-checked. An empty list means the dataset passed.
func CheckSchema(d *Dataset, expected map[string]ColumnType) []string {
	cols := make([]string, 0, len(expected))
	for col := range expected {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	var errs []string
	for _, col := range cols {
		want := expected[col]
		got, ok := d.TypeOf(col)
		if !ok {
			errs = append(errs, fmt.Sprintf("Missing column: %s", col))
			continue
		}
		switch want {
		case TypeDatetime:
			if got != TypeDatetime {
				errs = append(errs, fmt.Sprintf("Column %s not datetime", col))
			}
		case TypeFloat:
			if got != TypeFloat {
				errs = append(errs, fmt.Sprintf("Column %s not numeric", col))
			}
		}
	}
	return errs
}

// SchemaError aggregates every schema problem found across the run's
// datasets so operators see the full list at once.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema validation failed: %s", strings.Join(e.Problems, "; "))
}
