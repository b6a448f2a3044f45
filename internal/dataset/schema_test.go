package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStockDataset(t *testing.T, rows int) *Dataset {
	t.Helper()
	d := New(StockCurrent, rows)

	blank := make([]string, rows)
	zeros := make([]float64, rows)
	times := make([]time.Time, rows)

	for _, col := range []string{"BranchID", "BranchName", "ItemCode", "ItemName"} {
		require.NoError(t, d.SetStrings(col, blank))
	}
	for _, col := range []string{"CurrentQuantity", "ReservedQuantity", "SafetyStockLevel"} {
		require.NoError(t, d.SetFloats(col, zeros))
	}
	require.NoError(t, d.SetTimes("LastUpdatedAt", times))
	return d
}

func TestCheckSchemaValid(t *testing.T) {
	d := validStockDataset(t, 3)

	problems := CheckSchema(d, Schemas[StockCurrent])
	assert.Empty(t, problems)
}

func TestCheckSchemaMissingColumn(t *testing.T) {
	d := New(StockCurrent, 2)
	blank := []string{"", ""}
	zeros := []float64{0, 0}
	times := []time.Time{{}, {}}

	for _, col := range []string{"BranchID", "BranchName", "ItemCode", "ItemName"} {
		require.NoError(t, d.SetStrings(col, blank))
	}
	require.NoError(t, d.SetFloats("CurrentQuantity", zeros))
	require.NoError(t, d.SetFloats("ReservedQuantity", zeros))
	require.NoError(t, d.SetTimes("LastUpdatedAt", times))
	// SafetyStockLevel deliberately absent

	problems := CheckSchema(d, Schemas[StockCurrent])
	assert.Equal(t, []string{"Missing column: SafetyStockLevel"}, problems)
}

func TestCheckSchemaTypeMismatches(t *testing.T) {
	d := New(SalesTransactions, 1)
	blank := []string{""}

	for _, col := range []string{"BranchID", "BranchName", "InvoiceNumber", "ItemCode", "ItemName"} {
		require.NoError(t, d.SetStrings(col, blank))
	}
	// wrong types: datetime column as string, numeric column as string
	require.NoError(t, d.SetStrings("Date", blank))
	require.NoError(t, d.SetStrings("QuantitySold", blank))

	problems := CheckSchema(d, Schemas[SalesTransactions])
	assert.Equal(t, []string{"Column Date not datetime", "Column QuantitySold not numeric"}, problems)
}

func TestCheckSchemaCollectsAllProblems(t *testing.T) {
	d := New(StockMovement, 0)

	problems := CheckSchema(d, Schemas[StockMovement])
	// every expected column is missing, reported in one pass
	assert.Len(t, problems, len(Schemas[StockMovement]))
	for _, p := range problems {
		assert.Contains(t, p, "Missing column: ")
	}
}

func TestSetColumnLengthMismatch(t *testing.T) {
	d := New(StockCurrent, 2)

	err := d.SetFloats("CurrentQuantity", []float64{1})
	assert.Error(t, err)
	assert.False(t, d.HasColumn("CurrentQuantity"))
}

func TestSchemaErrorMessage(t *testing.T) {
	err := &SchemaError{Problems: []string{"Missing column: Date", "Column QuantitySold not numeric"}}
	assert.Equal(t, "schema validation failed: Missing column: Date; Column QuantitySold not numeric", err.Error())
}
