package main

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/metrologia-api/internal/application/dto"
)

func TestRenderInvoiceStats(t *testing.T) {
	var buf bytes.Buffer
	renderInvoiceStats(&buf, &dto.InvoiceStatsResponse{
		Total:          3,
		ByStatus:       map[string]int{"paid": 1, "pending": 2},
		TotalBilled:    decimal.NewFromInt(177000),
		TotalCollected: decimal.NewFromInt(59000),
		TotalPending:   decimal.NewFromInt(118000),
		TotalOverdue:   decimal.Zero,
	}, "XOF")

	out := buf.String()
	assert.Contains(t, out, "177000.00")
	assert.Contains(t, out, "59000.00")
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "XOF")
}

func TestRenderControlStats(t *testing.T) {
	var buf bytes.Buffer
	renderControlStats(&buf, &dto.ControlStatsResponse{
		Total:     4,
		ByStatus:  map[string]int{"planned": 3, "completed": 1},
		ByResult:  map[string]int{"compliant": 1},
		ThisMonth: 2,
		DateLabel: "Marzo 2026",
	})

	out := buf.String()
	assert.Contains(t, out, "2026")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "compliant")
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, sortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
}
