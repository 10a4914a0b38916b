package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/cable-billing/internal/model"
	"github.com/iliyamo/cable-billing/internal/report"
)

func TestCollectionsWorkbook(t *testing.T) {
	start := model.NewDate(2024, time.June, 1)
	end := model.NewDate(2024, time.June, 30)

	t.Run("rows and totals", func(t *testing.T) {
		rows := []report.CollectionRow{
			{PaymentDate: model.NewDate(2024, time.June, 5), CustomerName: "A", SetTopBoxNumber: "STB-1", Period: "June 2024", Method: "Cash", Amount: 500},
			{PaymentDate: model.NewDate(2024, time.June, 20), CustomerName: "B", SetTopBoxNumber: "STB-2", Period: "June 2024", Method: "Online", Reference: "UPI-9", Amount: 300},
		}
		buffer, err := report.CollectionsWorkbook(start, end, rows, report.Totals{Cash: 500, Online: 300, Grand: 800})
		require.NoError(t, err)

		f, err := excelize.OpenReader(buffer)
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, []string{"Collections", "Summary"}, f.GetSheetList())

		header, err := f.GetCellValue("Collections", "A1")
		require.NoError(t, err)
		assert.Equal(t, "Payment Date", header)

		first, err := f.GetCellValue("Collections", "A2")
		require.NoError(t, err)
		assert.Equal(t, "2024-06-05", first)

		ref, err := f.GetCellValue("Collections", "F3")
		require.NoError(t, err)
		assert.Equal(t, "UPI-9", ref)

		total, err := f.GetCellValue("Summary", "B6")
		require.NoError(t, err)
		assert.Equal(t, "800", total)
	})

	t.Run("empty range", func(t *testing.T) {
		buffer, err := report.CollectionsWorkbook(start, end, nil, report.Totals{})
		require.NoError(t, err)

		f, err := excelize.OpenReader(buffer)
		require.NoError(t, err)
		defer f.Close()

		count, err := f.GetCellValue("Summary", "B3")
		require.NoError(t, err)
		assert.Equal(t, "0", count)

		rows, err := f.GetRows("Collections")
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}
