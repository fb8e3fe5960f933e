package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	ledger "github.com/sk1972-mend/mendinsurance/internal/ledger/domain"
)

// BuildRevenuePDF renders a revenue statement as a single-page PDF.
func BuildRevenuePDF(summary *ledger.RevenueSummary) ([]byte, error) {
	if summary == nil {
		return nil, fmt.Errorf("revenue pdf: nil summary")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Shop Revenue Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Shop: %s", summary.ShopID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", summary.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Wallet Balance: %s", summary.WalletBalance.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Monthly Passive Income: %s", summary.MonthlyPassive.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Projected ARR: %s", summary.ProjectedARR.StringFixed(0)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(35, 6, "Month", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Commission", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Repairs", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Total", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, month := range summary.Months {
		pdf.CellFormat(35, 6, month.Month, "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, month.Commission.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, month.Repairs.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, month.Total().StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildRevenueXLSX renders a revenue statement as a workbook with a summary
// sheet and a per-month sheet.
func BuildRevenueXLSX(summary *ledger.RevenueSummary) ([]byte, error) {
	if summary == nil {
		return nil, fmt.Errorf("revenue xlsx: nil summary")
	}
	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	monthsSheet := "months"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(monthsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Shop Revenue Statement")
	_ = f.SetCellValue(summarySheet, "A3", "Shop")
	_ = f.SetCellValue(summarySheet, "B3", summary.ShopID)
	_ = f.SetCellValue(summarySheet, "A4", "Generated")
	_ = f.SetCellValue(summarySheet, "B4", summary.GeneratedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A5", "Wallet Balance")
	_ = f.SetCellValue(summarySheet, "B5", summary.WalletBalance.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A6", "Monthly Passive Income")
	_ = f.SetCellValue(summarySheet, "B6", summary.MonthlyPassive.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A7", "Projected ARR")
	_ = f.SetCellValue(summarySheet, "B7", summary.ProjectedARR.InexactFloat64())

	_ = f.SetCellValue(monthsSheet, "A1", "Month")
	_ = f.SetCellValue(monthsSheet, "B1", "Commission")
	_ = f.SetCellValue(monthsSheet, "C1", "Repairs")
	_ = f.SetCellValue(monthsSheet, "D1", "Total")
	for i, month := range summary.Months {
		row := i + 2
		_ = f.SetCellValue(monthsSheet, fmt.Sprintf("A%d", row), month.Month)
		_ = f.SetCellValue(monthsSheet, fmt.Sprintf("B%d", row), month.Commission.InexactFloat64())
		_ = f.SetCellValue(monthsSheet, fmt.Sprintf("C%d", row), month.Repairs.InexactFloat64())
		_ = f.SetCellValue(monthsSheet, fmt.Sprintf("D%d", row), month.Total().InexactFloat64())
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
