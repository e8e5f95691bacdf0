// Package render produces the customer-facing PDF estimate from priced
// tiers.
package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"tradeworks-estimate/pkg/api"
)

// EstimatePDF renders priced tiers (and an optional narrative) as an A4
// estimate document.
func EstimatePDF(tiers []api.PricedTier, meta *api.JobMeta, narrative string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Service Estimate", false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, fmt.Sprintf("%s Estimate", titleService(meta)))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(90, 90, 90)
	pdf.Cell(0, 6, fmt.Sprintf("Location: %s    Complexity: %s    Date: %s",
		meta.LocationOr("N/A"), meta.ComplexityOr("Standard"), time.Now().Format("Jan 2, 2006")))
	pdf.Ln(12)
	pdf.SetTextColor(0, 0, 0)

	for _, tier := range tiers {
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(120, 8, fmt.Sprintf("%s - %s", tier.TierName, tier.Description), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, fmt.Sprintf("$%.2f", tier.TotalAmount), "", 1, "R", false, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, item := range tier.LineItems {
			var unit, total float64
			if item.UnitPrice != nil {
				unit = *item.UnitPrice
			}
			if item.TotalPrice != nil {
				total = *item.TotalPrice
			}
			pdf.CellFormat(100, 6, item.Description, "", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, fmt.Sprintf("%g %s", item.Quantity, item.Unit), "", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, fmt.Sprintf("@ $%.2f", unit), "", 0, "R", false, 0, "")
			pdf.CellFormat(0, 6, fmt.Sprintf("$%.2f", total), "", 1, "R", false, 0, "")
		}
		pdf.Ln(6)
	}

	if narrative != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "About This Estimate")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, narrative, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render estimate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func titleService(meta *api.JobMeta) string {
	return meta.ServiceTypeOr("Service")
}
