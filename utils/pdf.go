package utils

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"

	"rivaaz-backend/models"
)

// SettlementLine is one deduction row on a settlement invoice.
type SettlementLine struct {
	ProductName string  `json:"product_name"`
	ProductCode string  `json:"product_code"`
	QtyDamaged  int     `json:"qty_damaged"`
	QtyLost     int     `json:"qty_lost"`
	DamageFee   float64 `json:"damage_fee"`
	LostFee     float64 `json:"lost_fee"`
	Amount      float64 `json:"amount"`
}

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateSettlementPDF renders the settlement invoice for a finalized
// booking. The caller persists or uploads the returned bytes.
func GenerateSettlementPDF(booking *models.Booking, invoice *models.Invoice, customerName string, lines []SettlementLine) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Rivaaz Wedding Collection", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Rental Settlement Invoice", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(95, 6, fmt.Sprintf("Invoice: %s", invoice.InvoiceNumber), "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 6, fmt.Sprintf("Date: %s", invoice.IssueDate.Format("02 Jan 2006")), "", 1, "R", false, 0, "")
	pdf.CellFormat(95, 6, fmt.Sprintf("Booking: %s", booking.BookingNumber), "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 6, fmt.Sprintf("Customer: %s", customerName), "", 1, "R", false, 0, "")

	if img, err := renderCode128PNG(invoice.InvoiceNumber, 300, 60); err == nil {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		name := "invoice-barcode"
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
		pdf.ImageOptions(name, 150, pdf.GetY()+2, 45, 10, false, opts, 0, "")
	}
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(55, 7, "Product", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 7, "Code", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 7, "Damaged", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "Lost", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Damage Fee", "1", 0, "R", true, 0, "")
	pdf.CellFormat(20, 7, "Lost Fee", "1", 0, "R", true, 0, "")
	pdf.CellFormat(25, 7, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range lines {
		pdf.CellFormat(55, 7, line.ProductName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, line.ProductCode, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", line.QtyDamaged), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", line.QtyLost), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("£%.2f", line.DamageFee), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("£%.2f", line.LostFee), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("£%.2f", line.Amount), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(140, 7, "Total Deductions", "", 0, "R", false, 0, "")
	pdf.CellFormat(50, 7, fmt.Sprintf("£%.2f", booking.DeductionsTotal), "", 1, "R", false, 0, "")
	pdf.CellFormat(140, 7, "Deposit Held", "", 0, "R", false, 0, "")
	pdf.CellFormat(50, 7, fmt.Sprintf("£%.2f", booking.DepositAmount), "", 1, "R", false, 0, "")
	if booking.RefundAmount > 0 {
		pdf.CellFormat(140, 7, "Refund Due", "", 0, "R", false, 0, "")
		pdf.CellFormat(50, 7, fmt.Sprintf("£%.2f", booking.RefundAmount), "", 1, "R", false, 0, "")
	}
	if booking.ExtraCharge > 0 {
		pdf.CellFormat(140, 7, "Balance Payable", "", 0, "R", false, 0, "")
		pdf.CellFormat(50, 7, fmt.Sprintf("£%.2f", booking.ExtraCharge), "", 1, "R", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 5, "Thank you for choosing Rivaaz Wedding Collection.", "", 1, "C", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// GenerateBarcodeLabelsPDF renders a printable label sheet for a batch of
// newly issued unit barcodes, three labels per row.
func GenerateBarcodeLabelsPDF(product *models.Product, barcodes []models.ProductBarcode) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	const (
		labelW   = 63.0
		labelH   = 30.0
		marginX  = 8.0
		marginY  = 10.0
		perRow   = 3
	)

	for i, bc := range barcodes {
		col := i % perRow
		row := (i / perRow) % 8
		if i > 0 && col == 0 && row == 0 {
			pdf.AddPage()
		}
		x := marginX + float64(col)*labelW
		y := marginY + float64(row)*labelH

		pdf.Rect(x, y, labelW-2, labelH-2, "D")
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetXY(x+2, y+2)
		pdf.CellFormat(labelW-6, 4, product.Name, "", 0, "C", false, 0, "")

		img, err := renderCode128PNG(bc.BarcodeNumber, 300, 60)
		if err != nil {
			return nil, err
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		name := fmt.Sprintf("label-%s", bc.BarcodeNumber)
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
		pdf.ImageOptions(name, x+5, y+7, labelW-12, 12, false, opts, 0, "")

		pdf.SetFont("Helvetica", "", 7)
		pdf.SetXY(x+2, y+20)
		pdf.CellFormat(labelW-6, 4, bc.BarcodeNumber, "", 0, "C", false, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
