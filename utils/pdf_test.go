package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"

	"rivaaz-backend/models"
)

func TestGenerateSettlementPDF(t *testing.T) {
	booking := &models.Booking{
		BookingNumber:   "BKG20250101120000ABCD1234",
		DepositAmount:   500,
		DeductionsTotal: 150,
		RefundAmount:    350,
	}
	invoice := &models.Invoice{
		InvoiceNumber: "SETTLE-2025-000042",
		IssueDate:     time.Now(),
	}
	lines := []SettlementLine{
		{ProductName: "Sherwani Gold", ProductCode: "SHW-001", QtyDamaged: 1, DamageFee: 100, Amount: 100},
		{ProductName: "Safa Red", ProductCode: "SAF-004", QtyLost: 1, LostFee: 50, Amount: 50},
	}

	data, err := GenerateSettlementPDF(booking, invoice, "Priya Sharma", lines)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("output should be a PDF document")
	}
}

func TestGenerateBarcodeLabelsPDF(t *testing.T) {
	product := &models.Product{Name: "Sherwani Gold", ProductCode: "SHW-001"}
	var barcodes []models.ProductBarcode
	for i := 1; i <= 5; i++ {
		barcodes = append(barcodes, models.ProductBarcode{
			ID:            uuid.New(),
			BarcodeNumber: product.ProductCode + "-00" + string(rune('0'+i)),
		})
	}

	data, err := GenerateBarcodeLabelsPDF(product, barcodes)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("output should be a PDF document")
	}
}

func TestRenderCode128PNG(t *testing.T) {
	data, err := renderCode128PNG("SHW-001-001", 300, 60)
	if err != nil {
		t.Fatal(err)
	}
	pngHeader := []byte{0x89, 'P', 'N', 'G'}
	if !bytes.HasPrefix(data, pngHeader) {
		t.Error("output should be a PNG image")
	}
}
