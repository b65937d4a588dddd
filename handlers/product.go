package handlers

import (
	"fmt"
	"log"
	"net/http"

	"rivaaz-backend/firebase"
	"rivaaz-backend/inventory"
	"rivaaz-backend/models"
	"rivaaz-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProductHandler struct {
	DB      *gorm.DB
	Storage firebase.StorageClient
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)
	if !scoped {
		c.JSON(http.StatusForbidden, gin.H{"error": "Franchise access required"})
		return
	}

	var req struct {
		Name        string  `json:"name" binding:"required"`
		ProductCode string  `json:"product_code" binding:"required"`
		Category    string  `json:"category"`
		Description string  `json:"description"`
		RentalPrice float64 `json:"rental_price"`
		SalePrice   float64 `json:"sale_price"`
		DamageFee   float64 `json:"damage_fee"`
		LostFee     float64 `json:"lost_fee"`
		StockTotal  int     `json:"stock_total"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.StockTotal < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stock_total cannot be negative"})
		return
	}

	var existing models.Product
	if err := h.DB.Where("product_code = ?", req.ProductCode).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Product code already in use"})
		return
	}

	product := models.Product{
		Name:           req.Name,
		ProductCode:    req.ProductCode,
		Category:       req.Category,
		Description:    req.Description,
		FranchiseID:    franchiseID,
		RentalPrice:    req.RentalPrice,
		SalePrice:      req.SalePrice,
		DamageFee:      req.DamageFee,
		LostFee:        req.LostFee,
		StockTotal:     req.StockTotal,
		StockAvailable: req.StockTotal,
		IsActive:       true,
	}

	if err := h.DB.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) GetProducts(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Model(&models.Product{}).Where("is_active = ?", true)
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR product_code LIKE ?", like, like)
	}

	var products []models.Product
	if err := query.Order("name ASC").Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var product models.Product
	if err := query.First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var product models.Product
	if err := query.First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	var req struct {
		Name        *string  `json:"name"`
		Category    *string  `json:"category"`
		Description *string  `json:"description"`
		RentalPrice *float64 `json:"rental_price"`
		SalePrice   *float64 `json:"sale_price"`
		DamageFee   *float64 `json:"damage_fee"`
		LostFee     *float64 `json:"lost_fee"`
		IsActive    *bool    `json:"is_active"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.RentalPrice != nil {
		product.RentalPrice = *req.RentalPrice
	}
	if req.SalePrice != nil {
		product.SalePrice = *req.SalePrice
	}
	if req.DamageFee != nil {
		product.DamageFee = *req.DamageFee
	}
	if req.LostFee != nil {
		product.LostFee = *req.LostFee
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.DB.Save(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var product models.Product
	if err := query.First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	if err := h.DB.Delete(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

func (h *ProductHandler) UploadProductImage(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var product models.Product
	if err := query.First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}

	if err := utils.ValidateFileUpload(fileHeader); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	url, err := h.Storage.UploadProductImage(file, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	product.ImageURL = url
	if err := h.DB.Save(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"image_url": url})
}

// GenerateBarcodes registers new physical units for a product. Each unit
// gets a sequential barcode (CODE-001, CODE-002, ...) and the stock counters
// grow by the intake quantity. A printable label sheet is uploaded
// best-effort.
func (h *ProductHandler) GenerateBarcodes(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var product models.Product
	if err := query.First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	var req struct {
		Quantity int `json:"quantity" binding:"required,min=1,max=500"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var maxSeq int
	h.DB.Model(&models.ProductBarcode{}).
		Where("product_id = ?", product.ID).
		Select("COALESCE(MAX(sequence_number), 0)").
		Scan(&maxSeq)

	barcodes := make([]models.ProductBarcode, 0, req.Quantity)
	for i := 1; i <= req.Quantity; i++ {
		seq := maxSeq + i
		barcodes = append(barcodes, models.ProductBarcode{
			BarcodeNumber:  fmt.Sprintf("%s-%03d", product.ProductCode, seq),
			SequenceNumber: seq,
			ProductID:      product.ID,
			Status:         "available",
			FranchiseID:    product.FranchiseID,
		})
	}

	tx := h.DB.Begin()
	if err := tx.CreateInBatches(&barcodes, 100).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create barcodes"})
		return
	}

	warnings, err := inventory.ApplyDelta(tx, product.ID, inventory.Delta{Total: req.Quantity, Available: req.Quantity})
	if err != nil {
		tx.Rollback()
		if err == inventory.ErrStockConflict {
			c.JSON(http.StatusConflict, gin.H{"error": "Stock was modified concurrently, please retry"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register barcodes"})
		return
	}

	response := gin.H{
		"created":  len(barcodes),
		"barcodes": barcodes,
	}
	if len(warnings) > 0 {
		response["warnings"] = warnings
	}

	// Label sheet upload is best-effort; intake stands even if it fails.
	if pdfData, err := utils.GenerateBarcodeLabelsPDF(&product, barcodes); err == nil {
		filename := fmt.Sprintf("labels_%s.pdf", product.ProductCode)
		if url, err := h.Storage.UploadDocument(pdfData, filename, "application/pdf"); err == nil {
			response["labels_url"] = url
		} else {
			log.Printf("Failed to upload label sheet for %s: %v", product.ProductCode, err)
		}
	} else {
		log.Printf("Failed to generate label sheet for %s: %v", product.ProductCode, err)
	}

	c.JSON(http.StatusCreated, response)
}

func (h *ProductHandler) GetProductBarcodes(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var product models.Product
	if err := query.First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	barcodeQuery := h.DB.Where("product_id = ?", product.ID)
	if status := c.Query("status"); status != "" {
		barcodeQuery = barcodeQuery.Where("status = ?", status)
	}

	var barcodes []models.ProductBarcode
	if err := barcodeQuery.Order("sequence_number ASC").Find(&barcodes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch barcodes"})
		return
	}

	c.JSON(http.StatusOK, barcodes)
}
