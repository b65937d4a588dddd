package handlers

import (
	"net/http"

	"rivaaz-backend/models"
	"rivaaz-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CustomerHandler struct {
	DB *gorm.DB
}

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)
	if !scoped {
		c.JSON(http.StatusForbidden, gin.H{"error": "Franchise access required"})
		return
	}

	var req struct {
		Name    string `json:"name" binding:"required"`
		Phone   string `json:"phone" binding:"required"`
		Email   string `json:"email"`
		Address string `json:"address"`
		City    string `json:"city"`
		Notes   string `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var existing models.Customer
	if err := h.DB.Where("phone = ? AND franchise_id = ?", req.Phone, franchiseID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A customer with this phone number already exists"})
		return
	}

	customer := models.Customer{
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
		City:        req.City,
		Notes:       req.Notes,
		FranchiseID: franchiseID,
	}

	if err := h.DB.Create(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create customer"})
		return
	}

	c.JSON(http.StatusCreated, customer)
}

func (h *CustomerHandler) GetCustomers(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Model(&models.Customer{})
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR phone LIKE ?", like, like)
	}

	var customers []models.Customer
	if err := query.Order("created_at DESC").Find(&customers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch customers"})
		return
	}

	c.JSON(http.StatusOK, customers)
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var customer models.Customer
	if err := query.First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}

	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	franchiseID, scoped := franchiseScope(c)

	query := h.DB.Where("id = ?", c.Param("id"))
	if scoped {
		query = query.Where("franchise_id = ?", franchiseID)
	}

	var customer models.Customer
	if err := query.First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}

	var req struct {
		Name    *string `json:"name"`
		Phone   *string `json:"phone"`
		Email   *string `json:"email"`
		Address *string `json:"address"`
		City    *string `json:"city"`
		Notes   *string `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.Phone != nil && *req.Phone != customer.Phone {
		var existing models.Customer
		if err := h.DB.Where("phone = ? AND franchise_id = ? AND id != ?", *req.Phone, customer.FranchiseID, customer.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "A customer with this phone number already exists"})
			return
		}
		customer.Phone = *req.Phone
	}
	if req.Email != nil {
		customer.Email = *req.Email
	}
	if req.Address != nil {
		customer.Address = *req.Address
	}
	if req.City != nil {
		customer.City = *req.City
	}
	if req.Notes != nil {
		customer.Notes = *req.Notes
	}

	if err := h.DB.Save(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update customer"})
		return
	}

	c.JSON(http.StatusOK, customer)
}
