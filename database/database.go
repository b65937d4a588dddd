package database

import (
	"fmt"
	"log"
	"os"

	"rivaaz-backend/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=rivaaz_store port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	// Ensure PostgreSQL has gen_random_uuid() available (pgcrypto extension).
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Franchise{},
		&models.Customer{},
		&models.Product{},
		&models.ProductBarcode{},
		&models.BookingBarcodeAssignment{},
		&models.Booking{},
		&models.BookingItem{},
		&models.Delivery{},
		&models.DeliveryHandoverItem{},
		&models.Return{},
		&models.ReturnItem{},
		&models.ProductArchive{},
		&models.Invoice{},
		&models.FinancialTransaction{},
		&models.PaymentMethod{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	return nil
}

func CreateDefaultAdmin(db *gorm.DB) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" {
		adminEmail = "admin@rivaaz.com"
	}
	if adminPassword == "" {
		adminPassword = "admin123"
	}

	var existingUser models.User
	result := db.Where("email = ?", adminEmail).First(&existingUser)
	if result.Error == nil {
		// Admin already exists
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     "admin",
		Name:     "Admin User",
	}

	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Default admin created: %s", adminEmail)
	return nil
}

func CreateDefaultFranchise(db *gorm.DB) error {
	var count int64
	db.Model(&models.Franchise{}).Count(&count)
	if count > 0 {
		return nil
	}

	var admin models.User
	if err := db.Where("role = ?", "admin").First(&admin).Error; err != nil {
		// No admin yet, nothing to own the franchise
		return nil
	}

	franchise := models.Franchise{
		Name:     "Rivaaz Main Store",
		Slug:     "rivaaz-main",
		OwnerID:  admin.ID,
		IsActive: true,
	}
	if err := db.Create(&franchise).Error; err != nil {
		return err
	}

	log.Printf("Default franchise created: %s", franchise.Slug)
	return nil
}

// SeedPaymentMethods creates the built-in payment methods used by
// settlements. Safe to run repeatedly.
func SeedPaymentMethods(db *gorm.DB) error {
	names := []string{"Cash", "Card", "Bank Transfer"}
	for _, name := range names {
		var existing models.PaymentMethod
		if err := db.Where("name = ?", name).First(&existing).Error; err == nil {
			continue
		}
		if err := db.Create(&models.PaymentMethod{Name: name, IsActive: true}).Error; err != nil {
			return err
		}
	}
	return nil
}
