package testutil

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mobirepair/mobirepair-api/config"
	"github.com/mobirepair/mobirepair-api/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the password of every account created by CreateUser
const TestPassword = "secret123"

// EnsureTestEnvironment sets GO_ENV=test, refusing to run when another environment was requested.
// Use it from TestMain.
func EnsureTestEnvironment() {
	if env := os.Getenv("GO_ENV"); env != "" && env != "test" {
		fmt.Printf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q\n", env)
		os.Exit(1)
	}
	_ = os.Setenv("GO_ENV", "test")
}

// SetupTestDB opens an isolated in-memory SQLite database with every table migrated
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// TestConfig returns a configuration with deterministic fees and a test signing secret
func TestConfig() *config.Config {
	return &config.Config{
		Port:                  "8080",
		GoEnv:                 "test",
		JWTSecret:             "test-secret-that-is-at-least-32-bytes-long",
		JWTIssuer:             "mobirepair-api",
		JWTAudience:           "mobirepair-clients",
		JWTTTL:                time.Hour,
		CORSAllowedOrigins:    []string{"http://localhost:3000"},
		SMSTimeout:            time.Second,
		BusinessName:          "Mobile Repair",
		BusinessContactPhone:  "7407926912",
		DoorstepServiceFee:    99,
		FreeShippingThreshold: 999,
		FlatShippingFee:       49,
		TaxRate:               0.18,
		OrderNumberPrefix:     "GF",
	}
}

// CreateUser stores an active account with TestPassword
func CreateUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := models.User{
		Name:         "Test User",
		Email:        email,
		Phone:        "9876543210",
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return &user
}

// CreateProduct stores an active accessory with the given price and stock
func CreateProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *models.Product {
	t.Helper()

	product := models.Product{
		Name:        name,
		Description: name + " description",
		Category:    "accessories",
		Brand:       "Acme",
		Price:       price,
		Stock:       stock,
		IsActive:    true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	return &product
}
