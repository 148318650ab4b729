package config

import (
	"errors"
	"fmt"

	"coconut-supply/models"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB opens the SQLite database at path and migrates all models.
func OpenDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Coconut{},
		&models.Order{},
		&models.OrderStatusHistory{},
		&models.CheckoutSession{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// SeedAdmin creates the first admin account when the users table has none.
// It reports whether a user was created.
func SeedAdmin(db *gorm.DB, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	var admin models.User
	err := db.Where("role = ?", models.RoleAdmin).First(&admin).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("look up admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	admin = models.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
