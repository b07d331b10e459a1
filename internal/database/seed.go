package database

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"spark-ledger/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedAdmin creates the first admin account when the users table is empty.
func SeedAdmin(db *gorm.DB, email, password string) error {
	var existing models.User
	err := db.First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         "Admin",
		PasswordHash: string(hash),
		Role:         "admin",
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Printf("database: default admin %s created", email)
	return nil
}

// SeedSettings inserts defaults without touching keys that already exist.
func SeedSettings(db *gorm.DB, defaults map[string]string) error {
	for key, value := range defaults {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).Create(&models.Setting{Key: key, Value: value}).Error
		if err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}
	return nil
}
