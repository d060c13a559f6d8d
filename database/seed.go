package database

import (
	"fmt"
	"log"
	"os"

	"github.com/sahilchouksey/eduadmit/model"
	"github.com/sahilchouksey/eduadmit/utils/auth"
	"gorm.io/gorm"
)

// SeedAdminUser creates the initial admin account from env if it does not
// exist yet. Safe to call on every startup.
func SeedAdminUser(db *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var existing model.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		admin := model.User{
			Email:        email,
			PasswordHash: hash,
			Name:         "Administrator",
			Role:         "admin",
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		// Admins get a student identity too, same as regular signups
		if err := tx.Create(&model.Student{UserID: admin.ID}).Error; err != nil {
			return err
		}
		if err := tx.Create(&model.Profile{UserID: admin.ID, FullName: admin.Name}).Error; err != nil {
			return err
		}
		log.Printf("Seeded admin user %s", email)
		return nil
	})
}
