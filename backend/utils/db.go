package utils

import (
	"fmt"
	"strings"

	"tektongeo/backend/config"
	"tektongeo/backend/models"
	"tektongeo/backend/policy"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Marker{},
		&models.Survey{},
		&models.SurveyValue{},
		&models.ActivityLog{},
		&models.SystemInfo{},
	)
}

// SeedSuperAdmin creates the distinguished super-admin account if it does not
// exist yet. The account itself is never touched again after first creation.
func SeedSuperAdmin(db *gorm.DB, cfg *config.Config) error {
	email := strings.ToLower(strings.TrimSpace(cfg.SuperAdminEmail))

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.SuperAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:        email,
		FullName:     "Super Admin",
		PasswordHash: string(hash),
		Role:         policy.RoleSuperAdmin,
		Enabled:      true,
	}
	return db.Create(&admin).Error
}
