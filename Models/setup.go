package Models

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	dbPath := os.Getenv("DENTA_DB")
	if dbPath == "" {
		dbPath = "database.db"
	}

	connection, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	DB = connection

	// 1. Base tables with no foreign keys
	DB.AutoMigrate(
		&User{},
		&Assistant{},
		&ClinicSettings{},
		&DeviceToken{},
		&Invitation{},
	)

	// 2. Tables referencing users/assistants
	DB.AutoMigrate(
		&Task{},
		&Shift{},
		&Certification{},
		&Feedback{},
	)

	// 3. Children of tasks
	DB.AutoMigrate(
		&ChecklistItem{},
		&TaskOccurrence{},
	)

	if _, err := GetSettings(DB); err != nil {
		log.Printf("Error seeding clinic settings: %v", err)
	}

	seedOwner()
}

// seedOwner creates the initial owner account on a fresh database so the
// clinic can log in and invite the rest of the team.
func seedOwner() {
	var count int64
	DB.Model(&User{}).Where("permission = ?", PermissionOwner).Count(&count)
	if count > 0 {
		return
	}

	email := os.Getenv("DENTA_OWNER_EMAIL")
	password := os.Getenv("DENTA_OWNER_PASSWORD")
	if email == "" || password == "" {
		log.Println("No owner account and DENTA_OWNER_EMAIL/DENTA_OWNER_PASSWORD not set, skipping seed")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing owner password: %v", err)
		return
	}

	owner := User{
		Name:       "Owner",
		Email:      email,
		Password:   hash,
		Permission: PermissionOwner,
		IsActive:   true,
	}
	if err := DB.Create(&owner).Error; err != nil {
		log.Printf("Error seeding owner account: %v", err)
		return
	}
	log.Printf("Seeded owner account %s", email)
}
