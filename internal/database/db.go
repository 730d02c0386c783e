package database

import (
	"log"
	"os"
	"time"

	"go-pos-ledger/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the durable local store. By default this is an embedded
// sqlite file next to the binary, so the shop works with zero setup; setting
// DB_DSN switches to a shared MySQL server for multi-terminal shops.
func Connect() {
	dsn := os.Getenv("DB_DSN")

	var err error
	if dsn != "" {
		// Wait for MySQL to be ready (it may still be booting in Docker)
		for i := 0; i < 5; i++ {
			DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
				Logger: logger.Default.LogMode(logger.Warn),
			})
			if err == nil {
				break
			}
			log.Printf("Failed to connect to database. Retrying in 2 seconds... (%d/5)", i+1)
			time.Sleep(2 * time.Second)
		}
	} else {
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = "./pos-ledger.db"
		}
		DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
	}

	if err != nil {
		log.Fatal("❌ Failed to connect to the local store:", err)
	}

	log.Println("✅ Durable store connected!")

	err = DB.AutoMigrate(
		&models.User{},
		&Blob{},
	)
	if err != nil {
		log.Fatal("❌ Failed to migrate schema:", err)
	}

	log.Println("✅ Database Schema Synced!")
}
