package repository

import (
	"log"
	"os"
	"testing"

	"github.com/pavelchamgl/analog-threads/internal/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")

	var err error
	testDB, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Printf("Repository tests skipped: test database unavailable: %v", err)
		os.Exit(0)
	}

	if err := testDB.AutoMigrate(database.PersistentModels()...); err != nil {
		log.Printf("Repository tests skipped: migration failed: %v", err)
		os.Exit(0)
	}

	os.Exit(m.Run())
}

func truncateTables(db *gorm.DB) {
	for _, table := range []string{
		"comment_mentions", "post_mentions", "post_hashtags",
		"comment_likes", "likes", "comments", "notifications",
		"otps", "posts", "follows", "hash_tags", "users",
	} {
		db.Exec("DELETE FROM " + table)
	}
}
