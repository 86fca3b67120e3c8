// Package bootstrap initializes shared runtime dependencies for the
// server and supporting commands.
package bootstrap

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pavelchamgl/analog-threads/internal/cache"
	"github.com/pavelchamgl/analog-threads/internal/config"
	"github.com/pavelchamgl/analog-threads/internal/database"
	"github.com/pavelchamgl/analog-threads/internal/models"
	"github.com/pavelchamgl/analog-threads/internal/seed"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedBuiltIns bool
}

// InitRuntime connects to DB and Redis and optionally runs built-in seeding.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	// Connect DB
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevAccount(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development account: %w", err)
	}

	if opts.SeedBuiltIns {
		if err := seed.Hashtags(db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed built-in hashtags: %w", err)
		}
	}

	return db, r, nil
}

// ensureDevAccount creates a fixed verified account in development so
// fresh databases are usable without running the full seeder.
func ensureDevAccount(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash dev password: %w", err)
	}

	var existing models.User
	findErr := db.Where("username = ?", "threads").First(&existing).Error
	switch {
	case errors.Is(findErr, gorm.ErrRecordNotFound):
		user := models.User{
			Username:      "threads",
			Email:         "threads@example.com",
			Password:      string(hashedPassword),
			IsEmailVerify: true,
		}
		if err := db.Create(&user).Error; err != nil {
			return err
		}
		log.Printf("development account ensured (%s)", user.Email)
	case findErr != nil:
		return findErr
	}

	return nil
}
