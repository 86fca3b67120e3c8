//go:build integration

package seed

import (
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/pavelchamgl/analog-threads/internal/config"
	"github.com/pavelchamgl/analog-threads/internal/database"
	"github.com/pavelchamgl/analog-threads/internal/models"
)

func parseDatabaseURLToConfig(dsn string) (*config.Config, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, err
	}
	password := ""
	if u.User != nil {
		password, _ = u.User.Password()
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	dbname := strings.TrimPrefix(u.Path, "/")
	cfg := &config.Config{
		DBHost:       host,
		DBPort:       port,
		DBUser:       u.User.Username(),
		DBPassword:   password,
		DBName:       dbname,
		DBSSLMode:    "disable",
		Env:          "test",
		DBSchemaMode: "auto",
	}
	return cfg, nil
}

func TestIntegration_SeedFullDataset(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration seed test")
	}
	cfg, err := parseDatabaseURLToConfig(dsn)
	if err != nil {
		t.Fatalf("parse DATABASE_URL: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("connect database: %v", err)
	}

	opts := Options{NumUsers: 10, NumPosts: 40, ShouldClean: true, SkipBcrypt: true}
	if err := Seed(db, opts); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var users, posts, follows int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if err := db.Model(&models.Post{}).Count(&posts).Error; err != nil {
		t.Fatalf("count posts: %v", err)
	}
	if err := db.Model(&models.Follow{}).Count(&follows).Error; err != nil {
		t.Fatalf("count follows: %v", err)
	}

	if users < 10 {
		t.Fatalf("expected at least 10 users, got %d", users)
	}
	if posts < 40 {
		t.Fatalf("expected at least 40 posts, got %d", posts)
	}
	if follows == 0 {
		t.Fatal("expected follow edges")
	}
}
