package seed

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pavelchamgl/analog-threads/internal/models"
)

// BuiltInHashtags is a catalog of tags the seeder sprinkles into post
// text so hashtag browsing has data from the first run.
var BuiltInHashtags = []string{
	"golang", "programming", "webdev", "devops", "linux",
	"ai", "startups", "design", "photography", "music",
	"movies", "gaming", "books", "fitness", "food",
	"travel", "science", "history", "art", "nature",
}

// Hashtags seeds the built-in hashtag catalog. Existing tags are left
// untouched so reruns are safe.
func Hashtags(db *gorm.DB) error {
	for _, name := range BuiltInHashtags {
		tag := models.HashTag{TagName: name}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tag_name"}},
			DoNothing: true,
		}).Create(&tag).Error
		if err != nil {
			return fmt.Errorf("seed built-in hashtag %s: %w", name, err)
		}
	}
	return nil
}
