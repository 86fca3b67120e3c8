package seed

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/pavelchamgl/analog-threads/internal/models"
)

// Post kinds the seeder distributes content across.
const (
	PostKindText   = "text"
	PostKindImage  = "image"
	PostKindVideo  = "video"
	PostKindQuote  = "quote"
	PostKindRepost = "repost"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	MaxDays     int
	ShouldClean bool
	DryRun      bool
	SkipBcrypt  bool
}

// Distribution describes the percentage split of post kinds.
type Distribution struct {
	Text   int
	Image  int
	Video  int
	Quote  int
	Repost int
}

var defaultDistribution = Distribution{Text: 50, Image: 30, Video: 10, Quote: 5, Repost: 5}

// computeCounts splits total into per-kind counts, giving rounding
// remainder to text posts.
func computeCounts(total int, d Distribution) (text, image, video, quote, repost int) {
	image = total * d.Image / 100
	video = total * d.Video / 100
	quote = total * d.Quote / 100
	repost = total * d.Repost / 100
	text = total - image - video - quote - repost
	return text, image, video, quote, repost
}

// Seeder orchestrates demo data creation through a Factory.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// ClearAll removes all seeded data.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE comment_mentions, post_mentions, post_hashtags, comment_likes, likes, comments, notifications, otps, posts, follows, hash_tags, users RESTART IDENTITY CASCADE;`
	return s.db.Exec(sql).Error
}

// SeedSocialMesh creates n users plus a follow graph among them. Edges
// toward private profiles are left pending about half the time so the
// approval flow has data to work with.
func (s *Seeder) SeedSocialMesh(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)

	// Always include fixed accounts so developers can sign in.
	if n >= 2 {
		for _, name := range []string{"threads", "demo"} {
			name := name
			user, err := s.factory.CreateUser(func(u *models.User) {
				u.Username = name
				u.Email = fmt.Sprintf("%s@example.com", name)
				u.IsPrivate = false
			})
			if err != nil {
				return nil, fmt.Errorf("create fixed user %s: %w", name, err)
			}
			users = append(users, user)
		}
	}

	for i := len(users); i < n; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, user)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}

	// Each user follows roughly a third of the mesh.
	for _, follower := range users {
		perUser := len(users) / 3
		seen := map[uint]bool{follower.ID: true}
		for j := 0; j < perUser; j++ {
			followee := users[s.factory.rng.Intn(len(users))]
			if seen[followee.ID] {
				continue
			}
			seen[followee.ID] = true
			approved := s.factory.rng.Float32() < 0.5
			if err := s.factory.CreateFollow(follower, followee, approved); err != nil {
				return nil, fmt.Errorf("create follow: %w", err)
			}
		}
	}

	return users, nil
}

// SeedPosts creates posts for the given users following the default
// kind distribution, then sprinkles comments, replies, and likes.
func (s *Seeder) SeedPosts(users []*models.User, count int) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("no users to post as")
	}

	text, image, video, quote, repost := computeCounts(count, defaultDistribution)
	posts := make([]*models.Post, 0, count)

	create := func(kind string, n int) error {
		for i := 0; i < n; i++ {
			user := users[s.factory.rng.Intn(len(users))]
			post, err := s.factory.CreatePost(user, kind)
			if err != nil {
				return err
			}
			posts = append(posts, post)
		}
		return nil
	}

	if err := create(PostKindText, text); err != nil {
		return nil, err
	}
	if err := create(PostKindImage, image); err != nil {
		return nil, err
	}
	if err := create(PostKindVideo, video); err != nil {
		return nil, err
	}

	// Quotes and reposts reference earlier posts.
	for i := 0; i < quote && len(posts) > 0; i++ {
		user := users[s.factory.rng.Intn(len(users))]
		target := posts[s.factory.rng.Intn(len(posts))]
		post, err := s.factory.CreateQuote(user, target)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	for i := 0; i < repost && len(posts) > 0; i++ {
		user := users[s.factory.rng.Intn(len(users))]
		target := posts[s.factory.rng.Intn(len(posts))]
		post, err := s.factory.CreateRepost(user, target)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := s.seedEngagement(users, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Seeder) seedEngagement(users []*models.User, posts []*models.Post) error {
	for _, post := range posts {
		numComments := s.factory.rng.Intn(4)
		var last *models.Comment
		for i := 0; i < numComments; i++ {
			user := users[s.factory.rng.Intn(len(users))]
			if last != nil && s.factory.rng.Float32() < 0.3 {
				reply, err := s.factory.CreateReply(user, last)
				if err != nil {
					return err
				}
				if s.factory.rng.Float32() < 0.3 {
					liker := users[s.factory.rng.Intn(len(users))]
					_ = s.factory.CreateCommentLike(liker, reply)
				}
				continue
			}
			comment, err := s.factory.CreateComment(user, post)
			if err != nil {
				return err
			}
			last = comment
		}

		numLikes := s.factory.rng.Intn(5)
		seen := map[uint]bool{}
		for i := 0; i < numLikes; i++ {
			user := users[s.factory.rng.Intn(len(users))]
			if seen[user.ID] {
				continue
			}
			seen[user.ID] = true
			if err := s.factory.CreateLike(user, post); err != nil {
				return err
			}
		}
	}
	return nil
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	seeder := NewSeeder(db, opts)

	if opts.ShouldClean {
		if err := seeder.ClearAll(); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	if err := Hashtags(db); err != nil {
		return fmt.Errorf("failed to seed built-in hashtags: %w", err)
	}

	users, err := seeder.SeedSocialMesh(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("%d test users created", len(users))

	posts, err := seeder.SeedPosts(users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("%d posts created", len(posts))

	log.Println("Database seeding completed successfully!")
	return nil
}
