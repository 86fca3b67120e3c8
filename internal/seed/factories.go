// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pavelchamgl/analog-threads/internal/models"
	"github.com/pavelchamgl/analog-threads/internal/service"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Factory{db: db, opts: opts, rng: rng, nextID: 1000}
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username:      gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:         gofakeit.Email(),
		Bio:           gofakeit.Sentence(10),
		Location:      gofakeit.City(),
		Photo:         fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		IsEmailVerify: true,
	}
	if f.rng.Float32() < 0.3 {
		user.Website = gofakeit.URL()
	}
	if f.rng.Float32() < 0.2 {
		user.IsPrivate = true
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Username)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post struct of the given kind but does not
// persist it. Useful for batching.
func (f *Factory) BuildPost(user *models.User, kind string, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Text:               f.postText(),
		UserID:             user.ID,
		CommentsPermission: models.CommentsAnyone,
	}

	// realistic created_at spread
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)

	switch kind {
	case PostKindImage:
		post.Image = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
	case PostKindVideo:
		post.Video = fmt.Sprintf("https://videos.example.com/%s.mp4", gofakeit.UUID())
	}

	if f.rng.Float32() < 0.15 {
		post.CommentsPermission = models.CommentsYourFollowers
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// postText generates post text that stays inside the length limit and
// occasionally carries hashtags from the built-in catalog.
func (f *Factory) postText() string {
	text := gofakeit.Sentence(f.rng.Intn(12) + 3)
	if f.rng.Float32() < 0.5 {
		tag := BuiltInHashtags[f.rng.Intn(len(BuiltInHashtags))]
		text = fmt.Sprintf("%s #%s", text, tag)
	}
	if len([]rune(text)) > models.MaxPostTextLen {
		text = string([]rune(text)[:models.MaxPostTextLen])
	}
	return text
}

// CreatePost constructs and persists a sample `models.Post` for the
// given user, attaching any hashtags found in its text.
func (f *Factory) CreatePost(user *models.User, kind string, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(user, kind, overrides...)

	if f.opts.DryRun {
		f.nextID++
		post.ID = f.nextID
		log.Printf("[dry-run] CreatePost: kind=%s user=%d", kind, post.UserID)
		return post, nil
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	if err := f.attachHashtags(post); err != nil {
		return nil, err
	}
	return post, nil
}

// attachHashtags links the post to the hashtags appearing in its text.
func (f *Factory) attachHashtags(post *models.Post) error {
	for _, name := range service.ExtractHashtags(post.Text) {
		tag := models.HashTag{TagName: name}
		if err := f.db.Where(models.HashTag{TagName: name}).FirstOrCreate(&tag).Error; err != nil {
			return err
		}
		if err := f.db.Model(post).Association("HashTags").Append(&tag); err != nil {
			return err
		}
	}
	return nil
}

// CreateRepost persists a bare repost of target authored by user.
func (f *Factory) CreateRepost(user *models.User, target *models.Post) (*models.Post, error) {
	post := &models.Post{
		UserID:             user.ID,
		RepostID:           &target.ID,
		CommentsPermission: models.CommentsAnyone,
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateQuote persists a quote of target with its own text.
func (f *Factory) CreateQuote(user *models.User, target *models.Post) (*models.Post, error) {
	post := &models.Post{
		Text:               f.postText(),
		UserID:             user.ID,
		RepostID:           &target.ID,
		CommentsPermission: models.CommentsAnyone,
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	if err := f.attachHashtags(post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateFollow persists a follow edge. Edges toward private profiles
// start out pending unless approved is set.
func (f *Factory) CreateFollow(follower, followee *models.User, approved bool) error {
	follow := &models.Follow{
		FollowerID: follower.ID,
		FolloweeID: followee.ID,
		Allowed:    approved || !followee.IsPrivate,
	}
	return f.db.Create(follow).Error
}

// CreateComment constructs and persists a sample `models.Comment` on the
// provided post authored by the provided user.
func (f *Factory) CreateComment(user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Text:   gofakeit.Sentence(8),
		UserID: user.ID,
		PostID: post.ID,
	}

	for _, override := range overrides {
		override(comment)
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateReply persists a reply to parent on the same post.
func (f *Factory) CreateReply(user *models.User, parent *models.Comment) (*models.Comment, error) {
	reply := &models.Comment{
		Text:    gofakeit.Sentence(6),
		UserID:  user.ID,
		PostID:  parent.PostID,
		ReplyID: &parent.ID,
	}
	if err := f.db.Create(reply).Error; err != nil {
		return nil, err
	}
	return reply, nil
}

// CreateLike persists a like from `user` on `post`.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	like := &models.Like{
		UserID: user.ID,
		PostID: post.ID,
	}
	return f.db.Create(like).Error
}

// CreateCommentLike persists a like from `user` on `comment`.
func (f *Factory) CreateCommentLike(user *models.User, comment *models.Comment) error {
	like := &models.CommentLike{
		UserID:    user.ID,
		CommentID: comment.ID,
	}
	return f.db.Create(like).Error
}
