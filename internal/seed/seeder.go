// Package seed fills a development database with fake users, follows, posts
// and replies.
package seed

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"xclone/internal/logger"
	"xclone/internal/model"
	"xclone/internal/repository"
)

// DefaultPassword is the login password of every seeded account.
const DefaultPassword = "password123"

type Options struct {
	Users          int
	Posts          int
	Replies        int
	FollowsPerUser int
	// Seed makes the generated data reproducible. Zero picks a random seed.
	Seed uint64
}

// Result lists the ids that were created.
type Result struct {
	UserIDs []int64
	PostIDs []int64
	Replies int
	Follows int
}

type Seeder struct {
	db      *sqlx.DB
	users   repository.UserRepository
	follows repository.FollowRepository
	posts   repository.PostRepository
	replies repository.ReplyRepository

	profilePhotoURL string
	coverPhotoURL   string
}

func NewSeeder(
	db *sqlx.DB,
	users repository.UserRepository,
	follows repository.FollowRepository,
	posts repository.PostRepository,
	replies repository.ReplyRepository,
) *Seeder {
	return &Seeder{
		db:      db,
		users:   users,
		follows: follows,
		posts:   posts,
		replies: replies,
	}
}

// WithDefaultPhotos sets the photo URLs given to seeded accounts.
func (s *Seeder) WithDefaultPhotos(profileURL, coverURL string) *Seeder {
	s.profilePhotoURL = profileURL
	s.coverPhotoURL = coverURL
	return s
}

// Run creates opts.Users accounts, then the follow graph, posts and replies.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	faker := gofakeit.New(opts.Seed)

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	res := &Result{}

	logger.Log.Info("[Seed] Creating users", zap.Int("count", opts.Users))
	for i := 0; i < opts.Users; i++ {
		user := &model.User{
			Username:        username(faker, i),
			Email:           fmt.Sprintf("user%d.%s", i, strings.ToLower(faker.Email())),
			PasswordHashed:  string(hash),
			ProfilePhotoURL: s.profilePhotoURL,
			CoverPhotoURL:   s.coverPhotoURL,
		}
		if err := s.createUser(ctx, user); err != nil {
			return res, err
		}
		res.UserIDs = append(res.UserIDs, user.ID)
	}

	if len(res.UserIDs) < 2 {
		opts.FollowsPerUser = 0
	}
	for _, followerID := range res.UserIDs {
		for j := 0; j < opts.FollowsPerUser; j++ {
			followeeID := pick(faker, res.UserIDs)
			if followeeID == followerID {
				continue
			}
			created, err := s.follows.Create(ctx, nil, followerID, followeeID)
			if err != nil {
				return res, fmt.Errorf("failed to seed follow: %w", err)
			}
			if created {
				res.Follows++
			}
		}
	}

	if len(res.UserIDs) == 0 {
		return res, nil
	}

	logger.Log.Info("[Seed] Creating posts", zap.Int("count", opts.Posts))
	for i := 0; i < opts.Posts; i++ {
		post := &model.Post{
			UserID:  pick(faker, res.UserIDs),
			Content: faker.Sentence(faker.Number(4, 24)),
		}
		if err := s.posts.Create(ctx, post); err != nil {
			return res, fmt.Errorf("failed to seed post: %w", err)
		}
		res.PostIDs = append(res.PostIDs, post.ID)
	}

	if len(res.PostIDs) == 0 {
		return res, nil
	}

	logger.Log.Info("[Seed] Creating replies", zap.Int("count", opts.Replies))
	for i := 0; i < opts.Replies; i++ {
		reply := &model.Reply{
			PostID:  pick(faker, res.PostIDs),
			UserID:  pick(faker, res.UserIDs),
			Content: faker.Sentence(faker.Number(2, 12)),
		}
		if err := s.replies.Create(ctx, reply); err != nil {
			return res, fmt.Errorf("failed to seed reply: %w", err)
		}
		res.Replies++
	}

	logger.Log.Info("[Seed] Done",
		zap.Int("users", len(res.UserIDs)),
		zap.Int("follows", res.Follows),
		zap.Int("posts", len(res.PostIDs)),
		zap.Int("replies", res.Replies),
	)
	return res, nil
}

func (s *Seeder) createUser(ctx context.Context, user *model.User) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.users.Create(ctx, tx, user); err != nil {
		return fmt.Errorf("failed to seed user %q: %w", user.Username, err)
	}
	return tx.Commit()
}

// username keeps only the letters of a fake handle and appends the index, so
// no two indexes can produce the same name.
func username(faker *gofakeit.Faker, i int) string {
	suffix := strconv.Itoa(i)
	base := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, strings.ToLower(faker.Username()))
	if base == "" {
		base = "user"
	}
	if limit := model.MaxUsernameLength - len(suffix); len(base) > limit {
		base = base[:limit]
	}
	return base + suffix
}

func pick(faker *gofakeit.Faker, ids []int64) int64 {
	return ids[faker.Number(0, len(ids)-1)]
}
