package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"xclone/internal/config"
	"xclone/internal/logger"
	"xclone/internal/model"
	"xclone/internal/queue"
	"xclone/internal/repository"
)

// UserService handles business logic for accounts and profiles.
type UserService struct {
	db         *sqlx.DB
	repo       repository.UserRepository
	followRepo repository.FollowRepository
	postRepo   repository.PostRepository
	posts      *PostService
	assets     AssetStore
	janitor    *AssetJanitor
	config     *config.Config

	now func() time.Time
}

func NewUserService(
	db *sqlx.DB,
	repo repository.UserRepository,
	followRepo repository.FollowRepository,
	postRepo repository.PostRepository,
	posts *PostService,
	assets AssetStore,
	janitor *AssetJanitor,
	cfg *config.Config,
) *UserService {
	return &UserService{
		db:         db,
		repo:       repo,
		followRepo: followRepo,
		postRepo:   postRepo,
		posts:      posts,
		assets:     assets,
		janitor:    janitor,
		config:     cfg,
		now:        time.Now,
	}
}

func validateUsername(username string) error {
	if username == "" {
		return model.ErrUsernameRequired
	}
	if len(username) > model.MaxUsernameLength {
		return model.ErrUsernameTooLong
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return model.ErrInvalidEmail
	}
	return nil
}

// Register creates an account with the default photos and makes it follow
// one random existing user. Both writes share a transaction.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(req.Password) < model.MinPasswordLength {
		return nil, model.ErrPasswordTooShort
	}

	exists, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, model.ErrUsernameExists
	}

	exists, err = s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:        username,
		Email:           email,
		PasswordHashed:  string(hashedPassword),
		ProfilePhotoURL: s.config.DefaultProfilePhotoURL,
		ProfilePhotoKey: s.config.DefaultProfilePhotoKey,
		CoverPhotoURL:   s.config.DefaultCoverPhotoURL,
		CoverPhotoKey:   s.config.DefaultCoverPhotoKey,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.repo.Create(ctx, tx, user); err != nil {
		return nil, err
	}

	otherID, found, err := s.repo.RandomIDExcept(ctx, tx, user.ID)
	if err != nil {
		return nil, err
	}
	if found {
		if _, err := s.followRepo.Create(ctx, tx, user.ID, otherID); err != nil {
			return nil, err
		}
		user.Following = []int64{otherID}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	logger.Log.Info("[UserService] User registered", logger.WithUserID(user.ID), zap.Bool("auto_followed", found))
	return user, nil
}

// Login authenticates by email and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		// Don't reveal whether the email exists
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetProfile returns a user and their posts, newest first.
func (s *UserService) GetProfile(ctx context.Context, username string, viewerID *int64) (*model.ProfileResponse, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.ListByUser(ctx, user.ID, viewerID)
	if err != nil {
		return nil, err
	}

	return &model.ProfileResponse{User: user, Posts: posts}, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

// Search matches usernames and post content.
func (s *UserService) Search(ctx context.Context, query string) (*model.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &model.SearchResponse{Users: []model.UserSummary{}, Posts: []model.Post{}}, nil
	}

	users, err := s.repo.Search(ctx, query, model.SearchLimit)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.Search(ctx, query, model.SearchLimit)
	if err != nil {
		return nil, err
	}
	return &model.SearchResponse{Users: users, Posts: posts}, nil
}

// UpdateProfile edits the target account. Only the owner may do it. New
// images are stored first; the replaced ones are discarded once the row is
// updated.
func (s *UserService) UpdateProfile(ctx context.Context, actorID, targetID int64, req *model.UpdateProfileRequest, profileImage, coverImage *Upload) (*model.User, error) {
	if actorID != targetID {
		return nil, model.ErrNotAccountOwner
	}

	user, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username != user.Username {
			if err := validateUsername(username); err != nil {
				return nil, err
			}
			exists, err := s.repo.ExistsByUsername(ctx, username)
			if err != nil {
				return nil, fmt.Errorf("failed to check username: %w", err)
			}
			if exists {
				return nil, model.ErrUsernameExists
			}
			user.Username = username
		}
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !strings.EqualFold(email, user.Email) {
			if err := validateEmail(email); err != nil {
				return nil, err
			}
			exists, err := s.repo.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if exists {
				return nil, model.ErrEmailExists
			}
		}
		user.Email = email
	}

	var stale, fresh []string

	if profileImage != nil {
		asset, err := s.upload(ctx, profileImage, model.ProfileImagePolicy)
		if err != nil {
			return nil, err
		}
		stale = append(stale, user.ProfilePhotoKey)
		fresh = append(fresh, asset.Key)
		user.ProfilePhotoURL, user.ProfilePhotoKey = asset.URL, asset.Key
	}

	if coverImage != nil {
		asset, err := s.upload(ctx, coverImage, model.CoverImagePolicy)
		if err != nil {
			s.janitor.Discard(ctx, user.ID, queue.ReasonProfileReplaced, fresh...)
			return nil, err
		}
		stale = append(stale, user.CoverPhotoKey)
		fresh = append(fresh, asset.Key)
		user.CoverPhotoURL, user.CoverPhotoKey = asset.URL, asset.Key
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		s.janitor.Discard(ctx, user.ID, queue.ReasonProfileReplaced, fresh...)
		return nil, err
	}

	s.janitor.Discard(ctx, user.ID, queue.ReasonProfileReplaced, stale...)
	logger.Log.Info("[UserService] Profile updated", logger.WithUserID(user.ID))
	return user, nil
}

// DeleteAccount removes the account and, through cascades, everything it
// authored or is related to. Stored images are discarded after commit.
func (s *UserService) DeleteAccount(ctx context.Context, actorID, targetID int64) error {
	if actorID != targetID {
		return model.ErrNotAccountOwner
	}

	user, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	keys, err := s.postRepo.ImageKeysByUser(ctx, targetID)
	if err != nil {
		return err
	}
	keys = append(keys, user.ProfilePhotoKey, user.CoverPhotoKey)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.repo.Delete(ctx, tx, targetID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.janitor.Discard(ctx, targetID, queue.ReasonAccountDeleted, keys...)
	logger.Log.Info("[UserService] Account deleted", logger.WithUserID(targetID), zap.Int("assets", len(keys)))
	return nil
}

// GetVerification reads the time-boxed verification. Expiry is evaluated on
// read, so nothing has to run when the window closes.
func (s *UserService) GetVerification(ctx context.Context, userID int64) (*model.VerificationStatus, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.VerificationStatus{
		IsVerified:            user.VerifiedAt(s.now()),
		VerificationExpiresAt: user.VerifiedUntil,
	}, nil
}

// Verify opens a verification window starting now. Calling it again moves
// the expiry forward.
func (s *UserService) Verify(ctx context.Context, userID int64) (*model.VerificationStatus, error) {
	until := s.now().Add(s.config.VerificationDuration)
	if err := s.repo.SetVerifiedUntil(ctx, userID, until); err != nil {
		return nil, err
	}

	logger.Log.Info("[UserService] Verified", logger.WithUserID(userID), zap.Time("until", until))
	return &model.VerificationStatus{IsVerified: true, VerificationExpiresAt: &until}, nil
}

func (s *UserService) upload(ctx context.Context, image *Upload, policy model.ImagePolicy) (*model.Asset, error) {
	if s.assets == nil {
		return nil, fmt.Errorf("%w: storage not configured", model.ErrUploadFailed)
	}
	return s.assets.Upload(ctx, image.File, image.Header, policy)
}
