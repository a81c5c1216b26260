package service

import (
	"context"

	"go.uber.org/zap"

	"xclone/internal/logger"
	"xclone/internal/model"
	"xclone/internal/repository"
)

// FollowService manages follow and block edges. Both are single rows keyed by
// the ordered pair, so each side's list is always consistent with the other.
type FollowService struct {
	followRepo repository.FollowRepository
	blockRepo  repository.BlockRepository
	userRepo   repository.UserRepository
	notifier   Notifier
}

func NewFollowService(
	followRepo repository.FollowRepository,
	blockRepo repository.BlockRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		blockRepo:  blockRepo,
		userRepo:   userRepo,
		notifier:   notifier,
	}
}

// Follow is idempotent: following twice leaves one edge and one notification.
func (s *FollowService) Follow(ctx context.Context, followerID int64, username string) error {
	target, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if target.ID == followerID {
		return model.ErrCannotFollowSelf
	}

	inserted, err := s.followRepo.Create(ctx, nil, followerID, target.ID)
	if err != nil {
		return err
	}
	if inserted {
		logger.Log.Info("[FollowService] Followed",
			zap.Int64("follower_id", followerID), zap.Int64("followee_id", target.ID))
		if s.notifier != nil {
			s.notifier.Notify(ctx, target.ID, followerID, model.NotificationTypeFollow, nil)
		}
	}
	return nil
}

// Unfollow is idempotent.
func (s *FollowService) Unfollow(ctx context.Context, followerID int64, username string) error {
	target, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if target.ID == followerID {
		return model.ErrCannotFollowSelf
	}

	removed, err := s.followRepo.Delete(ctx, followerID, target.ID)
	if err != nil {
		return err
	}
	if removed {
		logger.Log.Info("[FollowService] Unfollowed",
			zap.Int64("follower_id", followerID), zap.Int64("followee_id", target.ID))
	}
	return nil
}

func (s *FollowService) GetFollowers(ctx context.Context, username string) (*model.FollowListResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	users, err := s.followRepo.GetFollowers(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &model.FollowListResponse{Users: users}, nil
}

func (s *FollowService) GetFollowing(ctx context.Context, username string) (*model.FollowListResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	users, err := s.followRepo.GetFollowing(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &model.FollowListResponse{Users: users}, nil
}

// Block is idempotent and leaves any follow edges in place.
func (s *FollowService) Block(ctx context.Context, blockerID, targetID int64) (*model.BlockListResponse, error) {
	if blockerID == targetID {
		return nil, model.ErrCannotBlockSelf
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	if _, err := s.blockRepo.Create(ctx, blockerID, targetID); err != nil {
		return nil, err
	}
	return s.blockLists(ctx, blockerID, "User blocked successfully")
}

// Unblock is idempotent.
func (s *FollowService) Unblock(ctx context.Context, blockerID, targetID int64) (*model.BlockListResponse, error) {
	if blockerID == targetID {
		return nil, model.ErrCannotBlockSelf
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	if _, err := s.blockRepo.Delete(ctx, blockerID, targetID); err != nil {
		return nil, err
	}
	return s.blockLists(ctx, blockerID, "User unblocked successfully")
}

func (s *FollowService) blockLists(ctx context.Context, userID int64, message string) (*model.BlockListResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.BlockListResponse{
		Message:      message,
		BlockedUsers: nonNil(user.BlockedUsers),
		BlockedBy:    nonNil(user.BlockedBy),
	}, nil
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
