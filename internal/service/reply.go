package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"xclone/internal/logger"
	"xclone/internal/model"
	"xclone/internal/repository"
)

// ReplyService manages replies, which are always addressed through their post.
type ReplyService struct {
	replyRepo repository.ReplyRepository
	postRepo  repository.PostRepository
	notifier  Notifier
}

func NewReplyService(replyRepo repository.ReplyRepository, postRepo repository.PostRepository, notifier Notifier) *ReplyService {
	return &ReplyService{
		replyRepo: replyRepo,
		postRepo:  postRepo,
		notifier:  notifier,
	}
}

func validateReplyContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", model.ErrContentRequired
	}
	if utf8.RuneCountInString(content) > model.MaxReplyLength {
		return "", model.ErrContentTooLong
	}
	return content, nil
}

// Create appends a reply to a post.
func (s *ReplyService) Create(ctx context.Context, postID, userID int64, req model.ReplyRequest) (*model.Reply, error) {
	content, err := validateReplyContent(req.Content)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	reply := &model.Reply{PostID: postID, UserID: userID, Content: content}
	if err := s.replyRepo.Create(ctx, reply); err != nil {
		return nil, err
	}

	logger.Log.Info("[ReplyService] Reply created", logger.WithUserID(userID), logger.WithPostID(postID))
	if s.notifier != nil {
		s.notifier.Notify(ctx, post.UserID, userID, model.NotificationTypeReply, &postID)
	}

	// Reload for the expanded author.
	return s.replyRepo.GetByID(ctx, postID, reply.ID)
}

// List returns a post's replies, oldest first.
func (s *ReplyService) List(ctx context.Context, postID int64) ([]model.Reply, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.replyRepo.ListByPost(ctx, postID)
}

func (s *ReplyService) ToggleLike(ctx context.Context, postID, replyID, userID int64) (*model.LikeResponse, error) {
	if _, err := s.replyRepo.GetByID(ctx, postID, replyID); err != nil {
		return nil, err
	}

	liked, likes, err := s.replyRepo.ToggleLike(ctx, replyID, userID)
	if err != nil {
		return nil, err
	}
	return &model.LikeResponse{Liked: liked, Likes: likes}, nil
}

// Update replaces a reply's content and marks it edited. Author only.
func (s *ReplyService) Update(ctx context.Context, postID, replyID, userID int64, req model.ReplyRequest) (*model.Reply, error) {
	content, err := validateReplyContent(req.Content)
	if err != nil {
		return nil, err
	}

	reply, err := s.replyRepo.GetByID(ctx, postID, replyID)
	if err != nil {
		return nil, err
	}
	if reply.UserID != userID {
		return nil, model.ErrNotReplyOwner
	}

	return s.replyRepo.Update(ctx, postID, replyID, content)
}

// Delete removes a reply. Author only.
func (s *ReplyService) Delete(ctx context.Context, postID, replyID, userID int64) error {
	reply, err := s.replyRepo.GetByID(ctx, postID, replyID)
	if err != nil {
		return err
	}
	if reply.UserID != userID {
		return model.ErrNotReplyOwner
	}

	if err := s.replyRepo.Delete(ctx, postID, replyID); err != nil {
		return err
	}

	logger.Log.Info("[ReplyService] Reply deleted", logger.WithUserID(userID), logger.WithPostID(postID))
	return nil
}
