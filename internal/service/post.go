package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"xclone/internal/logger"
	"xclone/internal/model"
	"xclone/internal/queue"
	"xclone/internal/repository"
)

type PostService struct {
	postRepo  repository.PostRepository
	replyRepo repository.ReplyRepository
	userRepo  repository.UserRepository
	assets    AssetStore
	janitor   *AssetJanitor
	notifier  Notifier
}

func NewPostService(
	postRepo repository.PostRepository,
	replyRepo repository.ReplyRepository,
	userRepo repository.UserRepository,
	assets AssetStore,
	janitor *AssetJanitor,
	notifier Notifier,
) *PostService {
	return &PostService{
		postRepo:  postRepo,
		replyRepo: replyRepo,
		userRepo:  userRepo,
		assets:    assets,
		janitor:   janitor,
		notifier:  notifier,
	}
}

func validatePostContent(content string) error {
	if utf8.RuneCountInString(content) > model.MaxPostContentLength {
		return model.ErrPostContentTooLong
	}
	return nil
}

// Create stores a post with optional image. A post needs text or an image.
func (s *PostService) Create(ctx context.Context, userID int64, content string, image *Upload) (*model.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" && image == nil {
		return nil, model.ErrEmptyPost
	}
	if err := validatePostContent(content); err != nil {
		return nil, err
	}

	post := &model.Post{UserID: userID, Content: content}

	if image != nil {
		asset, err := s.upload(ctx, image)
		if err != nil {
			return nil, err
		}
		post.ImageURL = &asset.URL
		post.ImageKey = &asset.Key
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		if post.ImageKey != nil {
			s.janitor.Discard(ctx, userID, queue.ReasonPostImage, *post.ImageKey)
		}
		return nil, err
	}

	logger.Log.Info("[PostService] Post created", logger.WithUserID(userID), logger.WithPostID(post.ID))
	return s.Get(ctx, post.ID, &userID)
}

// Get returns one post with author, replies and viewer flags.
func (s *PostService) Get(ctx context.Context, postID int64, viewerID *int64) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	posts := []model.Post{*post}
	if err := s.decorate(ctx, posts, viewerID); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// Update changes content and/or replaces the image. Author only.
func (s *PostService) Update(ctx context.Context, userID, postID int64, content *string, image *Upload) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, model.ErrNotPostOwner
	}

	if content != nil {
		trimmed := strings.TrimSpace(*content)
		if err := validatePostContent(trimmed); err != nil {
			return nil, err
		}
		if trimmed == "" && post.ImageKey == nil && image == nil {
			return nil, model.ErrEmptyPost
		}
		post.Content = trimmed
	}

	var oldKey string
	if image != nil {
		asset, err := s.upload(ctx, image)
		if err != nil {
			return nil, err
		}
		if post.ImageKey != nil {
			oldKey = *post.ImageKey
		}
		post.ImageURL = &asset.URL
		post.ImageKey = &asset.Key
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		if image != nil {
			s.janitor.Discard(ctx, userID, queue.ReasonPostImage, *post.ImageKey)
		}
		return nil, err
	}

	s.janitor.Discard(ctx, userID, queue.ReasonPostImage, oldKey)
	return s.Get(ctx, postID, &userID)
}

// Delete removes a post and its image. Author only.
func (s *PostService) Delete(ctx context.Context, userID, postID int64) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return model.ErrNotPostOwner
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}

	if post.ImageKey != nil {
		s.janitor.Discard(ctx, userID, queue.ReasonPostImage, *post.ImageKey)
	}
	logger.Log.Info("[PostService] Post deleted", logger.WithUserID(userID), logger.WithPostID(postID))
	return nil
}

// ToggleLike flips the user's like on the post. A new like notifies the author.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID int64) (*model.LikeResponse, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	liked, likes, err := s.postRepo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if liked && s.notifier != nil {
		s.notifier.Notify(ctx, post.UserID, userID, model.NotificationTypeLike, &postID)
	}
	return &model.LikeResponse{Liked: liked, Likes: likes}, nil
}

// ToggleBookmark flips the post's membership in the user's bookmarks.
func (s *PostService) ToggleBookmark(ctx context.Context, userID, postID int64) (*model.BookmarkResponse, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	bookmarked, err := s.postRepo.ToggleBookmark(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	return &model.BookmarkResponse{Bookmarked: bookmarked}, nil
}

func (s *PostService) ListBookmarks(ctx context.Context, userID int64) ([]model.Post, error) {
	posts, err := s.postRepo.ListBookmarked(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, posts, &userID); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListByUser returns a user's posts, newest first.
func (s *PostService) ListByUser(ctx context.Context, userID int64, viewerID *int64) ([]model.Post, error) {
	posts, err := s.postRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, posts, viewerID); err != nil {
		return nil, err
	}
	return posts, nil
}

// Feed returns one page of every post, newest first. page is 1-based.
func (s *PostService) Feed(ctx context.Context, page, limit int, viewerID *int64) (*model.FeedResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = model.DefaultFeedPageSize
	}
	if limit > model.MaxFeedPageSize {
		limit = model.MaxFeedPageSize
	}

	total, err := s.postRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, posts, viewerID); err != nil {
		return nil, err
	}

	return &model.FeedResponse{
		Posts:       posts,
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
		TotalPosts:  total,
	}, nil
}

// Search matches post content. Results carry no replies.
func (s *PostService) Search(ctx context.Context, query string, limit int) ([]model.Post, error) {
	posts, err := s.postRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Replies = []model.Reply{}
	}
	return posts, nil
}

// decorate embeds replies and fills the viewer's like/bookmark flags in place.
func (s *PostService) decorate(ctx context.Context, posts []model.Post, viewerID *int64) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]int64, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	replies, err := s.replyRepo.ListByPosts(ctx, ids)
	if err != nil {
		return err
	}

	var viewer *model.User
	if viewerID != nil {
		viewer, err = s.userRepo.GetByID(ctx, *viewerID)
		if err != nil {
			// Flags stay false rather than failing the read.
			logger.Log.Warn("[PostService] Viewer lookup failed", zap.Int64("viewer_id", *viewerID), zap.Error(err))
			viewer = nil
		}
	}

	for i := range posts {
		posts[i].Replies = replies[posts[i].ID]
		if posts[i].Replies == nil {
			posts[i].Replies = []model.Reply{}
		}
		if posts[i].Likes == nil {
			posts[i].Likes = []int64{}
		}
		if viewer != nil {
			posts[i].IsLiked = posts[i].LikedBy(viewer.ID)
			posts[i].IsBookmarked = viewer.HasBookmarked(posts[i].ID)
		}
	}
	return nil
}

func (s *PostService) upload(ctx context.Context, image *Upload) (*model.Asset, error) {
	if s.assets == nil {
		return nil, fmt.Errorf("%w: storage not configured", model.ErrUploadFailed)
	}
	return s.assets.Upload(ctx, image.File, image.Header, model.PostImagePolicy)
}
