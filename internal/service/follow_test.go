package service

import (
	"context"
	"errors"
	"testing"

	"xclone/internal/model"
)

func newFollowFixture() (*FollowService, *mockFollowRepository, *mockBlockRepository) {
	follows := newMockFollowRepository()
	blocks := newMockBlockRepository()
	names := map[string]int64{"alice": 1, "bob": 2, "carol": 3}

	users := &mockUserRepository{
		getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			id, ok := names[username]
			if !ok {
				return nil, model.ErrUserNotFound
			}
			return &model.User{ID: id, Username: username}, nil
		},
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			if id < 1 || id > 3 {
				return nil, model.ErrUserNotFound
			}
			blocked, by := blocks.blockedLists(id)
			return &model.User{ID: id, BlockedUsers: blocked, BlockedBy: by}, nil
		},
	}
	return NewFollowService(follows, blocks, users, nil), follows, blocks
}

func TestFollowService_Follow_Idempotent(t *testing.T) {
	svc, follows, _ := newFollowFixture()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.Follow(ctx, 1, "bob"); err != nil {
			t.Fatalf("Follow #%d failed: %v", i+1, err)
		}
	}
	if len(follows.edges) != 1 {
		t.Errorf("edges = %d, want 1", len(follows.edges))
	}

	followers, err := svc.GetFollowers(ctx, "bob")
	if err != nil {
		t.Fatalf("GetFollowers failed: %v", err)
	}
	if len(followers.Users) != 1 || followers.Users[0].ID != 1 {
		t.Errorf("bob's followers = %+v", followers.Users)
	}

	following, _ := svc.GetFollowing(ctx, "alice")
	if len(following.Users) != 1 || following.Users[0].ID != 2 {
		t.Errorf("alice's following = %+v", following.Users)
	}
}

func TestFollowService_Follow_NotifiesOnNewEdgeOnly(t *testing.T) {
	svc, _, _ := newFollowFixture()
	notifier := &mockNotifier{}
	svc.notifier = notifier
	ctx := context.Background()

	svc.Follow(ctx, 1, "bob")
	svc.Follow(ctx, 1, "bob")

	if len(notifier.calls) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.calls))
	}
	want := notifyCall{Recipient: 2, Actor: 1, Kind: model.NotificationTypeFollow}
	if notifier.calls[0] != want {
		t.Errorf("notification = %+v, want %+v", notifier.calls[0], want)
	}
}

func TestFollowService_Unfollow(t *testing.T) {
	svc, follows, _ := newFollowFixture()
	ctx := context.Background()

	svc.Follow(ctx, 1, "bob")
	if err := svc.Unfollow(ctx, 1, "bob"); err != nil {
		t.Fatalf("Unfollow failed: %v", err)
	}
	if err := svc.Unfollow(ctx, 1, "bob"); err != nil {
		t.Errorf("second Unfollow should be a no-op: %v", err)
	}
	if len(follows.edges) != 0 {
		t.Errorf("edges = %d", len(follows.edges))
	}
}

func TestFollowService_Errors(t *testing.T) {
	svc, _, _ := newFollowFixture()
	ctx := context.Background()

	if err := svc.Follow(ctx, 1, "alice"); !errors.Is(err, model.ErrCannotFollowSelf) {
		t.Errorf("self follow: %v", err)
	}
	if err := svc.Follow(ctx, 1, "nobody"); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("unknown user: %v", err)
	}
	if _, err := svc.Block(ctx, 1, 1); !errors.Is(err, model.ErrCannotBlockSelf) {
		t.Errorf("self block: %v", err)
	}
	if _, err := svc.Block(ctx, 1, 42); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("block unknown: %v", err)
	}
}

func TestFollowService_BlockAndUnblock(t *testing.T) {
	svc, follows, blocks := newFollowFixture()
	ctx := context.Background()
	svc.Follow(ctx, 1, "bob")

	res, err := svc.Block(ctx, 1, 2)
	if err != nil {
		t.Fatalf("Block failed: %v", err)
	}
	if res.Message != "User blocked successfully" {
		t.Errorf("message = %q", res.Message)
	}
	if len(res.BlockedUsers) != 1 || res.BlockedUsers[0] != 2 || len(res.BlockedBy) != 0 {
		t.Errorf("lists = %+v", res)
	}

	// Blocking twice keeps one edge; follows are untouched.
	svc.Block(ctx, 1, 2)
	if len(blocks.edges) != 1 {
		t.Errorf("block edges = %d", len(blocks.edges))
	}
	if !follows.edges[[2]int64{1, 2}] {
		t.Error("block should not remove the follow edge")
	}

	res, err = svc.Unblock(ctx, 1, 2)
	if err != nil {
		t.Fatalf("Unblock failed: %v", err)
	}
	if res.Message != "User unblocked successfully" || len(res.BlockedUsers) != 0 {
		t.Errorf("after unblock = %+v", res)
	}
	if res.BlockedUsers == nil || res.BlockedBy == nil {
		t.Error("lists should serialize as [] not null")
	}
}
