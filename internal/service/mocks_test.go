package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"xclone/internal/config"
	"xclone/internal/model"
	"xclone/internal/queue"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// Each mock exposes one function field per method so a test only wires the
// calls it cares about. Unset fields fall back to a neutral answer.

type mockUserRepository struct {
	createFn           func(ctx context.Context, tx *sqlx.Tx, user *model.User) error
	getByIDFn          func(ctx context.Context, id int64) (*model.User, error)
	getByUsernameFn    func(ctx context.Context, username string) (*model.User, error)
	getByEmailFn       func(ctx context.Context, email string) (*model.User, error)
	existsByUsernameFn func(ctx context.Context, username string) (bool, error)
	existsByEmailFn    func(ctx context.Context, email string) (bool, error)
	listFn             func(ctx context.Context) ([]model.User, error)
	searchFn           func(ctx context.Context, query string, limit int) ([]model.UserSummary, error)
	updateProfileFn    func(ctx context.Context, user *model.User) error
	updatePasswordFn   func(ctx context.Context, id int64, hash string) error
	setVerifiedFn      func(ctx context.Context, id int64, until time.Time) error
	randomIDExceptFn   func(ctx context.Context, tx *sqlx.Tx, id int64) (int64, bool, error)
	deleteFn           func(ctx context.Context, tx *sqlx.Tx, id int64) error

	createCalls []*model.User
	deleteCalls []int64
}

func (m *mockUserRepository) Create(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, tx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameFn != nil {
		return m.existsByUsernameFn(ctx, username)
	}
	return false, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) List(ctx context.Context) ([]model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []model.User{}, nil
}

func (m *mockUserRepository) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return []model.UserSummary{}, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, hash)
	}
	return nil
}

func (m *mockUserRepository) SetVerifiedUntil(ctx context.Context, id int64, until time.Time) error {
	if m.setVerifiedFn != nil {
		return m.setVerifiedFn(ctx, id, until)
	}
	return nil
}

func (m *mockUserRepository) RandomIDExcept(ctx context.Context, tx *sqlx.Tx, id int64) (int64, bool, error) {
	if m.randomIDExceptFn != nil {
		return m.randomIDExceptFn(ctx, tx, id)
	}
	return 0, false, nil
}

func (m *mockUserRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	m.deleteCalls = append(m.deleteCalls, id)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tx, id)
	}
	return nil
}

// mockFollowRepository keeps edges in a set so idempotency is observable.
type mockFollowRepository struct {
	edges map[[2]int64]bool
	err   error
}

func newMockFollowRepository() *mockFollowRepository {
	return &mockFollowRepository{edges: make(map[[2]int64]bool)}
}

func (m *mockFollowRepository) Create(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	key := [2]int64{followerID, followeeID}
	if m.edges[key] {
		return false, nil
	}
	m.edges[key] = true
	return true, nil
}

func (m *mockFollowRepository) Delete(ctx context.Context, followerID, followeeID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	key := [2]int64{followerID, followeeID}
	existed := m.edges[key]
	delete(m.edges, key)
	return existed, nil
}

func (m *mockFollowRepository) GetFollowers(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	users := []model.UserSummary{}
	for k := range m.edges {
		if k[1] == userID {
			users = append(users, model.UserSummary{ID: k[0]})
		}
	}
	return users, m.err
}

func (m *mockFollowRepository) GetFollowing(ctx context.Context, userID int64) ([]model.UserSummary, error) {
	users := []model.UserSummary{}
	for k := range m.edges {
		if k[0] == userID {
			users = append(users, model.UserSummary{ID: k[1]})
		}
	}
	return users, m.err
}

type mockBlockRepository struct {
	edges map[[2]int64]bool
	err   error
}

func newMockBlockRepository() *mockBlockRepository {
	return &mockBlockRepository{edges: make(map[[2]int64]bool)}
}

func (m *mockBlockRepository) Create(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	key := [2]int64{blockerID, blockedID}
	if m.edges[key] {
		return false, nil
	}
	m.edges[key] = true
	return true, nil
}

func (m *mockBlockRepository) Delete(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	key := [2]int64{blockerID, blockedID}
	existed := m.edges[key]
	delete(m.edges, key)
	return existed, m.err
}

func (m *mockBlockRepository) ExistsEither(ctx context.Context, a, b int64) (bool, error) {
	return m.edges[[2]int64{a, b}] || m.edges[[2]int64{b, a}], m.err
}

// blockedLists derives the user's block lists the way the SQL does.
func (m *mockBlockRepository) blockedLists(userID int64) (blocked, by []int64) {
	blocked, by = []int64{}, []int64{}
	for k := range m.edges {
		if k[0] == userID {
			blocked = append(blocked, k[1])
		}
		if k[1] == userID {
			by = append(by, k[0])
		}
	}
	return blocked, by
}

type mockPostRepository struct {
	createFn         func(ctx context.Context, post *model.Post) error
	getByIDFn        func(ctx context.Context, postID int64) (*model.Post, error)
	updateFn         func(ctx context.Context, post *model.Post) error
	deleteFn         func(ctx context.Context, postID int64) error
	listFn           func(ctx context.Context, limit, offset int) ([]model.Post, error)
	countFn          func(ctx context.Context) (int, error)
	listByUserFn     func(ctx context.Context, userID int64) ([]model.Post, error)
	listBookmarkedFn func(ctx context.Context, userID int64) ([]model.Post, error)
	searchFn         func(ctx context.Context, query string, limit int) ([]model.Post, error)
	imageKeysFn      func(ctx context.Context, userID int64) ([]string, error)
	toggleLikeFn     func(ctx context.Context, postID, userID int64) (bool, int, error)
	toggleBookmarkFn func(ctx context.Context, userID, postID int64) (bool, error)

	deleteCalls []int64
}

func (m *mockPostRepository) Create(ctx context.Context, post *model.Post) error {
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, postID)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) Update(ctx context.Context, post *model.Post) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepository) Delete(ctx context.Context, postID int64) error {
	m.deleteCalls = append(m.deleteCalls, postID)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, postID)
	}
	return nil
}

func (m *mockPostRepository) List(ctx context.Context, limit, offset int) ([]model.Post, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return []model.Post{}, nil
}

func (m *mockPostRepository) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockPostRepository) ListByUser(ctx context.Context, userID int64) ([]model.Post, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return []model.Post{}, nil
}

func (m *mockPostRepository) ListBookmarked(ctx context.Context, userID int64) ([]model.Post, error) {
	if m.listBookmarkedFn != nil {
		return m.listBookmarkedFn(ctx, userID)
	}
	return []model.Post{}, nil
}

func (m *mockPostRepository) Search(ctx context.Context, query string, limit int) ([]model.Post, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return []model.Post{}, nil
}

func (m *mockPostRepository) ImageKeysByUser(ctx context.Context, userID int64) ([]string, error) {
	if m.imageKeysFn != nil {
		return m.imageKeysFn(ctx, userID)
	}
	return []string{}, nil
}

func (m *mockPostRepository) ToggleLike(ctx context.Context, postID, userID int64) (bool, int, error) {
	if m.toggleLikeFn != nil {
		return m.toggleLikeFn(ctx, postID, userID)
	}
	return false, 0, nil
}

func (m *mockPostRepository) ToggleBookmark(ctx context.Context, userID, postID int64) (bool, error) {
	if m.toggleBookmarkFn != nil {
		return m.toggleBookmarkFn(ctx, userID, postID)
	}
	return false, nil
}

type mockReplyRepository struct {
	createFn      func(ctx context.Context, reply *model.Reply) error
	getByIDFn     func(ctx context.Context, postID, replyID int64) (*model.Reply, error)
	updateFn      func(ctx context.Context, postID, replyID int64, content string) (*model.Reply, error)
	deleteFn      func(ctx context.Context, postID, replyID int64) error
	listByPostFn  func(ctx context.Context, postID int64) ([]model.Reply, error)
	listByPostsFn func(ctx context.Context, postIDs []int64) (map[int64][]model.Reply, error)
	toggleLikeFn  func(ctx context.Context, replyID, userID int64) (bool, int, error)

	deleteCalls int
}

func (m *mockReplyRepository) Create(ctx context.Context, reply *model.Reply) error {
	if m.createFn != nil {
		return m.createFn(ctx, reply)
	}
	return nil
}

func (m *mockReplyRepository) GetByID(ctx context.Context, postID, replyID int64) (*model.Reply, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, postID, replyID)
	}
	return nil, model.ErrReplyNotFound
}

func (m *mockReplyRepository) Update(ctx context.Context, postID, replyID int64, content string) (*model.Reply, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, postID, replyID, content)
	}
	return nil, model.ErrReplyNotFound
}

func (m *mockReplyRepository) Delete(ctx context.Context, postID, replyID int64) error {
	m.deleteCalls++
	if m.deleteFn != nil {
		return m.deleteFn(ctx, postID, replyID)
	}
	return nil
}

func (m *mockReplyRepository) ListByPost(ctx context.Context, postID int64) ([]model.Reply, error) {
	if m.listByPostFn != nil {
		return m.listByPostFn(ctx, postID)
	}
	return []model.Reply{}, nil
}

func (m *mockReplyRepository) ListByPosts(ctx context.Context, postIDs []int64) (map[int64][]model.Reply, error) {
	if m.listByPostsFn != nil {
		return m.listByPostsFn(ctx, postIDs)
	}
	return map[int64][]model.Reply{}, nil
}

func (m *mockReplyRepository) ToggleLike(ctx context.Context, replyID, userID int64) (bool, int, error) {
	if m.toggleLikeFn != nil {
		return m.toggleLikeFn(ctx, replyID, userID)
	}
	return false, 0, nil
}

type mockMessageRepository struct {
	created []*model.Message
	err     error
}

func (m *mockMessageRepository) Create(ctx context.Context, msg *model.Message) error {
	if m.err != nil {
		return m.err
	}
	msg.ID = int64(len(m.created) + 1)
	msg.CreatedAt = time.Now()
	m.created = append(m.created, msg)
	return nil
}

func (m *mockMessageRepository) ListBetween(ctx context.Context, a, b int64) ([]model.Message, error) {
	out := []model.Message{}
	for _, msg := range m.created {
		if (msg.SenderID == a && msg.ReceiverID == b) || (msg.SenderID == b && msg.ReceiverID == a) {
			out = append(out, *msg)
		}
	}
	return out, m.err
}

func (m *mockMessageRepository) ListForUser(ctx context.Context, userID int64) ([]model.Message, error) {
	out := []model.Message{}
	for _, msg := range m.created {
		if msg.SenderID == userID || msg.ReceiverID == userID {
			out = append(out, *msg)
		}
	}
	return out, m.err
}

type mockNotificationRepository struct {
	createFn      func(ctx context.Context, n *model.Notification) error
	listFn        func(ctx context.Context, userID int64, limit int) ([]model.Notification, error)
	countUnreadFn func(ctx context.Context, userID int64) (int, error)
	markReadFn    func(ctx context.Context, userID, id int64) error
	markAllReadFn func(ctx context.Context, userID int64) (int64, error)

	created []*model.Notification
}

func (m *mockNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, n); err != nil {
			return err
		}
	}
	if n.ID == 0 {
		n.ID = int64(len(m.created) + 1)
	}
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotificationRepository) ListForUser(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit)
	}
	return []model.Notification{}, nil
}

func (m *mockNotificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	if m.countUnreadFn != nil {
		return m.countUnreadFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockNotificationRepository) MarkRead(ctx context.Context, userID, id int64) error {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, userID, id)
	}
	return nil
}

func (m *mockNotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	if m.markAllReadFn != nil {
		return m.markAllReadFn(ctx, userID)
	}
	return 0, nil
}

// =============================================================================
// MOCK COLLABORATORS
// =============================================================================

type mockAssetStore struct {
	mu        sync.Mutex
	uploadErr error
	uploads   []model.ImagePolicy
	deleted   []string
}

func (m *mockAssetStore) Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader, policy model.ImagePolicy) (*model.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	m.uploads = append(m.uploads, policy)
	key := policy.Folder + "/new.jpg"
	return &model.Asset{URL: "https://cdn.test/" + key, Key: key, Width: policy.Width, Height: policy.Height, Format: "jpg"}, nil
}

func (m *mockAssetStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockAssetStore) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

type mockPublisher struct {
	events []queue.AssetEvent
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.AssetEvent) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.events = append(m.events, event)
	return "1-0", nil
}

type emitCall struct {
	Room    string
	Event   string
	Payload any
}

type mockBroadcaster struct {
	calls []emitCall
	err   error
}

func (m *mockBroadcaster) Emit(ctx context.Context, room, event string, payload any) error {
	m.calls = append(m.calls, emitCall{Room: room, Event: event, Payload: payload})
	return m.err
}

type notifyCall struct {
	Recipient int64
	Actor     int64
	Kind      string
	PostID    *int64
}

// mockNotifier records Notify calls, self-actions included.
type mockNotifier struct {
	calls []notifyCall
}

func (m *mockNotifier) Notify(ctx context.Context, recipientID, actorID int64, kind string, postID *int64) {
	m.calls = append(m.calls, notifyCall{Recipient: recipientID, Actor: actorID, Kind: kind, PostID: postID})
}

type mockMailer struct {
	to   string
	link string
	err  error
}

func (m *mockMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	m.to, m.link = to, link
	return m.err
}

// =============================================================================
// HELPERS
// =============================================================================

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:              "test-secret",
		TokenMaxAge:            604800,
		SessionMaxAge:          604800,
		SessionRememberMaxAge:  2592000,
		AppBaseURL:             "http://localhost:8080",
		DefaultProfilePhotoURL: "https://cdn.test/profile_images/default.jpg",
		DefaultProfilePhotoKey: "profile_images/default.jpg",
		DefaultCoverPhotoURL:   "https://cdn.test/profile_covers/default.jpg",
		DefaultCoverPhotoKey:   "profile_covers/default.jpg",
		ResetTokenTTL:          time.Hour,
		VerificationDuration:   120 * time.Second,
	}
}

// newMockDB returns an sqlx handle backed by sqlmock for transaction checks.
func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

// pngUpload builds an in-memory multipart PNG of the given size.
func pngUpload(t *testing.T, w, h int) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return multipartFile(t, buf.Bytes(), "image/png")
}

func multipartFile(t *testing.T, data []byte, contentType string) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="upload"`)
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(int64(len(data)) + 1024)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	header := form.File["image"][0]
	f, err := header.Open()
	if err != nil {
		t.Fatalf("open part: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f, header
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }
