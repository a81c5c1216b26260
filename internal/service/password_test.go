package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"xclone/internal/cache"
	"xclone/internal/model"
)

type passwordFixture struct {
	svc    *PasswordService
	mailer *mockMailer
	users  *mockUserRepository
	mr     *miniredis.Miniredis
	hash   string
}

func newPasswordFixture(t *testing.T) *passwordFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := &passwordFixture{mailer: &mockMailer{}, mr: mr}
	f.users = &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			if email != "alice@example.com" {
				return nil, model.ErrUserNotFound
			}
			return &model.User{ID: 1, Email: email}, nil
		},
		updatePasswordFn: func(ctx context.Context, id int64, hash string) error {
			f.hash = hash
			return nil
		},
	}
	f.svc = NewPasswordService(f.users, cache.NewResetTokenStore(client), f.mailer, testConfig())
	return f
}

// requestToken runs the forgot step and pulls the raw token out of the mailed link.
func (f *passwordFixture) requestToken(t *testing.T) string {
	t.Helper()
	if err := f.svc.RequestReset(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("RequestReset failed: %v", err)
	}
	prefix := "http://localhost:8080/reset-password/"
	if !strings.HasPrefix(f.mailer.link, prefix) {
		t.Fatalf("link = %q", f.mailer.link)
	}
	return strings.TrimPrefix(f.mailer.link, prefix)
}

func TestPasswordService_RequestReset_StoresOnlyHash(t *testing.T) {
	f := newPasswordFixture(t)
	token := f.requestToken(t)

	if f.mailer.to != "alice@example.com" {
		t.Errorf("mailed to %q", f.mailer.to)
	}
	if len(token) != model.ResetTokenBytes*2 {
		t.Errorf("token length = %d", len(token))
	}
	if f.mr.Exists(cache.ResetTokenPrefix + token) {
		t.Error("raw token must not be stored")
	}
	if !f.mr.Exists(cache.ResetTokenPrefix + hashToken(token)) {
		t.Error("hashed token not stored")
	}
}

func TestPasswordService_RequestReset_Errors(t *testing.T) {
	f := newPasswordFixture(t)

	if err := f.svc.RequestReset(context.Background(), "  "); !errors.Is(err, model.ErrInvalidEmail) {
		t.Errorf("blank email: %v", err)
	}
	if err := f.svc.RequestReset(context.Background(), "ghost@example.com"); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("unknown email: %v", err)
	}
	if f.mailer.link != "" {
		t.Error("nothing should be mailed on error")
	}
}

func TestPasswordService_ResetPassword_SingleUse(t *testing.T) {
	f := newPasswordFixture(t)
	token := f.requestToken(t)
	ctx := context.Background()

	if err := f.svc.CheckReset(ctx, token); err != nil {
		t.Fatalf("CheckReset before use: %v", err)
	}

	req := &model.ResetPasswordRequest{Password: "newsecret1", ConfirmPassword: "newsecret1"}
	if err := f.svc.ResetPassword(ctx, token, req); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(f.hash), []byte("newsecret1")) != nil {
		t.Error("stored hash does not match the new password")
	}

	if err := f.svc.ResetPassword(ctx, token, req); !errors.Is(err, model.ErrInvalidResetToken) {
		t.Errorf("second use: error = %v, want ErrInvalidResetToken", err)
	}
	if err := f.svc.CheckReset(ctx, token); !errors.Is(err, model.ErrInvalidResetToken) {
		t.Errorf("CheckReset after use: %v", err)
	}
}

func TestPasswordService_ResetPassword_ValidationKeepsToken(t *testing.T) {
	f := newPasswordFixture(t)
	token := f.requestToken(t)
	ctx := context.Background()

	err := f.svc.ResetPassword(ctx, token, &model.ResetPasswordRequest{Password: "newsecret1", ConfirmPassword: "typo"})
	if !errors.Is(err, model.ErrPasswordMismatch) {
		t.Errorf("mismatch: %v", err)
	}
	err = f.svc.ResetPassword(ctx, token, &model.ResetPasswordRequest{Password: "ab", ConfirmPassword: "ab"})
	if !errors.Is(err, model.ErrPasswordTooShort) {
		t.Errorf("too short: %v", err)
	}

	if err := f.svc.CheckReset(ctx, token); err != nil {
		t.Errorf("token should survive validation failures: %v", err)
	}
}

func TestPasswordService_ResetPassword_Expired(t *testing.T) {
	f := newPasswordFixture(t)
	token := f.requestToken(t)

	f.mr.FastForward(testConfig().ResetTokenTTL + 1)

	req := &model.ResetPasswordRequest{Password: "newsecret1", ConfirmPassword: "newsecret1"}
	if err := f.svc.ResetPassword(context.Background(), token, req); !errors.Is(err, model.ErrInvalidResetToken) {
		t.Errorf("expired token: %v", err)
	}
	if f.hash != "" {
		t.Error("password must not change")
	}
}
