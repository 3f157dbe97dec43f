package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/techtribe/studio-api/internal/apperr"
	"github.com/techtribe/studio-api/internal/models"
)

const (
	testSecret      = "test-jwt-secret"
	testIssuer      = "techtribe-test"
	testAdminSecret = "provision-me"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *Repo) {
	t.Helper()
	repo := NewRepo(openTestDB(t))
	svc := NewService(repo, Options{
		JWTSecret:   testSecret,
		Issuer:      testIssuer,
		TokenTTL:    time.Hour,
		AdminSecret: testAdminSecret,
	}, nil)
	return svc, repo
}

func registerInput(email string) RegisterInput {
	return RegisterInput{
		Name:        "Aysel",
		Email:       email,
		Password:    "secret123",
		AdminSecret: testAdminSecret,
	}
}

func TestRegister_IssuesVerifiableToken(t *testing.T) {
	svc, _ := newTestService(t)

	sess, err := svc.Register(context.Background(), registerInput("  Aysel@TechTribe.az "))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.User.Email != "aysel@techtribe.az" {
		t.Fatalf("email must be normalized, got %q", sess.User.Email)
	}
	if sess.User.Role != models.RoleAdmin {
		t.Fatalf("expected admin role, got %q", sess.User.Role)
	}
	if sess.User.PasswordHash == "secret123" || !CheckPassword(sess.User.PasswordHash, "secret123") {
		t.Fatalf("password must be stored as a verifiable hash")
	}

	ident, err := svc.Verify(sess.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ident.UserID != sess.User.ID {
		t.Fatalf("token subject %q != user id %q", ident.UserID, sess.User.ID)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	cases := map[string]RegisterInput{
		"missing name":   {Email: "a@b.az", Password: "secret123", AdminSecret: testAdminSecret},
		"missing email":  {Name: "A", Password: "secret123", AdminSecret: testAdminSecret},
		"bad email":      {Name: "A", Email: "not-an-email", Password: "secret123", AdminSecret: testAdminSecret},
		"short password": {Name: "A", Email: "a@b.az", Password: "12345", AdminSecret: testAdminSecret},
		"long password":  {Name: "A", Email: "a@b.az", Password: strings.Repeat("a", 73), AdminSecret: testAdminSecret},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), in)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegister_WrongSecretCreatesNoUser(t *testing.T) {
	svc, repo := newTestService(t)

	in := registerInput("intruder@example.com")
	in.AdminSecret = "guess"
	_, err := svc.Register(context.Background(), in)
	if !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no users, got %d", n)
	}

	_, err = svc.Login(context.Background(), in.Email, in.Password)
	if !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("expected login to fail with unauthenticated, got %v", err)
	}
}

func TestRegister_DuplicateEmailKeepsOriginalHash(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, registerInput("owner@techtribe.az"))
	if err != nil {
		t.Fatalf("first register: %v", err)
	}

	dup := registerInput("OWNER@techtribe.az")
	dup.Password = "another-password"
	_, err = svc.Register(ctx, dup)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	stored, err := repo.GetByEmail(ctx, "owner@techtribe.az")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.PasswordHash != first.User.PasswordHash {
		t.Fatalf("original password hash must be unchanged")
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerInput("admin@techtribe.az")); err != nil {
		t.Fatalf("register: %v", err)
	}

	t.Run("wrong password issues no token", func(t *testing.T) {
		sess, err := svc.Login(ctx, "admin@techtribe.az", "wrong-password")
		if !errors.Is(err, apperr.ErrUnauthenticated) {
			t.Fatalf("expected unauthenticated, got %v", err)
		}
		if sess != nil {
			t.Fatalf("no session may be returned on failure")
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@techtribe.az", "secret123")
		if !errors.Is(err, apperr.ErrUnauthenticated) {
			t.Fatalf("expected unauthenticated, got %v", err)
		}
	})

	t.Run("correct credentials", func(t *testing.T) {
		sess, err := svc.Login(ctx, "Admin@TechTribe.az", "secret123")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if sess.Token == "" {
			t.Fatalf("expected token")
		}
		if _, err := svc.Verify(sess.Token); err != nil {
			t.Fatalf("fresh token must verify: %v", err)
		}
	})
}

func TestVerify_RejectsBadTokens(t *testing.T) {
	svc, _ := newTestService(t)

	expired, _, err := SignJWT("user-1", testIssuer, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	foreign, _, err := SignJWT("user-1", testIssuer, "someone-elses-secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	otherIssuer, _, err := SignJWT("user-1", "elsewhere", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	for name, tok := range map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"expired":      expired,
		"foreign key":  foreign,
		"other issuer": otherIssuer,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Verify(tok); !errors.Is(err, apperr.ErrUnauthenticated) {
				t.Fatalf("expected unauthenticated, got %v", err)
			}
		})
	}
}

func TestCurrentUser_DeletedAfterIssuance(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, registerInput("temp@techtribe.az"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	u, err := svc.CurrentUser(ctx, sess.Token)
	if err != nil || u.ID != sess.User.ID {
		t.Fatalf("current user: %v", err)
	}

	if err := repo.Delete(ctx, sess.User.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.CurrentUser(ctx, sess.Token); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for deleted user, got %v", err)
	}
}

func TestUserManagement(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	owner, err := svc.Register(ctx, registerInput("owner@techtribe.az"))
	if err != nil {
		t.Fatalf("register owner: %v", err)
	}
	staff, err := svc.Register(ctx, registerInput("staff@techtribe.az"))
	if err != nil {
		t.Fatalf("register staff: %v", err)
	}

	if _, err := svc.ToggleBlocked(ctx, owner.User.ID, owner.User.ID); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("blocking yourself must be rejected, got %v", err)
	}

	blocked, err := svc.ToggleBlocked(ctx, owner.User.ID, staff.User.ID)
	if err != nil || !blocked.IsBlocked {
		t.Fatalf("block: %v", err)
	}
	if _, err := svc.Login(ctx, "staff@techtribe.az", "secret123"); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("blocked user must not log in, got %v", err)
	}

	u, err := svc.SetRole(ctx, owner.User.ID, staff.User.ID, "")
	if err != nil || u.Role != models.RoleEditor {
		t.Fatalf("toggle role: role=%v err=%v", u, err)
	}
	if _, err := svc.SetRole(ctx, owner.User.ID, staff.User.ID, "root"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("unknown role must be rejected, got %v", err)
	}

	users, err := svc.ListUsers(ctx)
	if err != nil || len(users) != 2 {
		t.Fatalf("list users: n=%d err=%v", len(users), err)
	}

	if err := svc.DeleteUser(ctx, owner.User.ID, staff.User.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteUser(ctx, owner.User.ID, staff.User.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second delete must be not found, got %v", err)
	}
}

func TestCreateAdmin_RejectsOverlongPassword(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	// multi-byte runes: 40 runes but 80 bytes
	_, err := svc.CreateAdmin(ctx, "Owner", "owner@techtribe.az", strings.Repeat("ə", 40))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if n, _ := repo.Count(ctx); n != 0 {
		t.Fatalf("no user may be created, got %d", n)
	}

	if _, err := svc.CreateAdmin(ctx, "Owner", "owner@techtribe.az", strings.Repeat("a", 72)); err != nil {
		t.Fatalf("72 bytes is the bcrypt limit and must be accepted: %v", err)
	}
}
