package auth_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"holdem-service/internal/config"
	"holdem-service/internal/model"
	authsvc "holdem-service/internal/service/auth"
	appErr "holdem-service/pkg/errors"
	"holdem-service/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.InitLogger("debug")
	os.Exit(m.Run())
}

func newTestService(t *testing.T) (*gorm.DB, *authsvc.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}); err != nil {
		t.Fatalf("failed to migrate user model: %v", err)
	}

	config.GlobalConfig = &config.Config{
		JWT: config.JWTConfig{
			Secret: "test-secret",
			Expire: 1,
		},
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return db, authsvc.NewService(db, rdb)
}

func TestRegisterAndLogin(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "hunter22")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Username != "alice" || user.ChipCount != 0 {
		t.Fatalf("unexpected new user: %+v", user)
	}

	var stored model.User
	if err := db.Where("username = ?", "alice").First(&stored).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if stored.PasswordHash == "hunter22" {
		t.Fatalf("password must not be stored in the clear")
	}

	token, logged, err := svc.Login(ctx, "alice", "hunter22")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}
	if logged.ID != user.ID {
		t.Fatalf("expected user id %d, got %d", user.ID, logged.ID)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "hunter22"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "other-pass"); !errors.Is(err, appErr.ErrUsernameTaken) {
		t.Fatalf("expected username taken, got: %v", err)
	}
}

func TestRegisterRejectsShortCredentials(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "al", "hunter22"); !errors.Is(err, appErr.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for short username, got: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "pw"); !errors.Is(err, appErr.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for short password, got: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "hunter22"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, appErr.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got: %v", err)
	}
	if _, _, err := svc.Login(ctx, "ghost", "whatever"); !errors.Is(err, appErr.ErrInvalidCredentials) {
		t.Fatalf("unknown user must look like bad credentials, got: %v", err)
	}
}

func TestLoginBannedUser(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "hunter22"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := db.Model(&model.User{}).Where("username = ?", "alice").
		Update("status", "banned").Error; err != nil {
		t.Fatalf("failed to ban user: %v", err)
	}

	if _, _, err := svc.Login(ctx, "alice", "hunter22"); !errors.Is(err, appErr.ErrUserBanned) {
		t.Fatalf("expected banned rejection, got: %v", err)
	}
}

func TestSecondLoginRejectedUntilLogout(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "hunter22"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, err := svc.Login(ctx, "alice", "hunter22"); err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	if _, _, err := svc.Login(ctx, "alice", "hunter22"); !errors.Is(err, appErr.ErrAlreadyLoggedIn) {
		t.Fatalf("expected already-logged-in rejection, got: %v", err)
	}

	if err := svc.Logout(ctx, "alice"); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, _, err := svc.Login(ctx, "alice", "hunter22"); err != nil {
		t.Fatalf("login after logout failed: %v", err)
	}
}
