package user_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"holdem-service/internal/config"
	"holdem-service/internal/model"
	usersvc "holdem-service/internal/service/user"
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

func newTestService(t *testing.T) (*gorm.DB, *miniredis.Miniredis, *usersvc.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}); err != nil {
		t.Fatalf("failed to migrate user model: %v", err)
	}

	config.GlobalConfig = &config.Config{
		Game: config.GameConfig{
			LoginRewardChips:    1000,
			LoginRewardCooldown: 24,
		},
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return db, mr, usersvc.NewService(db, rdb)
}

func createUser(t *testing.T, db *gorm.DB, username string, chips int64) {
	t.Helper()
	user := &model.User{Username: username, PasswordHash: "x", ChipCount: chips}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to insert user: %v", err)
	}
}

func TestClientData(t *testing.T) {
	db, _, svc := newTestService(t)
	createUser(t, db, "alice", 750)

	data, err := svc.ClientData(context.Background(), "alice", nil)
	if err != nil {
		t.Fatalf("client data failed: %v", err)
	}
	if data.Username != "alice" || data.ChipCount != 750 {
		t.Fatalf("unexpected client data: %+v", data)
	}

	if _, err := svc.ClientData(context.Background(), "ghost", nil); !errors.Is(err, appErr.ErrUserNotFound) {
		t.Fatalf("expected not found, got: %v", err)
	}
}

func TestClaimRewardOncePerCooldown(t *testing.T) {
	db, mr, svc := newTestService(t)
	createUser(t, db, "alice", 0)
	ctx := context.Background()

	chips, _, err := svc.ClaimReward(ctx, "alice")
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if chips != 1000 {
		t.Fatalf("expected 1000 chips, got %d", chips)
	}

	var stored model.User
	if err := db.Where("username = ?", "alice").First(&stored).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if stored.ChipCount != 1000 {
		t.Fatalf("expected balance 1000, got %d", stored.ChipCount)
	}
	if stored.LastRewardAt == nil {
		t.Fatalf("expected last_reward_at to be set")
	}

	_, remaining, err := svc.ClaimReward(ctx, "alice")
	if !errors.Is(err, appErr.ErrRewardNotActive) {
		t.Fatalf("expected reward not active, got: %v", err)
	}
	if remaining <= 0 || remaining > 24*time.Hour {
		t.Fatalf("unexpected remaining cooldown: %v", remaining)
	}

	// Past the cooldown the reward opens up again.
	mr.FastForward(24 * time.Hour)
	chips, _, err = svc.ClaimReward(ctx, "alice")
	if err != nil {
		t.Fatalf("claim after cooldown failed: %v", err)
	}
	if chips != 1000 {
		t.Fatalf("expected 1000 chips, got %d", chips)
	}
}

func TestClaimRewardUnknownUserRollsBack(t *testing.T) {
	_, _, svc := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.ClaimReward(ctx, "ghost"); !errors.Is(err, appErr.ErrUserNotFound) {
		t.Fatalf("expected not found, got: %v", err)
	}
	// The redis gate was released, so a later claim is not locked out.
	if _, _, err := svc.ClaimReward(ctx, "ghost"); !errors.Is(err, appErr.ErrUserNotFound) {
		t.Fatalf("expected not found again, got: %v", err)
	}
}
