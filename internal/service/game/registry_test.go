package game_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"holdem-service/internal/model"
	"holdem-service/internal/service/game"
	appErr "holdem-service/pkg/errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newRegistry(t *testing.T) (*gorm.DB, *game.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.HandLog{}, &model.RatingChange{}); err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	timing := game.Timing{
		TurnWindow:  time.Hour,
		Overtime:    time.Second,
		RoundPause:  time.Hour,
		CardReveal:  250 * time.Millisecond,
		SitOutAfter: 2,
	}
	return db, game.NewService(db, nil, timing)
}

func seedUser(t *testing.T, db *gorm.DB, username string, chips int64) {
	t.Helper()
	if err := db.Create(&model.User{Username: username, PasswordHash: "x", ChipCount: chips}).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
}

func chipBalance(t *testing.T, db *gorm.DB, username string) int64 {
	t.Helper()
	var user model.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	return user.ChipCount
}

func TestCreateTableValidation(t *testing.T) {
	_, svc := newRegistry(t)

	if err := svc.CreateTable("main", 5, 6, false); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.CreateTable("main", 10, 4, false); !errors.Is(err, appErr.ErrTitleTaken) {
		t.Fatalf("expected title taken, got: %v", err)
	}
	if err := svc.CreateTable("bad", 0, 6, false); err == nil {
		t.Fatalf("expected rejection for zero blind")
	}
	if err := svc.CreateTable("bad", 5, 1, false); err == nil {
		t.Fatalf("expected rejection for single seat")
	}
}

func TestRevealPacingComesFromTiming(t *testing.T) {
	_, svc := newRegistry(t)

	if pacing := svc.RevealPacing(); pacing != 250*time.Millisecond {
		t.Fatalf("expected the configured reveal pacing, got %v", pacing)
	}
}

func TestJoinDebitsBuyIn(t *testing.T) {
	db, svc := newRegistry(t)
	seedUser(t, db, "alice", 1000)

	if err := svc.CreateTable("main", 5, 6, false); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	ctx := context.Background()
	seat, ch, err := svc.JoinTable(ctx, "main", "alice", 400)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if seat != 0 || ch == nil {
		t.Fatalf("unexpected join result: seat %d", seat)
	}
	if got := chipBalance(t, db, "alice"); got != 600 {
		t.Fatalf("expected balance 600 after buy-in, got %d", got)
	}
}

func TestJoinRejectionsKeepBalance(t *testing.T) {
	db, svc := newRegistry(t)
	seedUser(t, db, "alice", 100)

	if err := svc.CreateTable("main", 5, 6, false); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	ctx := context.Background()
	if _, _, err := svc.JoinTable(ctx, "missing", "alice", 50); !errors.Is(err, appErr.ErrTableNotFound) {
		t.Fatalf("expected table not found, got: %v", err)
	}
	if _, _, err := svc.JoinTable(ctx, "main", "alice", 500); !errors.Is(err, appErr.ErrInsufficientChips) {
		t.Fatalf("expected insufficient chips, got: %v", err)
	}
	if _, _, err := svc.JoinTable(ctx, "main", "ghost", 50); !errors.Is(err, appErr.ErrUserNotFound) {
		t.Fatalf("expected user not found, got: %v", err)
	}
	if got := chipBalance(t, db, "alice"); got != 100 {
		t.Fatalf("rejected joins must not move chips, got %d", got)
	}
}

func TestDoubleJoinRefundsSecondBuyIn(t *testing.T) {
	db, svc := newRegistry(t)
	seedUser(t, db, "alice", 1000)

	if err := svc.CreateTable("main", 5, 6, false); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	ctx := context.Background()
	if _, _, err := svc.JoinTable(ctx, "main", "alice", 400); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if _, _, err := svc.JoinTable(ctx, "main", "alice", 200); !errors.Is(err, appErr.ErrAlreadySeated) {
		t.Fatalf("expected already seated, got: %v", err)
	}
	if got := chipBalance(t, db, "alice"); got != 600 {
		t.Fatalf("second buy-in must be refunded, got %d", got)
	}
}

func TestLeaveCashesOutAndDestroysEmptyTable(t *testing.T) {
	db, svc := newRegistry(t)
	seedUser(t, db, "alice", 1000)

	if err := svc.CreateTable("main", 5, 6, false); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	ctx := context.Background()
	if _, _, err := svc.JoinTable(ctx, "main", "alice", 400); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	result, err := svc.LeaveTable("main", "alice")
	if err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if result.Kind != game.EventLeaveGranted || result.Cashed != 400 {
		t.Fatalf("unexpected leave result: %+v", result)
	}

	// The cash-out credit and table teardown run asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if chipBalance(t, db, "alice") == 1000 && len(svc.ListTables()) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("cash-out never completed: balance %d, tables %d",
		chipBalance(t, db, "alice"), len(svc.ListTables()))
}

func TestListTablesReportsSeating(t *testing.T) {
	db, svc := newRegistry(t)
	seedUser(t, db, "alice", 1000)

	if err := svc.CreateTable("main", 5, 6, false); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.CreateTable("ranked", 10, 4, true); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, _, err := svc.JoinTable(context.Background(), "main", "alice", 400); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	tables := svc.ListTables()
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
	byName := make(map[string]game.TableInfo)
	for _, info := range tables {
		byName[info.Name] = info
	}
	if byName["main"].Seated != 1 || byName["main"].SmallBlind != 5 {
		t.Fatalf("unexpected main table info: %+v", byName["main"])
	}
	if !byName["ranked"].Ranked || byName["ranked"].MaxPlayers != 4 {
		t.Fatalf("unexpected ranked table info: %+v", byName["ranked"])
	}
}
