package rating_test

import (
	"context"
	"os"
	"testing"
	"time"

	"holdem-service/internal/model"
	"holdem-service/internal/service/rating"
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

func newTestService(t *testing.T) (*gorm.DB, *rating.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.RatingChange{}); err != nil {
		t.Fatalf("failed to migrate rating model: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return db, rating.NewService(db, rdb, 1500, 30)
}

func waitForAuditRows(t *testing.T, db *gorm.DB, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var count int64
		if err := db.Model(&model.RatingChange{}).Count(&count).Error; err != nil {
			t.Fatalf("failed to count audit rows: %v", err)
		}
		if count == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("audit rows never reached %d", want)
}

func TestNewcomerStartsAtDefault(t *testing.T) {
	_, svc := newTestService(t)
	if r := svc.Rating(context.Background(), "ghost"); r != 1500 {
		t.Fatalf("expected default rating 1500, got %d", r)
	}
}

func TestWinnerGainsFullStep(t *testing.T) {
	db, svc := newTestService(t)

	oldR, newR := svc.ReportFinish("alice", "table-1", 1, 2)
	if oldR != 1500 || newR != 1530 {
		t.Fatalf("expected 1500 -> 1530, got %d -> %d", oldR, newR)
	}
	if r := svc.Rating(context.Background(), "alice"); r != 1530 {
		t.Fatalf("ladder not updated, got %d", r)
	}

	waitForAuditRows(t, db, 1)
	var change model.RatingChange
	if err := db.First(&change).Error; err != nil {
		t.Fatalf("failed to load audit row: %v", err)
	}
	if change.Username != "alice" || change.PlaceFinished != 1 || change.NewRating != 1530 {
		t.Fatalf("unexpected audit row: %+v", change)
	}
}

func TestLoserLosesFullStep(t *testing.T) {
	_, svc := newTestService(t)

	oldR, newR := svc.ReportFinish("bob", "table-1", 2, 2)
	if oldR != 1500 || newR != 1470 {
		t.Fatalf("expected 1500 -> 1470, got %d -> %d", oldR, newR)
	}
}

func TestDeltaScalesWithPlace(t *testing.T) {
	_, svc := newTestService(t)

	// Five-seat table: first +30, last -30, the middle finish breaks even.
	_, first := svc.ReportFinish("p1", "table-1", 1, 5)
	_, mid := svc.ReportFinish("p3", "table-1", 3, 5)
	_, last := svc.ReportFinish("p5", "table-1", 5, 5)

	if first != 1530 {
		t.Fatalf("first place expected 1530, got %d", first)
	}
	if mid != 1500 {
		t.Fatalf("middle place expected 1500, got %d", mid)
	}
	if last != 1470 {
		t.Fatalf("last place expected 1470, got %d", last)
	}
}

func TestLadderOutageFallsBackToDefault(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.RatingChange{}); err != nil {
		t.Fatalf("failed to migrate rating model: %v", err)
	}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := rating.NewService(db, rdb, 1500, 30)

	// A dead redis must not wedge the reporting caller: the read falls
	// back to the default rating and the delta still applies.
	mr.Close()
	start := time.Now()
	oldR, newR := svc.ReportFinish("alice", "table-1", 1, 2)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("report must return promptly on outage, took %v", elapsed)
	}
	if oldR != 1500 || newR != 1530 {
		t.Fatalf("expected 1500 -> 1530 on fallback, got %d -> %d", oldR, newR)
	}
	waitForAuditRows(t, db, 1)
}

func TestConsecutiveFinishesAccumulate(t *testing.T) {
	_, svc := newTestService(t)

	svc.ReportFinish("alice", "table-1", 1, 2)
	oldR, newR := svc.ReportFinish("alice", "table-2", 1, 2)
	if oldR != 1530 || newR != 1560 {
		t.Fatalf("expected 1530 -> 1560, got %d -> %d", oldR, newR)
	}
}
