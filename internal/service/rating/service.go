package rating

import (
	"context"
	"time"

	"holdem-service/internal/model"
	"holdem-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const ladderKey = "rating:ladder"

// Service keeps the ranked ladder in a redis sorted set and writes an
// audit row per reported finish. Implements game.Rater.
type Service struct {
	db  *gorm.DB
	rdb *redis.Client

	defaultRating int
	step          int
}

func NewService(db *gorm.DB, rdb *redis.Client, defaultRating, step int) *Service {
	return &Service{db: db, rdb: rdb, defaultRating: defaultRating, step: step}
}

// Rating returns the player's current ladder score, seeding newcomers
// at the default.
func (s *Service) Rating(ctx context.Context, username string) int {
	score, err := s.rdb.ZScore(ctx, ladderKey, username).Result()
	if err == redis.Nil {
		return s.defaultRating
	}
	if err != nil {
		logger.Log.Warn("ladder read failed", zap.String("username", username), zap.Error(err))
		return s.defaultRating
	}
	return int(score)
}

// ladderTimeout bounds the redis round-trips inside ReportFinish. The
// caller holds its table lock while waiting for the delta, so a slow
// or dead redis may stall the table for at most this long before the
// default rating takes over.
const ladderTimeout = 500 * time.Millisecond

// ReportFinish applies the place-based delta for one ranked table
// finish. First place gains the full step, last place loses it, the
// seats between scale linearly. Ratings never drop below zero.
func (s *Service) ReportFinish(username, tableName string, place, playerCount int) (oldRating, newRating int) {
	ctx, cancel := context.WithTimeout(context.Background(), ladderTimeout)
	defer cancel()

	oldRating = s.Rating(ctx, username)
	newRating = oldRating + s.delta(place, playerCount)
	if newRating < 0 {
		newRating = 0
	}

	if err := s.rdb.ZAdd(ctx, ladderKey, redis.Z{
		Score:  float64(newRating),
		Member: username,
	}).Err(); err != nil {
		logger.Log.Error("ladder update failed",
			zap.String("username", username),
			zap.Error(err),
		)
	}

	change := model.RatingChange{
		Username:      username,
		TableName:     tableName,
		PlaceFinished: place,
		OldRating:     oldRating,
		NewRating:     newRating,
		CreatedAt:     time.Now(),
	}
	go func() {
		dbCtx, dbCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dbCancel()
		if err := s.db.WithContext(dbCtx).Create(&change).Error; err != nil {
			logger.Log.Error("rating audit insert failed",
				zap.String("username", username),
				zap.Error(err),
			)
		}
	}()

	logger.Log.Info("ranked finish",
		zap.String("username", username),
		zap.String("table", tableName),
		zap.Int("place", place),
		zap.Int("oldRating", oldRating),
		zap.Int("newRating", newRating),
	)
	return oldRating, newRating
}

func (s *Service) delta(place, playerCount int) int {
	if playerCount < 2 {
		return 0
	}
	if place < 1 {
		place = 1
	}
	if place > playerCount {
		place = playerCount
	}
	// Linear over the finishing order: +step down to -step.
	return s.step * (playerCount + 1 - 2*place) / (playerCount - 1)
}
