package user

import (
	"context"
	"fmt"
	"time"

	"holdem-service/internal/config"
	"holdem-service/internal/model"
	appErr "holdem-service/pkg/errors"
	"holdem-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service serves account data and the periodic login reward.
type Service struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{db: db, rdb: rdb}
}

// ClientData is the profile payload shown in the lobby.
type ClientData struct {
	Username  string `json:"username"`
	ChipCount int64  `json:"chipCount"`
	HandsWon  int64  `json:"handsWon"`
	Rating    int    `json:"rating"`
}

type ratingSource interface {
	Rating(ctx context.Context, username string) int
}

func rewardKey(username string) string {
	return fmt.Sprintf("reward:%s", username)
}

func (s *Service) ClientData(ctx context.Context, username string, ratings ratingSource) (*ClientData, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, appErr.ErrUserNotFound
		}
		return nil, err
	}
	data := &ClientData{
		Username:  user.Username,
		ChipCount: user.ChipCount,
		HandsWon:  user.HandsWon,
	}
	if ratings != nil {
		data.Rating = ratings.Rating(ctx, username)
	}
	return data, nil
}

// ClaimReward credits the login reward once per cooldown window. The
// redis TTL key is the gate; the remaining wait is reported alongside
// ErrRewardNotActive when the claim is early.
func (s *Service) ClaimReward(ctx context.Context, username string) (int64, time.Duration, error) {
	cfg := config.GlobalConfig.Game
	cooldown := time.Duration(cfg.LoginRewardCooldown) * time.Hour

	ok, err := s.rdb.SetNX(ctx, rewardKey(username), time.Now().Unix(), cooldown).Result()
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		remaining, err := s.rdb.TTL(ctx, rewardKey(username)).Result()
		if err != nil || remaining < 0 {
			remaining = cooldown
		}
		return 0, remaining, appErr.ErrRewardNotActive
	}

	now := time.Now()
	res := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("username = ?", username).
		Updates(map[string]interface{}{
			"chip_count":     gorm.Expr("chip_count + ?", cfg.LoginRewardChips),
			"last_reward_at": now,
		})
	if res.Error != nil {
		s.rdb.Del(ctx, rewardKey(username))
		return 0, 0, res.Error
	}
	if res.RowsAffected == 0 {
		s.rdb.Del(ctx, rewardKey(username))
		return 0, 0, appErr.ErrUserNotFound
	}

	logger.Log.Info("login reward claimed",
		zap.String("username", username),
		zap.Int64("chips", cfg.LoginRewardChips),
	)
	return cfg.LoginRewardChips, 0, nil
}
