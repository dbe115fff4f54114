package service

import (
	"time"

	"holdem-service/internal/config"
	"holdem-service/internal/service/auth"
	"holdem-service/internal/service/game"
	"holdem-service/internal/service/rating"
	"holdem-service/internal/service/user"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Auth   *auth.Service
	User   *user.Service
	Rating *rating.Service
	Game   *game.Service
}

func NewContainer(db *gorm.DB, rdb *redis.Client) *Container {
	cfg := config.GlobalConfig.Game
	rater := rating.NewService(db, rdb, cfg.DefaultRating, cfg.RatingStep)
	timing := game.Timing{
		TurnWindow:  cfg.TurnDuration(),
		Overtime:    cfg.Overtime(),
		RoundPause:  cfg.RoundPause(),
		CardReveal:  time.Duration(cfg.CardRevealMs) * time.Millisecond,
		SitOutAfter: cfg.SitOutAfterTimeouts,
	}
	return &Container{
		Auth:   auth.NewService(db, rdb),
		User:   user.NewService(db, rdb),
		Rating: rater,
		Game:   game.NewService(db, rater, timing),
	}
}
