package auth

import (
	"context"
	"fmt"
	"time"

	"holdem-service/internal/config"
	"holdem-service/internal/model"
	"holdem-service/pkg/auth"
	appErr "holdem-service/pkg/errors"
	"holdem-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	statusNormal = "normal"
	statusBanned = "banned"

	minUsernameLen = 3
	minPasswordLen = 6
)

// Service handles account registration and login sessions. A redis key
// marks the one live session per account; a second login while that
// key exists is rejected.
type Service struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{db: db, rdb: rdb}
}

func sessionKey(username string) string {
	return fmt.Sprintf("session:%s", username)
}

// Register creates a new account with a zero balance. The first login
// reward funds the initial bankroll.
func (s *Service) Register(ctx context.Context, username, password string) (*model.User, error) {
	if len(username) < minUsernameLen || len(password) < minPasswordLen {
		return nil, appErr.ErrInvalidCredentials
	}

	var existing model.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, appErr.ErrUsernameTaken
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := model.User{
		Username:     username,
		PasswordHash: string(hash),
		Status:       statusNormal,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	logger.Log.Info("user registered", zap.String("username", username))
	return &user, nil
}

// Login verifies credentials, claims the session slot and issues a JWT.
func (s *Service) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil, appErr.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, appErr.ErrInvalidCredentials
	}
	if user.Status == statusBanned {
		return "", nil, appErr.ErrUserBanned
	}

	ttl := time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour
	ok, err := s.rdb.SetNX(ctx, sessionKey(username), time.Now().Unix(), ttl).Result()
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, appErr.ErrAlreadyLoggedIn
	}

	token, err := auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		s.rdb.Del(ctx, sessionKey(username))
		return "", nil, err
	}

	logger.Log.Info("user logged in", zap.String("username", username))
	return token, &user, nil
}

// Logout releases the session slot. Safe to call for a session that
// already expired.
func (s *Service) Logout(ctx context.Context, username string) error {
	return s.rdb.Del(ctx, sessionKey(username)).Err()
}
