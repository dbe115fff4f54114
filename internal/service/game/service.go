package game

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"holdem-service/internal/model"
	appErr "holdem-service/pkg/errors"
	"holdem-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	minSeats = 2
	maxSeats = 10
)

// Service is the table arena: every active TableSession keyed by its
// unique name, plus the chip-balance and hand-log glue around the core.
type Service struct {
	db     *gorm.DB
	rater  Rater
	timing Timing

	mu     sync.RWMutex
	tables map[string]*TableSession
}

func NewService(db *gorm.DB, rater Rater, timing Timing) *Service {
	return &Service{
		db:     db,
		rater:  rater,
		timing: timing,
		tables: make(map[string]*TableSession),
	}
}

// TableInfo is one row of the table list.
type TableInfo struct {
	Name       string `json:"name"`
	SmallBlind int64  `json:"smallBlind"`
	MaxPlayers int    `json:"maxPlayers"`
	Seated     int    `json:"seated"`
	Ranked     bool   `json:"ranked"`
}

// CreateTable registers a new table under a unique title.
func (s *Service) CreateTable(name string, smallBlind int64, maxPlayers int, ranked bool) error {
	if name == "" || smallBlind <= 0 || maxPlayers < minSeats || maxPlayers > maxSeats {
		return fmt.Errorf("invalid table parameters: blind %d, seats %d", smallBlind, maxPlayers)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[name]; ok {
		return appErr.ErrTitleTaken
	}

	var tableRater Rater
	if ranked {
		tableRater = s.rater
	}
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	session := NewTableSession(Settings{
		Name:       name,
		SmallBlind: smallBlind,
		MaxPlayers: maxPlayers,
		Ranked:     ranked,
	}, s.timing, rnd, tableRater, s.persistRound)
	session.SetCashOutHook(func(username string, chips int64) {
		s.cashOut(name, username, chips)
	})
	s.tables[name] = session

	logger.Log.Info("table created",
		zap.String("table", name),
		zap.Int64("smallBlind", smallBlind),
		zap.Int("maxPlayers", maxPlayers),
		zap.Bool("ranked", ranked),
	)
	return nil
}

// ListTables snapshots every active table for the lobby listing.
func (s *Service) ListTables() []TableInfo {
	s.mu.RLock()
	sessions := make([]*TableSession, 0, len(s.tables))
	for _, t := range s.tables {
		sessions = append(sessions, t)
	}
	s.mu.RUnlock()

	infos := make([]TableInfo, 0, len(sessions))
	for _, t := range sessions {
		snap := t.Snapshot()
		infos = append(infos, TableInfo{
			Name:       snap.Name,
			SmallBlind: snap.SmallBlind,
			MaxPlayers: snap.MaxPlayers,
			Seated:     len(snap.Seats),
			Ranked:     snap.Ranked,
		})
	}
	return infos
}

func (s *Service) table(name string) (*TableSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, appErr.ErrTableNotFound
	}
	return t, nil
}

// JoinTable debits the buy-in from the account and seats the player.
// A failed seat attempt refunds the debit.
func (s *Service) JoinTable(ctx context.Context, name, username string, buyIn int64) (int, <-chan OutgoingMessage, error) {
	t, err := s.table(name)
	if err != nil {
		return 0, nil, err
	}

	if err := s.debitChips(ctx, username, buyIn); err != nil {
		return 0, nil, err
	}

	seat, ch, err := t.Join(username, buyIn)
	if err != nil {
		if refundErr := s.creditChips(ctx, username, buyIn); refundErr != nil {
			logger.Log.Error("buy-in refund failed",
				zap.String("username", username),
				zap.Int64("buyIn", buyIn),
				zap.Error(refundErr),
			)
		}
		return 0, nil, err
	}
	return seat, ch, nil
}

// LeaveTable vacates the seat; the remaining stack is credited back
// through the cash-out hook.
func (s *Service) LeaveTable(name, username string) (LeaveResult, error) {
	t, err := s.table(name)
	if err != nil {
		return LeaveResult{}, err
	}
	return t.Leave(username)
}

func (s *Service) HandleAction(name, username string, action Action) error {
	t, err := s.table(name)
	if err != nil {
		return err
	}
	return t.HandleAction(username, action)
}

// SitIn returns a seat benched after repeated timeouts to the deal
// rotation.
func (s *Service) SitIn(name, username string) error {
	t, err := s.table(name)
	if err != nil {
		return err
	}
	return t.SitIn(username)
}

// RevealPacing is the per-card pause the transport layer applies when
// relaying reveal events. Presentation only.
func (s *Service) RevealPacing() time.Duration {
	return s.timing.CardReveal
}

func (s *Service) HandleChat(name, username, text string) error {
	t, err := s.table(name)
	if err != nil {
		return err
	}
	return t.HandleChat(username, text)
}

func (s *Service) HandleDisconnect(name, username string) {
	t, err := s.table(name)
	if err != nil {
		return
	}
	t.HandleDisconnect(username)
}

func (s *Service) Snapshot(name string) (TableStatePayload, error) {
	t, err := s.table(name)
	if err != nil {
		return TableStatePayload{}, err
	}
	return t.Snapshot(), nil
}

// cashOut credits a leaver's remaining stack back to the account and
// tears down tables left empty.
func (s *Service) cashOut(tableName, username string, chips int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if chips > 0 {
		if err := s.creditChips(ctx, username, chips); err != nil {
			logger.Log.Error("cash-out credit failed",
				zap.String("table", tableName),
				zap.String("username", username),
				zap.Int64("chips", chips),
				zap.Error(err),
			)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[tableName]; ok && t.Empty() {
		delete(s.tables, tableName)
		t.Close()
		logger.Log.Info("empty table destroyed", zap.String("table", tableName))
	}
}

func (s *Service) debitChips(ctx context.Context, username string, amount int64) error {
	if amount <= 0 {
		return appErr.ErrInvalidBuyIn
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return appErr.ErrUserNotFound
			}
			return err
		}
		if user.ChipCount < amount {
			return appErr.ErrInsufficientChips
		}
		return tx.Model(&user).Update("chip_count", gorm.Expr("chip_count - ?", amount)).Error
	})
}

func (s *Service) creditChips(ctx context.Context, username string, amount int64) error {
	if amount <= 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("username = ?", username).
		Update("chip_count", gorm.Expr("chip_count + ?", amount)).Error
}

// persistRound writes the settled round's audit row and bumps winner
// stats. Runs on its own goroutine; failures are logged, never fatal.
func (s *Service) persistRound(summary RoundSummary) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	board, err := json.Marshal(summary.Community)
	if err != nil {
		logger.Log.Error("hand log marshal failed", zap.Error(err))
		return
	}
	results, err := json.Marshal(summary.Awards)
	if err != nil {
		logger.Log.Error("hand log marshal failed", zap.Error(err))
		return
	}

	log := model.HandLog{
		RoundID:     uuid.NewString(),
		TableName:   summary.TableName,
		DealerSeat:  summary.DealerSeat,
		BoardJSON:   datatypes.JSON(board),
		ResultsJSON: datatypes.JSON(results),
		CreatedAt:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
		logger.Log.Error("hand log insert failed",
			zap.String("table", summary.TableName),
			zap.Error(err),
		)
		return
	}

	if len(summary.Winners) > 0 {
		if err := s.db.WithContext(ctx).
			Model(&model.User{}).
			Where("username IN ?", summary.Winners).
			Update("hands_won", gorm.Expr("hands_won + 1")).Error; err != nil {
			logger.Log.Error("winner stat update failed", zap.Error(err))
		}
	}
}
