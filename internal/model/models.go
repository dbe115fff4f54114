package model

import (
	"time"

	"gorm.io/datatypes"
)

// User is a registered account. The chip balance lives here and is
// debited at table buy-in and credited back at leave time.
type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	ChipCount    int64  `gorm:"default:0"`
	HandsWon     int64  `gorm:"default:0"`
	Status       string `gorm:"default:normal;not null"` // normal/banned
	LastRewardAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HandLog records one settled round for later investigation. Written
// asynchronously after pot distribution; never read on the hot path.
type HandLog struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	RoundID     string `gorm:"size:36;uniqueIndex"`
	TableName   string `gorm:"size:128;index"`
	DealerSeat  int
	BoardJSON   datatypes.JSON `gorm:"type:jsonb"` // community cards
	ResultsJSON datatypes.JSON `gorm:"type:jsonb"` // pots, winners, hand values
	CreatedAt   time.Time
}

// RatingChange is the audit row behind the LeaveTableRanked response.
type RatingChange struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	Username      string `gorm:"size:128;index"`
	TableName     string `gorm:"size:128"`
	PlaceFinished int
	OldRating     int
	NewRating     int
	CreatedAt     time.Time
}
