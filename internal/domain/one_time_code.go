package domain

import (
	"time"

	"gorm.io/datatypes"
)

type CodePurpose string

const (
	PurposeProfileUpdate CodePurpose = "profile_update"
	PurposePasswordReset CodePurpose = "password_reset"
)

// OneTimeCode is a short-lived credential mailed to the user.
//
// Only the hash of the code is stored. A code is consumed at most once: it is
// deleted on successful use, whenever it is found expired, and once too many
// wrong guesses have been counted against it.
type OneTimeCode struct {
	ID        int64          `json:"id" gorm:"primaryKey"`
	UserID    int64          `json:"user_id" gorm:"not null;uniqueIndex:idx_one_time_codes_user_purpose"`
	Purpose   CodePurpose    `json:"purpose" gorm:"size:32;not null;uniqueIndex:idx_one_time_codes_user_purpose"`
	CodeHash  string         `json:"-" gorm:"size:64;not null"`
	Payload   datatypes.JSON `json:"-"`
	Attempts  int            `json:"-" gorm:"not null;default:0"`
	ExpiresAt time.Time      `json:"expires_at" gorm:"index;not null"`
	CreatedAt time.Time      `json:"created_at"`
}

func (OneTimeCode) TableName() string { return "one_time_codes" }

func (c *OneTimeCode) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
