package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentAttemptStatus string

const (
	PaymentAttemptSucceeded PaymentAttemptStatus = "succeeded"
	PaymentAttemptDeclined  PaymentAttemptStatus = "declined"
	PaymentAttemptTimeout   PaymentAttemptStatus = "timeout"
	PaymentAttemptError     PaymentAttemptStatus = "error"
	PaymentAttemptVoided    PaymentAttemptStatus = "voided"
)

// PaymentAttempt is the audit trail of every call made to the payment gateway.
type PaymentAttempt struct {
	ID              int64                `json:"id" gorm:"primaryKey"`
	UserID          int64                `json:"user_id" gorm:"index"`
	TrainID         int64                `json:"train_id" gorm:"index"`
	Amount          decimal.Decimal      `json:"amount" gorm:"type:decimal(10,2);not null"`
	Currency        string               `json:"currency" gorm:"size:3;not null"`
	AuthorizationID string               `json:"authorization_id,omitempty" gorm:"size:128;index"`
	Status          PaymentAttemptStatus `json:"status" gorm:"size:16;not null"`
	Metadata        datatypes.JSON       `json:"metadata,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

func (PaymentAttempt) TableName() string { return "payment_attempts" }
