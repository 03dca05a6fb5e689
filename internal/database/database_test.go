package database

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railbook/internal/domain"
)

func TestMySQLDSN(t *testing.T) {
	assert.Equal(t, "app:secret@tcp(db:3306)/railbook?parseTime=true", mysqlDSN("mysql://app:secret@db:3306/railbook"))
	assert.Equal(t, "tcp(db:3306)/railbook?charset=utf8mb4&parseTime=true", mysqlDSN("mysql://db:3306/railbook?charset=utf8mb4"))
}

func TestConnect_SQLiteUsesSingleConnection(t *testing.T) {
	db, err := Connect("file:"+filepath.Join(t.TempDir(), "pin.db"), Options{Silent: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestMigrate_ConfirmedSeatIndex(t *testing.T) {
	db, err := Connect(fmt.Sprintf("file:migrate_%s?mode=memory&cache=shared", t.Name()), Options{Silent: true})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	train := domain.Train{
		TrainNumber: "12001", Name: "Shatabdi Express", Source: "Delhi", Destination: "Bhopal",
		DepartureTime: time.Date(2025, 4, 12, 6, 0, 0, 0, time.UTC),
		ArrivalTime:   time.Date(2025, 4, 12, 12, 30, 0, 0, time.UTC),
		TotalSeats:    2, AvailableSeats: 2, BaseFare: decimal.NewFromInt(850),
	}
	require.NoError(t, db.Create(&train).Error)

	mk := func(ref string, status domain.BookingStatus) *domain.Booking {
		return &domain.Booking{
			Reference: ref, TrainID: train.ID, UserID: 1, PassengerName: "A", PassengerAge: 30,
			SeatNumber: "A1", SeatClass: "GENERAL", Fare: decimal.NewFromInt(850),
			Status: status, BookedAt: time.Now(),
		}
	}

	require.NoError(t, db.Create(mk("r1", domain.BookingCancelled)).Error)
	require.NoError(t, db.Create(mk("r2", domain.BookingConfirmed)).Error)
	assert.Error(t, db.Create(mk("r3", domain.BookingConfirmed)).Error)
}
