package admin

import (
	"time"

	"github.com/shopspring/decimal"

	"railbook/internal/domain"
)

type StatisticsResponse struct {
	TotalUsers        int64           `json:"total_users"`
	ActiveTrains      int64           `json:"active_trains"`
	ConfirmedBookings int64           `json:"confirmed_bookings"`
	CancelledBookings int64           `json:"cancelled_bookings"`
	TodayBookings     int64           `json:"today_bookings"`
	Revenue           decimal.Decimal `json:"revenue"`
}

type UserListFilter struct {
	Role  string `form:"role" binding:"omitempty,oneof=client admin"`
	Query string `form:"q"` // username/email contains
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
}

type UserDTO struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type UserListResponse struct {
	Users []UserDTO `json:"users"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

type PassengerDTO struct {
	BookingID     int64           `json:"booking_id"`
	Reference     string          `json:"reference"`
	UserID        int64           `json:"user_id"`
	PassengerName string          `json:"passenger_name"`
	PassengerAge  int             `json:"passenger_age"`
	SeatClass     string          `json:"seat_class"`
	SeatNumber    string          `json:"seat_number"`
	Fare          decimal.Decimal `json:"fare"`
}

type ManifestResponse struct {
	TrainID        int64          `json:"train_id"`
	TrainNumber    string         `json:"train_number"`
	TotalSeats     int            `json:"total_seats"`
	AvailableSeats int            `json:"available_seats"`
	Deleted        bool           `json:"deleted"`
	Passengers     []PassengerDTO `json:"passengers"`
}

func toUserDTO(u domain.User) UserDTO {
	return UserDTO{ID: u.ID, Username: u.Username, Email: u.Email, Role: string(u.Role), CreatedAt: u.CreatedAt}
}
