package notification

import (
	"context"
	"log"

	"railbook/internal/domain"
)

// Sink receives booking lifecycle notifications. Delivery is best effort.
type Sink interface {
	NotifyBookingConfirmed(ctx context.Context, email string, booking BookingDetails, train TrainDetails) error
	NotifyBookingCancelled(ctx context.Context, email string, booking BookingDetails, train TrainDetails) error
}

// Mailer delivers one-time codes for profile changes and password resets.
type Mailer interface {
	SendOneTimeCode(ctx context.Context, email string, purpose domain.CodePurpose, code string) error
}

// LogMailer writes notifications to the process log instead of sending mail.
type LogMailer struct {
	loggerf func(format string, args ...interface{})
}

func NewLogMailer(loggerf func(format string, args ...interface{})) *LogMailer {
	if loggerf == nil {
		loggerf = log.Printf
	}
	return &LogMailer{loggerf: loggerf}
}

func (m *LogMailer) NotifyBookingConfirmed(_ context.Context, email string, b BookingDetails, t TrainDetails) error {
	m.loggerf("level=info msg=\"booking confirmed\" email=%s reference=%s train=%s route=%s-%s departure=%s passenger=%q seat=%s class=%s fare=%s",
		email, b.Reference, t.TrainNumber, t.Source, t.Destination, t.DepartureTime.Format("2006-01-02T15:04Z07:00"),
		b.PassengerName, b.SeatNumber, b.SeatClass, b.Fare)
	return nil
}

func (m *LogMailer) NotifyBookingCancelled(_ context.Context, email string, b BookingDetails, t TrainDetails) error {
	m.loggerf("level=info msg=\"booking cancelled\" email=%s reference=%s train=%s route=%s-%s passenger=%q seat=%s",
		email, b.Reference, t.TrainNumber, t.Source, t.Destination, b.PassengerName, b.SeatNumber)
	return nil
}

func (m *LogMailer) SendOneTimeCode(_ context.Context, email string, purpose domain.CodePurpose, code string) error {
	m.loggerf("level=info msg=\"one-time code\" email=%s purpose=%s code=%s", email, purpose, code)
	return nil
}

// Deliver routes a broker event to the matching Sink method.
func Deliver(ctx context.Context, sink Sink, ev Event) error {
	switch ev.Type {
	case TypeBookingConfirmed:
		return sink.NotifyBookingConfirmed(ctx, ev.Email, ev.Booking, ev.Train)
	case TypeBookingCancelled:
		return sink.NotifyBookingCancelled(ctx, ev.Email, ev.Booking, ev.Train)
	}
	return ErrUnknownEvent
}
