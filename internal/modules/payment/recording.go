package payment

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"

	"railbook/internal/domain"
)

type attemptRepo interface {
	Create(ctx context.Context, a *domain.PaymentAttempt) error
	MarkVoided(ctx context.Context, authorizationID string) error
}

// RecordingGateway writes a payment_attempts row for every call it forwards.
type RecordingGateway struct {
	next     Gateway
	attempts attemptRepo
	loggerf  func(format string, args ...interface{})
}

func NewRecordingGateway(next Gateway, attempts attemptRepo, loggerf func(format string, args ...interface{})) *RecordingGateway {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &RecordingGateway{next: next, attempts: attempts, loggerf: loggerf}
}

func (g *RecordingGateway) Authorize(ctx context.Context, req AuthorizeRequest) (*Authorization, error) {
	auth, err := g.next.Authorize(ctx, req)

	attempt := &domain.PaymentAttempt{
		UserID:   req.UserID,
		TrainID:  req.TrainID,
		Amount:   req.Amount,
		Currency: req.Currency,
		Status:   attemptStatus(auth, err),
	}
	if auth != nil {
		attempt.AuthorizationID = auth.ID
	}
	if len(req.Metadata) > 0 {
		if raw, mErr := json.Marshal(req.Metadata); mErr == nil {
			attempt.Metadata = datatypes.JSON(raw)
		}
	}
	// The caller's ctx may already be expired; the audit row must still land.
	if rErr := g.attempts.Create(context.WithoutCancel(ctx), attempt); rErr != nil {
		g.loggerf("level=error msg=\"failed to record payment attempt\" user_id=%d train_id=%d err=%v", req.UserID, req.TrainID, rErr)
	}
	return auth, err
}

func (g *RecordingGateway) Void(ctx context.Context, authorizationID string) error {
	if err := g.next.Void(ctx, authorizationID); err != nil {
		return err
	}
	if err := g.attempts.MarkVoided(context.WithoutCancel(ctx), authorizationID); err != nil {
		g.loggerf("level=error msg=\"failed to mark payment attempt voided\" authorization_id=%s err=%v", authorizationID, err)
	}
	return nil
}

func attemptStatus(auth *Authorization, err error) domain.PaymentAttemptStatus {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.PaymentAttemptTimeout
	case err != nil:
		return domain.PaymentAttemptError
	case auth.Succeeded():
		return domain.PaymentAttemptSucceeded
	}
	return domain.PaymentAttemptDeclined
}
