package payment

import (
	"context"

	"github.com/google/uuid"
)

// Test tokens understood by SandboxGateway.
const (
	TokenDecline = "tok_decline"
	TokenTimeout = "tok_timeout"
)

// SandboxGateway approves every token except the test tokens above. It backs
// local development and the test suites.
type SandboxGateway struct{}

func NewSandboxGateway() *SandboxGateway { return &SandboxGateway{} }

func (g *SandboxGateway) Authorize(ctx context.Context, req AuthorizeRequest) (*Authorization, error) {
	switch req.Token {
	case TokenTimeout:
		<-ctx.Done()
		return nil, ctx.Err()
	case TokenDecline:
		return &Authorization{ID: "sbx_" + uuid.NewString(), Status: StatusDeclined}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Authorization{ID: "sbx_" + uuid.NewString(), Status: StatusSucceeded}, nil
}

func (g *SandboxGateway) Void(ctx context.Context, authorizationID string) error {
	return ctx.Err()
}
