package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"railbook/internal/domain"
	"railbook/internal/modules/notification"
	"railbook/internal/pkg/validator"
)

type Config struct {
	TokenTTL    time.Duration
	RememberTTL time.Duration
	CodeTTL     time.Duration
	CodePepper  string

	MaxCodeAttempts    int
	CodeResendCooldown time.Duration
	MaxLoginAttempts   int
	LockoutDuration    time.Duration
}

// Service contains all business logic for authentication
type Service struct {
	users   UserRepository
	codes   CodeRepository
	jwt     tokenIssuer
	mailer  notification.Mailer
	cfg     Config
	now     func() time.Time
	loggerf func(format string, args ...interface{})
}

type profilePayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func NewService(
	users UserRepository,
	codes CodeRepository,
	jwt tokenIssuer,
	mailer notification.Mailer,
	cfg Config,
	loggerf func(format string, args ...interface{}),
) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.RememberTTL < cfg.TokenTTL {
		cfg.RememberTTL = 7 * 24 * time.Hour
	}
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 10 * time.Minute
	}
	if cfg.MaxCodeAttempts <= 0 {
		cfg.MaxCodeAttempts = 5
	}
	if cfg.CodeResendCooldown <= 0 {
		cfg.CodeResendCooldown = time.Minute
	}
	if cfg.MaxLoginAttempts <= 0 {
		cfg.MaxLoginAttempts = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 15 * time.Minute
	}
	return &Service{
		users:   users,
		codes:   codes,
		jwt:     jwt,
		mailer:  mailer,
		cfg:     cfg,
		now:     time.Now,
		loggerf: loggerf,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validator.Check(&req); err != nil {
		return nil, err
	}
	if !validator.ValidUsername(req.Username) {
		return nil, domain.Invalid("username", "may only contain letters, digits, underscores and dots")
	}
	if !validator.StrongPassword(req.Password) {
		return nil, ErrWeakPassword
	}

	taken, err := s.users.IsTaken(ctx, req.Username, req.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUserExists
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         domain.RoleClient,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.loggerf("level=info msg=\"user registered\" user_id=%d username=%s", user.ID, user.Username)
	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	identifier := strings.TrimSpace(req.identifier())
	if identifier == "" || req.Password == "" {
		return nil, domain.Invalid("username", "username or email and password are required")
	}

	user, err := s.users.GetByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	now := s.now()
	if user.IsLocked(now) {
		return nil, ErrAccountLocked
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		locked, err := s.users.RecordLoginFailure(ctx, user.ID, s.cfg.MaxLoginAttempts, now.Add(s.cfg.LockoutDuration))
		if err != nil {
			return nil, err
		}
		if locked {
			s.loggerf("level=warn msg=\"account locked after failed logins\" user_id=%d until=%s", user.ID, now.Add(s.cfg.LockoutDuration).UTC().Format(time.RFC3339))
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}
	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		if err := s.users.ResetLoginFailures(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	ttl := s.cfg.TokenTTL
	if req.RememberMe {
		ttl = s.cfg.RememberTTL
	}
	token, err := s.jwt.GenerateTokenWithTTL(user.ID, string(user.Role), ttl)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token, TokenTTL: ttl}, nil
}

func (s *Service) GetCurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// RequestProfileChange stores the pending username/email change and mails a
// code to the current address. Nothing changes until the code is confirmed.
func (s *Service) RequestProfileChange(ctx context.Context, userID int64, req ProfileChangeRequest) (time.Time, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validator.Check(&req); err != nil {
		return time.Time{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}

	next := profilePayload{Username: user.Username, Email: user.Email}
	if req.Username != "" {
		if !validator.ValidUsername(req.Username) {
			return time.Time{}, domain.Invalid("username", "may only contain letters, digits, underscores and dots")
		}
		next.Username = req.Username
	}
	if req.Email != "" {
		next.Email = req.Email
	}
	if next.Username == user.Username && next.Email == user.Email {
		return time.Time{}, ErrNothingToChange
	}

	taken, err := s.users.IsTaken(ctx, next.Username, next.Email, user.ID)
	if err != nil {
		return time.Time{}, err
	}
	if taken {
		return time.Time{}, ErrUserExists
	}

	payload, err := json.Marshal(next)
	if err != nil {
		return time.Time{}, err
	}
	return s.issueCode(ctx, user, domain.PurposeProfileUpdate, payload)
}

func (s *Service) ConfirmProfileChange(ctx context.Context, userID int64, code string) (*domain.User, error) {
	c, err := s.redeemCode(ctx, userID, domain.PurposeProfileUpdate, code)
	if err != nil {
		return nil, err
	}

	var next profilePayload
	if err := json.Unmarshal(c.Payload, &next); err != nil {
		return nil, fmt.Errorf("decode pending profile change: %w", err)
	}
	if err := s.users.UpdateProfile(ctx, userID, next.Username, next.Email); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.loggerf("level=info msg=\"profile updated\" user_id=%d", userID)
	return s.users.GetByID(ctx, userID)
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	if err := validator.Check(&req); err != nil {
		return err
	}
	if req.NewPassword != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if !validator.StrongPassword(req.NewPassword) {
		return ErrWeakPassword
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}
	return s.setPassword(ctx, user.ID, req.NewPassword)
}

// ForgotPassword mails a reset code. Unknown emails succeed silently so the
// endpoint cannot be used to probe for accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.loggerf("level=info msg=\"password reset requested for unknown email\"")
			return nil
		}
		return err
	}
	_, err = s.issueCode(ctx, user, domain.PurposePasswordReset, nil)
	if errors.Is(err, ErrResendTooSoon) {
		// Same answer as for unknown emails; the live code stays valid.
		s.loggerf("level=info msg=\"password reset throttled\" user_id=%d", user.ID)
		return nil
	}
	return err
}

func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := validator.Check(&req); err != nil {
		return err
	}
	if !validator.StrongPassword(req.NewPassword) {
		return ErrWeakPassword
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	if _, err := s.redeemCode(ctx, user.ID, domain.PurposePasswordReset, req.Code); err != nil {
		return err
	}
	return s.setPassword(ctx, user.ID, req.NewPassword)
}

func (s *Service) setPassword(ctx context.Context, userID int64, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	s.loggerf("level=info msg=\"password changed\" user_id=%d", userID)
	return nil
}

func (s *Service) issueCode(ctx context.Context, user *domain.User, purpose domain.CodePurpose, payload []byte) (time.Time, error) {
	now := s.now().UTC()
	prev, err := s.codes.Get(ctx, user.ID, purpose)
	switch {
	case err == nil:
		if prev.CreatedAt.Add(s.cfg.CodeResendCooldown).After(now) {
			return time.Time{}, ErrResendTooSoon
		}
	case !errors.Is(err, domain.ErrNotFound):
		return time.Time{}, err
	}

	code, err := generateCode()
	if err != nil {
		return time.Time{}, err
	}
	expiresAt := now.Add(s.cfg.CodeTTL)
	row := &domain.OneTimeCode{
		UserID:    user.ID,
		Purpose:   purpose,
		CodeHash:  s.hashCode(user.ID, purpose, code),
		Payload:   payload,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := s.codes.Replace(ctx, row); err != nil {
		return time.Time{}, err
	}
	if err := s.mailer.SendOneTimeCode(ctx, user.Email, purpose, code); err != nil {
		return time.Time{}, fmt.Errorf("send %s code: %w", purpose, err)
	}
	return expiresAt, nil
}

// redeemCode checks code against the live one and deletes it. Expired codes are
// deleted too, and so is a code that has taken MaxCodeAttempts wrong guesses.
func (s *Service) redeemCode(ctx context.Context, userID int64, purpose domain.CodePurpose, code string) (*domain.OneTimeCode, error) {
	c, err := s.codes.Get(ctx, userID, purpose)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}
	if c.IsExpired(s.now()) {
		if _, err := s.codes.Consume(ctx, c.ID); err != nil {
			s.loggerf("level=warn msg=\"failed to delete expired code\" user_id=%d purpose=%s err=%v", userID, purpose, err)
		}
		return nil, ErrCodeExpired
	}

	if c.Attempts >= s.cfg.MaxCodeAttempts {
		s.burnCode(ctx, c)
		return nil, ErrTooManyAttempts
	}

	want := []byte(c.CodeHash)
	got := []byte(s.hashCode(userID, purpose, strings.TrimSpace(code)))
	if subtle.ConstantTimeCompare(want, got) != 1 {
		attempts, err := s.codes.RecordFailure(ctx, c.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, ErrInvalidCode
			}
			return nil, err
		}
		if attempts >= s.cfg.MaxCodeAttempts {
			s.burnCode(ctx, c)
			return nil, ErrTooManyAttempts
		}
		return nil, ErrInvalidCode
	}

	consumed, err := s.codes.Consume(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, ErrInvalidCode
	}
	return c, nil
}

func (s *Service) burnCode(ctx context.Context, c *domain.OneTimeCode) {
	if _, err := s.codes.Consume(ctx, c.ID); err != nil {
		s.loggerf("level=warn msg=\"failed to delete exhausted code\" user_id=%d purpose=%s err=%v", c.UserID, c.Purpose, err)
		return
	}
	s.loggerf("level=warn msg=\"code exhausted by wrong guesses\" user_id=%d purpose=%s", c.UserID, c.Purpose)
}

func (s *Service) hashCode(userID int64, purpose domain.CodePurpose, code string) string {
	sum := sha256.Sum256([]byte(strconv.FormatInt(userID, 10) + ":" + string(purpose) + ":" + code + s.cfg.CodePepper))
	return hex.EncodeToString(sum[:])
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
