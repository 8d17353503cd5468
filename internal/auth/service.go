package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/account"
	"github.com/frahmantamala/employee-directory/internal/core/common/validation"
	"github.com/frahmantamala/employee-directory/internal/metrics"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AccountRepository is the credential store.
type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*account.Account, error)
	GetByID(ctx context.Context, id string) (*account.Account, error)
	Create(ctx context.Context, a *account.Account) error
}

// TokenIssuer is the part of TokenService the credential flows depend on.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// Service implements registration and login.
type Service struct {
	accounts   AccountRepository
	tokens     TokenIssuer
	bcryptCost int
	dummyHash  string
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewService(accounts AccountRepository, tokens TokenIssuer, bcryptCost int, m *metrics.Metrics, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	// unknown emails are compared against this so they still pay for one bcrypt round
	dummy, _ := HashPassword(uuid.NewString(), bcryptCost)
	return &Service{
		accounts:   accounts,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
		metrics:    m,
		logger:     logger,
	}
}

// Register creates an account and returns a token for it. The existence
// check is advisory; the store's unique index settles concurrent attempts.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (string, error) {
	if err := dto.Validate(); err != nil {
		s.metrics.ObserveRegistration(metrics.ResultInvalid)
		return "", err
	}
	email := validation.NormalizeEmail(dto.Email)

	_, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		s.metrics.ObserveRegistration(metrics.ResultDuplicate)
		return "", internal.ErrDuplicateAccount
	case !errors.Is(err, account.ErrNotFound):
		s.metrics.ObserveRegistration(metrics.ResultError)
		return "", internal.NewPersistenceError(err)
	}

	hash, err := HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			s.metrics.ObserveRegistration(metrics.ResultInvalid)
			return "", internal.NewValidationFieldError("password", "Password must not exceed 72 bytes", internal.ErrCodePasswordTooLong)
		}
		s.metrics.ObserveRegistration(metrics.ResultError)
		return "", internal.NewInternalError("Server error", err)
	}

	acc := &account.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		if errors.Is(err, account.ErrDuplicate) {
			s.metrics.ObserveRegistration(metrics.ResultDuplicate)
			return "", internal.ErrDuplicateAccount
		}
		s.metrics.ObserveRegistration(metrics.ResultError)
		return "", internal.NewPersistenceError(err)
	}

	token, err := s.tokens.Issue(acc.ID)
	if err != nil {
		s.metrics.ObserveRegistration(metrics.ResultError)
		return "", internal.NewInternalError("Server error", err)
	}

	s.metrics.ObserveRegistration(metrics.ResultSuccess)
	s.logger.Info("account registered", "account_id", acc.ID)
	return token, nil
}

// Login returns a token for valid credentials. Unknown email and wrong
// password produce the same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (string, error) {
	if err := dto.Validate(); err != nil {
		s.metrics.ObserveLogin(metrics.ResultInvalid)
		return "", err
	}
	email := validation.NormalizeEmail(dto.Email)

	acc, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			_ = VerifyPassword(s.dummyHash, dto.Password)
			s.metrics.ObserveLogin(metrics.ResultInvalid)
			return "", internal.ErrInvalidCredentials
		}
		s.metrics.ObserveLogin(metrics.ResultError)
		return "", internal.NewPersistenceError(err)
	}

	if err := VerifyPassword(acc.PasswordHash, dto.Password); err != nil {
		s.metrics.ObserveLogin(metrics.ResultInvalid)
		return "", internal.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(acc.ID)
	if err != nil {
		s.metrics.ObserveLogin(metrics.ResultError)
		return "", internal.NewInternalError("Server error", err)
	}

	s.metrics.ObserveLogin(metrics.ResultSuccess)
	return token, nil
}

// CurrentAccount loads the account behind an admitted request.
func (s *Service) CurrentAccount(ctx context.Context, subject string) (*account.Account, error) {
	acc, err := s.accounts.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, internal.ErrInvalidToken
		}
		return nil, internal.NewPersistenceError(err)
	}
	return acc, nil
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
