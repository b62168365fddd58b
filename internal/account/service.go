package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/onevtu/onevtu/internal/ledger"
)

// ErrInvalidInput indicates a registration request missing required fields.
var ErrInvalidInput = errors.New("name, email and password are required")

// Service manages account registration and balance reads. Every balance
// query goes to the ledger; there is no in-process balance cache.
type Service struct {
	repo   Repository
	ledger ledger.Ledger
}

// NewService builds an account service instance.
func NewService(repo Repository, ledger ledger.Ledger) *Service {
	return &Service{repo: repo, ledger: ledger}
}

// RegisterInput captures data required to open an account.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Register provisions an account and its zero-balance ledger account.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Account, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return Account{}, ErrInvalidInput
	}

	// Known duplicates stop here; the repository's unique constraint catches
	// the remaining race.
	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return Account{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return Account{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}

	accountID := uuid.NewString()
	ledgerCode := fmt.Sprintf("user:%s", accountID)
	if err := s.ledger.EnsureAccount(ctx, ledgerCode); err != nil {
		return Account{}, err
	}

	acct := Account{
		ID:           accountID,
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: hash,
		LedgerCode:   ledgerCode,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// Get retrieves account metadata.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	return s.repo.Get(ctx, id)
}

// Balance returns the ledger balance for the account in kobo.
func (s *Service) Balance(ctx context.Context, id string) (int64, error) {
	acct, err := s.repo.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.ledger.Balance(ctx, acct.LedgerCode)
}
