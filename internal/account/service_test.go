package account

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/onevtu/onevtu/internal/ledger"
)

func TestServiceRegisterAndBalance(t *testing.T) {
	repo := NewMemoryRepository()
	led := ledger.NewInMemory()
	svc := NewService(repo, led)

	ctx := context.Background()
	acct, err := svc.Register(ctx, RegisterInput{
		Name:     "Ada Obi",
		Email:    "Ada@Example.com",
		Phone:    "08030000000",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if acct.Email != "ada@example.com" {
		t.Fatalf("email not normalized: %s", acct.Email)
	}
	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte("s3cret-pass")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	balance, err := svc.Balance(ctx, acct.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("new account must start at zero, got %d", balance)
	}

	ledger.SeedBalance(led, acct.LedgerCode, 250_000)
	balance, _ = svc.Balance(ctx, acct.ID)
	if balance != 250_000 {
		t.Fatalf("expected balance 250000, got %d", balance)
	}
}

func TestServiceRegisterGuards(t *testing.T) {
	svc := NewService(NewMemoryRepository(), ledger.NewInMemory())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	if _, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "dup@x.y", Password: "pw"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Name: "B", Email: "dup@x.y", Password: "pw"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
}
