//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/usecase"
)

func TestUserUseCase(t *testing.T) {
	ctx := context.Background()

	newUC := func(f *fixture) usecase.UserUseCase {
		return usecase.NewUserUseCase(f.users, f.purchases, f.tm, plainHasher{}, fixedTokens{}, newTestLogger())
	}

	t.Run("should register and log in by username or email", func(t *testing.T) {
		f := newFixture()
		uc := newUC(f)

		s, err := uc.Register(ctx, "alice", "Alice@Example.com", "s3cret-pass")
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if s.Token == "" || s.User.Role != model.RoleUser || s.User.Email != "alice@example.com" {
			t.Fatalf("unexpected session: %+v", s)
		}
		if s.User.PasswordHash == "s3cret-pass" {
			t.Error("password must be stored hashed")
		}

		for _, login := range []string{"alice", "ALICE@example.com"} {
			if _, err := uc.Login(ctx, login, "s3cret-pass"); err != nil {
				t.Errorf("login %q: %v", login, err)
			}
		}
	})

	t.Run("should reject duplicates, weak passwords and bad credentials", func(t *testing.T) {
		f := newFixture()
		uc := newUC(f)
		if _, err := uc.Register(ctx, "bob", "bob@example.com", "long-enough"); err != nil {
			t.Fatalf("register: %v", err)
		}

		if _, err := uc.Register(ctx, "bob", "other@example.com", "long-enough"); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Errorf("duplicate: expected ErrAlreadyExists, got %v", err)
		}
		if _, err := uc.Register(ctx, "carol", "carol@example.com", "short"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("weak password: expected ErrInvalidArgument, got %v", err)
		}
		if _, err := uc.Login(ctx, "bob", "wrong-password"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
		}
		if _, err := uc.Login(ctx, "nobody", "long-enough"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("should derive the profile entitlements from purchases", func(t *testing.T) {
		f := newFixture()
		uc := newUC(f)
		s, err := uc.Register(ctx, "dave", "dave@example.com", "long-enough")
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		f.addSet("Q1", true, "1")
		f.addSet("Q3", true, "1")
		f.addActivePurchase(s.User.ID, "Q1", time.Now().Add(48*time.Hour))
		f.addActivePurchase(s.User.ID, "Q3", time.Now().Add(-time.Hour))

		profile, err := uc.Profile(ctx, s.User.ID)
		if err != nil {
			t.Fatalf("profile: %v", err)
		}
		if len(profile.Entitlements) != 1 || profile.Entitlements[0].QuestionSetID != "Q1" {
			t.Fatalf("expected only the valid Q1 entitlement, got %+v", profile.Entitlements)
		}
		if profile.Entitlements[0].RemainingDays != 2 {
			t.Errorf("expected 2 remaining days, got %d", profile.Entitlements[0].RemainingDays)
		}
	})
}
