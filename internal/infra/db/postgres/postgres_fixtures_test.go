//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"quiz-exam-platform/internal/domain/model"
)

// seedUserAndSet stores one user and one paid question set.
func seedUserAndSet(t *testing.T, ctx context.Context, username string) (*model.User, *model.QuestionSet) {
	t.Helper()
	user, err := model.NewUser("", username, username+"@example.com", "hash")
	if err != nil {
		t.Fatalf("model.NewUser() failed: %v", err)
	}
	if err := NewUserRepo(testPool).Save(ctx, nil, user); err != nil {
		t.Fatalf("failed to save user: %v", err)
	}
	set, err := model.NewQuestionSet("", "Set of "+username, "", true, decimal.NewFromInt(10), "")
	if err != nil {
		t.Fatalf("model.NewQuestionSet() failed: %v", err)
	}
	if err := NewQuestionSetRepo(testPool).Save(ctx, nil, set); err != nil {
		t.Fatalf("failed to save question set: %v", err)
	}
	return user, set
}
