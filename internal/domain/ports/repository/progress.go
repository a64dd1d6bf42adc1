package repository

import (
	"context"

	"quiz-exam-platform/internal/domain/model"
)

// ProgressRepository is the port for answer statistics and the wrong-answer review list.
type ProgressRepository interface {
	// RecordAnswer adds one answer to the (user, set) counters and returns the new totals.
	RecordAnswer(ctx context.Context, tx Tx, userID, setID, questionID string, correct bool) (*model.UserProgress, error)
	Find(ctx context.Context, tx Tx, userID, setID string) (*model.UserProgress, error)

	// UpsertWrongAnswer inserts a review entry or bumps its counter.
	UpsertWrongAnswer(ctx context.Context, tx Tx, w *model.WrongAnswer) error
	ListWrongAnswers(ctx context.Context, tx Tx, userID, setID string) ([]*model.WrongAnswer, error)
	// DeleteWrongAnswer removes an entry owned by userID; domain.ErrNotFound otherwise.
	DeleteWrongAnswer(ctx context.Context, tx Tx, userID, id string) error
}
