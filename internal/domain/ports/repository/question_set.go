package repository

import (
	"context"

	"quiz-exam-platform/internal/domain/model"
)

// QuestionSetRepository is the port for question sets, their questions and options.
type QuestionSetRepository interface {
	Save(ctx context.Context, tx Tx, qs *model.QuestionSet) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.QuestionSet, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.QuestionSet, error)

	// SaveQuestion inserts a question together with its options.
	SaveQuestion(ctx context.Context, tx Tx, q *model.Question) error
	FindQuestion(ctx context.Context, tx Tx, id string) (*model.Question, error)
	// ListQuestions returns the questions of a set ordered by position, options included.
	ListQuestions(ctx context.Context, tx Tx, setID string) ([]*model.Question, error)
}
