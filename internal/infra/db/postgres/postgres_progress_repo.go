package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/repository"
)

var _ repository.ProgressRepository = (*progressRepo)(nil)

type progressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *progressRepo {
	return &progressRepo{pool: pool}
}

// RecordAnswer increments the counters in a single upsert so concurrent
// submissions never lose updates.
func (r *progressRepo) RecordAnswer(ctx context.Context, tx repository.Tx, userID, setID, questionID string, correct bool) (*model.UserProgress, error) {
	const q = `
INSERT INTO user_progress (user_id, question_set_id, answered_count, correct_count, last_question_id, updated_at)
VALUES ($1, $2, 1, CASE WHEN $4 THEN 1 ELSE 0 END, $3, NOW())
ON CONFLICT (user_id, question_set_id) DO UPDATE SET
  answered_count   = user_progress.answered_count + 1,
  correct_count    = user_progress.correct_count + CASE WHEN $4 THEN 1 ELSE 0 END,
  last_question_id = $3,
  updated_at       = NOW()
RETURNING user_id, question_set_id, answered_count, correct_count, last_question_id, updated_at;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, setID, questionID, correct)
	if err != nil {
		return nil, err
	}
	p, err := scanProgress(row)
	if err != nil {
		return nil, scanErr(err, domain.ErrOperationFailed)
	}
	return p, nil
}

func (r *progressRepo) Find(ctx context.Context, tx repository.Tx, userID, setID string) (*model.UserProgress, error) {
	const q = `
SELECT user_id, question_set_id, answered_count, correct_count, last_question_id, updated_at
  FROM user_progress
 WHERE user_id=$1 AND question_set_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, setID)
	if err != nil {
		return nil, err
	}
	p, err := scanProgress(row)
	if err != nil {
		return nil, scanErr(err, domain.ErrNotFound)
	}
	return p, nil
}

func (r *progressRepo) UpsertWrongAnswer(ctx context.Context, tx repository.Tx, w *model.WrongAnswer) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	const q = `
INSERT INTO wrong_answers (id, user_id, question_set_id, question_id, selected_option_ids, wrong_count, last_wrong_at)
VALUES ($1, $2, $3, $4, $5, 1, NOW())
ON CONFLICT (user_id, question_id) DO UPDATE SET
  selected_option_ids = EXCLUDED.selected_option_ids,
  wrong_count         = wrong_answers.wrong_count + 1,
  last_wrong_at       = NOW()
RETURNING id, wrong_count, last_wrong_at;`
	row, err := pickRow(ctx, r.pool, tx, q, w.ID, w.UserID, w.QuestionSetID, w.QuestionID, w.SelectedOptionIDs)
	if err != nil {
		return err
	}
	if err := row.Scan(&w.ID, &w.WrongCount, &w.LastWrongAt); err != nil {
		return scanErr(err, domain.ErrOperationFailed)
	}
	return nil
}

func (r *progressRepo) ListWrongAnswers(ctx context.Context, tx repository.Tx, userID, setID string) ([]*model.WrongAnswer, error) {
	const q = `
SELECT id, user_id, question_set_id, question_id, selected_option_ids, wrong_count, last_wrong_at
  FROM wrong_answers
 WHERE user_id=$1 AND question_set_id=$2
 ORDER BY last_wrong_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, setID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.WrongAnswer
	for rows.Next() {
		var w model.WrongAnswer
		if err := rows.Scan(&w.ID, &w.UserID, &w.QuestionSetID, &w.QuestionID, &w.SelectedOptionIDs, &w.WrongCount, &w.LastWrongAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *progressRepo) DeleteWrongAnswer(ctx context.Context, tx repository.Tx, userID, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM wrong_answers WHERE id=$1 AND user_id=$2;`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProgress(row scanner) (*model.UserProgress, error) {
	var p model.UserProgress
	var last *string
	if err := row.Scan(&p.UserID, &p.QuestionSetID, &p.AnsweredCount, &p.CorrectCount, &last, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if last != nil {
		p.LastQuestionID = *last
	}
	return &p, nil
}
