package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/repository"
)

var _ repository.QuestionSetRepository = (*questionSetRepo)(nil)

type questionSetRepo struct {
	pool *pgxpool.Pool
}

func NewQuestionSetRepo(pool *pgxpool.Pool) *questionSetRepo {
	return &questionSetRepo{pool: pool}
}

const questionSetColumns = `id, title, description, is_paid, price, created_by, created_at, updated_at`

func (r *questionSetRepo) Save(ctx context.Context, tx repository.Tx, qs *model.QuestionSet) error {
	const q = `
INSERT INTO question_sets (` + questionSetColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  title=$2, description=$3, is_paid=$4, price=$5, updated_at=$8;`

	_, err := execSQL(ctx, r.pool, tx, q,
		qs.ID, qs.Title, qs.Description, qs.IsPaid, qs.Price, nullIfEmpty(qs.CreatedBy), qs.CreatedAt, qs.UpdatedAt)
	return err
}

func (r *questionSetRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.QuestionSet, error) {
	const q = `SELECT ` + questionSetColumns + ` FROM question_sets WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	qs, err := scanQuestionSet(row)
	if err != nil {
		return nil, scanErr(err, domain.ErrQuestionSetNotFound)
	}
	return qs, nil
}

func (r *questionSetRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.QuestionSet, error) {
	const q = `
SELECT ` + questionSetColumns + `
  FROM question_sets
 ORDER BY created_at DESC, id
 OFFSET $1 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.QuestionSet
	for rows.Next() {
		qs, err := scanQuestionSet(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, qs)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

// SaveQuestion writes the question row and its options atomically. Without a
// caller transaction it opens its own.
func (r *questionSetRepo) SaveQuestion(ctx context.Context, tx repository.Tx, q *model.Question) error {
	if tx == nil {
		if r.pool == nil {
			return domain.ErrInvalidArgument
		}
		err := r.pool.BeginFunc(ctx, func(t pgx.Tx) error {
			return r.saveQuestion(ctx, t, q)
		})
		return translateErr(err)
	}
	return r.saveQuestion(ctx, tx, q)
}

func (r *questionSetRepo) saveQuestion(ctx context.Context, tx repository.Tx, q *model.Question) error {
	const insQuestion = `
INSERT INTO questions (id, question_set_id, body, explanation, position, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	if _, err := execSQL(ctx, r.pool, tx, insQuestion,
		q.ID, q.QuestionSetID, q.Body, q.Explanation, q.Position, q.CreatedAt); err != nil {
		return err
	}

	ptx, ok := tx.(pgx.Tx)
	if !ok {
		return domain.ErrInvalidExecContext
	}
	const insOption = `
INSERT INTO options (id, question_id, body, is_correct, position)
VALUES ($1,$2,$3,$4,$5);`
	batch := &pgx.Batch{}
	for _, o := range q.Options {
		batch.Queue(insOption, o.ID, q.ID, o.Body, o.IsCorrect, o.Position)
	}
	br := ptx.SendBatch(ctx, batch)
	defer br.Close()
	for range q.Options {
		if _, err := br.Exec(); err != nil {
			return translateErr(err)
		}
	}
	return nil
}

func (r *questionSetRepo) FindQuestion(ctx context.Context, tx repository.Tx, id string) (*model.Question, error) {
	const q = `
SELECT id, question_set_id, body, explanation, position, created_at
  FROM questions WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var qu model.Question
	if err := row.Scan(&qu.ID, &qu.QuestionSetID, &qu.Body, &qu.Explanation, &qu.Position, &qu.CreatedAt); err != nil {
		return nil, scanErr(err, domain.ErrNotFound)
	}
	opts, err := r.loadOptions(ctx, tx, []string{qu.ID})
	if err != nil {
		return nil, err
	}
	qu.Options = opts[qu.ID]
	return &qu, nil
}

func (r *questionSetRepo) ListQuestions(ctx context.Context, tx repository.Tx, setID string) ([]*model.Question, error) {
	const q = `
SELECT id, question_set_id, body, explanation, position, created_at
  FROM questions
 WHERE question_set_id=$1
 ORDER BY position, created_at;`
	rows, err := queryRows(ctx, r.pool, tx, q, setID)
	if err != nil {
		return nil, err
	}
	var out []*model.Question
	var ids []string
	for rows.Next() {
		var qu model.Question
		if err := rows.Scan(&qu.ID, &qu.QuestionSetID, &qu.Body, &qu.Explanation, &qu.Position, &qu.CreatedAt); err != nil {
			rows.Close()
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &qu)
		ids = append(ids, qu.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if len(ids) == 0 {
		return out, nil
	}

	opts, err := r.loadOptions(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	for _, qu := range out {
		qu.Options = opts[qu.ID]
	}
	return out, nil
}

func (r *questionSetRepo) loadOptions(ctx context.Context, tx repository.Tx, questionIDs []string) (map[string][]model.Option, error) {
	const q = `
SELECT id, question_id, body, is_correct, position
  FROM options
 WHERE question_id = ANY($1::uuid[])
 ORDER BY question_id, position;`
	rows, err := queryRows(ctx, r.pool, tx, q, questionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]model.Option, len(questionIDs))
	for rows.Next() {
		var o model.Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Body, &o.IsCorrect, &o.Position); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[o.QuestionID] = append(out[o.QuestionID], o)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanQuestionSet(row pgx.Row) (*model.QuestionSet, error) {
	var qs model.QuestionSet
	var createdBy *string
	if err := row.Scan(&qs.ID, &qs.Title, &qs.Description, &qs.IsPaid, &qs.Price, &createdBy, &qs.CreatedAt, &qs.UpdatedAt); err != nil {
		return nil, err
	}
	if createdBy != nil {
		qs.CreatedBy = *createdBy
	}
	return &qs, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
