package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/repository"
	"quiz-exam-platform/internal/infra/metrics"
	red "quiz-exam-platform/internal/infra/redis"
)

var _ repository.QuestionSetRepository = (*questionSetRepoCacheDecorator)(nil)

// questionSetRepoCacheDecorator caches question set metadata by id. Question
// and option reads always go to the inner repository.
type questionSetRepoCacheDecorator struct {
	inner  repository.QuestionSetRepository
	cache  red.RedisClient
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewQuestionSetRepoCacheDecorator(inner repository.QuestionSetRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.QuestionSetRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	l := logger.With().Str("component", "questionSetCache").Logger()
	return &questionSetRepoCacheDecorator{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: &l,
	}
}

func questionSetKey(id string) string { return fmt.Sprintf("question_set:%s", id) }

// FindByID reads through the cache. Reads inside a transaction bypass it so
// transactional callers always see committed database state.
func (d *questionSetRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.QuestionSet, error) {
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}
	key := questionSetKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var qs model.QuestionSet
		if json.Unmarshal([]byte(val), &qs) == nil {
			metrics.IncCacheRequest("question_set", "hit")
			return &qs, nil
		}
	} else if !errors.Is(err, red.Nil) {
		metrics.IncCacheRequest("question_set", "error")
		d.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	metrics.IncCacheRequest("question_set", "miss")
	qs, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(qs); err == nil {
		if err := d.cache.Set(ctx, key, b, d.ttl); err != nil {
			d.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return qs, nil
}

// Save writes through and invalidates the cached entry on both sides of the
// write. A read that lands between the first delete and the row update can
// refill the cache with the old row; the second delete removes it.
// Callers must not pass a transaction here: the entry would be invalidated
// before the commit becomes visible.
func (d *questionSetRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, qs *model.QuestionSet) error {
	d.invalidate(ctx, qs.ID)
	if err := d.inner.Save(ctx, tx, qs); err != nil {
		return err
	}
	d.invalidate(ctx, qs.ID)
	return nil
}

func (d *questionSetRepoCacheDecorator) invalidate(ctx context.Context, id string) {
	if err := d.cache.Del(ctx, questionSetKey(id)); err != nil {
		d.logger.Warn().Err(err).Str("question_set_id", id).Msg("cache invalidate failed")
	}
}

func (d *questionSetRepoCacheDecorator) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.QuestionSet, error) {
	return d.inner.List(ctx, tx, offset, limit)
}

func (d *questionSetRepoCacheDecorator) SaveQuestion(ctx context.Context, tx repository.Tx, q *model.Question) error {
	return d.inner.SaveQuestion(ctx, tx, q)
}

func (d *questionSetRepoCacheDecorator) FindQuestion(ctx context.Context, tx repository.Tx, id string) (*model.Question, error) {
	return d.inner.FindQuestion(ctx, tx, id)
}

func (d *questionSetRepoCacheDecorator) ListQuestions(ctx context.Context, tx repository.Tx, setID string) ([]*model.Question, error) {
	return d.inner.ListQuestions(ctx, tx, setID)
}
