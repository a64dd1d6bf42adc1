//go:build !integration

package postgres

import (
	"context"
	"time"

	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/repository"
	red "quiz-exam-platform/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerQuestionSetRepo mocks the database repository that the decorator wraps.
type mockInnerQuestionSetRepo struct {
	SaveFunc          func(ctx context.Context, tx repository.Tx, qs *model.QuestionSet) error
	FindByIDFunc      func(ctx context.Context, tx repository.Tx, id string) (*model.QuestionSet, error)
	ListFunc          func(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.QuestionSet, error)
	SaveQuestionFunc  func(ctx context.Context, tx repository.Tx, q *model.Question) error
	FindQuestionFunc  func(ctx context.Context, tx repository.Tx, id string) (*model.Question, error)
	ListQuestionsFunc func(ctx context.Context, tx repository.Tx, setID string) ([]*model.Question, error)
}

func (m *mockInnerQuestionSetRepo) Save(ctx context.Context, tx repository.Tx, qs *model.QuestionSet) error {
	return m.SaveFunc(ctx, tx, qs)
}
func (m *mockInnerQuestionSetRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.QuestionSet, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerQuestionSetRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.QuestionSet, error) {
	return m.ListFunc(ctx, tx, offset, limit)
}
func (m *mockInnerQuestionSetRepo) SaveQuestion(ctx context.Context, tx repository.Tx, q *model.Question) error {
	return m.SaveQuestionFunc(ctx, tx, q)
}
func (m *mockInnerQuestionSetRepo) FindQuestion(ctx context.Context, tx repository.Tx, id string) (*model.Question, error) {
	return m.FindQuestionFunc(ctx, tx, id)
}
func (m *mockInnerQuestionSetRepo) ListQuestions(ctx context.Context, tx repository.Tx, setID string) ([]*model.Question, error) {
	return m.ListQuestionsFunc(ctx, tx, setID)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc     func(ctx context.Context, key string) (string, error)
	SetFunc     func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc     func(ctx context.Context, keys ...string) error
	PingFunc    func(ctx context.Context) error
	IncrFunc    func(ctx context.Context, key string) (int64, error)
	ExpireFunc  func(ctx context.Context, key string, expiration time.Duration) error
	PublishFunc func(ctx context.Context, channel string, message interface{}) error
	CloseFunc   func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", red.Nil
	}
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Publish(ctx context.Context, channel string, message interface{}) error {
	return m.PublishFunc(ctx, channel, message)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
