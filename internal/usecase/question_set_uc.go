package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/repository"
	"quiz-exam-platform/internal/infra/logging"
)

// Compile-time check
var _ QuestionSetUseCase = (*questionSetUC)(nil)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Admin  bool
}

// CanActFor reports whether the actor may read or change data owned by userID.
func (a Actor) CanActFor(userID string) bool {
	return a.Admin || (a.UserID != "" && a.UserID == userID)
}

// QuestionSetInput carries the editable fields of a question set.
type QuestionSetInput struct {
	Title       string
	Description string
	IsPaid      bool
	Price       decimal.Decimal
}

// OptionInput is one answer choice of a new question.
type OptionInput struct {
	Body      string
	IsCorrect bool
}

type QuestionSetUseCase interface {
	Create(ctx context.Context, adminID string, in QuestionSetInput) (*model.QuestionSet, error)
	Update(ctx context.Context, id string, in QuestionSetInput) (*model.QuestionSet, error)
	Get(ctx context.Context, id string) (*model.QuestionSet, error)
	List(ctx context.Context, offset, limit int) ([]*model.QuestionSet, error)
	AddQuestion(ctx context.Context, setID, body, explanation string, position int, options []OptionInput) (*model.Question, error)
	// ListQuestions requires access to the set unless the actor is an admin.
	ListQuestions(ctx context.Context, actor Actor, setID string) ([]*model.Question, error)
}

type questionSetUC struct {
	sets         repository.QuestionSetRepository
	entitlements EntitlementUseCase
	log          *zerolog.Logger
}

func NewQuestionSetUseCase(sets repository.QuestionSetRepository, entitlements EntitlementUseCase, logger *zerolog.Logger) *questionSetUC {
	l := logger.With().Str("component", "QuestionSetUseCase").Logger()
	return &questionSetUC{sets: sets, entitlements: entitlements, log: &l}
}

func (u *questionSetUC) Create(ctx context.Context, adminID string, in QuestionSetInput) (*model.QuestionSet, error) {
	defer logging.TraceDuration(u.log, "QuestionSetUseCase.Create")()
	qs, err := model.NewQuestionSet("", in.Title, strings.TrimSpace(in.Description), in.IsPaid, in.Price, adminID)
	if err != nil {
		return nil, err
	}
	if err := u.sets.Save(ctx, repository.NoTX, qs); err != nil {
		return nil, err
	}
	u.log.Info().Str("question_set_id", qs.ID).Bool("is_paid", qs.IsPaid).Msg("question set created")
	return qs, nil
}

func (u *questionSetUC) Update(ctx context.Context, id string, in QuestionSetInput) (*model.QuestionSet, error) {
	defer logging.TraceDuration(u.log, "QuestionSetUseCase.Update")()
	current, err := u.sets.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	next, err := model.NewQuestionSet(current.ID, in.Title, strings.TrimSpace(in.Description), in.IsPaid, in.Price, current.CreatedBy)
	if err != nil {
		return nil, err
	}
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = time.Now()
	if err := u.sets.Save(ctx, repository.NoTX, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (u *questionSetUC) Get(ctx context.Context, id string) (*model.QuestionSet, error) {
	defer logging.TraceDuration(u.log, "QuestionSetUseCase.Get")()
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.sets.FindByID(ctx, repository.NoTX, id)
}

func (u *questionSetUC) List(ctx context.Context, offset, limit int) ([]*model.QuestionSet, error) {
	defer logging.TraceDuration(u.log, "QuestionSetUseCase.List")()
	offset, limit = clampPage(offset, limit)
	return u.sets.List(ctx, repository.NoTX, offset, limit)
}

func (u *questionSetUC) AddQuestion(ctx context.Context, setID, body, explanation string, position int, options []OptionInput) (*model.Question, error) {
	defer logging.TraceDuration(u.log, "QuestionSetUseCase.AddQuestion")()
	if _, err := u.sets.FindByID(ctx, repository.NoTX, setID); err != nil {
		return nil, err
	}
	opts := make([]model.Option, 0, len(options))
	for _, o := range options {
		opts = append(opts, model.Option{Body: strings.TrimSpace(o.Body), IsCorrect: o.IsCorrect})
	}
	q, err := model.NewQuestion(setID, body, strings.TrimSpace(explanation), position, opts)
	if err != nil {
		return nil, err
	}
	if err := u.sets.SaveQuestion(ctx, repository.NoTX, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (u *questionSetUC) ListQuestions(ctx context.Context, actor Actor, setID string) ([]*model.Question, error) {
	defer logging.TraceDuration(u.log, "QuestionSetUseCase.ListQuestions")()
	if !actor.Admin {
		if err := u.entitlements.RequireAccess(ctx, actor.UserID, setID); err != nil {
			return nil, err
		}
	} else if _, err := u.sets.FindByID(ctx, repository.NoTX, setID); err != nil {
		return nil, err
	}
	return u.sets.ListQuestions(ctx, repository.NoTX, setID)
}
