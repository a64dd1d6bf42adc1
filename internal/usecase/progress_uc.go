package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/adapter"
	"quiz-exam-platform/internal/domain/ports/repository"
	"quiz-exam-platform/internal/infra/logging"
)

// Compile-time check
var _ ProgressUseCase = (*progressUC)(nil)

type ProgressUseCase interface {
	SubmitAnswer(ctx context.Context, userID, setID, questionID string, selected []string) (*model.AnswerResult, error)
	GetProgress(ctx context.Context, actor Actor, userID, setID string) (*model.UserProgress, error)
	ListWrongAnswers(ctx context.Context, actor Actor, userID, setID string) ([]*model.WrongAnswer, error)
	ResolveWrongAnswer(ctx context.Context, actor Actor, userID, id string) error
}

type progressUC struct {
	progress     repository.ProgressRepository
	sets         repository.QuestionSetRepository
	entitlements EntitlementUseCase
	tm           repository.TransactionManager
	notifier     adapter.Notifier
	log          *zerolog.Logger
}

func NewProgressUseCase(
	progress repository.ProgressRepository,
	sets repository.QuestionSetRepository,
	entitlements EntitlementUseCase,
	tm repository.TransactionManager,
	notifier adapter.Notifier,
	logger *zerolog.Logger,
) *progressUC {
	l := logger.With().Str("component", "ProgressUseCase").Logger()
	return &progressUC{
		progress:     progress,
		sets:         sets,
		entitlements: entitlements,
		tm:           tm,
		notifier:     notifier,
		log:          &l,
	}
}

func (u *progressUC) SubmitAnswer(ctx context.Context, userID, setID, questionID string, selected []string) (*model.AnswerResult, error) {
	defer logging.TraceDuration(u.log, "ProgressUseCase.SubmitAnswer")()

	if len(selected) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	if err := u.entitlements.RequireAccess(ctx, userID, setID); err != nil {
		return nil, err
	}
	q, err := u.sets.FindQuestion(ctx, repository.NoTX, questionID)
	if err != nil {
		return nil, err
	}
	if q.QuestionSetID != setID {
		return nil, domain.ErrNotFound
	}
	for _, id := range selected {
		if !q.HasOption(id) {
			return nil, domain.ErrInvalidArgument
		}
	}

	correct := q.Grade(selected)
	var progress *model.UserProgress
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.progress.RecordAnswer(ctx, tx, userID, setID, questionID, correct)
		if err != nil {
			return err
		}
		progress = p
		if correct {
			return nil
		}
		return u.progress.UpsertWrongAnswer(ctx, tx, &model.WrongAnswer{
			UserID:            userID,
			QuestionSetID:     setID,
			QuestionID:        questionID,
			SelectedOptionIDs: selected,
			WrongCount:        1,
			LastWrongAt:       time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	if u.notifier != nil {
		payload := map[string]any{
			"question_set_id": setID,
			"answered_count":  progress.AnsweredCount,
			"correct_count":   progress.CorrectCount,
		}
		if err := u.notifier.Publish(ctx, userID, model.EventProgressUpdated, payload); err != nil {
			u.log.Warn().Err(err).Str("user_id", userID).Msg("progress notification failed")
		}
	}

	return &model.AnswerResult{
		QuestionID:       q.ID,
		Correct:          correct,
		CorrectOptionIDs: q.CorrectOptionIDs(),
		Explanation:      q.Explanation,
		Progress:         progress,
	}, nil
}

func (u *progressUC) GetProgress(ctx context.Context, actor Actor, userID, setID string) (*model.UserProgress, error) {
	defer logging.TraceDuration(u.log, "ProgressUseCase.GetProgress")()
	if !actor.CanActFor(userID) {
		return nil, domain.ErrUnauthorized
	}
	p, err := u.progress.Find(ctx, repository.NoTX, userID, setID)
	if errors.Is(err, domain.ErrNotFound) {
		return &model.UserProgress{UserID: userID, QuestionSetID: setID}, nil
	}
	return p, err
}

func (u *progressUC) ListWrongAnswers(ctx context.Context, actor Actor, userID, setID string) ([]*model.WrongAnswer, error) {
	defer logging.TraceDuration(u.log, "ProgressUseCase.ListWrongAnswers")()
	if !actor.CanActFor(userID) {
		return nil, domain.ErrUnauthorized
	}
	if setID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.progress.ListWrongAnswers(ctx, repository.NoTX, userID, setID)
}

func (u *progressUC) ResolveWrongAnswer(ctx context.Context, actor Actor, userID, id string) error {
	defer logging.TraceDuration(u.log, "ProgressUseCase.ResolveWrongAnswer")()
	if !actor.CanActFor(userID) {
		return domain.ErrUnauthorized
	}
	return u.progress.DeleteWrongAnswer(ctx, repository.NoTX, userID, id)
}
