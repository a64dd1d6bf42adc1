package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/adapter"
	"quiz-exam-platform/internal/domain/ports/repository"
	"quiz-exam-platform/internal/infra/logging"
	"quiz-exam-platform/internal/infra/metrics"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

const minPasswordLength = 8

// Session is the outcome of a successful login or registration.
type Session struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// UserUseCase exposes account operations used by the HTTP layer.
type UserUseCase interface {
	Register(ctx context.Context, username, email, password string) (*Session, error)
	Login(ctx context.Context, login, password string) (*Session, error)
	Get(ctx context.Context, id string) (*model.User, error)
	// Profile attaches the currently valid entitlements, derived from purchases on read.
	Profile(ctx context.Context, id string) (*model.Profile, error)
}

type userUC struct {
	users     repository.UserRepository
	purchases repository.PurchaseRepository
	tm        repository.TransactionManager
	hasher    adapter.PasswordHasher
	tokens    adapter.TokenIssuer
	log       *zerolog.Logger
	now       func() time.Time
}

func NewUserUseCase(
	users repository.UserRepository,
	purchases repository.PurchaseRepository,
	tm repository.TransactionManager,
	hasher adapter.PasswordHasher,
	tokens adapter.TokenIssuer,
	logger *zerolog.Logger,
) *userUC {
	l := logger.With().Str("component", "UserUseCase").Logger()
	return &userUC{
		users:     users,
		purchases: purchases,
		tm:        tm,
		hasher:    hasher,
		tokens:    tokens,
		log:       &l,
		now:       time.Now,
	}
}

func (u *userUC) Register(ctx context.Context, username, email, password string) (*Session, error) {
	defer logging.TraceDuration(u.log, "UserUC.Register")()

	if utf8.RuneCountInString(password) < minPasswordLength || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidArgument
	}
	hash, err := u.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user, err := model.NewUser("", username, email, hash)
	if err != nil {
		return nil, err
	}
	if err := u.users.Save(ctx, repository.NoTX, user); err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			u.log.Error().Err(err).Msg("failed to save user")
		}
		return nil, err
	}
	metrics.IncUsersRegistered()
	u.log.Info().Str("user_id", user.ID).Msg("user registered")
	return u.session(user)
}

func (u *userUC) Login(ctx context.Context, login, password string) (*Session, error) {
	defer logging.TraceDuration(u.log, "UserUC.Login")()

	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	user, err := u.users.FindByLogin(ctx, repository.NoTX, login)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := u.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if err := u.users.TouchLastActive(ctx, repository.NoTX, user.ID); err != nil {
		u.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to touch last_active_at")
	}
	return u.session(user)
}

func (u *userUC) session(user *model.User) (*Session, error) {
	tok, exp, err := u.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: tok, ExpiresAt: exp}, nil
}

func (u *userUC) Get(ctx context.Context, id string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Get")()
	return u.users.FindByID(ctx, repository.NoTX, id)
}

func (u *userUC) Profile(ctx context.Context, id string) (*model.Profile, error) {
	defer logging.TraceDuration(u.log, "UserUC.Profile")()

	var profile *model.Profile
	// A read-only snapshot keeps the user row and the entitlements consistent.
	txOpts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		user, err := u.users.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		now := u.now()
		valid, err := u.purchases.ListValidByUser(ctx, tx, id, now)
		if err != nil {
			return err
		}
		profile = &model.Profile{User: user, Entitlements: make([]model.EntitlementSummary, 0, len(valid))}
		for _, p := range valid {
			if !p.IsValidAt(now) {
				continue
			}
			profile.Entitlements = append(profile.Entitlements, model.EntitlementSummary{
				QuestionSetID: p.QuestionSetID,
				PurchaseID:    p.ID,
				ExpiryDate:    *p.ExpiryDate,
				RemainingDays: model.RemainingDays(*p.ExpiryDate, now),
			})
		}
		return nil
	})
	return profile, err
}
