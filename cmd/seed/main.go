package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"quiz-exam-platform/internal/config"
	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/repository"
	"quiz-exam-platform/internal/infra/adapters/notify"
	tele "quiz-exam-platform/internal/infra/adapters/telegram"
	pg "quiz-exam-platform/internal/infra/db/postgres"
	"quiz-exam-platform/internal/infra/logging"
	"quiz-exam-platform/internal/infra/security"
	"quiz-exam-platform/internal/usecase"
)

// seed creates an admin account, a free and a paid question set and one batch
// of redeem codes for the paid set. Existing data is left untouched.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	adminName := flag.String("admin", "admin", "admin username")
	adminEmail := flag.String("admin-email", "admin@example.com", "admin email")
	adminPass := flag.String("admin-password", "", "admin password (required)")
	codes := flag.Int("codes", 10, "number of redeem codes to generate for the paid set")
	schema := flag.String("schema", "", "optional SQL schema file applied before seeding, e.g. deploy/postgres/init.sql")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, true)
	if *adminPass == "" {
		logger.Fatal().Msg("-admin-password is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	if *schema != "" {
		if err := pg.ApplySchema(ctx, pool, *schema); err != nil {
			logger.Fatal().Err(err).Msg("schema")
		}
		logger.Info().Str("path", *schema).Msg("schema applied")
	}

	tm := pg.NewTxManager(pool)
	users := pg.NewUserRepo(pool)
	sets := pg.NewQuestionSetRepo(pool)
	purchases := pg.NewPurchaseRepo(pool)
	hasher := security.NewBcryptHasher(0)

	admin, err := ensureAdmin(ctx, users, hasher, *adminName, *adminEmail, *adminPass)
	if err != nil {
		logger.Fatal().Err(err).Msg("admin user")
	}

	existing, err := sets.List(ctx, repository.NoTX, 0, 1)
	if err != nil {
		logger.Fatal().Err(err).Msg("list question sets")
	}
	if len(existing) > 0 {
		fmt.Println("question sets already present, nothing to seed")
		return
	}

	ent := usecase.NewEntitlementUseCase(sets, purchases, logger)
	setUC := usecase.NewQuestionSetUseCase(sets, ent, logger)

	free, err := setUC.Create(ctx, admin.ID, usecase.QuestionSetInput{Title: "Warm-up", Description: "Free sample questions"})
	if err != nil {
		logger.Fatal().Err(err).Msg("create free set")
	}
	paid, err := setUC.Create(ctx, admin.ID, usecase.QuestionSetInput{
		Title:       "Final exam practice",
		Description: "Full-length practice exam",
		IsPaid:      true,
		Price:       decimal.RequireFromString("9.90"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("create paid set")
	}

	samples := []struct {
		set  *model.QuestionSet
		body string
		opts []usecase.OptionInput
	}{
		{free, "What is 2 + 2?", []usecase.OptionInput{{Body: "3"}, {Body: "4", IsCorrect: true}, {Body: "5"}}},
		{free, "Which planet is closest to the sun?", []usecase.OptionInput{{Body: "Mercury", IsCorrect: true}, {Body: "Venus"}, {Body: "Mars"}}},
		{paid, "Which of these are prime numbers?", []usecase.OptionInput{{Body: "2", IsCorrect: true}, {Body: "9"}, {Body: "11", IsCorrect: true}}},
	}
	for i, s := range samples {
		if _, err := setUC.AddQuestion(ctx, s.set.ID, s.body, "", i, s.opts); err != nil {
			logger.Fatal().Err(err).Msg("add question")
		}
	}

	codeUC := usecase.NewRedeemCodeUseCase(pg.NewRedeemCodeRepo(pool), sets, purchases, tm,
		notify.Noop{}, tele.NewNoopAlerter(logger), usecase.RedeemCodeOptions{
			DefaultValidityDays: cfg.Entitlement.DefaultValidityDays,
			CodeLength:          cfg.Entitlement.CodeLength,
			MaxBatch:            cfg.Entitlement.MaxBatch,
			GenerateAttempts:    cfg.Entitlement.GenerateAttempts,
		}, logger)
	batch, err := codeUC.Generate(ctx, admin.ID, paid.ID, cfg.Entitlement.DefaultValidityDays, *codes)
	if err != nil {
		logger.Fatal().Err(err).Msg("generate codes")
	}

	fmt.Printf("admin %s (%s)\n", admin.Username, admin.ID)
	fmt.Printf("free set %s\npaid set %s\n", free.ID, paid.ID)
	fmt.Printf("batch %s:\n", batch.BatchID)
	for _, c := range batch.Codes {
		fmt.Printf("  %s\n", c.Code)
	}
}

func ensureAdmin(ctx context.Context, users repository.UserRepository, hasher *security.BcryptHasher, name, email, password string) (*model.User, error) {
	u, err := users.FindByLogin(ctx, repository.NoTX, name)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u, err = model.NewUser("", name, email, hash)
	if err != nil {
		return nil, err
	}
	u.Role = model.RoleAdmin
	if err := users.Save(ctx, repository.NoTX, u); err != nil {
		return nil, err
	}
	return u, nil
}
