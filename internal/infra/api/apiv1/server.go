package apiv1

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"quiz-exam-platform/internal/config"
	"quiz-exam-platform/internal/infra/security"
	"quiz-exam-platform/internal/usecase"
)

const maxBodyBytes = 1 << 20

// TokenParser extracts verified claims from a bearer token.
type TokenParser interface {
	ParseFromRequest(r *http.Request) (*security.Claims, error)
}

// Limiter is a counting rate limiter keyed per caller.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Server holds the handlers of the v1 JSON API.
type Server struct {
	users     usecase.UserUseCase
	sets      usecase.QuestionSetUseCase
	codes     usecase.RedeemCodeUseCase
	purchases usecase.PurchaseUseCase
	access    usecase.EntitlementUseCase
	progress  usecase.ProgressUseCase

	tokens   TokenParser
	limiter  Limiter
	limits   config.RateLimitConfig
	validate *Validator
	log      *zerolog.Logger
}

// Deps groups the collaborators of NewServer.
type Deps struct {
	Users     usecase.UserUseCase
	Sets      usecase.QuestionSetUseCase
	Codes     usecase.RedeemCodeUseCase
	Purchases usecase.PurchaseUseCase
	Access    usecase.EntitlementUseCase
	Progress  usecase.ProgressUseCase
	Tokens    TokenParser
	Limiter   Limiter
	Limits    config.RateLimitConfig
}

func NewServer(d Deps, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "apiv1").Logger()
	return &Server{
		users:     d.Users,
		sets:      d.Sets,
		codes:     d.Codes,
		purchases: d.Purchases,
		access:    d.Access,
		progress:  d.Progress,
		tokens:    d.Tokens,
		limiter:   d.Limiter,
		limits:    d.Limits,
		validate:  NewValidator(),
		log:       &l,
	}
}

// RegisterAPIV1 mounts every v1 route on r.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.register)
		r.Post("/auth/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.Authenticate)

			r.Get("/me", s.me)

			r.Get("/question-sets", s.listQuestionSets)
			r.Get("/question-sets/{id}", s.getQuestionSet)
			r.Get("/question-sets/{id}/questions", s.listQuestions)

			r.With(s.RedeemRateLimit).Post("/redeem-codes/redeem", s.redeem)

			r.Get("/purchases", s.listPurchases)
			r.Post("/purchases", s.createPurchase)
			r.Get("/purchases/check/{questionSetId}", s.checkAccess)
			r.Post("/purchases/{id}/cancel", s.cancelPurchase)

			r.Post("/progress/answers", s.submitAnswer)
			r.Get("/users/{userId}/progress/{questionSetId}", s.getProgress)
			r.Get("/users/{userId}/wrong-answers", s.listWrongAnswers)
			r.Delete("/users/{userId}/wrong-answers/{id}", s.resolveWrongAnswer)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)

				r.Post("/question-sets", s.createQuestionSet)
				r.Put("/question-sets/{id}", s.updateQuestionSet)
				r.Post("/question-sets/{id}/questions", s.addQuestion)

				r.Post("/redeem-codes/generate", s.generateCodes)
				r.Get("/redeem-codes", s.listCodes)

				r.Post("/purchases/{id}/complete", s.completePurchase)
				r.Post("/purchases/{id}/fail", s.failPurchase)
				r.Post("/purchases/{id}/refund", s.refundPurchase)
				r.Post("/purchases/{id}/extend", s.extendPurchase)
			})
		})
	})
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeFail(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeValidation(w, err)
		return false
	}
	return true
}

// pathID returns a UUID URL parameter, answering 400 when malformed.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := chi.URLParam(r, name)
	if err := s.validate.Var(id, "required,uuid"); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{
			Error:  "validation failed",
			Code:   "validation_failed",
			Fields: map[string]string{name: "must be a UUID"},
		})
		return "", false
	}
	return id, true
}

// page reads offset/limit query parameters with sane bounds.
func page(r *http.Request) (offset, limit int) {
	q := r.URL.Query()
	offset, _ = strconv.Atoi(q.Get("offset"))
	limit, _ = strconv.Atoi(q.Get("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return offset, limit
}
