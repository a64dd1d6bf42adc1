package apiv1

import (
	"context"
	"net/http"

	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/usecase"
)

// ---- auth ----

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess, err := s.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSession(sess))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess, err := s.users.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSession(sess))
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	a, _ := ActorFrom(r.Context())
	p, err := s.users.Profile(r.Context(), a.UserID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfile(p))
}

// ---- question sets ----

func (s *Server) listQuestionSets(w http.ResponseWriter, r *http.Request) {
	offset, limit := page(r)
	sets, err := s.sets.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, mapList(sets, toQuestionSet))
}

func (s *Server) getQuestionSet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	qs, err := s.sets.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuestionSet(qs))
}

func (s *Server) createQuestionSet(w http.ResponseWriter, r *http.Request) {
	var req QuestionSetRequest
	if !s.decode(w, r, &req) {
		return
	}
	a, _ := ActorFrom(r.Context())
	qs, err := s.sets.Create(r.Context(), a.UserID, setInput(req))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuestionSet(qs))
}

func (s *Server) updateQuestionSet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req QuestionSetRequest
	if !s.decode(w, r, &req) {
		return
	}
	qs, err := s.sets.Update(r.Context(), id, setInput(req))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuestionSet(qs))
}

func setInput(req QuestionSetRequest) usecase.QuestionSetInput {
	return usecase.QuestionSetInput{
		Title:       req.Title,
		Description: req.Description,
		IsPaid:      req.IsPaid,
		Price:       req.Price,
	}
}

func (s *Server) listQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	a, _ := ActorFrom(r.Context())
	qs, err := s.sets.ListQuestions(r.Context(), a, id)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, mapList(qs, func(q *model.Question) Question {
		return toQuestion(q, a.Admin)
	}))
}

func (s *Server) addQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req QuestionRequest
	if !s.decode(w, r, &req) {
		return
	}
	opts := make([]usecase.OptionInput, 0, len(req.Options))
	for _, o := range req.Options {
		opts = append(opts, usecase.OptionInput{Body: o.Body, IsCorrect: o.IsCorrect})
	}
	q, err := s.sets.AddQuestion(r.Context(), id, req.Body, req.Explanation, req.Position, opts)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuestion(q, true))
}

// ---- redeem codes ----

func (s *Server) redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if !s.decode(w, r, &req) {
		return
	}
	a, _ := ActorFrom(r.Context())
	res, err := s.codes.Redeem(r.Context(), a.UserID, req.Code)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, RedeemResponse{
		QuestionSet: toQuestionSet(res.QuestionSet),
		Purchase:    toPurchase(res.Purchase),
	})
}

func (s *Server) generateCodes(w http.ResponseWriter, r *http.Request) {
	var req GenerateCodesRequest
	if !s.decode(w, r, &req) {
		return
	}
	a, _ := ActorFrom(r.Context())
	batch, err := s.codes.Generate(r.Context(), a.UserID, req.QuestionSetID, req.ValidityDays, req.Quantity)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, CodeBatchResponse{
		BatchID: batch.BatchID,
		Codes:   mapList(batch.Codes, toRedeemCode).Items,
	})
}

func (s *Server) listCodes(w http.ResponseWriter, r *http.Request) {
	setID := r.URL.Query().Get("questionSetId")
	if setID != "" {
		if err := s.validate.Var(setID, "uuid"); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorBody{
				Error:  "validation failed",
				Code:   "validation_failed",
				Fields: map[string]string{"questionSetId": "must be a UUID"},
			})
			return
		}
	}
	offset, limit := page(r)
	codes, err := s.codes.List(r.Context(), setID, offset, limit)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, mapList(codes, toRedeemCode))
}

// ---- purchases ----

func (s *Server) listPurchases(w http.ResponseWriter, r *http.Request) {
	a, _ := ActorFrom(r.Context())
	ps, err := s.purchases.ListByUser(r.Context(), a.UserID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, mapList(ps, toPurchase))
}

func (s *Server) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseRequest
	if !s.decode(w, r, &req) {
		return
	}
	a, _ := ActorFrom(r.Context())
	p, err := s.purchases.Initiate(r.Context(), a.UserID, req.QuestionSetID, req.PaymentMethod)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPurchase(p))
}

func (s *Server) checkAccess(w http.ResponseWriter, r *http.Request) {
	setID, ok := s.pathID(w, r, "questionSetId")
	if !ok {
		return
	}
	a, _ := ActorFrom(r.Context())
	d, err := s.access.CheckAccess(r.Context(), a.UserID, setID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccess(d))
}

func (s *Server) cancelPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	a, _ := ActorFrom(r.Context())
	p, err := s.purchases.Cancel(r.Context(), a.UserID, id)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchase(p))
}

func (s *Server) completePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req CompletePurchaseRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.purchases.Complete(r.Context(), id, req.TransactionID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchase(p))
}

func (s *Server) failPurchase(w http.ResponseWriter, r *http.Request) {
	s.purchaseAction(w, r, s.purchases.Fail)
}

func (s *Server) refundPurchase(w http.ResponseWriter, r *http.Request) {
	s.purchaseAction(w, r, s.purchases.Refund)
}

func (s *Server) purchaseAction(w http.ResponseWriter, r *http.Request, act func(ctx context.Context, id string) (*model.Purchase, error)) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := act(r.Context(), id)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchase(p))
}

func (s *Server) extendPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req ExtendPurchaseRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.purchases.Extend(r.Context(), id, req.Days)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchase(p))
}

// ---- progress ----

func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !s.decode(w, r, &req) {
		return
	}
	a, _ := ActorFrom(r.Context())
	res, err := s.progress.SubmitAnswer(r.Context(), a.UserID, req.QuestionSetID, req.QuestionID, req.SelectedOptionIDs)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, AnswerResponse{
		QuestionID:       res.QuestionID,
		Correct:          res.Correct,
		CorrectOptionIDs: res.CorrectOptionIDs,
		Explanation:      res.Explanation,
		Progress:         toProgress(res.Progress),
	})
}

func (s *Server) getProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "userId")
	if !ok {
		return
	}
	setID, ok := s.pathID(w, r, "questionSetId")
	if !ok {
		return
	}
	a, _ := ActorFrom(r.Context())
	p, err := s.progress.GetProgress(r.Context(), a, userID, setID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgress(p))
}

func (s *Server) listWrongAnswers(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "userId")
	if !ok {
		return
	}
	setID := r.URL.Query().Get("questionSetId")
	a, _ := ActorFrom(r.Context())
	items, err := s.progress.ListWrongAnswers(r.Context(), a, userID, setID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, mapList(items, toWrongAnswer))
}

func (s *Server) resolveWrongAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "userId")
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	a, _ := ActorFrom(r.Context())
	if err := s.progress.ResolveWrongAnswer(r.Context(), a, userID, id); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
