package apiv1

import (
	"time"

	"github.com/shopspring/decimal"

	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/usecase"
)

// ---- requests ----

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type QuestionSetRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	IsPaid      bool            `json:"isPaid"`
	Price       decimal.Decimal `json:"price"`
}

type OptionRequest struct {
	Body      string `json:"body" validate:"required,max=1000"`
	IsCorrect bool   `json:"isCorrect"`
}

type QuestionRequest struct {
	Body        string          `json:"body" validate:"required,max=4000"`
	Explanation string          `json:"explanation" validate:"max=4000"`
	Position    int             `json:"position" validate:"min=0"`
	Options     []OptionRequest `json:"options" validate:"required,min=2,max=10,dive"`
}

type RedeemRequest struct {
	Code string `json:"code" validate:"required,redeemcode"`
}

type GenerateCodesRequest struct {
	QuestionSetID string `json:"questionSetId" validate:"required,uuid"`
	ValidityDays  int    `json:"validityDays" validate:"required,min=1,max=3650"`
	Quantity      int    `json:"quantity" validate:"required,min=1"`
}

type CreatePurchaseRequest struct {
	QuestionSetID string `json:"questionSetId" validate:"required,uuid"`
	PaymentMethod string `json:"paymentMethod" validate:"required,max=32"`
}

type CompletePurchaseRequest struct {
	TransactionID string `json:"transactionId" validate:"max=128"`
}

type ExtendPurchaseRequest struct {
	Days int `json:"days" validate:"required,min=1,max=3650"`
}

type AnswerRequest struct {
	QuestionSetID     string   `json:"questionSetId" validate:"required,uuid"`
	QuestionID        string   `json:"questionId" validate:"required,uuid"`
	SelectedOptionIDs []string `json:"selectedOptionIds" validate:"required,min=1,max=10,dive,uuid"`
}

// ---- responses ----

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

type SessionResponse struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Entitlement struct {
	QuestionSetID string    `json:"questionSetId"`
	PurchaseID    string    `json:"purchaseId"`
	ExpiryDate    time.Time `json:"expiryDate"`
	RemainingDays int       `json:"remainingDays"`
}

type ProfileResponse struct {
	User         User          `json:"user"`
	Entitlements []Entitlement `json:"entitlements"`
}

type QuestionSet struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	IsPaid      bool            `json:"isPaid"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type Option struct {
	ID        string `json:"id"`
	Body      string `json:"body"`
	IsCorrect *bool  `json:"isCorrect,omitempty"`
}

type Question struct {
	ID          string   `json:"id"`
	Body        string   `json:"body"`
	Explanation string   `json:"explanation,omitempty"`
	Position    int      `json:"position"`
	Options     []Option `json:"options"`
}

type Purchase struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	QuestionSetID string          `json:"questionSetId"`
	Status        string          `json:"status"`
	PurchaseDate  time.Time       `json:"purchaseDate"`
	ExpiryDate    *time.Time      `json:"expiryDate,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	TransactionID string          `json:"transactionId,omitempty"`
}

type RedeemResponse struct {
	QuestionSet QuestionSet `json:"questionSet"`
	Purchase    Purchase    `json:"purchase"`
}

type RedeemCode struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	QuestionSetID *string    `json:"questionSetId"`
	ValidityDays  int        `json:"validityDays"`
	ExpiryDate    time.Time  `json:"expiryDate"`
	IsUsed        bool       `json:"isUsed"`
	UsedBy        *string    `json:"usedBy,omitempty"`
	UsedAt        *time.Time `json:"usedAt,omitempty"`
	BatchID       string     `json:"batchId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type CodeBatchResponse struct {
	BatchID string       `json:"batchId"`
	Codes   []RedeemCode `json:"codes"`
}

type AccessResponse struct {
	QuestionSetID string           `json:"questionSetId"`
	HasAccess     bool             `json:"hasAccess"`
	IsPaid        bool             `json:"isPaid"`
	RemainingDays *int             `json:"remainingDays,omitempty"`
	ExpiryDate    *time.Time       `json:"expiryDate,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
}

type Progress struct {
	UserID         string    `json:"userId"`
	QuestionSetID  string    `json:"questionSetId"`
	AnsweredCount  int       `json:"answeredCount"`
	CorrectCount   int       `json:"correctCount"`
	Accuracy       float64   `json:"accuracy"`
	LastQuestionID string    `json:"lastQuestionId,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type AnswerResponse struct {
	QuestionID       string   `json:"questionId"`
	Correct          bool     `json:"correct"`
	CorrectOptionIDs []string `json:"correctOptionIds"`
	Explanation      string   `json:"explanation,omitempty"`
	Progress         Progress `json:"progress"`
}

type WrongAnswer struct {
	ID                string    `json:"id"`
	QuestionSetID     string    `json:"questionSetId"`
	QuestionID        string    `json:"questionId"`
	SelectedOptionIDs []string  `json:"selectedOptionIds"`
	WrongCount        int       `json:"wrongCount"`
	LastWrongAt       time.Time `json:"lastWrongAt"`
}

type ListResponse[T any] struct {
	Items []T `json:"items"`
}

// ---- mapping ----

func toUser(u *model.User) User {
	return User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		LastActiveAt: u.LastActiveAt,
	}
}

func toSession(s *usecase.Session) SessionResponse {
	return SessionResponse{User: toUser(s.User), Token: s.Token, ExpiresAt: s.ExpiresAt}
}

func toProfile(p *model.Profile) ProfileResponse {
	out := ProfileResponse{User: toUser(p.User), Entitlements: make([]Entitlement, 0, len(p.Entitlements))}
	for _, e := range p.Entitlements {
		out.Entitlements = append(out.Entitlements, Entitlement(e))
	}
	return out
}

func toQuestionSet(q *model.QuestionSet) QuestionSet {
	return QuestionSet{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		IsPaid:      q.IsPaid,
		Price:       q.Price,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

// toQuestion hides the correct flags unless withAnswers is set.
func toQuestion(q *model.Question, withAnswers bool) Question {
	out := Question{ID: q.ID, Body: q.Body, Position: q.Position, Options: make([]Option, 0, len(q.Options))}
	if withAnswers {
		out.Explanation = q.Explanation
	}
	for _, o := range q.Options {
		opt := Option{ID: o.ID, Body: o.Body}
		if withAnswers {
			correct := o.IsCorrect
			opt.IsCorrect = &correct
		}
		out.Options = append(out.Options, opt)
	}
	return out
}

func toPurchase(p *model.Purchase) Purchase {
	return Purchase{
		ID:            p.ID,
		UserID:        p.UserID,
		QuestionSetID: p.QuestionSetID,
		Status:        string(p.Status),
		PurchaseDate:  p.PurchaseDate,
		ExpiryDate:    p.ExpiryDate,
		Amount:        p.Amount,
		PaymentMethod: p.PaymentMethod,
		TransactionID: p.TransactionID,
	}
}

func toRedeemCode(c *model.RedeemCode) RedeemCode {
	return RedeemCode{
		ID:            c.ID,
		Code:          c.Code,
		QuestionSetID: c.QuestionSetID,
		ValidityDays:  c.ValidityDays,
		ExpiryDate:    c.ExpiryDate,
		IsUsed:        c.IsUsed,
		UsedBy:        c.UsedBy,
		UsedAt:        c.UsedAt,
		BatchID:       c.BatchID,
		CreatedAt:     c.CreatedAt,
	}
}

func toAccess(d *model.AccessDecision) AccessResponse {
	return AccessResponse{
		QuestionSetID: d.QuestionSetID,
		HasAccess:     d.HasAccess,
		IsPaid:        d.IsPaid,
		RemainingDays: d.RemainingDays,
		ExpiryDate:    d.ExpiryDate,
		Price:         d.Price,
	}
}

func toProgress(p *model.UserProgress) Progress {
	return Progress{
		UserID:         p.UserID,
		QuestionSetID:  p.QuestionSetID,
		AnsweredCount:  p.AnsweredCount,
		CorrectCount:   p.CorrectCount,
		Accuracy:       p.Accuracy(),
		LastQuestionID: p.LastQuestionID,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toWrongAnswer(w *model.WrongAnswer) WrongAnswer {
	return WrongAnswer{
		ID:                w.ID,
		QuestionSetID:     w.QuestionSetID,
		QuestionID:        w.QuestionID,
		SelectedOptionIDs: w.SelectedOptionIDs,
		WrongCount:        w.WrongCount,
		LastWrongAt:       w.LastWrongAt,
	}
}

func mapList[In any, Out any](in []In, f func(In) Out) ListResponse[Out] {
	out := ListResponse[Out]{Items: make([]Out, 0, len(in))}
	for _, v := range in {
		out.Items = append(out.Items, f(v))
	}
	return out
}
