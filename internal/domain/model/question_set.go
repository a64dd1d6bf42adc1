package model

import (
	"strings"
	"time"

	"quiz-exam-platform/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuestionSet is a named collection of quiz questions. Paid sets require a
// valid entitlement (Purchase) to be accessed.
type QuestionSet struct {
	ID          string
	Title       string
	Description string
	IsPaid      bool
	Price       decimal.Decimal
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (q *QuestionSet) IsZero() bool { return q == nil || q.ID == "" }

// NewQuestionSet validates and constructs a question set. A paid set must
// carry a positive price; a free set always has a zero price.
func NewQuestionSet(id, title, description string, isPaid bool, price decimal.Decimal, createdBy string) (*QuestionSet, error) {
	if id == "" {
		id = uuid.NewString()
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.ErrInvalidArgument
	}
	if isPaid && !price.IsPositive() {
		return nil, domain.ErrInvalidArgument
	}
	if !isPaid {
		price = decimal.Zero
	}
	now := time.Now()
	return &QuestionSet{
		ID:          id,
		Title:       title,
		Description: description,
		IsPaid:      isPaid,
		Price:       price,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Question belongs to exactly one question set.
type Question struct {
	ID            string
	QuestionSetID string
	Body          string
	Explanation   string
	Position      int
	Options       []Option
	CreatedAt     time.Time
}

type Option struct {
	ID         string
	QuestionID string
	Body       string
	IsCorrect  bool
	Position   int
}

// NewQuestion builds a question with its options. At least two options and at
// least one correct option are required.
func NewQuestion(setID, body, explanation string, position int, options []Option) (*Question, error) {
	body = strings.TrimSpace(body)
	if setID == "" || body == "" || len(options) < 2 {
		return nil, domain.ErrInvalidArgument
	}
	q := &Question{
		ID:            uuid.NewString(),
		QuestionSetID: setID,
		Body:          body,
		Explanation:   explanation,
		Position:      position,
		CreatedAt:     time.Now(),
	}
	hasCorrect := false
	for i, o := range options {
		if strings.TrimSpace(o.Body) == "" {
			return nil, domain.ErrInvalidArgument
		}
		o.ID = uuid.NewString()
		o.QuestionID = q.ID
		o.Position = i
		hasCorrect = hasCorrect || o.IsCorrect
		q.Options = append(q.Options, o)
	}
	if !hasCorrect {
		return nil, domain.ErrInvalidArgument
	}
	return q, nil
}

// CorrectOptionIDs returns the ids of all options marked correct.
func (q *Question) CorrectOptionIDs() []string {
	var out []string
	for _, o := range q.Options {
		if o.IsCorrect {
			out = append(out, o.ID)
		}
	}
	return out
}

// Grade reports whether selected matches the correct option set exactly.
// Order and duplicates in selected are ignored.
func (q *Question) Grade(selected []string) bool {
	want := map[string]struct{}{}
	for _, id := range q.CorrectOptionIDs() {
		want[id] = struct{}{}
	}
	got := map[string]struct{}{}
	for _, id := range selected {
		got[id] = struct{}{}
	}
	if len(got) != len(want) {
		return false
	}
	for id := range got {
		if _, ok := want[id]; !ok {
			return false
		}
	}
	return true
}

// HasOption reports whether id belongs to one of the question's options.
func (q *Question) HasOption(id string) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}
