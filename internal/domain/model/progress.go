package model

import "time"

// UserProgress aggregates a user's answers within one question set.
type UserProgress struct {
	UserID         string
	QuestionSetID  string
	AnsweredCount  int
	CorrectCount   int
	LastQuestionID string
	UpdatedAt      time.Time
}

// Accuracy is the share of correct answers in [0,1].
func (p *UserProgress) Accuracy() float64 {
	if p == nil || p.AnsweredCount == 0 {
		return 0
	}
	return float64(p.CorrectCount) / float64(p.AnsweredCount)
}

// WrongAnswer keeps the latest wrong attempt of a user on a question for
// review. Repeated misses bump WrongCount instead of adding rows.
type WrongAnswer struct {
	ID                string
	UserID            string
	QuestionSetID     string
	QuestionID        string
	SelectedOptionIDs []string
	WrongCount        int
	LastWrongAt       time.Time
}

// AnswerResult is returned after grading one submitted answer.
type AnswerResult struct {
	QuestionID       string
	Correct          bool
	CorrectOptionIDs []string
	Explanation      string
	Progress         *UserProgress
}
