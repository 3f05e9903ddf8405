package model

import "time"

// QuestionStatus tracks a question through its request to the backend
type QuestionStatus int

const (
	QuestionPending QuestionStatus = iota
	QuestionAnswered
	QuestionFailed
)

func (s QuestionStatus) String() string {
	switch s {
	case QuestionPending:
		return "Pending"
	case QuestionAnswered:
		return "Answered"
	case QuestionFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Question is a question asked about a document and, once the backend has
// replied, its answer and the highlights the answer refers to.
type Question struct {
	ID         string         `json:"id"`
	Question   string         `json:"question"`
	Answer     string         `json:"answer"`
	Timestamp  time.Time      `json:"timestamp"`
	Highlights []Highlight    `json:"highlights,omitempty"`
	Status     QuestionStatus `json:"-"`
	Err        error          `json:"-"`
}
