package models

import "time"

// QuestionKind distinguishes multiple-choice from free-text questions
type QuestionKind string

const (
	QuestionMCQ  QuestionKind = "MCQ"
	QuestionText QuestionKind = "TEXT"
)

// MCQQuestion is a multiple-choice question
type MCQQuestion struct {
	ID           string   `json:"_id" yaml:"id"`
	QuestionText string   `json:"questionText" yaml:"question"`
	Options      []string `json:"options" yaml:"options"`
}

// TextQuestion is a free-text question
type TextQuestion struct {
	ID           string `json:"_id" yaml:"id"`
	QuestionText string `json:"questionText" yaml:"question"`
}

// Questionnaire is the per-domain question set
type Questionnaire struct {
	ID            string         `json:"_id"`
	DomainID      Ref            `json:"domainId"`
	MCQQuestions  []MCQQuestion  `json:"mcqQuestions"`
	TextQuestions []TextQuestion `json:"textQuestions"`
	DueDate       *time.Time     `json:"dueDate,omitempty"`
}

// Question is a flattened view of either question kind
type Question struct {
	ID      string
	Kind    QuestionKind
	Text    string
	Options []string
}

// Questions returns every question in catalog order: MCQs first, then text
func (q *Questionnaire) Questions() []Question {
	out := make([]Question, 0, len(q.MCQQuestions)+len(q.TextQuestions))
	for _, m := range q.MCQQuestions {
		out = append(out, Question{ID: m.ID, Kind: QuestionMCQ, Text: m.QuestionText, Options: m.Options})
	}
	for _, t := range q.TextQuestions {
		out = append(out, Question{ID: t.ID, Kind: QuestionText, Text: t.QuestionText})
	}
	return out
}

// MCQAnswer is the selected option for one MCQ question
type MCQAnswer struct {
	QuestionID          Ref `json:"questionId"`
	SelectedOptionIndex int `json:"selectedOptionIndex"`
}

// TextAnswer is the answer to one free-text question
type TextAnswer struct {
	QuestionID Ref    `json:"questionId"`
	AnswerText string `json:"answerText"`
}

// Response is one user's answers to one questionnaire
type Response struct {
	ID              string       `json:"_id"`
	UserID          Ref          `json:"userId"`
	QuestionnaireID Ref          `json:"questionnaireId"`
	MCQAnswers      []MCQAnswer  `json:"mcqAnswers"`
	TextAnswers     []TextAnswer `json:"textAnswers"`
}

// ResponseInput creates a response
type ResponseInput struct {
	QuestionnaireID string       `json:"questionnaireId"`
	MCQAnswers      []MCQAnswer  `json:"mcqAnswers"`
	TextAnswers     []TextAnswer `json:"textAnswers"`
}

// ResponseUpdate replaces the answer lists of an existing response.
// A nil list is left untouched by the backend.
type ResponseUpdate struct {
	MCQAnswers  []MCQAnswer  `json:"mcqAnswers,omitempty"`
	TextAnswers []TextAnswer `json:"textAnswers,omitempty"`
}
