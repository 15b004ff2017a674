package store

import (
	"sort"
	"strings"

	"github.com/terra-clan/recruit-portal/internal/models"
)

// AnswerSheet is an in-progress set of answers keyed by question id. An MCQ
// question is answered when its key is present, so index 0 counts.
type AnswerSheet struct {
	MCQ  map[string]int    `json:"mcq"`
	Text map[string]string `json:"text"`
}

// NewAnswerSheet returns an empty sheet
func NewAnswerSheet() AnswerSheet {
	return AnswerSheet{MCQ: map[string]int{}, Text: map[string]string{}}
}

// SheetFromResponse prefills a sheet from a stored response
func SheetFromResponse(r *models.Response) AnswerSheet {
	sheet := NewAnswerSheet()
	if r == nil {
		return sheet
	}
	for _, a := range r.MCQAnswers {
		sheet.MCQ[a.QuestionID.String()] = a.SelectedOptionIndex
	}
	for _, a := range r.TextAnswers {
		sheet.Text[a.QuestionID.String()] = a.AnswerText
	}
	return sheet
}

// SetChoice records an MCQ answer
func (s *AnswerSheet) SetChoice(questionID string, index int) {
	if s.MCQ == nil {
		s.MCQ = map[string]int{}
	}
	s.MCQ[questionID] = index
}

// SetText records a free-text answer
func (s *AnswerSheet) SetText(questionID, text string) {
	if s.Text == nil {
		s.Text = map[string]string{}
	}
	s.Text[questionID] = text
}

// Unanswered returns the questions of q that have no usable answer in
// sheet, in catalog order.
func Unanswered(q *models.Questionnaire, sheet AnswerSheet) []models.Question {
	var missing []models.Question
	for _, question := range q.Questions() {
		switch question.Kind {
		case models.QuestionMCQ:
			idx, ok := sheet.MCQ[question.ID]
			if !ok || idx < 0 || (len(question.Options) > 0 && idx >= len(question.Options)) {
				missing = append(missing, question)
			}
		case models.QuestionText:
			if strings.TrimSpace(sheet.Text[question.ID]) == "" {
				missing = append(missing, question)
			}
		}
	}
	return missing
}

// CheckAnswers is the submit gate: every question must be answered
func CheckAnswers(q *models.Questionnaire, sheet AnswerSheet) error {
	if q == nil || len(q.MCQQuestions)+len(q.TextQuestions) == 0 {
		return &ValidationError{Reason: "questionnaire has no questions"}
	}
	missing := Unanswered(q, sheet)
	if len(missing) == 0 {
		return nil
	}
	ids := make([]string, len(missing))
	for i, m := range missing {
		ids[i] = m.ID
	}
	return &ValidationError{
		Reason:    "please answer all questions before submitting",
		Fields:    ids,
		Remaining: len(missing),
	}
}

// answerLists converts the sheet into wire lists restricted to the
// questions of q, in catalog order. Text answers are trimmed.
func answerLists(q *models.Questionnaire, sheet AnswerSheet) ([]models.MCQAnswer, []models.TextAnswer) {
	mcq := make([]models.MCQAnswer, 0, len(q.MCQQuestions))
	for _, m := range q.MCQQuestions {
		if idx, ok := sheet.MCQ[m.ID]; ok {
			mcq = append(mcq, models.MCQAnswer{QuestionID: models.Ref(m.ID), SelectedOptionIndex: idx})
		}
	}
	text := make([]models.TextAnswer, 0, len(q.TextQuestions))
	for _, t := range q.TextQuestions {
		if v, ok := sheet.Text[t.ID]; ok {
			text = append(text, models.TextAnswer{QuestionID: models.Ref(t.ID), AnswerText: strings.TrimSpace(v)})
		}
	}
	return mcq, text
}

func sameMCQ(a, b []models.MCQAnswer) bool {
	if len(a) != len(b) {
		return false
	}
	idx := make(map[string]int, len(a))
	for _, x := range a {
		idx[x.QuestionID.String()] = x.SelectedOptionIndex
	}
	for _, y := range b {
		v, ok := idx[y.QuestionID.String()]
		if !ok || v != y.SelectedOptionIndex {
			return false
		}
	}
	return true
}

func sameText(a, b []models.TextAnswer) bool {
	if len(a) != len(b) {
		return false
	}
	left := make([]string, len(a))
	for i, x := range a {
		left[i] = x.QuestionID.String() + "\x00" + x.AnswerText
	}
	right := make([]string, len(b))
	for i, y := range b {
		right[i] = y.QuestionID.String() + "\x00" + y.AnswerText
	}
	sort.Strings(left)
	sort.Strings(right)
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}
