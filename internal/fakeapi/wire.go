package fakeapi

import (
	"time"

	"github.com/terra-clan/recruit-portal/internal/models"
)

// The document store populates some references and not others. These
// shapes reproduce that so clients see both id forms on the wire.

type populatedRef struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

type wireQuestionnaire struct {
	ID            string                `json:"_id"`
	DomainID      populatedRef          `json:"domainId"`
	MCQQuestions  []models.MCQQuestion  `json:"mcqQuestions"`
	TextQuestions []models.TextQuestion `json:"textQuestions"`
	DueDate       *time.Time            `json:"dueDate,omitempty"`
}

type wireMCQAnswer struct {
	QuestionID          populatedRef `json:"questionId"`
	SelectedOptionIndex int          `json:"selectedOptionIndex"`
}

type wireTextAnswer struct {
	QuestionID populatedRef `json:"questionId"`
	AnswerText string       `json:"answerText"`
}

type wireResponse struct {
	ID              string           `json:"_id"`
	UserID          string           `json:"userId"`
	QuestionnaireID populatedRef     `json:"questionnaireId"`
	MCQAnswers      []wireMCQAnswer  `json:"mcqAnswers"`
	TextAnswers     []wireTextAnswer `json:"textAnswers"`
}

type wireSubmission struct {
	ID          string       `json:"_id"`
	UserID      string       `json:"userId"`
	TaskID      populatedRef `json:"taskId"`
	RepoLink    string       `json:"repoLink"`
	DockLink    string       `json:"dockLink"`
	OtherLink   string       `json:"otherLink,omitempty"`
	SubmittedAt *time.Time   `json:"submittedAt,omitempty"`
}

type wireInterview struct {
	ID              string       `json:"_id"`
	UserID          string       `json:"userId"`
	DomainID        populatedRef `json:"domainId"`
	Datetime        time.Time    `json:"datetime"`
	DurationMinutes int          `json:"durationMinutes"`
	MeetLink        string       `json:"meetLink"`
}

func (s *Server) toWireQuestionnaire(q models.Questionnaire) wireQuestionnaire {
	d, _ := s.backend.domain(q.DomainID.String())
	return wireQuestionnaire{
		ID:            q.ID,
		DomainID:      populatedRef{ID: q.DomainID.String(), Name: d.Name},
		MCQQuestions:  q.MCQQuestions,
		TextQuestions: q.TextQuestions,
		DueDate:       q.DueDate,
	}
}

func toWireResponse(r models.Response) wireResponse {
	out := wireResponse{
		ID:              r.ID,
		UserID:          r.UserID.String(),
		QuestionnaireID: populatedRef{ID: r.QuestionnaireID.String()},
		MCQAnswers:      make([]wireMCQAnswer, len(r.MCQAnswers)),
		TextAnswers:     make([]wireTextAnswer, len(r.TextAnswers)),
	}
	for i, a := range r.MCQAnswers {
		out.MCQAnswers[i] = wireMCQAnswer{QuestionID: populatedRef{ID: a.QuestionID.String()}, SelectedOptionIndex: a.SelectedOptionIndex}
	}
	for i, a := range r.TextAnswers {
		out.TextAnswers[i] = wireTextAnswer{QuestionID: populatedRef{ID: a.QuestionID.String()}, AnswerText: a.AnswerText}
	}
	return out
}

func toWireResponses(rs []models.Response) []wireResponse {
	out := make([]wireResponse, len(rs))
	for i, r := range rs {
		out[i] = toWireResponse(r)
	}
	return out
}

func toWireSubmission(s models.Submission) wireSubmission {
	return wireSubmission{
		ID:          s.ID,
		UserID:      s.UserID.String(),
		TaskID:      populatedRef{ID: s.TaskID.String()},
		RepoLink:    s.RepoLink,
		DockLink:    s.DockLink,
		OtherLink:   s.OtherLink,
		SubmittedAt: s.SubmittedAt,
	}
}

func toWireSubmissions(ss []models.Submission) []wireSubmission {
	out := make([]wireSubmission, len(ss))
	for i, s := range ss {
		out[i] = toWireSubmission(s)
	}
	return out
}

func (s *Server) toWireInterview(iv models.Interview) wireInterview {
	d, _ := s.backend.domain(iv.DomainID.String())
	return wireInterview{
		ID:              iv.ID,
		UserID:          iv.UserID.String(),
		DomainID:        populatedRef{ID: iv.DomainID.String(), Name: d.Name},
		Datetime:        iv.Datetime,
		DurationMinutes: iv.DurationMinutes,
		MeetLink:        iv.MeetLink,
	}
}

func (s *Server) toWireInterviews(ivs []models.Interview) []wireInterview {
	out := make([]wireInterview, len(ivs))
	for i, iv := range ivs {
		out[i] = s.toWireInterview(iv)
	}
	return out
}
