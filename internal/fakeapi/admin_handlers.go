package fakeapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/recruit-portal/internal/models"
)

// Admin handlers: plain CRUD over the in-memory documents

type domainRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type taskRequest struct {
	DomainID    string     `json:"domainId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

type questionnaireRequest struct {
	DomainID      string                `json:"domainId"`
	MCQQuestions  []models.MCQQuestion  `json:"mcqQuestions"`
	TextQuestions []models.TextQuestion `json:"textQuestions"`
	DueDate       *time.Time            `json:"dueDate,omitempty"`
}

func deleted(w http.ResponseWriter, what string) {
	respondJSON(w, http.StatusOK, map[string]string{
		"message": what + " deleted",
	})
}

// Domains

func (s *Server) handleAdminGetDomain(w http.ResponseWriter, r *http.Request) {
	d, ok := s.backend.domain(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "domain not found")
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleAdminCreateDomain(w http.ResponseWriter, r *http.Request) {
	var req domainRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	d := s.backend.putDomain(models.Domain{Name: req.Name, Description: req.Description, Color: req.Color})
	respondJSON(w, http.StatusCreated, d)
}

func (s *Server) handleAdminUpdateDomain(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.backend.domain(id); !ok {
		respondError(w, http.StatusNotFound, "domain not found")
		return
	}

	var req domainRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	d := s.backend.putDomain(models.Domain{ID: id, Name: req.Name, Description: req.Description, Color: req.Color})
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleAdminDeleteDomain(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.deleteDomain(chi.URLParam(r, "id")); err != nil {
		respondBackendError(w, err, "domain")
		return
	}
	deleted(w, "domain")
}

// Tasks

func (s *Server) handleAdminListTasks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.backend.tasksByDomain(""))
}

func (s *Server) taskFromRequest(w http.ResponseWriter, r *http.Request) (models.Task, bool) {
	var req taskRequest
	if !decodeBody(w, r, &req) {
		return models.Task{}, false
	}
	if req.DomainID == "" || strings.TrimSpace(req.Title) == "" {
		respondError(w, http.StatusBadRequest, "domainId and title are required")
		return models.Task{}, false
	}
	return models.Task{
		DomainID:    models.Ref(req.DomainID),
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}, true
}

func (s *Server) handleAdminCreateTask(w http.ResponseWriter, r *http.Request) {
	t, ok := s.taskFromRequest(w, r)
	if !ok {
		return
	}
	t, err := s.backend.putTask(t)
	if err != nil {
		respondBackendError(w, err, "domain")
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

func (s *Server) handleAdminUpdateTask(w http.ResponseWriter, r *http.Request) {
	t, ok := s.taskFromRequest(w, r)
	if !ok {
		return
	}
	t.ID = chi.URLParam(r, "id")
	t, err := s.backend.putTask(t)
	if err != nil {
		respondBackendError(w, err, "task")
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleAdminDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.deleteTask(chi.URLParam(r, "id")); err != nil {
		respondBackendError(w, err, "task")
		return
	}
	deleted(w, "task")
}

// Questionnaires

func (s *Server) handleAdminListQuestionnaires(w http.ResponseWriter, r *http.Request) {
	qs := s.backend.listQuestionnaires()
	out := make([]wireQuestionnaire, len(qs))
	for i, q := range qs {
		out[i] = s.toWireQuestionnaire(q)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) questionnaireFromRequest(w http.ResponseWriter, r *http.Request) (models.Questionnaire, bool) {
	var req questionnaireRequest
	if !decodeBody(w, r, &req) {
		return models.Questionnaire{}, false
	}
	if req.DomainID == "" {
		respondError(w, http.StatusBadRequest, "domainId is required")
		return models.Questionnaire{}, false
	}
	if len(req.MCQQuestions)+len(req.TextQuestions) == 0 {
		respondError(w, http.StatusBadRequest, "at least one question is required")
		return models.Questionnaire{}, false
	}
	for _, m := range req.MCQQuestions {
		if len(m.Options) < 2 {
			respondError(w, http.StatusBadRequest, "mcq questions need at least 2 options")
			return models.Questionnaire{}, false
		}
	}
	return models.Questionnaire{
		DomainID:      models.Ref(req.DomainID),
		MCQQuestions:  withQuestionIDs(req.MCQQuestions),
		TextQuestions: withTextIDs(req.TextQuestions),
		DueDate:       req.DueDate,
	}, true
}

func withQuestionIDs(qs []models.MCQQuestion) []models.MCQQuestion {
	for i := range qs {
		if qs[i].ID == "" {
			qs[i].ID = newID()
		}
	}
	return qs
}

func withTextIDs(qs []models.TextQuestion) []models.TextQuestion {
	for i := range qs {
		if qs[i].ID == "" {
			qs[i].ID = newID()
		}
	}
	return qs
}

func (s *Server) handleAdminCreateQuestionnaire(w http.ResponseWriter, r *http.Request) {
	q, ok := s.questionnaireFromRequest(w, r)
	if !ok {
		return
	}
	q, err := s.backend.putQuestionnaire(q)
	if err != nil {
		respondBackendError(w, err, "questionnaire")
		return
	}
	respondJSON(w, http.StatusCreated, s.toWireQuestionnaire(q))
}

func (s *Server) handleAdminUpdateQuestionnaire(w http.ResponseWriter, r *http.Request) {
	q, ok := s.questionnaireFromRequest(w, r)
	if !ok {
		return
	}
	q.ID = chi.URLParam(r, "id")
	q, err := s.backend.putQuestionnaire(q)
	if err != nil {
		respondBackendError(w, err, "questionnaire")
		return
	}
	respondJSON(w, http.StatusOK, s.toWireQuestionnaire(q))
}

func (s *Server) handleAdminDeleteQuestionnaire(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.deleteQuestionnaire(chi.URLParam(r, "id")); err != nil {
		respondBackendError(w, err, "questionnaire")
		return
	}
	deleted(w, "questionnaire")
}

// Interviews

func (s *Server) handleAdminListInterviews(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.toWireInterviews(s.backend.listInterviews("")))
}

func (s *Server) handleAdminGetInterview(w http.ResponseWriter, r *http.Request) {
	iv, ok := s.backend.interview(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "interview not found")
		return
	}
	respondJSON(w, http.StatusOK, s.toWireInterview(iv))
}

func validInterview(w http.ResponseWriter, in models.InterviewInput) bool {
	if in.Datetime.IsZero() || in.DurationMinutes <= 0 {
		respondError(w, http.StatusBadRequest, "datetime and a positive durationMinutes are required")
		return false
	}
	return true
}

func (s *Server) handleAdminScheduleInterview(w http.ResponseWriter, r *http.Request) {
	var in models.InterviewInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.UserID == "" || in.DomainID == "" {
		respondError(w, http.StatusBadRequest, "userId and domainId are required")
		return
	}
	if !validInterview(w, in) {
		return
	}

	iv, err := s.backend.scheduleInterview(in)
	if err != nil {
		respondBackendError(w, err, "user or domain")
		return
	}
	respondJSON(w, http.StatusCreated, s.toWireInterview(iv))
}

func (s *Server) handleAdminRescheduleInterview(w http.ResponseWriter, r *http.Request) {
	var in models.InterviewInput
	if !decodeBody(w, r, &in) {
		return
	}
	if !validInterview(w, in) {
		return
	}

	iv, err := s.backend.rescheduleInterview(chi.URLParam(r, "id"), in)
	if err != nil {
		respondBackendError(w, err, "interview")
		return
	}
	respondJSON(w, http.StatusOK, s.toWireInterview(iv))
}

func (s *Server) handleAdminCancelInterview(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.cancelInterview(chi.URLParam(r, "id")); err != nil {
		respondBackendError(w, err, "interview")
		return
	}
	deleted(w, "interview")
}

// Whitelist

func (s *Server) handleAdminListWhitelist(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.backend.listWhitelist())
}

func (s *Server) handleAdminAddWhitelist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	entry, err := s.backend.addWhitelist(req.Email)
	if err != nil {
		respondBackendError(w, err, "whitelist entry")
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleAdminRemoveWhitelist(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.removeWhitelist(chi.URLParam(r, "id")); err != nil {
		respondBackendError(w, err, "whitelist entry")
		return
	}
	deleted(w, "whitelist entry")
}

// Read-only lists

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.backend.listUsers())
}

func (s *Server) handleAdminListResponses(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toWireResponses(s.backend.listResponses("")))
}

func (s *Server) handleAdminListSubmissions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toWireSubmissions(s.backend.listSubmissions("", "")))
}
