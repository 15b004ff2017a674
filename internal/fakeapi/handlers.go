package fakeapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/recruit-portal/internal/models"
)

// Response helpers

type apiResponse struct {
	Data interface{} `json:"data"`
	User interface{} `json:"user,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(apiResponse{Data: data}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondUser writes the login envelope, which carries the user under "user"
func respondUser(w http.ResponseWriter, user models.User) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(apiResponse{User: user}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(apiError{Message: message}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondBackendError maps backend errors to statuses. what names the
// resource in the message.
func respondBackendError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, errNotFound):
		respondError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, errConflict):
		respondError(w, http.StatusConflict, what+" already exists")
	case errors.Is(err, errForbidden):
		respondError(w, http.StatusForbidden, "you do not own this "+what)
	default:
		slog.Error("backend operation failed", "resource", what, "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// currentUser returns the authenticated caller's document
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	u, err := s.backend.user(identityFromContext(r.Context()).Email)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unknown user, please log in")
		return models.User{}, false
	}
	return u, true
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Login handlers

func (s *Server) handleUserLogin(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromRequest(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid identity token")
		return
	}

	user := s.backend.login(id.Email, id.Name)
	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)
	respondUser(w, user)
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromRequest(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid identity token")
		return
	}
	if !s.backend.isAdmin(id.Email) {
		slog.Warn("admin login refused", "email", id.Email)
		respondError(w, http.StatusForbidden, "email is not whitelisted for admin access")
		return
	}

	user := s.backend.login(id.Email, id.Name)
	slog.Info("admin logged in", "user_id", user.ID, "email", user.Email)
	respondUser(w, user)
}

// Profile and domain handlers

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update models.ProfileUpdate
	if !decodeBody(w, r, &update) {
		return
	}

	user, err := s.backend.updateProfile(identityFromContext(r.Context()).Email, update)
	if err != nil {
		respondBackendError(w, err, "user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.backend.listDomains())
}

func (s *Server) handleApplyDomains(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DomainIDs []string `json:"domainIds"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if len(req.DomainIDs) != 2 {
		respondError(w, http.StatusBadRequest, "exactly 2 domains must be selected")
		return
	}
	if req.DomainIDs[0] == req.DomainIDs[1] {
		respondError(w, http.StatusBadRequest, "domains must be distinct")
		return
	}

	user, err := s.backend.applyDomains(identityFromContext(r.Context()).Email, req.DomainIDs)
	if err != nil {
		respondBackendError(w, err, "domain")
		return
	}
	slog.Info("domains applied", "user_id", user.ID, "domain_ids", req.DomainIDs)
	respondJSON(w, http.StatusOK, user)
}

// Questionnaire handlers

func (s *Server) handleGetQuestionnaire(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainId")
	q, ok := s.backend.questionnaireByDomain(domainID)
	if !ok {
		respondError(w, http.StatusNotFound, "questionnaire not found")
		return
	}
	respondJSON(w, http.StatusOK, s.toWireQuestionnaire(q))
}

func (s *Server) handleListResponses(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	responses := s.backend.listResponses(user.ID)
	if len(responses) == 0 {
		respondError(w, http.StatusNotFound, "no responses found")
		return
	}
	respondJSON(w, http.StatusOK, toWireResponses(responses))
}

func (s *Server) handleCreateResponse(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var in models.ResponseInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.QuestionnaireID == "" {
		respondError(w, http.StatusBadRequest, "questionnaireId is required")
		return
	}

	resp, err := s.backend.createResponse(user.ID, in)
	if err != nil {
		respondBackendError(w, err, "response")
		return
	}
	respondJSON(w, http.StatusCreated, toWireResponse(resp))
}

func (s *Server) handleUpdateResponse(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var update models.ResponseUpdate
	if !decodeBody(w, r, &update) {
		return
	}

	resp, err := s.backend.updateResponse(user.ID, chi.URLParam(r, "id"), update)
	if err != nil {
		respondBackendError(w, err, "response")
		return
	}
	respondJSON(w, http.StatusOK, toWireResponse(resp))
}

// Task handlers

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := s.backend.tasksByDomain(chi.URLParam(r, "domainId"))
	if len(tasks) == 0 {
		respondError(w, http.StatusNotFound, "no tasks found for this domain")
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	subs := s.backend.listSubmissions(user.ID, chi.URLParam(r, "domainId"))
	if len(subs) == 0 {
		respondError(w, http.StatusNotFound, "no submissions found")
		return
	}
	respondJSON(w, http.StatusOK, toWireSubmissions(subs))
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var in models.SubmissionInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.TaskID == "" {
		respondError(w, http.StatusBadRequest, "taskId is required")
		return
	}
	if strings.TrimSpace(in.RepoLink) == "" || strings.TrimSpace(in.DockLink) == "" {
		respondError(w, http.StatusBadRequest, "repoLink and dockLink are required")
		return
	}

	sub, err := s.backend.createSubmission(user.ID, in)
	if err != nil {
		respondBackendError(w, err, "submission")
		return
	}
	respondJSON(w, http.StatusCreated, toWireSubmission(sub))
}

func (s *Server) handleUpdateSubmission(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var update models.SubmissionUpdate
	if !decodeBody(w, r, &update) {
		return
	}
	if strings.TrimSpace(update.RepoLink) == "" || strings.TrimSpace(update.DockLink) == "" {
		respondError(w, http.StatusBadRequest, "repoLink and dockLink are required")
		return
	}

	sub, err := s.backend.updateSubmission(user.ID, chi.URLParam(r, "id"), update)
	if err != nil {
		respondBackendError(w, err, "submission")
		return
	}
	respondJSON(w, http.StatusOK, toWireSubmission(sub))
}

// Interview handlers

func (s *Server) handleMyInterviews(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	interviews := s.backend.listInterviews(user.ID)
	if len(interviews) == 0 {
		respondError(w, http.StatusNotFound, "no interviews scheduled")
		return
	}
	respondJSON(w, http.StatusOK, s.toWireInterviews(interviews))
}
