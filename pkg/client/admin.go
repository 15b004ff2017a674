package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/terra-clan/recruit-portal/internal/models"
)

// DomainRequest creates or updates a domain
type DomainRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color"`
}

// TaskRequest creates or updates a task
type TaskRequest struct {
	DomainID    string     `json:"domainId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// QuestionnaireRequest creates or updates a questionnaire
type QuestionnaireRequest struct {
	DomainID      string                `json:"domainId"`
	MCQQuestions  []models.MCQQuestion  `json:"mcqQuestions"`
	TextQuestions []models.TextQuestion `json:"textQuestions"`
	DueDate       *time.Time            `json:"dueDate,omitempty"`
}

func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var out []T
	if err := c.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func getOne[T any](ctx context.Context, c *Client, path string) (*T, error) {
	var out T
	if err := c.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func postOne[T any](ctx context.Context, c *Client, path string, body interface{}) (*T, error) {
	var out T
	if err := c.Post(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func putOne[T any](ctx context.Context, c *Client, path string, body interface{}) (*T, error) {
	var out T
	if err := c.Put(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func adminPath(resource, id string) string {
	if id == "" {
		return "/admin/" + resource
	}
	return fmt.Sprintf("/admin/%s/%s", resource, url.PathEscape(id))
}

// Domains

func (c *Client) AdminListDomains(ctx context.Context) ([]models.Domain, error) {
	return getList[models.Domain](ctx, c, adminPath("domain", ""))
}

func (c *Client) AdminGetDomain(ctx context.Context, id string) (*models.Domain, error) {
	return getOne[models.Domain](ctx, c, adminPath("domain", id))
}

func (c *Client) AdminCreateDomain(ctx context.Context, req DomainRequest) (*models.Domain, error) {
	return postOne[models.Domain](ctx, c, adminPath("domain", ""), req)
}

func (c *Client) AdminUpdateDomain(ctx context.Context, id string, req DomainRequest) (*models.Domain, error) {
	return putOne[models.Domain](ctx, c, adminPath("domain", id), req)
}

func (c *Client) AdminDeleteDomain(ctx context.Context, id string) error {
	return c.Delete(ctx, adminPath("domain", id), nil)
}

// Tasks

func (c *Client) AdminListTasks(ctx context.Context) ([]models.Task, error) {
	return getList[models.Task](ctx, c, adminPath("task", ""))
}

func (c *Client) AdminCreateTask(ctx context.Context, req TaskRequest) (*models.Task, error) {
	return postOne[models.Task](ctx, c, adminPath("task", ""), req)
}

func (c *Client) AdminUpdateTask(ctx context.Context, id string, req TaskRequest) (*models.Task, error) {
	return putOne[models.Task](ctx, c, adminPath("task", id), req)
}

func (c *Client) AdminDeleteTask(ctx context.Context, id string) error {
	return c.Delete(ctx, adminPath("task", id), nil)
}

// Questionnaires

func (c *Client) AdminListQuestionnaires(ctx context.Context) ([]models.Questionnaire, error) {
	return getList[models.Questionnaire](ctx, c, adminPath("questionnaire", ""))
}

func (c *Client) AdminCreateQuestionnaire(ctx context.Context, req QuestionnaireRequest) (*models.Questionnaire, error) {
	return postOne[models.Questionnaire](ctx, c, adminPath("questionnaire", ""), req)
}

func (c *Client) AdminUpdateQuestionnaire(ctx context.Context, id string, req QuestionnaireRequest) (*models.Questionnaire, error) {
	return putOne[models.Questionnaire](ctx, c, adminPath("questionnaire", id), req)
}

func (c *Client) AdminDeleteQuestionnaire(ctx context.Context, id string) error {
	return c.Delete(ctx, adminPath("questionnaire", id), nil)
}

// Interviews

func (c *Client) AdminListInterviews(ctx context.Context) ([]models.Interview, error) {
	return getList[models.Interview](ctx, c, adminPath("interview", ""))
}

func (c *Client) AdminGetInterview(ctx context.Context, id string) (*models.Interview, error) {
	return getOne[models.Interview](ctx, c, adminPath("interview", id))
}

func (c *Client) AdminScheduleInterview(ctx context.Context, in models.InterviewInput) (*models.Interview, error) {
	return postOne[models.Interview](ctx, c, adminPath("interview", ""), in)
}

// AdminRescheduleInterview changes time, duration and link; user and domain are fixed
func (c *Client) AdminRescheduleInterview(ctx context.Context, id string, in models.InterviewInput) (*models.Interview, error) {
	in.UserID, in.DomainID = "", ""
	return putOne[models.Interview](ctx, c, adminPath("interview", id), in)
}

func (c *Client) AdminCancelInterview(ctx context.Context, id string) error {
	return c.Delete(ctx, adminPath("interview", id), nil)
}

// Whitelist

func (c *Client) AdminListWhitelist(ctx context.Context) ([]models.WhitelistEntry, error) {
	return getList[models.WhitelistEntry](ctx, c, adminPath("whitelist", ""))
}

func (c *Client) AdminAddWhitelist(ctx context.Context, email string) (*models.WhitelistEntry, error) {
	body := struct {
		Email string `json:"email"`
	}{Email: email}
	return postOne[models.WhitelistEntry](ctx, c, adminPath("whitelist", ""), body)
}

func (c *Client) AdminRemoveWhitelist(ctx context.Context, id string) error {
	return c.Delete(ctx, adminPath("whitelist", id), nil)
}

// Read-only lists

func (c *Client) AdminListUsers(ctx context.Context) ([]models.User, error) {
	return getList[models.User](ctx, c, adminPath("user", ""))
}

func (c *Client) AdminListResponses(ctx context.Context) ([]models.Response, error) {
	return getList[models.Response](ctx, c, adminPath("response", ""))
}

func (c *Client) AdminListSubmissions(ctx context.Context) ([]models.Submission, error) {
	return getList[models.Submission](ctx, c, adminPath("submission", ""))
}
