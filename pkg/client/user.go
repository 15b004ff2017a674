package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/terra-clan/recruit-portal/internal/models"
)

// Login exchanges an identity-provider token for the backend user. The
// stored session token is suppressed; idToken is sent as the bearer.
func (c *Client) Login(ctx context.Context, idToken string, role models.Role) (*models.User, error) {
	path := "/user/login"
	if role == models.RoleAdmin {
		path = "/admin/login"
	}

	var user models.User
	if err := c.Post(WithoutSession(ctx), path, struct{}{}, &user, WithBearer(idToken)); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile sends a partial profile update and returns the stored user
func (c *Client) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	var user models.User
	if err := c.Put(ctx, "/user/profile", update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListDomains retrieves the domain catalog
func (c *Client) ListDomains(ctx context.Context) ([]models.Domain, error) {
	var domains []models.Domain
	if err := c.Get(ctx, "/user/domain", &domains); err != nil {
		return nil, err
	}
	return domains, nil
}

// ApplyDomains replaces the caller's whole domain selection
func (c *Client) ApplyDomains(ctx context.Context, domainIDs []string) (*models.User, error) {
	body := struct {
		DomainIDs []string `json:"domainIds"`
	}{DomainIDs: domainIDs}

	var user models.User
	if err := c.Post(ctx, "/user/domain/apply", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetQuestionnaireByDomain retrieves the questionnaire of a domain
func (c *Client) GetQuestionnaireByDomain(ctx context.Context, domainID string) (*models.Questionnaire, error) {
	var q models.Questionnaire
	if err := c.Get(ctx, fmt.Sprintf("/user/questionnaire/%s", url.PathEscape(domainID)), &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// ListResponses retrieves all of the caller's responses
func (c *Client) ListResponses(ctx context.Context) ([]models.Response, error) {
	var responses []models.Response
	if err := c.Get(ctx, "/user/response", &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

// CreateResponse submits a new response
func (c *Client) CreateResponse(ctx context.Context, in models.ResponseInput) (*models.Response, error) {
	var resp models.Response
	if err := c.Post(ctx, "/user/response", in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateResponse updates an existing response
func (c *Client) UpdateResponse(ctx context.Context, responseID string, update models.ResponseUpdate) (*models.Response, error) {
	var resp models.Response
	if err := c.Put(ctx, fmt.Sprintf("/user/response/%s", url.PathEscape(responseID)), update, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTasksByDomain retrieves the tasks of a domain
func (c *Client) ListTasksByDomain(ctx context.Context, domainID string) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.Get(ctx, fmt.Sprintf("/user/task/%s", url.PathEscape(domainID)), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListSubmissionsByDomain retrieves the caller's submissions for a domain's tasks
func (c *Client) ListSubmissionsByDomain(ctx context.Context, domainID string) ([]models.Submission, error) {
	var subs []models.Submission
	if err := c.Get(ctx, fmt.Sprintf("/user/submission/%s", url.PathEscape(domainID)), &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// CreateSubmission submits task artifacts
func (c *Client) CreateSubmission(ctx context.Context, in models.SubmissionInput) (*models.Submission, error) {
	var sub models.Submission
	if err := c.Post(ctx, "/user/submission", in, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateSubmission updates an existing submission
func (c *Client) UpdateSubmission(ctx context.Context, submissionID string, update models.SubmissionUpdate) (*models.Submission, error) {
	var sub models.Submission
	if err := c.Put(ctx, fmt.Sprintf("/user/submission/%s", url.PathEscape(submissionID)), update, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListMyInterviews retrieves the caller's scheduled interviews
func (c *Client) ListMyInterviews(ctx context.Context) ([]models.Interview, error) {
	var interviews []models.Interview
	if err := c.Get(ctx, "/user/interview", &interviews); err != nil {
		return nil, err
	}
	return interviews, nil
}
