package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/terra-clan/recruit-portal/internal/models"
	"github.com/terra-clan/recruit-portal/pkg/client"
)

// TaskState is the task/submission slice, shaped like QuestionState
type TaskState struct {
	Tasks       map[string][]models.Task      `json:"tasks"`
	Submissions map[string]*models.Submission `json:"submissions"`
	Loading     bool                          `json:"loading"`
	Error       string                        `json:"error,omitempty"`
	Status      RequestStatus                 `json:"status"`
	Submit      RequestStatus                 `json:"submit"`
}

func emptyTaskState() TaskState {
	return TaskState{
		Tasks:       map[string][]models.Task{},
		Submissions: map[string]*models.Submission{},
		Status:      idle(),
		Submit:      idle(),
	}
}

func (s TaskState) clone() TaskState {
	out := s
	out.Tasks = make(map[string][]models.Task, len(s.Tasks))
	for k, v := range s.Tasks {
		out.Tasks[k] = append([]models.Task{}, v...)
	}
	out.Submissions = make(map[string]*models.Submission, len(s.Submissions))
	for k, v := range s.Submissions {
		if v != nil {
			c := *v
			out.Submissions[k] = &c
		}
	}
	return out
}

// TaskGateway is the backend surface the task container needs
type TaskGateway interface {
	ListTasksByDomain(ctx context.Context, domainID string) ([]models.Task, error)
	ListSubmissionsByDomain(ctx context.Context, domainID string) ([]models.Submission, error)
	CreateSubmission(ctx context.Context, in models.SubmissionInput) (*models.Submission, error)
	UpdateSubmission(ctx context.Context, submissionID string, update models.SubmissionUpdate) (*models.Submission, error)
}

// Tasks holds tasks by domain id and submissions by task id
type Tasks struct {
	mu      sync.RWMutex
	gw      TaskGateway
	state   TaskState
	guard   fetchGuard
	changed hook
}

// NewTasks creates the task container
func NewTasks(gw TaskGateway) *Tasks {
	return &Tasks{
		gw:    gw,
		state: emptyTaskState(),
	}
}

func (t *Tasks) begin(key string) (epoch, seq uint64) {
	t.mu.Lock()
	epoch, seq = t.guard.start(key)
	t.state.Loading = true
	t.state.Status = loading()
	t.mu.Unlock()
	t.changed.fire()
	return epoch, seq
}

// finish mirrors Questions.finish
func (t *Tasks) finish(key string, epoch, seq uint64) bool {
	t.mu.Lock()
	current, latest := t.guard.done(key, epoch, seq)
	if !current {
		t.mu.Unlock()
		return false
	}
	t.state.Loading = t.guard.loading()
	if !latest {
		if !t.state.Loading && t.state.Status.IsLoading() {
			t.state.Status = succeeded()
		}
		t.mu.Unlock()
		t.changed.fire()
		return false
	}
	return true
}

func (t *Tasks) fail(err error) {
	t.state.Error = client.ErrorMessage(err)
	t.state.Status = failed(err)
	t.mu.Unlock()
	t.changed.fire()
}

func (t *Tasks) ok() {
	t.state.Error = ""
	t.state.Status = fetchSettled(t.state.Loading)
	t.mu.Unlock()
	t.changed.fire()
}

// GetTasksByDomain loads the tasks of one domain. A 404 is an empty list.
func (t *Tasks) GetTasksByDomain(ctx context.Context, domainID string) ([]models.Task, error) {
	key := "tasks/" + domainID
	epoch, seq := t.begin(key)

	tasks, err := t.gw.ListTasksByDomain(ctx, domainID)
	if client.IsNotFound(err) {
		tasks, err = nil, nil
	}

	if !t.finish(key, epoch, seq) {
		return nil, ErrStaleResult
	}
	if err != nil {
		t.fail(err)
		return nil, fmt.Errorf("get tasks for domain %s: %w", domainID, err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	t.state.Tasks[domainID] = append([]models.Task{}, tasks...)
	t.ok()

	return tasks, nil
}

// GetSubmissions loads the caller's submissions for a domain's tasks and
// keys each by task id. A 404 is an empty list.
func (t *Tasks) GetSubmissions(ctx context.Context, domainID string) ([]models.Submission, error) {
	key := "submissions/" + domainID
	epoch, seq := t.begin(key)

	subs, err := t.gw.ListSubmissionsByDomain(ctx, domainID)
	if client.IsNotFound(err) {
		subs, err = nil, nil
	}

	if !t.finish(key, epoch, seq) {
		return nil, ErrStaleResult
	}
	if err != nil {
		t.fail(err)
		return nil, fmt.Errorf("get submissions for domain %s: %w", domainID, err)
	}
	for i := range subs {
		s := subs[i]
		if taskID := s.TaskID.String(); taskID != "" {
			t.state.Submissions[taskID] = &s
		}
	}
	t.ok()

	return subs, nil
}

// SubmitTask creates a submission
func (t *Tasks) SubmitTask(ctx context.Context, in models.SubmissionInput) (*models.Submission, error) {
	return t.write(ctx, in.TaskID, func(ctx context.Context) (*models.Submission, error) {
		return t.gw.CreateSubmission(ctx, in)
	})
}

// UpdateTaskSubmission updates an existing submission
func (t *Tasks) UpdateTaskSubmission(ctx context.Context, submissionID string, update models.SubmissionUpdate) (*models.Submission, error) {
	t.mu.RLock()
	key := ""
	for k, s := range t.state.Submissions {
		if s != nil && s.ID == submissionID {
			key = k
			break
		}
	}
	t.mu.RUnlock()

	return t.write(ctx, key, func(ctx context.Context) (*models.Submission, error) {
		return t.gw.UpdateSubmission(ctx, submissionID, update)
	})
}

func (t *Tasks) write(ctx context.Context, key string, call func(context.Context) (*models.Submission, error)) (*models.Submission, error) {
	t.mu.Lock()
	t.state.Submit = loading()
	epoch := t.guard.epoch
	t.mu.Unlock()
	t.changed.fire()

	sub, err := call(ctx)

	t.mu.Lock()
	if epoch != t.guard.epoch {
		t.mu.Unlock()
		return nil, ErrStaleResult
	}
	if err != nil {
		t.state.Submit = failed(err)
		t.mu.Unlock()
		t.changed.fire()
		return nil, fmt.Errorf("save submission: %w", err)
	}
	if id := sub.TaskID.String(); id != "" {
		key = id
	}
	if key != "" {
		c := *sub
		t.state.Submissions[key] = &c
	}
	t.state.Submit = succeeded()
	t.mu.Unlock()
	t.changed.fire()

	return sub, nil
}

// Links is the submission form
type Links struct {
	Repo  string `json:"repoLink"`
	Dock  string `json:"dockLink"`
	Other string `json:"otherLink,omitempty"`
}

// LinksFromSubmission prefills the form from a stored submission
func LinksFromSubmission(s *models.Submission) Links {
	if s == nil {
		return Links{}
	}
	return Links{Repo: s.RepoLink, Dock: s.DockLink, Other: s.OtherLink}
}

func (l Links) trimmed() Links {
	return Links{
		Repo:  strings.TrimSpace(l.Repo),
		Dock:  strings.TrimSpace(l.Dock),
		Other: strings.TrimSpace(l.Other),
	}
}

// CheckLinks is the submit gate: repository and documentation links are
// required, the supplementary link is not.
func CheckLinks(l Links) error {
	l = l.trimmed()
	var missing []string
	if l.Repo == "" {
		missing = append(missing, "repoLink")
	}
	if l.Dock == "" {
		missing = append(missing, "dockLink")
	}
	if len(missing) > 0 {
		return &ValidationError{Reason: "required links are missing", Fields: missing}
	}
	return nil
}

// SaveSubmission gates links and then creates or updates the caller's
// submission for taskID. An unchanged form returns the stored submission.
func (t *Tasks) SaveSubmission(ctx context.Context, taskID string, links Links) (*models.Submission, error) {
	if err := CheckLinks(links); err != nil {
		return nil, err
	}
	links = links.trimmed()

	existing := t.Submission(taskID)
	if existing == nil {
		return t.SubmitTask(ctx, models.SubmissionInput{
			TaskID:    taskID,
			RepoLink:  links.Repo,
			DockLink:  links.Dock,
			OtherLink: links.Other,
		})
	}
	if LinksFromSubmission(existing) == links {
		return existing, nil
	}
	return t.UpdateTaskSubmission(ctx, existing.ID, models.SubmissionUpdate{
		RepoLink:  links.Repo,
		DockLink:  links.Dock,
		OtherLink: links.Other,
	})
}

// TasksFor returns the cached tasks of a domain and whether they were loaded
func (t *Tasks) TasksFor(domainID string) ([]models.Task, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tasks, ok := t.state.Tasks[domainID]
	return append([]models.Task{}, tasks...), ok
}

// Submission returns the cached submission for a task
func (t *Tasks) Submission(taskID string) *models.Submission {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.state.Submissions[taskID]
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// State returns a copy of the slice
func (t *Tasks) State() TaskState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.clone()
}

// Reset clears the slice and discards in-flight results
func (t *Tasks) Reset() {
	t.mu.Lock()
	t.state = emptyTaskState()
	t.guard.reset()
	t.mu.Unlock()
	t.changed.fire()
}

func (t *Tasks) restore(s TaskState) {
	s = s.clone()
	s.Loading = false
	s.Status = settle(s.Status)
	s.Submit = settle(s.Submit)
	t.mu.Lock()
	t.state = s
	t.guard.reset()
	t.mu.Unlock()
}
