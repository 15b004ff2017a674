package store

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/terra-clan/recruit-portal/internal/models"
	"github.com/terra-clan/recruit-portal/pkg/client"
)

var errBackendDown = &client.APIError{StatusCode: http.StatusInternalServerError, Message: "backend down"}

func notFound(what string) error {
	return &client.APIError{StatusCode: http.StatusNotFound, Message: what + " not found"}
}

// fakeGateway is an in-memory backend. Methods named in fail return that
// error; methods named in hold block until the channel is closed.
type fakeGateway struct {
	mu             sync.Mutex
	user           models.User
	domains        []models.Domain
	questionnaires map[string]*models.Questionnaire
	responses      []models.Response
	tasks          map[string][]models.Task
	submissions    []models.Submission
	interviews     []models.Interview
	fail           map[string]error
	hold           map[string]chan struct{}
	calls          []string
	nextID         int
	emptyApply     bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		user: models.User{
			ID:         "u1",
			Name:       "Asha Rao",
			Email:      "asha@example.edu",
			RegNo:      "21BCE1001",
			Branch:     "CSE",
			GithubLink: "https://github.com/asha",
		},
		domains: []models.Domain{
			{ID: "d1", Name: "Web"},
			{ID: "d2", Name: "App"},
			{ID: "d3", Name: "Design"},
			{ID: "d4", Name: "ML"},
			{ID: "d5", Name: "Cloud"},
		},
		questionnaires: map[string]*models.Questionnaire{},
		tasks:          map[string][]models.Task{},
		fail:           map[string]error{},
		hold:           map[string]chan struct{}{},
	}
}

func (g *fakeGateway) enter(ctx context.Context, method string) error {
	g.mu.Lock()
	g.calls = append(g.calls, method)
	err := g.fail[method]
	hold := g.hold[method]
	g.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (g *fakeGateway) called(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (g *fakeGateway) id(prefix string) string {
	g.nextID++
	return fmt.Sprintf("%s%d", prefix, g.nextID)
}

func (g *fakeGateway) Login(ctx context.Context, _ string, _ models.Role) (*models.User, error) {
	if err := g.enter(ctx, "Login"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.user.Clone(), nil
}

func (g *fakeGateway) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	if err := g.enter(ctx, "UpdateProfile"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.user = update.ApplyTo(g.user)
	return g.user.Clone(), nil
}

func (g *fakeGateway) ListDomains(ctx context.Context) ([]models.Domain, error) {
	if err := g.enter(ctx, "ListDomains"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.Domain(nil), g.domains...), nil
}

func (g *fakeGateway) ApplyDomains(ctx context.Context, ids []string) (*models.User, error) {
	if err := g.enter(ctx, "ApplyDomains"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.user.SelectedDomainIDs = models.RefsOf(ids)
	if g.emptyApply {
		return nil, client.ErrEmptyPayload
	}
	return g.user.Clone(), nil
}

func (g *fakeGateway) GetQuestionnaireByDomain(ctx context.Context, domainID string) (*models.Questionnaire, error) {
	if err := g.enter(ctx, "GetQuestionnaireByDomain"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	q, ok := g.questionnaires[domainID]
	if !ok {
		return nil, notFound("questionnaire")
	}
	return cloneQuestionnaire(q), nil
}

func (g *fakeGateway) ListResponses(ctx context.Context) ([]models.Response, error) {
	if err := g.enter(ctx, "ListResponses"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.responses) == 0 {
		return nil, notFound("responses")
	}
	return append([]models.Response(nil), g.responses...), nil
}

func (g *fakeGateway) CreateResponse(ctx context.Context, in models.ResponseInput) (*models.Response, error) {
	if err := g.enter(ctx, "CreateResponse"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	r := models.Response{
		ID:              g.id("r"),
		UserID:          models.Ref(g.user.ID),
		QuestionnaireID: models.Ref(in.QuestionnaireID),
		MCQAnswers:      in.MCQAnswers,
		TextAnswers:     in.TextAnswers,
	}
	g.responses = append(g.responses, r)
	return &r, nil
}

func (g *fakeGateway) UpdateResponse(ctx context.Context, id string, update models.ResponseUpdate) (*models.Response, error) {
	if err := g.enter(ctx, "UpdateResponse"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.responses {
		if g.responses[i].ID != id {
			continue
		}
		if update.MCQAnswers != nil {
			g.responses[i].MCQAnswers = update.MCQAnswers
		}
		if update.TextAnswers != nil {
			g.responses[i].TextAnswers = update.TextAnswers
		}
		r := g.responses[i]
		return &r, nil
	}
	return nil, notFound("response")
}

func (g *fakeGateway) ListTasksByDomain(ctx context.Context, domainID string) ([]models.Task, error) {
	if err := g.enter(ctx, "ListTasksByDomain"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	tasks, ok := g.tasks[domainID]
	if !ok {
		return nil, notFound("tasks")
	}
	return append([]models.Task(nil), tasks...), nil
}

func (g *fakeGateway) ListSubmissionsByDomain(ctx context.Context, domainID string) ([]models.Submission, error) {
	if err := g.enter(ctx, "ListSubmissionsByDomain"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	inDomain := map[string]bool{}
	for _, t := range g.tasks[domainID] {
		inDomain[t.ID] = true
	}
	var out []models.Submission
	for _, s := range g.submissions {
		if inDomain[s.TaskID.String()] {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, notFound("submissions")
	}
	return out, nil
}

func (g *fakeGateway) CreateSubmission(ctx context.Context, in models.SubmissionInput) (*models.Submission, error) {
	if err := g.enter(ctx, "CreateSubmission"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	s := models.Submission{
		ID:        g.id("s"),
		UserID:    models.Ref(g.user.ID),
		TaskID:    models.Ref(in.TaskID),
		RepoLink:  in.RepoLink,
		DockLink:  in.DockLink,
		OtherLink: in.OtherLink,
	}
	g.submissions = append(g.submissions, s)
	return &s, nil
}

func (g *fakeGateway) UpdateSubmission(ctx context.Context, id string, update models.SubmissionUpdate) (*models.Submission, error) {
	if err := g.enter(ctx, "UpdateSubmission"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.submissions {
		if g.submissions[i].ID != id {
			continue
		}
		g.submissions[i].RepoLink = update.RepoLink
		g.submissions[i].DockLink = update.DockLink
		g.submissions[i].OtherLink = update.OtherLink
		s := g.submissions[i]
		return &s, nil
	}
	return nil, notFound("submission")
}

func (g *fakeGateway) ListMyInterviews(ctx context.Context) ([]models.Interview, error) {
	if err := g.enter(ctx, "ListMyInterviews"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.interviews) == 0 {
		return nil, notFound("interviews")
	}
	return append([]models.Interview(nil), g.interviews...), nil
}

// sampleQuestionnaire has two MCQs and one text question
func sampleQuestionnaire(domainID string) *models.Questionnaire {
	return &models.Questionnaire{
		ID:       "q-" + domainID,
		DomainID: models.Ref(domainID),
		MCQQuestions: []models.MCQQuestion{
			{ID: "m1", QuestionText: "HTTP is", Options: []string{"stateless", "stateful"}},
			{ID: "m2", QuestionText: "Best editor", Options: []string{"vim", "emacs", "nano"}},
		},
		TextQuestions: []models.TextQuestion{
			{ID: "t1", QuestionText: "Why this domain?"},
		},
	}
}

// signedIn returns a store logged in as the fake's user
func signedIn(gw *fakeGateway, opts ...Option) *Store {
	s := New(gw, opts...)
	if _, err := s.Login(context.Background(), "id-token", models.RoleUser); err != nil {
		panic(err)
	}
	return s
}

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)
