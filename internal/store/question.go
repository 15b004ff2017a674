package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/terra-clan/recruit-portal/internal/models"
	"github.com/terra-clan/recruit-portal/pkg/client"
)

// QuestionState is the questionnaire/response slice. Loading, Error and
// Status track fetches; Submit tracks create/update, which never sets Loading.
type QuestionState struct {
	Questionnaires map[string]*models.Questionnaire `json:"questionnaires"`
	Responses      map[string]*models.Response      `json:"responses"`
	Loading        bool                             `json:"loading"`
	Error          string                           `json:"error,omitempty"`
	Status         RequestStatus                    `json:"status"`
	Submit         RequestStatus                    `json:"submit"`
}

func emptyQuestionState() QuestionState {
	return QuestionState{
		Questionnaires: map[string]*models.Questionnaire{},
		Responses:      map[string]*models.Response{},
		Status:         idle(),
		Submit:         idle(),
	}
}

func (s QuestionState) clone() QuestionState {
	out := s
	out.Questionnaires = make(map[string]*models.Questionnaire, len(s.Questionnaires))
	for k, v := range s.Questionnaires {
		out.Questionnaires[k] = cloneQuestionnaire(v)
	}
	out.Responses = make(map[string]*models.Response, len(s.Responses))
	for k, v := range s.Responses {
		out.Responses[k] = cloneResponse(v)
	}
	return out
}

func cloneQuestionnaire(q *models.Questionnaire) *models.Questionnaire {
	if q == nil {
		return nil
	}
	c := *q
	c.MCQQuestions = append([]models.MCQQuestion(nil), q.MCQQuestions...)
	for i := range c.MCQQuestions {
		c.MCQQuestions[i].Options = append([]string(nil), q.MCQQuestions[i].Options...)
	}
	c.TextQuestions = append([]models.TextQuestion(nil), q.TextQuestions...)
	return &c
}

func cloneResponse(r *models.Response) *models.Response {
	if r == nil {
		return nil
	}
	c := *r
	c.MCQAnswers = append([]models.MCQAnswer(nil), r.MCQAnswers...)
	c.TextAnswers = append([]models.TextAnswer(nil), r.TextAnswers...)
	return &c
}

// QuestionGateway is the backend surface the question container needs
type QuestionGateway interface {
	GetQuestionnaireByDomain(ctx context.Context, domainID string) (*models.Questionnaire, error)
	ListResponses(ctx context.Context) ([]models.Response, error)
	CreateResponse(ctx context.Context, in models.ResponseInput) (*models.Response, error)
	UpdateResponse(ctx context.Context, responseID string, update models.ResponseUpdate) (*models.Response, error)
}

const responsesKey = "\x00responses"

// Questions holds questionnaires by domain id and responses by
// questionnaire id. Both maps are merged into, never replaced.
type Questions struct {
	mu      sync.RWMutex
	gw      QuestionGateway
	state   QuestionState
	guard   fetchGuard
	changed hook
}

// NewQuestions creates the question container
func NewQuestions(gw QuestionGateway) *Questions {
	return &Questions{
		gw:    gw,
		state: emptyQuestionState(),
	}
}

// begin marks a fetch for key as in flight and returns its guard values
func (q *Questions) begin(key string) (epoch, seq uint64) {
	q.mu.Lock()
	epoch, seq = q.guard.start(key)
	q.state.Loading = true
	q.state.Status = loading()
	q.mu.Unlock()
	q.changed.fire()
	return epoch, seq
}

// finish settles a fetch; it reports false when the result must be
// dropped. On true the caller holds mu and must unlock.
func (q *Questions) finish(key string, epoch, seq uint64) bool {
	q.mu.Lock()
	current, latest := q.guard.done(key, epoch, seq)
	if !current {
		q.mu.Unlock()
		return false
	}
	q.state.Loading = q.guard.loading()
	if !latest {
		if !q.state.Loading && q.state.Status.IsLoading() {
			q.state.Status = succeeded()
		}
		q.mu.Unlock()
		q.changed.fire()
		return false
	}
	return true
}

// GetQuestionnaireByDomain loads the questionnaire of one domain. A 404 is
// returned to the caller (see client.IsNotFound) but does not mark the
// container failed.
func (q *Questions) GetQuestionnaireByDomain(ctx context.Context, domainID string) (*models.Questionnaire, error) {
	epoch, seq := q.begin(domainID)

	questionnaire, err := q.gw.GetQuestionnaireByDomain(ctx, domainID)

	if !q.finish(domainID, epoch, seq) {
		return nil, ErrStaleResult
	}
	if client.IsNotFound(err) {
		// Not published yet. Nothing is cached and the fetch did not fail.
		delete(q.state.Questionnaires, domainID)
		q.state.Status = fetchSettled(q.state.Loading)
		q.mu.Unlock()
		q.changed.fire()
		return nil, fmt.Errorf("get questionnaire for domain %s: %w", domainID, err)
	}
	if err != nil {
		q.state.Error = client.ErrorMessage(err)
		q.state.Status = failed(err)
		q.mu.Unlock()
		q.changed.fire()
		return nil, fmt.Errorf("get questionnaire for domain %s: %w", domainID, err)
	}
	q.state.Questionnaires[domainID] = cloneQuestionnaire(questionnaire)
	q.state.Error = ""
	q.state.Status = fetchSettled(q.state.Loading)
	q.mu.Unlock()
	q.changed.fire()

	return questionnaire, nil
}

// GetResponse loads all of the caller's responses. A 404 means none yet.
func (q *Questions) GetResponse(ctx context.Context) ([]models.Response, error) {
	epoch, seq := q.begin(responsesKey)

	responses, err := q.gw.ListResponses(ctx)
	if client.IsNotFound(err) {
		responses, err = nil, nil
	}

	if !q.finish(responsesKey, epoch, seq) {
		return nil, ErrStaleResult
	}
	if err != nil {
		q.state.Error = client.ErrorMessage(err)
		q.state.Status = failed(err)
		q.mu.Unlock()
		q.changed.fire()
		return nil, fmt.Errorf("get responses: %w", err)
	}
	for i := range responses {
		r := responses[i]
		if key := r.QuestionnaireID.String(); key != "" {
			q.state.Responses[key] = cloneResponse(&r)
		}
	}
	q.state.Error = ""
	q.state.Status = fetchSettled(q.state.Loading)
	q.mu.Unlock()
	q.changed.fire()

	return responses, nil
}

// SubmitResponse creates a response and keys it by questionnaire id
func (q *Questions) SubmitResponse(ctx context.Context, questionnaireID string, mcq []models.MCQAnswer, text []models.TextAnswer) (*models.Response, error) {
	in := models.ResponseInput{
		QuestionnaireID: questionnaireID,
		MCQAnswers:      mcq,
		TextAnswers:     text,
	}
	return q.write(ctx, questionnaireID, func(ctx context.Context) (*models.Response, error) {
		return q.gw.CreateResponse(ctx, in)
	})
}

// UpdateResponse updates an existing response. Only the non-nil answer
// lists of update are sent.
func (q *Questions) UpdateResponse(ctx context.Context, responseID string, update models.ResponseUpdate) (*models.Response, error) {
	q.mu.RLock()
	key := ""
	for k, r := range q.state.Responses {
		if r != nil && r.ID == responseID {
			key = k
			break
		}
	}
	q.mu.RUnlock()

	return q.write(ctx, key, func(ctx context.Context) (*models.Response, error) {
		return q.gw.UpdateResponse(ctx, responseID, update)
	})
}

func (q *Questions) write(ctx context.Context, key string, call func(context.Context) (*models.Response, error)) (*models.Response, error) {
	q.mu.Lock()
	q.state.Submit = loading()
	epoch := q.guard.epoch
	q.mu.Unlock()
	q.changed.fire()

	resp, err := call(ctx)

	q.mu.Lock()
	if epoch != q.guard.epoch {
		q.mu.Unlock()
		return nil, ErrStaleResult
	}
	if err != nil {
		q.state.Submit = failed(err)
		q.mu.Unlock()
		q.changed.fire()
		return nil, fmt.Errorf("save response: %w", err)
	}
	if id := resp.QuestionnaireID.String(); id != "" {
		key = id
	}
	if key != "" {
		q.state.Responses[key] = cloneResponse(resp)
	}
	q.state.Submit = succeeded()
	q.mu.Unlock()
	q.changed.fire()

	return resp, nil
}

// SaveAnswers gates the sheet and then creates or updates the caller's
// response to questionnaire. An update carries only the answer lists that
// changed; when nothing changed the stored response is returned as is.
func (q *Questions) SaveAnswers(ctx context.Context, questionnaire *models.Questionnaire, sheet AnswerSheet) (*models.Response, error) {
	if err := CheckAnswers(questionnaire, sheet); err != nil {
		return nil, err
	}
	mcq, text := answerLists(questionnaire, sheet)

	existing := q.Response(questionnaire.ID)
	if existing == nil {
		return q.SubmitResponse(ctx, questionnaire.ID, mcq, text)
	}

	var update models.ResponseUpdate
	if !sameMCQ(existing.MCQAnswers, mcq) {
		update.MCQAnswers = mcq
	}
	if !sameText(existing.TextAnswers, text) {
		update.TextAnswers = text
	}
	if update.MCQAnswers == nil && update.TextAnswers == nil {
		return existing, nil
	}
	return q.UpdateResponse(ctx, existing.ID, update)
}

// Questionnaire returns the cached questionnaire of a domain
func (q *Questions) Questionnaire(domainID string) *models.Questionnaire {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return cloneQuestionnaire(q.state.Questionnaires[domainID])
}

// Response returns the cached response to a questionnaire
func (q *Questions) Response(questionnaireID string) *models.Response {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return cloneResponse(q.state.Responses[questionnaireID])
}

// State returns a copy of the slice
func (q *Questions) State() QuestionState {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.state.clone()
}

// Reset clears the slice and discards in-flight results
func (q *Questions) Reset() {
	q.mu.Lock()
	q.state = emptyQuestionState()
	q.guard.reset()
	q.mu.Unlock()
	q.changed.fire()
}

func (q *Questions) restore(s QuestionState) {
	s = s.clone()
	s.Loading = false
	s.Status = settle(s.Status)
	s.Submit = settle(s.Submit)
	q.mu.Lock()
	q.state = s
	q.guard.reset()
	q.mu.Unlock()
}
