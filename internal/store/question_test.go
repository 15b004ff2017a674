package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/recruit-portal/internal/models"
	"github.com/terra-clan/recruit-portal/pkg/client"
)

func answeredSheet(m1, m2 int, text string) AnswerSheet {
	sheet := NewAnswerSheet()
	sheet.SetChoice("m1", m1)
	sheet.SetChoice("m2", m2)
	sheet.SetText("t1", text)
	return sheet
}

func TestGetQuestionnaireIsAdditive(t *testing.T) {
	gw := newFakeGateway()
	gw.questionnaires["d1"] = sampleQuestionnaire("d1")
	gw.questionnaires["d2"] = sampleQuestionnaire("d2")
	q := NewQuestions(gw)

	_, err := q.GetQuestionnaireByDomain(context.Background(), "d1")
	require.NoError(t, err)
	_, err = q.GetQuestionnaireByDomain(context.Background(), "d2")
	require.NoError(t, err)

	st := q.State()
	assert.Len(t, st.Questionnaires, 2)
	assert.Equal(t, "q-d1", st.Questionnaires["d1"].ID)
	assert.False(t, st.Loading)
	assert.Equal(t, StatusSucceeded, st.Status.State)
}

func TestGetQuestionnaireFailureKeepsOthers(t *testing.T) {
	gw := newFakeGateway()
	gw.questionnaires["d1"] = sampleQuestionnaire("d1")
	q := NewQuestions(gw)
	_, err := q.GetQuestionnaireByDomain(context.Background(), "d1")
	require.NoError(t, err)

	gw.fail["GetQuestionnaireByDomain"] = errBackendDown
	_, err = q.GetQuestionnaireByDomain(context.Background(), "d2")
	require.Error(t, err)

	st := q.State()
	assert.Contains(t, st.Questionnaires, "d1")
	assert.Equal(t, "backend down", st.Error)
	assert.Equal(t, StatusFailed, st.Status.State)
	assert.False(t, st.Loading)
}

func TestGetResponseNotFoundIsEmpty(t *testing.T) {
	q := NewQuestions(newFakeGateway())

	responses, err := q.GetResponse(context.Background())
	require.NoError(t, err)
	assert.Empty(t, responses)
	assert.Equal(t, StatusSucceeded, q.State().Status.State)
}

func TestGetResponseMergesByQuestionnaire(t *testing.T) {
	gw := newFakeGateway()
	q := NewQuestions(gw)
	_, err := q.SubmitResponse(context.Background(), "q-d9", nil, nil)
	require.NoError(t, err)

	gw.responses = []models.Response{{ID: "r-remote", QuestionnaireID: "q-d1"}}
	_, err = q.GetResponse(context.Background())
	require.NoError(t, err)

	st := q.State()
	assert.Contains(t, st.Responses, "q-d9", "locally known responses survive a refresh")
	assert.Equal(t, "r-remote", st.Responses["q-d1"].ID)
}

func TestSaveAnswersCreateThenUpdate(t *testing.T) {
	gw := newFakeGateway()
	questionnaire := sampleQuestionnaire("d1")
	q := NewQuestions(gw)

	created, err := q.SaveAnswers(context.Background(), questionnaire, answeredSheet(0, 1, "because"))
	require.NoError(t, err)
	assert.Equal(t, 1, gw.called("CreateResponse"))
	assert.Equal(t, created.ID, q.Response("q-d1").ID)

	updated, err := q.SaveAnswers(context.Background(), questionnaire, answeredSheet(1, 1, "because"))
	require.NoError(t, err)
	assert.Equal(t, 1, gw.called("CreateResponse"))
	assert.Equal(t, 1, gw.called("UpdateResponse"))
	assert.Equal(t, created.ID, updated.ID)

	st := q.State()
	require.Len(t, st.Responses, 1)
	assert.Equal(t, 1, st.Responses["q-d1"].MCQAnswers[0].SelectedOptionIndex)
	assert.Len(t, gw.responses, 1)
}

func TestSaveAnswersSendsOnlyChangedLists(t *testing.T) {
	gw := newFakeGateway()
	questionnaire := sampleQuestionnaire("d1")
	q := NewQuestions(gw)
	_, err := q.SaveAnswers(context.Background(), questionnaire, answeredSheet(0, 1, "first"))
	require.NoError(t, err)

	var sent models.ResponseUpdate
	spy := &updateSpy{fakeGateway: gw, sent: &sent}
	q.gw = spy

	_, err = q.SaveAnswers(context.Background(), questionnaire, answeredSheet(0, 1, "second"))
	require.NoError(t, err)
	assert.Nil(t, sent.MCQAnswers)
	assert.Equal(t, []models.TextAnswer{{QuestionID: "t1", AnswerText: "second"}}, sent.TextAnswers)
}

func TestSaveAnswersUnchangedSkipsNetwork(t *testing.T) {
	gw := newFakeGateway()
	questionnaire := sampleQuestionnaire("d1")
	q := NewQuestions(gw)
	first, err := q.SaveAnswers(context.Background(), questionnaire, answeredSheet(0, 1, "same"))
	require.NoError(t, err)

	again, err := q.SaveAnswers(context.Background(), questionnaire, answeredSheet(0, 1, " same "))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Zero(t, gw.called("UpdateResponse"))
}

func TestSaveAnswersGateBlocksNetwork(t *testing.T) {
	gw := newFakeGateway()
	q := NewQuestions(gw)

	sheet := answeredSheet(0, 1, "")
	_, err := q.SaveAnswers(context.Background(), sampleQuestionnaire("d1"), sheet)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, verr.Remaining)
	assert.Zero(t, gw.called("CreateResponse"))
}

func TestSubmitDoesNotSetLoading(t *testing.T) {
	gw := newFakeGateway()
	hold := make(chan struct{})
	gw.hold["CreateResponse"] = hold
	q := NewQuestions(gw)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = q.SubmitResponse(context.Background(), "q-d1", nil, nil)
	}()

	require.Eventually(t, func() bool { return q.State().Submit.IsLoading() }, timeout, tick)
	assert.False(t, q.State().Loading)
	close(hold)
	<-done
	assert.Equal(t, StatusSucceeded, q.State().Submit.State)
}

func TestSubmitFailureReportsOnSubmitStatus(t *testing.T) {
	gw := newFakeGateway()
	gw.fail["CreateResponse"] = errBackendDown
	q := NewQuestions(gw)

	_, err := q.SubmitResponse(context.Background(), "q-d1", nil, nil)
	require.ErrorIs(t, err, errBackendDown)

	st := q.State()
	assert.Equal(t, StatusFailed, st.Submit.State)
	assert.Empty(t, st.Error)
	assert.Empty(t, st.Responses)
}

func TestSupersededQuestionnaireFetchIsDropped(t *testing.T) {
	gw := newFakeGateway()
	gw.questionnaires["d1"] = sampleQuestionnaire("d1")
	hold := make(chan struct{})
	gw.hold["GetQuestionnaireByDomain"] = hold
	q := NewQuestions(gw)

	errc := make(chan error, 1)
	go func() {
		_, err := q.GetQuestionnaireByDomain(context.Background(), "d1")
		errc <- err
	}()
	require.Eventually(t, func() bool { return gw.called("GetQuestionnaireByDomain") == 1 }, timeout, tick)

	// A second fetch for the same domain starts and finishes first.
	gw.mu.Lock()
	delete(gw.hold, "GetQuestionnaireByDomain")
	newer := sampleQuestionnaire("d1")
	newer.ID = "q-d1-v2"
	gw.questionnaires["d1"] = newer
	gw.mu.Unlock()
	_, err := q.GetQuestionnaireByDomain(context.Background(), "d1")
	require.NoError(t, err)
	assert.True(t, q.State().Loading, "older fetch still in flight")

	close(hold)
	assert.ErrorIs(t, <-errc, ErrStaleResult)

	st := q.State()
	assert.Equal(t, "q-d1-v2", st.Questionnaires["d1"].ID)
	assert.False(t, st.Loading)
	assert.Equal(t, StatusSucceeded, st.Status.State)
}

type updateSpy struct {
	*fakeGateway
	sent *models.ResponseUpdate
}

func (s *updateSpy) UpdateResponse(ctx context.Context, id string, update models.ResponseUpdate) (*models.Response, error) {
	*s.sent = update
	return s.fakeGateway.UpdateResponse(ctx, id, update)
}

func TestGetQuestionnaireNotFoundIsNotAFailure(t *testing.T) {
	q := NewQuestions(newFakeGateway())

	_, err := q.GetQuestionnaireByDomain(context.Background(), "d7")
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))

	st := q.State()
	assert.NotContains(t, st.Questionnaires, "d7")
	assert.Equal(t, StatusSucceeded, st.Status.State)
	assert.Empty(t, st.Error)
}
