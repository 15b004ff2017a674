package fakeapi_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/recruit-portal/internal/catalog"
	"github.com/terra-clan/recruit-portal/internal/fakeapi"
	"github.com/terra-clan/recruit-portal/internal/models"
	"github.com/terra-clan/recruit-portal/internal/persist"
	"github.com/terra-clan/recruit-portal/internal/store"
	"github.com/terra-clan/recruit-portal/pkg/client"
)

const apiKey = "e2e-key-0123456789"

func newPortal(t *testing.T, opts ...store.Option) (*store.Store, *client.Client) {
	t.Helper()

	loader := catalog.NewLoader()
	dir := filepath.Join("..", "..", "fixtures")
	require.NoError(t, loader.LoadFromDir(dir))

	srv := httptest.NewServer(fakeapi.NewServer(loader, fakeapi.WithAPIKey(apiKey)).Router())
	t.Cleanup(srv.Close)

	c := client.NewClient(srv.URL, apiKey)
	st := store.New(c, opts...)
	c.SetTokenSource(st.Auth)
	return st, c
}

func TestApplicantJourney(t *testing.T) {
	ctx := context.Background()
	st, _ := newPortal(t, store.WithStrictSerializability(func(err error) {
		t.Errorf("state not serializable: %v", err)
	}))

	user, err := st.Login(ctx, "asha@example.com", models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.False(t, st.Auth.State().ProfileComplete)

	_, err = st.Auth.UpdateProfile(ctx, models.ProfileUpdate{
		Name:       models.StringPtr("Asha"),
		RegNo:      models.StringPtr("21BCE0001"),
		Branch:     models.StringPtr("CSE"),
		GithubLink: models.StringPtr("https://github.com/asha"),
	})
	require.NoError(t, err)
	assert.True(t, st.Auth.State().ProfileComplete)

	domains, err := st.Domains.FetchDomains(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 4)

	web, _ := st.Domains.Lookup("web")
	ml, _ := st.Domains.Lookup("ml")
	require.True(t, st.Domains.ToggleDraftDomain(web))
	require.True(t, st.Domains.ToggleDraftDomain(ml))
	assert.True(t, st.Domains.HasChanges())

	_, err = st.ApplyDraft(ctx, func(string) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, []string{"web", "ml"}, st.Auth.SelectedDomainIDs())
	assert.False(t, st.Domains.HasChanges())

	require.NoError(t, st.LoadProgress(ctx))

	q := st.Questions.Questionnaire("web")
	require.NotNil(t, q)
	assert.Equal(t, models.Ref("web"), q.DomainID, "populated domain reference is normalized")
	assert.Nil(t, st.Questions.Questionnaire("ml"))

	mlTasks, loaded := st.Tasks.TasksFor("ml")
	assert.True(t, loaded)
	assert.Empty(t, mlTasks)

	sheet := store.NewAnswerSheet()
	sheet.SetChoice("web-m1", 1)
	_, err = st.Questions.SaveAnswers(ctx, q, sheet)
	require.Error(t, err)
	assert.True(t, store.IsValidation(err))

	sheet.SetChoice("web-m2", 0)
	sheet.SetText("web-t1", "  the club site  ")
	sheet.SetText("web-t2", "cache it")
	resp, err := st.Questions.SaveAnswers(ctx, q, sheet)
	require.NoError(t, err)
	assert.Equal(t, models.Ref(q.ID), resp.QuestionnaireID)
	require.Len(t, resp.TextAnswers, 2)
	assert.Equal(t, "the club site", resp.TextAnswers[0].AnswerText)

	sheet.SetText("web-t2", "cache it and lazy-load images")
	updated, err := st.Questions.SaveAnswers(ctx, q, sheet)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, updated.ID)

	webTasks, _ := st.Tasks.TasksFor("web")
	require.NotEmpty(t, webTasks)
	sub, err := st.Tasks.SaveSubmission(ctx, webTasks[0].ID, store.Links{
		Repo: "https://github.com/asha/landing",
		Dock: "https://landing.example/docs",
	})
	require.NoError(t, err)
	assert.Equal(t, models.Ref(webTasks[0].ID), sub.TaskID)
	assert.NotNil(t, st.Tasks.Submission(webTasks[0].ID))

	interviews, err := st.Interviews(ctx)
	require.NoError(t, err)
	assert.Empty(t, interviews)
}

func TestSessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	mem := persist.NewMemoryStore()

	st, _ := newPortal(t, store.WithPersister(mem, "root"))
	_, err := st.Login(ctx, "ravi@example.com", models.RoleUser)
	require.NoError(t, err)
	_, err = st.Domains.FetchDomains(ctx)
	require.NoError(t, err)
	require.NoError(t, st.Persist(ctx))

	again, _ := newPortal(t, store.WithPersister(mem, "root"))
	ok, err := again.Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, st.Snapshot(), again.Snapshot())

	require.NoError(t, again.Logout(ctx))
	_, err = mem.Load(ctx, "root")
	assert.ErrorIs(t, err, persist.ErrNotFound)
}

func TestAdminGatewayAgainstServer(t *testing.T) {
	ctx := context.Background()
	st, c := newPortal(t)

	_, err := st.Login(ctx, "asha@example.com", models.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, "email is not whitelisted for admin access", client.ErrorMessage(err))

	_, err = st.Login(ctx, "lead@recruit.example", models.RoleAdmin)
	require.NoError(t, err)

	d, err := c.AdminCreateDomain(ctx, client.DomainRequest{Name: "Cloud", Color: "#000000"})
	require.NoError(t, err)
	got, err := c.AdminGetDomain(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cloud", got.Name)

	entry, err := c.AdminAddWhitelist(ctx, "new@recruit.example")
	require.NoError(t, err)
	require.NoError(t, c.AdminRemoveWhitelist(ctx, entry.ID))

	qs, err := c.AdminListQuestionnaires(ctx)
	require.NoError(t, err)
	assert.Len(t, qs, 3)

	require.NoError(t, c.AdminDeleteDomain(ctx, d.ID))
	_, err = c.AdminGetDomain(ctx, d.ID)
	assert.True(t, client.IsNotFound(err))
}
