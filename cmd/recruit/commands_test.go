package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/recruit-portal/internal/catalog"
	"github.com/terra-clan/recruit-portal/internal/fakeapi"
	"github.com/terra-clan/recruit-portal/internal/store"
	"github.com/terra-clan/recruit-portal/pkg/client"
)

func newCLI(t *testing.T, stdin string) (*commands, *bytes.Buffer) {
	t.Helper()

	loader := catalog.NewLoader()
	require.NoError(t, loader.LoadFromDir(filepath.Join("..", "..", "fixtures")))
	srv := httptest.NewServer(fakeapi.NewServer(loader).Router())
	t.Cleanup(srv.Close)

	c := client.NewClient(srv.URL, "")
	st := store.New(c)
	c.SetTokenSource(st.Auth)

	var out bytes.Buffer
	return &commands{store: st, out: &out, in: strings.NewReader(stdin)}, &out
}

func TestCLIJourney(t *testing.T) {
	ctx := context.Background()
	cli, out := newCLI(t, "y\n")

	require.NoError(t, cli.dispatch(ctx, "login", []string{"asha@example.com"}))
	assert.Contains(t, out.String(), "Your profile is incomplete")

	err := cli.dispatch(ctx, "profile", []string{"-name", "Asha", "-github", "not-a-url"})
	require.Error(t, err)
	assert.True(t, store.IsValidation(err))

	require.NoError(t, cli.dispatch(ctx, "profile", []string{
		"-name", "Asha", "-regno", "21BCE0001", "-branch", "CSE", "-github", "https://github.com/asha",
	}))

	require.NoError(t, cli.dispatch(ctx, "toggle", []string{"web"}))
	require.NoError(t, cli.dispatch(ctx, "toggle", []string{"app"}))
	assert.Error(t, cli.dispatch(ctx, "toggle", []string{"ml"}), "third domain exceeds the cap")

	out.Reset()
	require.NoError(t, cli.dispatch(ctx, "apply", nil))
	assert.Contains(t, out.String(), "[y/N]")
	assert.Contains(t, out.String(), "Domains applied: Web Development, App Development")

	require.NoError(t, cli.dispatch(ctx, "answer", []string{"app", "-mcq", "app-m1=1", "-text", "app-t1=Maps, offline mode"}))
	require.NoError(t, cli.dispatch(ctx, "submit", []string{"app", "app-todo", "-repo", "https://github.com/asha/todo", "-dock", "https://todo.example"}))

	out.Reset()
	require.NoError(t, cli.dispatch(ctx, "progress", nil))
	assert.Contains(t, out.String(), "questionnaire: answered")
	assert.Contains(t, out.String(), "tasks: 1 of 1 submitted")

	out.Reset()
	require.NoError(t, cli.dispatch(ctx, "logout", nil))
	assert.False(t, cli.store.Auth.State().IsAuthenticated)
}

func TestCLIApplyDeclined(t *testing.T) {
	ctx := context.Background()
	cli, out := newCLI(t, "n\n")

	require.NoError(t, cli.dispatch(ctx, "login", []string{"ravi@example.com"}))
	require.NoError(t, cli.dispatch(ctx, "toggle", []string{"web"}))
	require.NoError(t, cli.dispatch(ctx, "toggle", []string{"design"}))

	require.NoError(t, cli.dispatch(ctx, "apply", nil))
	assert.Contains(t, out.String(), "Nothing changed.")
	assert.Empty(t, cli.store.Auth.SelectedDomainIDs())
	assert.True(t, cli.store.Domains.HasChanges(), "draft survives a declined apply")
}

func TestCLIRequiresSession(t *testing.T) {
	cli, _ := newCLI(t, "")

	err := cli.dispatch(context.Background(), "domains", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")

	assert.Error(t, cli.dispatch(context.Background(), "bogus", nil))
}

func TestPairsFlag(t *testing.T) {
	p := pairs{}
	require.NoError(t, p.Set("m1=2"))
	require.NoError(t, p.Set("t1=a=b"))
	assert.Equal(t, "2", p["m1"])
	assert.Equal(t, "a=b", p["t1"])
	assert.Error(t, p.Set("novalue"))
}
