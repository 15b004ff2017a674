package store

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/recruit-portal/internal/models"
)

func TestLoginSuccessDerivesCompleteness(t *testing.T) {
	gw := newFakeGateway()
	a := NewAuth(gw)

	user := gw.user
	user.Branch = "   "
	a.LoginSuccess(user, "tok", models.RoleUser)

	st := a.State()
	assert.True(t, st.IsAuthenticated)
	assert.Equal(t, models.RoleUser, st.Role)
	assert.Equal(t, "tok", st.Token)
	assert.False(t, st.ProfileComplete, "blank branch must make the profile incomplete")

	a.LoginSuccess(gw.user, "tok", models.RoleUser)
	assert.True(t, a.State().ProfileComplete)
}

func TestLoginSuccessExtendedPolicy(t *testing.T) {
	gw := newFakeGateway()
	a := NewAuth(gw, WithProfilePolicy(ExtendedProfile))

	a.LoginSuccess(gw.user, "tok", models.RoleUser)
	assert.False(t, a.State().ProfileComplete)
	assert.Equal(t, []string{"LeetCode Profile"}, ExtendedProfile.Missing(gw.user))

	withLeetcode := gw.user
	withLeetcode.LeetcodeLink = "https://leetcode.com/u/asha"
	a.LoginSuccess(withLeetcode, "tok", models.RoleUser)
	assert.True(t, a.State().ProfileComplete)
}

func TestUpdateProfileMarksComplete(t *testing.T) {
	gw := newFakeGateway()
	gw.user.Branch = ""
	a := NewAuth(gw)
	a.LoginSuccess(gw.user, "tok", models.RoleUser)
	require.False(t, a.State().ProfileComplete)

	user, err := a.UpdateProfile(context.Background(), models.ProfileUpdate{Branch: models.StringPtr("ECE")})
	require.NoError(t, err)
	assert.Equal(t, "ECE", user.Branch)

	st := a.State()
	assert.True(t, st.ProfileComplete)
	assert.Equal(t, StatusSucceeded, st.Status.State)
	assert.Equal(t, "ECE", st.User.Branch)
}

func TestUpdateProfileCompletesRegardlessOfFields(t *testing.T) {
	gw := newFakeGateway()
	gw.user.Branch = ""
	a := NewAuth(gw)
	a.LoginSuccess(gw.user, "tok", models.RoleUser)

	// Only the name is sent and branch stays blank server-side.
	_, err := a.UpdateProfile(context.Background(), models.ProfileUpdate{Name: models.StringPtr("Asha R")})
	require.NoError(t, err)
	assert.True(t, a.State().ProfileComplete)
}

func TestUpdateProfileRederiveOnSave(t *testing.T) {
	gw := newFakeGateway()
	gw.user.Branch = ""
	a := NewAuth(gw, WithRederiveOnSave())
	a.LoginSuccess(gw.user, "tok", models.RoleUser)

	_, err := a.UpdateProfile(context.Background(), models.ProfileUpdate{Name: models.StringPtr("Asha R")})
	require.NoError(t, err)
	assert.False(t, a.State().ProfileComplete)

	_, err = a.UpdateProfile(context.Background(), models.ProfileUpdate{Branch: models.StringPtr("IT")})
	require.NoError(t, err)
	assert.True(t, a.State().ProfileComplete)
}

func TestUpdateProfileFailureKeepsUser(t *testing.T) {
	gw := newFakeGateway()
	a := NewAuth(gw)
	a.LoginSuccess(gw.user, "tok", models.RoleUser)
	before := a.State()

	gw.fail["UpdateProfile"] = errBackendDown
	_, err := a.UpdateProfile(context.Background(), models.ProfileUpdate{Name: models.StringPtr("X")})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBackendDown)

	after := a.State()
	assert.Equal(t, before.User, after.User)
	assert.Equal(t, before.ProfileComplete, after.ProfileComplete)
	assert.Equal(t, StatusFailed, after.Status.State)
	assert.Equal(t, "backend down", after.Status.Error)
}

func TestUpdateProfileRequiresSession(t *testing.T) {
	a := NewAuth(newFakeGateway())
	_, err := a.UpdateProfile(context.Background(), models.ProfileUpdate{})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestUpdateProfileDiscardedAfterLogout(t *testing.T) {
	gw := newFakeGateway()
	hold := make(chan struct{})
	gw.hold["UpdateProfile"] = hold
	a := NewAuth(gw)
	a.LoginSuccess(gw.user, "tok", models.RoleUser)

	errc := make(chan error, 1)
	go func() {
		_, err := a.UpdateProfile(context.Background(), models.ProfileUpdate{Name: models.StringPtr("late")})
		errc <- err
	}()

	require.Eventually(t, func() bool { return a.State().Status.IsLoading() }, time.Second, 5*time.Millisecond)
	a.Logout()
	close(hold)

	assert.ErrorIs(t, <-errc, ErrStaleResult)
	st := a.State()
	assert.Nil(t, st.User)
	assert.False(t, st.IsAuthenticated)
}

func TestUpdateDomainsMarksComplete(t *testing.T) {
	gw := newFakeGateway()
	gw.user.RegNo = ""
	a := NewAuth(gw)
	a.LoginSuccess(gw.user, "tok", models.RoleUser)

	a.UpdateDomains([]string{"d1", "d3"})
	st := a.State()
	assert.True(t, st.ProfileComplete)
	assert.Equal(t, []string{"d1", "d3"}, a.SelectedDomainIDs())
}

func TestLogoutClearsAuth(t *testing.T) {
	gw := newFakeGateway()
	a := NewAuth(gw)
	a.LoginSuccess(gw.user, "tok", models.RoleAdmin)

	a.Logout()
	assert.Equal(t, AuthState{Status: idle()}, a.State())
	assert.Empty(t, a.Token())
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sign := func(exp time.Time) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name    string
		token   string
		expired bool
	}{
		{"expired", sign(now.Add(-time.Minute)), true},
		{"valid", sign(now.Add(time.Hour)), false},
		{"opaque", "not-a-jwt", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAuth(newFakeGateway())
			a.LoginSuccess(models.User{ID: "u1"}, tt.token, models.RoleUser)
			assert.Equal(t, tt.expired, a.SessionExpired(now))
		})
	}
}
