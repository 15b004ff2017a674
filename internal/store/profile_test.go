package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/recruit-portal/internal/models"
)

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, "standard", p.Name)

	p, err = PolicyByName(" Extended ")
	require.NoError(t, err)
	assert.Equal(t, "extended", p.Name)

	_, err = PolicyByName("strict")
	assert.Error(t, err)
}

func TestProfileValidate(t *testing.T) {
	complete := models.User{
		Name:       "Asha",
		Email:      "asha@example.edu",
		RegNo:      "21BCE1001",
		Branch:     "CSE",
		GithubLink: "https://github.com/asha",
	}

	tests := []struct {
		name   string
		mutate func(*models.User)
		fields []string
	}{
		{"complete", func(*models.User) {}, nil},
		{"trailing slash", func(u *models.User) { u.GithubLink = "http://www.github.com/asha_r-1/" }, nil},
		{"missing branch", func(u *models.User) { u.Branch = " " }, []string{"Branch"}},
		{"missing email", func(u *models.User) { u.Email = "" }, []string{"Email"}},
		{"repo link not a profile", func(u *models.User) { u.GithubLink = "https://github.com/asha/repo" }, []string{"Valid GitHub URL"}},
		{"wrong host", func(u *models.User) { u.GithubLink = "https://gitlab.com/asha" }, []string{"Valid GitHub URL"}},
		{"several", func(u *models.User) { u.Name = ""; u.RegNo = "" }, []string{"Full Name", "Registration No"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := complete
			tt.mutate(&u)
			err := StandardProfile.Validate(u)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.fields, verr.Fields)
		})
	}
}

func TestExtendedProfileChecksLeetcodeLink(t *testing.T) {
	u := models.User{
		Name:         "Asha",
		Email:        "asha@example.edu",
		RegNo:        "21BCE1001",
		Branch:       "CSE",
		GithubLink:   "https://github.com/asha",
		LeetcodeLink: "https://leetcode.com/u/asha/",
	}
	require.NoError(t, ExtendedProfile.Validate(u))

	u.LeetcodeLink = "https://github.com/asha"
	var verr *ValidationError
	require.ErrorAs(t, ExtendedProfile.Validate(u), &verr)
	assert.Equal(t, []string{"Valid LeetCode URL"}, verr.Fields)

	u.LeetcodeLink = ""
	require.ErrorAs(t, ExtendedProfile.Validate(u), &verr)
	assert.Equal(t, []string{"LeetCode Profile"}, verr.Fields)
	assert.NoError(t, StandardProfile.Validate(u), "standard policy ignores the second link")
}
