package store

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/terra-clan/recruit-portal/internal/models"
)

// Profile links must point at a user page on one specific host; the
// built-in url tag accepts any host and any path.
var (
	githubProfileRe   = regexp.MustCompile(`^https?://(www\.)?github\.com/[A-Za-z0-9_-]+/?$`)
	leetcodeProfileRe = regexp.MustCompile(`^https?://(www\.)?leetcode\.com/u/[A-Za-z0-9_-]+/?$`)
)

var profileValidate = newProfileValidator()

func newProfileValidator() *validator.Validate {
	v := validator.New()
	for tag, re := range map[string]*regexp.Regexp{
		"github_profile":   githubProfileRe,
		"leetcode_profile": leetcodeProfileRe,
	} {
		re := re
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		}); err != nil {
			panic(err)
		}
	}
	return v
}

// ProfileField is one mandatory profile field
type ProfileField struct {
	Key   string
	Label string
	value func(models.User) string
	rule  string // validator tag applied after required
}

// failedTag returns the first validator tag v fails, or "" when it passes
func (f ProfileField) failedTag(v string) string {
	rules := "required"
	if f.rule != "" {
		rules += "," + f.rule
	}
	var verrs validator.ValidationErrors
	if errors.As(profileValidate.Var(v, rules), &verrs) && len(verrs) > 0 {
		return verrs[0].Tag()
	}
	return ""
}

// ProfilePolicy is the set of fields a profile needs to count as complete
type ProfilePolicy struct {
	Name     string
	Required []ProfileField
}

var (
	fieldName     = ProfileField{Key: "name", Label: "Full Name", value: func(u models.User) string { return u.Name }}
	fieldRegNo    = ProfileField{Key: "regNo", Label: "Registration No", value: func(u models.User) string { return u.RegNo }}
	fieldBranch   = ProfileField{Key: "branch", Label: "Branch", value: func(u models.User) string { return u.Branch }}
	fieldGithub   = ProfileField{Key: "githubLink", Label: "GitHub Profile", value: func(u models.User) string { return u.GithubLink }, rule: "github_profile"}
	fieldLeetcode = ProfileField{Key: "leetcodeLink", Label: "LeetCode Profile", value: func(u models.User) string { return u.LeetcodeLink }, rule: "leetcode_profile"}
)

// StandardProfile requires name, registration number, branch and a repository profile link
var StandardProfile = ProfilePolicy{
	Name:     "standard",
	Required: []ProfileField{fieldName, fieldRegNo, fieldBranch, fieldGithub},
}

// ExtendedProfile additionally requires the competitive-programming profile link
var ExtendedProfile = ProfilePolicy{
	Name:     "extended",
	Required: []ProfileField{fieldName, fieldRegNo, fieldBranch, fieldGithub, fieldLeetcode},
}

// PolicyByName resolves a configured policy name
func PolicyByName(name string) (ProfilePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StandardProfile.Name:
		return StandardProfile, nil
	case ExtendedProfile.Name:
		return ExtendedProfile, nil
	default:
		return ProfilePolicy{}, fmt.Errorf("unknown profile policy: %q", name)
	}
}

// Missing returns the labels of required fields that are absent or blank
func (p ProfilePolicy) Missing(u models.User) []string {
	var missing []string
	for _, f := range p.Required {
		if strings.TrimSpace(f.value(u)) == "" {
			missing = append(missing, f.Label)
		}
	}
	return missing
}

// Complete reports whether every required field is present and non-blank
func (p ProfilePolicy) Complete(u models.User) bool {
	return len(p.Missing(u)) == 0
}

// Validate checks a profile form before it is saved: every required field
// must be filled and link fields must look like profile URLs.
func (p ProfilePolicy) Validate(u models.User) error {
	var fields []string
	seen := make(map[string]bool)
	mark := func(label string) {
		if !seen[label] {
			seen[label] = true
			fields = append(fields, label)
		}
	}

	if strings.TrimSpace(u.Email) == "" {
		mark("Email")
	}
	for _, f := range p.Required {
		switch f.failedTag(strings.TrimSpace(f.value(u))) {
		case "":
		case "required":
			mark(f.Label)
		default:
			mark("Valid " + strings.TrimSuffix(f.Label, " Profile") + " URL")
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Reason: "please fill/fix the mandatory fields", Fields: fields}
	}
	return nil
}
