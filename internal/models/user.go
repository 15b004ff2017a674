package models

// Role is the session role granted at login
type Role string

const (
	RoleNone  Role = ""
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// IsValid reports whether r is a role the backend can grant
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an applicant (or admin) profile as returned by the backend
type User struct {
	ID                string  `json:"_id"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	RegNo             string  `json:"regNo"`
	Branch            string  `json:"branch"`
	GithubLink        string  `json:"githubLink"`
	LeetcodeLink      string  `json:"leetcodeLink"`
	PortfolioLink     string  `json:"portfolioLink"`
	SelectedDomainIDs RefList `json:"selectedDomainIds"`
}

// Clone returns a deep copy
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.SelectedDomainIDs = append(RefList(nil), u.SelectedDomainIDs...)
	return &c
}

// ProfileUpdate is a partial profile update; nil fields are left untouched
type ProfileUpdate struct {
	Name              *string  `json:"name,omitempty"`
	RegNo             *string  `json:"regNo,omitempty"`
	Branch            *string  `json:"branch,omitempty"`
	GithubLink        *string  `json:"githubLink,omitempty"`
	LeetcodeLink      *string  `json:"leetcodeLink,omitempty"`
	PortfolioLink     *string  `json:"portfolioLink,omitempty"`
	SelectedDomainIDs []string `json:"selectedDomainIds,omitempty"`
}

// ApplyTo returns a copy of u with the non-nil fields of p applied
func (p ProfileUpdate) ApplyTo(u User) User {
	out := *u.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.RegNo != nil {
		out.RegNo = *p.RegNo
	}
	if p.Branch != nil {
		out.Branch = *p.Branch
	}
	if p.GithubLink != nil {
		out.GithubLink = *p.GithubLink
	}
	if p.LeetcodeLink != nil {
		out.LeetcodeLink = *p.LeetcodeLink
	}
	if p.PortfolioLink != nil {
		out.PortfolioLink = *p.PortfolioLink
	}
	if p.SelectedDomainIDs != nil {
		out.SelectedDomainIDs = RefsOf(p.SelectedDomainIDs)
	}
	return out
}

// StringPtr is a helper for building ProfileUpdate values
func StringPtr(s string) *string {
	return &s
}
