package models

import "time"

// Task is a practical assignment attached to a domain
type Task struct {
	ID          string     `json:"_id"`
	DomainID    Ref        `json:"domainId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// Submission is one user's artifacts for one task
type Submission struct {
	ID          string     `json:"_id"`
	UserID      Ref        `json:"userId"`
	TaskID      Ref        `json:"taskId"`
	RepoLink    string     `json:"repoLink"`
	DockLink    string     `json:"dockLink"`
	OtherLink   string     `json:"otherLink,omitempty"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

// SubmissionInput creates a submission
type SubmissionInput struct {
	TaskID    string `json:"taskId"`
	RepoLink  string `json:"repoLink"`
	DockLink  string `json:"dockLink"`
	OtherLink string `json:"otherLink,omitempty"`
}

// SubmissionUpdate updates the links of an existing submission
type SubmissionUpdate struct {
	RepoLink  string `json:"repoLink"`
	DockLink  string `json:"dockLink"`
	OtherLink string `json:"otherLink,omitempty"`
}
