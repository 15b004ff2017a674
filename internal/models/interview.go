package models

import "time"

// Interview is a scheduled interview slot for an applicant in a domain
type Interview struct {
	ID              string    `json:"_id"`
	UserID          Ref       `json:"userId"`
	DomainID        Ref       `json:"domainId"`
	Datetime        time.Time `json:"datetime"`
	DurationMinutes int       `json:"durationMinutes"`
	MeetLink        string    `json:"meetLink"`
}

// InterviewInput schedules or reschedules an interview
type InterviewInput struct {
	UserID          string    `json:"userId,omitempty"`
	DomainID        string    `json:"domainId,omitempty"`
	Datetime        time.Time `json:"datetime"`
	DurationMinutes int       `json:"durationMinutes"`
	MeetLink        string    `json:"meetLink"`
}

// WhitelistEntry is an email allowed to sign in as admin
type WhitelistEntry struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}
