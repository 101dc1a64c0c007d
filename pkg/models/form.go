package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// timestampLayouts are tried in order when reading stored timestamps; the
// zone-less layout covers files written without an offset, read as local time
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// Represents the data structure coming from the waitlist signup form
type SubmissionRequest struct {
	Email      string   `json:"email" binding:"required,email"`
	Name       string   `json:"name"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Company    string   `json:"company"`
	Role       string   `json:"role"`
	TeamSize   string   `json:"team_size"`
	Challenges []string `json:"challenges" binding:"omitempty,dive,required"`
}

// DisplayName returns the name used to personalize responses and emails.
// The explicit name wins over first/last name
func (r SubmissionRequest) DisplayName() string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
}

// Submission is one stored waitlist signup.
//
// ID is positional: records are always numbered 1..N in storage order and
// renumbered after every delete
type Submission struct {
	ID         int       `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	Company    string    `json:"company,omitempty"`
	Role       string    `json:"role,omitempty"`
	TeamSize   string    `json:"team_size,omitempty"`
	Challenges []string  `json:"challenges,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// UnmarshalJSON accepts timestamps with or without a zone offset
func (s *Submission) UnmarshalJSON(data []byte) error {
	type plain Submission
	aux := struct {
		*plain
		Timestamp string `json:"timestamp"`
	}{plain: (*plain)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	ts, err := ParseTimestamp(aux.Timestamp)
	if err != nil {
		return err
	}
	s.Timestamp = ts
	return nil
}

// ParseTimestamp parses an RFC 3339 or zone-less ISO-8601 timestamp. An empty
// string yields the zero time
func ParseTimestamp(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", v)
}

// NewSubmission builds a record from a validated request
func NewSubmission(id int, req SubmissionRequest, now time.Time) Submission {
	return Submission{
		ID:         id,
		Email:      strings.TrimSpace(req.Email),
		Name:       strings.TrimSpace(req.Name),
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Company:    strings.TrimSpace(req.Company),
		Role:       strings.TrimSpace(req.Role),
		TeamSize:   strings.TrimSpace(req.TeamSize),
		Challenges: req.Challenges,
		Timestamp:  now,
	}
}

// SubmitResult is what the submit workflow reports back to the caller
type SubmitResult struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	EmailSent *bool  `json:"email_sent,omitempty"`
}
