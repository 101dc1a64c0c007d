package storage

import (
	"context"
	"time"

	"waitlist-api/pkg/models"
)

// Store persists the whole submission list as one unit.
//
// Load returns the records in storage order and never returns a nil slice.
// Save replaces everything previously stored
type Store interface {
	Load(ctx context.Context) ([]models.Submission, error)
	Save(ctx context.Context, submissions []models.Submission) error
}

// ExampleSubmissions returns the records written to a fresh store when seeding is enabled
func ExampleSubmissions(now time.Time) []models.Submission {
	return []models.Submission{
		{ID: 1, Email: "john.doe@example.com", Name: "John Doe", Timestamp: now},
		{ID: 2, Email: "jane.smith@example.com", Name: "Jane Smith", Timestamp: now},
	}
}

func cloneSubmissions(in []models.Submission) []models.Submission {
	out := make([]models.Submission, len(in))
	for i, s := range in {
		if s.Challenges != nil {
			s.Challenges = append([]string(nil), s.Challenges...)
		}
		out[i] = s
	}
	return out
}
