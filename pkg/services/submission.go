package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"waitlist-api/pkg/models"
	"waitlist-api/pkg/storage"
	"waitlist-api/pkg/utils"
)

const (
	StatusSuccess = "success"
	StatusInfo    = "info"
)

// ErrSubmissionNotFound is returned when no submission has the requested id
var ErrSubmissionNotFound = errors.New("submission not found")

// WelcomeSender sends the welcome email and reports whether it went out
type WelcomeSender interface {
	Send(ctx context.Context, to, name string) bool
}

// SubmissionService defines the interface for handling waitlist submissions
type SubmissionService interface {
	Submit(ctx context.Context, req models.SubmissionRequest) (models.SubmitResult, error)
	List(ctx context.Context) ([]models.Submission, error)
	Delete(ctx context.Context, id int) (models.Submission, error)
}

type submissionServiceImpl struct {
	store  storage.Store
	sender WelcomeSender
	now    func() time.Time

	// mu serializes load-modify-save cycles within this process
	mu sync.Mutex
}

// Option customizes a SubmissionService
type Option func(*submissionServiceImpl)

// WithClock overrides the time source used for submission timestamps
func WithClock(now func() time.Time) Option {
	return func(s *submissionServiceImpl) { s.now = now }
}

// NewSubmissionService creates a new submission service. sender may be nil,
// in which case no welcome emails are sent
func NewSubmissionService(store storage.Store, sender WelcomeSender, opts ...Option) SubmissionService {
	s := &submissionServiceImpl{
		store:  store,
		sender: sender,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit handles the entire signup workflow
func (s *submissionServiceImpl) Submit(ctx context.Context, req models.SubmissionRequest) (models.SubmitResult, error) {
	emailHash := utils.HashEmail(req.Email)
	name := req.DisplayName()

	log.Printf("Received submission from %s (name given: %v)", emailHash, name != "")

	added, err := s.register(ctx, req)
	if err != nil {
		return models.SubmitResult{}, err
	}
	if !added {
		log.Printf("Duplicate email submission attempted: %s", emailHash)
		return models.SubmitResult{
			Status:  StatusInfo,
			Message: "You're already on our waitlist! We'll be in touch soon.",
		}, nil
	}

	// The registration is already saved; a failed or abandoned email only changes the message
	emailSent := false
	if s.sender != nil {
		emailSent = s.sender.Send(context.WithoutCancel(ctx), req.Email, name)
	}

	log.Printf("Successfully added submission for %s (email sent: %v)", emailHash, emailSent)

	return models.SubmitResult{
		Status:    StatusSuccess,
		Message:   successMessage(name, emailSent),
		EmailSent: &emailSent,
	}, nil
}

// register stores a new record unless the email is already registered
func (s *submissionServiceImpl) register(ctx context.Context, req models.SubmissionRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	submissions, err := s.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("error loading submissions: %w", err)
	}

	email := utils.NormalizeEmail(req.Email)
	for _, existing := range submissions {
		if utils.NormalizeEmail(existing.Email) == email {
			return false, nil
		}
	}

	submissions = append(submissions, models.NewSubmission(len(submissions)+1, req, s.now()))
	if err := s.store.Save(ctx, submissions); err != nil {
		return false, fmt.Errorf("error saving submission: %w", err)
	}

	return true, nil
}

// List returns every stored submission in order
func (s *submissionServiceImpl) List(ctx context.Context) ([]models.Submission, error) {
	submissions, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading submissions: %w", err)
	}
	return submissions, nil
}

// Delete removes the submission with the given id and renumbers the rest to
// 1..N. The returned record carries its id from before the delete
func (s *submissionServiceImpl) Delete(ctx context.Context, id int) (models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	submissions, err := s.store.Load(ctx)
	if err != nil {
		return models.Submission{}, fmt.Errorf("error loading submissions: %w", err)
	}

	index := -1
	for i, sub := range submissions {
		if sub.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return models.Submission{}, fmt.Errorf("%w: id %d", ErrSubmissionNotFound, id)
	}

	deleted := submissions[index]
	remaining := append(submissions[:index:index], submissions[index+1:]...)
	for i := range remaining {
		remaining[i].ID = i + 1
	}

	if err := s.store.Save(ctx, remaining); err != nil {
		return models.Submission{}, fmt.Errorf("error saving submissions: %w", err)
	}

	log.Printf("Successfully deleted submission with ID %d", id)
	return deleted, nil
}

func successMessage(name string, emailSent bool) string {
	msg := "Thank you for joining our waitlist! Check your email for a welcome message."
	if name != "" {
		msg = fmt.Sprintf("Thank you, %s, for joining our waitlist! Check your email for a welcome message.", name)
	}
	if !emailSent {
		msg += " (Note: Welcome email could not be sent, but you're successfully registered!)"
	}
	return msg
}
