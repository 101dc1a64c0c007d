package mailer

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/semaphore"

	"waitlist-api/pkg/utils"
)

// Dispatcher runs welcome emails on a fixed number of workers and downgrades
// every failure to a false result
type Dispatcher struct {
	client Client
	sem    *semaphore.Weighted
}

// NewDispatcher creates a dispatcher allowing at most workers concurrent sends
func NewDispatcher(client Client, workers int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		client: client,
		sem:    semaphore.NewWeighted(int64(workers)),
	}
}

type sendResult struct {
	sent bool
	err  error
}

// Send blocks until the email has been handed to the relay, sending failed,
// or ctx is done. It never returns an error; the outcome is the bool
func (d *Dispatcher) Send(ctx context.Context, to, name string) bool {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		log.Printf("Email worker unavailable for %s: %v", utils.HashEmail(to), err)
		return false
	}

	done := make(chan sendResult, 1)
	go func() {
		defer d.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- sendResult{err: fmt.Errorf("panic while sending email: %v", r)}
			}
		}()

		sent, err := d.client.SendWelcome(ctx, to, name)
		done <- sendResult{sent: sent, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			log.Printf("Failed to send email to %s: %v", utils.HashEmail(to), res.err)
			return false
		}
		return res.sent
	case <-ctx.Done():
		log.Printf("Gave up waiting for email to %s: %v", utils.HashEmail(to), ctx.Err())
		return false
	}
}
