package mailer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wneessen/go-mail"

	"waitlist-api/pkg/utils"
)

// Client defines the interface for sending waitlist emails
type Client interface {
	// SendWelcome reports false with a nil error when sending was skipped
	SendWelcome(ctx context.Context, to, name string) (bool, error)
}

// Options holds the SMTP relay settings
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

type clientImpl struct {
	opts Options
}

// NewClient creates a new SMTP client
func NewClient(opts Options) Client {
	if opts.From == "" {
		opts.From = opts.Username
	}
	return &clientImpl{opts: opts}
}

func (c *clientImpl) SendWelcome(ctx context.Context, to, name string) (bool, error) {
	if c.opts.Username == "" || c.opts.Password == "" {
		log.Printf("Email credentials not configured, skipping email send")
		return false, nil
	}

	tmpl, err := WelcomeEmail(name)
	if err != nil {
		return false, err
	}

	msg, err := buildMessage(c.opts.FromName, c.opts.From, to, tmpl)
	if err != nil {
		return false, err
	}

	clientOpts := []mail.Option{
		mail.WithPort(c.opts.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(c.opts.Username),
		mail.WithPassword(c.opts.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if c.opts.Timeout > 0 {
		clientOpts = append(clientOpts, mail.WithTimeout(c.opts.Timeout))
	}

	client, err := mail.NewClient(c.opts.Host, clientOpts...)
	if err != nil {
		return false, fmt.Errorf("error creating SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return false, fmt.Errorf("error sending email: %w", err)
	}

	log.Printf("Thank you email sent successfully to %s", utils.HashEmail(to))
	return true, nil
}

// buildMessage assembles a multipart/alternative message with text and HTML parts
func buildMessage(fromName, from, to string, tmpl Template) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(fromName, from); err != nil {
		return nil, fmt.Errorf("error setting sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("error setting recipient: %w", err)
	}
	msg.Subject(tmpl.Subject)
	msg.SetBodyString(mail.TypeTextPlain, tmpl.Text)
	msg.AddAlternativeString(mail.TypeTextHTML, tmpl.HTML)
	return msg, nil
}
