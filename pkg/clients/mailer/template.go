package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
)

const welcomeSubject = "Welcome to the Lemur Waitlist! 🎉"

// welcomeBody is the static part of the welcome email, shared by the HTML and
// plain-text renderings
const welcomeBody = `We're thrilled to have you on board! You're now part of an exclusive group of early adopters who will be the first to experience Lemur when we launch.

### What happens next?

- We'll keep you updated on our progress
- You'll get early access when we launch
- Exclusive updates and behind-the-scenes content
- Priority support and feedback opportunities
`

const welcomeFooter = `You received this email because you signed up for the Lemur waitlist.
If you have any questions, feel free to reply to this email.`

var welcomeLayout = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Welcome to Lemur Waitlist</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 30px; border-radius: 10px; text-align: center; margin-bottom: 30px;">
        <h1 style="color: white; margin: 0; font-size: 28px;">Welcome to Lemur! 🚀</h1>
    </div>
    <div style="background: #f8f9fa; padding: 25px; border-radius: 8px; margin-bottom: 25px;">
        <p style="font-size: 18px; margin-bottom: 15px;">{{.Greeting}}</p>
        <p style="font-size: 16px; margin-bottom: 20px;">{{.Message}}</p>
        {{.Body}}
    </div>
    <div style="text-align: center; padding: 20px; background: #f1f3f4; border-radius: 8px;">
        <p style="margin: 0; color: #666; font-size: 14px;">
            Thank you for your patience and support!<br>
            <strong>The Lemur Team</strong>
        </p>
    </div>
    <div style="text-align: center; margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee;">
        <p style="color: #999; font-size: 12px; margin: 0;">{{.Footer}}</p>
    </div>
</body>
</html>
`))

// Template is a rendered email ready to be sent
type Template struct {
	Subject string
	HTML    string
	Text    string
}

// Greeting returns the salutation and thank-you line for name, which may be empty
func Greeting(name string) (greeting, message string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Hi there,", "Thank you for joining our waitlist!"
	}
	return fmt.Sprintf("Hi %s,", name), fmt.Sprintf("Thank you, %s, for joining our waitlist!", name)
}

// WelcomeEmail renders the welcome email personalized for name
func WelcomeEmail(name string) (Template, error) {
	greeting, message := Greeting(name)

	var body bytes.Buffer
	if err := goldmark.Convert([]byte(welcomeBody), &body); err != nil {
		return Template{}, fmt.Errorf("error rendering email body: %w", err)
	}

	var html bytes.Buffer
	err := welcomeLayout.Execute(&html, struct {
		Greeting string
		Message  string
		Body     template.HTML
		Footer   string
	}{
		Greeting: greeting,
		Message:  message,
		Body:     template.HTML(body.String()),
		Footer:   welcomeFooter,
	})
	if err != nil {
		return Template{}, fmt.Errorf("error rendering email layout: %w", err)
	}

	return Template{
		Subject: welcomeSubject,
		HTML:    html.String(),
		Text:    plainText(greeting, message),
	}, nil
}

func plainText(greeting, message string) string {
	var b strings.Builder
	b.WriteString(greeting + "\n\n")
	b.WriteString(message + "\n\n")
	for _, line := range strings.Split(welcomeBody, "\n") {
		switch {
		case strings.HasPrefix(line, "### "):
			line = strings.TrimPrefix(line, "### ")
		case strings.HasPrefix(line, "- "):
			line = "• " + strings.TrimPrefix(line, "- ")
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("Thank you for your patience and support!\nThe Lemur Team\n\n---\n")
	b.WriteString(welcomeFooter + "\n")
	return b.String()
}
