package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

// Message is a rendered email ready for a Sender.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a single message. Implementations must honour ctx.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

const verificationSubject = "Verify Your Email - Lost & Found"

var verificationHTML = template.Must(template.New("verification").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Verify Your Email Address</h2>
  <p>Dear <strong>{{.Username}}</strong>,</p>
  <p>Thank you for signing up! To complete your registration, please verify your email by clicking the button below:</p>
  <div style="text-align: center; margin: 30px 0;">
    <a href="{{.Link}}" style="display: inline-block; background-color: #007bff; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; font-weight: bold;">Verify Email Address</a>
  </div>
  <p style="color: #666; font-size: 14px;">Or copy and paste this link in your browser:<br>
    <code style="background: #f0f0f0; padding: 5px; word-break: break-all;">{{.Link}}</code>
  </p>
  <p style="color: #666; font-size: 12px; margin-top: 30px;">If you didn't create this account, you can ignore this email.</p>
  <hr style="margin: 30px 0;">
  <p style="color: #666; font-size: 12px;">This is an automated email. Please do not reply to this message.</p>
</div>`))

// VerificationLink builds <baseURL>/verify-email?token=<token>.
func VerificationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/verify-email?token=" + url.QueryEscape(token)
}

// VerificationMessage renders the verification email for one recipient.
func VerificationMessage(email, username, token, baseURL string) (Message, error) {
	link := VerificationLink(baseURL, token)

	var body bytes.Buffer
	err := verificationHTML.Execute(&body, struct {
		Username string
		Link     string
	}{Username: username, Link: link})
	if err != nil {
		return Message{}, fmt.Errorf("render verification email: %w", err)
	}

	return Message{
		To:      email,
		Subject: verificationSubject,
		HTML:    body.String(),
		Text: fmt.Sprintf("Dear %s,\n\nPlease verify your email by opening this link:\n%s\n\n"+
			"If you didn't create this account, you can ignore this email.\n", username, link),
	}, nil
}
