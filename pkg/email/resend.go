package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/resendlabs/resend-go"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Mailer sends the transactional emails triggered by webhooks.
type Mailer interface {
	SendWelcomeEmail(email, fullName string) error
	SendPaymentSuccessEmail(email, fullName, planName string) error
	SendPaymentFailedEmail(email, fullName string) error
}

type EmailService struct {
	client      *resend.Client
	from        string
	fromName    string
	frontendURL string
	templates   *template.Template
	logger      *zap.Logger
}

func NewEmailService(apiKey, from, fromName, frontendURL string, logger *zap.Logger) (*EmailService, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &EmailService{
		client:      resend.NewClient(apiKey),
		from:        from,
		fromName:    fromName,
		frontendURL: frontendURL,
		templates:   tmpl,
		logger:      logger.Named("email"),
	}, nil
}

func (s *EmailService) SendWelcomeEmail(email, fullName string) error {
	data := map[string]interface{}{
		"FullName":     displayName(fullName),
		"DashboardURL": s.frontendURL + "/dashboard",
		"Year":         time.Now().Year(),
	}
	return s.send(email, "Welcome to Narra!", "welcome.html", data)
}

func (s *EmailService) SendPaymentSuccessEmail(email, fullName, planName string) error {
	data := map[string]interface{}{
		"FullName":     displayName(fullName),
		"PlanName":     planName,
		"DashboardURL": s.frontendURL + "/dashboard",
		"Year":         time.Now().Year(),
	}
	return s.send(email, "Your Narra subscription is active", "payment-success.html", data)
}

func (s *EmailService) SendPaymentFailedEmail(email, fullName string) error {
	data := map[string]interface{}{
		"FullName":   displayName(fullName),
		"BillingURL": s.frontendURL + "/settings/billing",
		"Year":       time.Now().Year(),
	}
	return s.send(email, "Payment failed - update your billing details", "payment-failed.html", data)
}

func (s *EmailService) send(to, subject, templateName string, data interface{}) error {
	log := s.logger.With(zap.String("to", to), zap.String("template", templateName))

	html, err := s.render(templateName, data)
	if err != nil {
		log.Error("failed to render email template", zap.Error(err))
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.fromName + " <" + s.from + ">",
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	resp, err := s.client.Emails.Send(params)
	if err != nil {
		log.Error("failed to send email", zap.Error(err))
		return err
	}

	log.Info("email sent", zap.String("id", resp.Id))
	return nil
}

func (s *EmailService) render(templateName string, data interface{}) (string, error) {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

func displayName(fullName string) string {
	if fullName == "" {
		return "there"
	}
	return fullName
}
