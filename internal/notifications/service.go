package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/azure/review-analyzer/internal/config"
	"github.com/azure/review-analyzer/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendReport sends a sentiment report via configured notification channels
func (s *Service) SendReport(report *models.Report) error {
	subject := fmt.Sprintf("Review Sentiment Report - %s (%d reviews)", report.Period, report.TotalReviews)

	return s.deliver("report", s.buildReportTeamsMessage(report), func() (string, string, string, error) {
		htmlBody, err := s.buildReportEmailHTML(report)
		if err != nil {
			return "", "", "", fmt.Errorf("failed to build email HTML: %w", err)
		}
		return subject, s.buildReportEmailText(report), htmlBody, nil
	})
}

// SendAlert sends an urgent alert about a single review
func (s *Service) SendAlert(alert *models.Alert) error {
	return s.deliver("alert", s.buildAlertTeamsMessage(alert), func() (string, string, string, error) {
		return alert.Title, s.buildAlertEmailText(alert), "", nil
	})
}

// deliver fans a message out to Teams and email, collecting per-channel errors
func (s *Service) deliver(kind string, teams *TeamsMessage, email func() (subject, text, html string, err error)) error {
	var errors []string

	// Send to Teams if configured
	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(teams); err != nil {
			logrus.Errorf("Failed to send Teams %s: %v", kind, err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Infof("Successfully sent %s to Teams", kind)
		}
	}

	// Send via email if configured
	if s.config.NotificationEmail != "" {
		subject, text, html, err := email()
		if err == nil {
			err = s.sendEmail(subject, text, html)
		}
		if err != nil {
			logrus.Errorf("Failed to send %s email: %v", kind, err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Infof("Successfully sent %s via email", kind)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(message *TeamsMessage) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildReportTeamsMessage(report *models.Report) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("Review Sentiment Report - %s", report.Period),
		Text:    fmt.Sprintf("%d reviews across %d locations", report.TotalReviews, len(report.Locations)),
	}

	facts := []TeamsFact{
		{Name: "Total Reviews", Value: fmt.Sprintf("%d", report.TotalReviews)},
		{Name: "Generated", Value: report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
	}
	for _, label := range []string{"positive", "neutral", "negative"} {
		facts = append(facts, TeamsFact{
			Name:  fmt.Sprintf("%s reviews", label),
			Value: fmt.Sprintf("%d", report.Sentiment[label]),
		})
	}
	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(report.Locations) > 0 {
		var lines []string
		for _, loc := range report.Locations {
			lines = append(lines, fmt.Sprintf("**%s** - %d reviews, avg %.3f", loc.Location, loc.Reviews, loc.AverageScore))
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Locations",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	if len(report.MostNegative) > 0 {
		var lines []string
		for _, review := range report.MostNegative {
			lines = append(lines, fmt.Sprintf("**%s** (%s, %.3f): %s",
				review.Location, review.Timestamp, compound(review), truncate(review.Body, 140)))
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Most Negative Reviews",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) buildAlertTeamsMessage(alert *models.Alert) *TeamsMessage {
	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: "D13438",
		Title:      alert.Title,
		Text:       alert.Message,
	}

	if alert.Review != nil {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle:    alert.Review.Location,
			ActivitySubtitle: alert.Review.Timestamp,
			ActivityText:     alert.Review.Body,
			Facts: []TeamsFact{
				{Name: "Review", Value: alert.Review.ID},
				{Name: "Compound", Value: fmt.Sprintf("%.3f", compound(*alert.Review))},
			},
		})
	}

	return message
}

func (s *Service) sendEmail(subject, textBody, htmlBody string) error {
	// Create message
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	if htmlBody != "" {
		m.AddAlternative("text/html", htmlBody)
	}

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

const reportEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Review Sentiment Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0078d4; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .review { border-left: 4px solid #d13438; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .review-meta { color: #666; font-size: 0.9em; }
        td, th { padding: 4px 12px; text-align: left; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Review Sentiment Report</h1>
        <p>{{.Period}} report generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Total Reviews:</strong> {{.TotalReviews}}</p>
        {{range $label, $count := .Sentiment}}
            <p><strong>{{$label}}:</strong> {{$count}}</p>
        {{end}}
    </div>

    {{if .Locations}}
    <h2>Locations</h2>
    <table>
        <tr><th>Location</th><th>Reviews</th><th>Average compound</th><th>Negative</th></tr>
        {{range .Locations}}
        <tr><td>{{.Location}}</td><td>{{.Reviews}}</td><td>{{printf "%.3f" .AverageScore}}</td><td>{{.NegativeCount}}</td></tr>
        {{end}}
    </table>
    {{end}}

    {{if .MostNegative}}
    <h2>Most Negative Reviews</h2>
    {{range .MostNegative}}
        <div class="review">
            <div class="review-meta">{{.Location}} | {{.Timestamp}}{{if .Sentiment}} | {{printf "%.3f" .Sentiment.Compound}}{{end}}</div>
            <p>{{.Body | truncate 200}}</p>
        </div>
    {{end}}
    {{end}}

    <hr>
    <p><small>This report was generated automatically by the Review Analyzer.</small></p>
</body>
</html>
`

func (s *Service) buildReportEmailHTML(report *models.Report) (string, error) {
	t := template.New("email").Funcs(template.FuncMap{
		"truncate": func(length int, s string) string {
			return truncate(s, length)
		},
	})

	t, err := t.Parse(reportEmailTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, report); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Service) buildReportEmailText(report *models.Report) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Review Sentiment Report - %s\n", report.Period))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Total Reviews: %d\n", report.TotalReviews))
	for _, label := range []string{"positive", "neutral", "negative"} {
		text.WriteString(fmt.Sprintf("%s: %d\n", label, report.Sentiment[label]))
	}

	if len(report.Locations) > 0 {
		text.WriteString("\nLOCATIONS\n")
		text.WriteString("=========\n")
		for _, loc := range report.Locations {
			text.WriteString(fmt.Sprintf("%s: %d reviews, average compound %.3f, %d negative\n",
				loc.Location, loc.Reviews, loc.AverageScore, loc.NegativeCount))
		}
	}

	if len(report.MostNegative) > 0 {
		text.WriteString("\nMOST NEGATIVE REVIEWS\n")
		text.WriteString("=====================\n")
		for i, review := range report.MostNegative {
			text.WriteString(fmt.Sprintf("\n%d. %s | %s | %.3f\n", i+1, review.Location, review.Timestamp, compound(review)))
			text.WriteString(fmt.Sprintf("   %s\n", truncate(review.Body, 200)))
		}
	}

	text.WriteString("\n---\nThis report was generated automatically by the Review Analyzer.\n")

	return text.String()
}

func (s *Service) buildAlertEmailText(alert *models.Alert) string {
	var text strings.Builder

	text.WriteString(alert.Message + "\n")
	if alert.Review != nil {
		text.WriteString(fmt.Sprintf("\nReview:   %s\n", alert.Review.ID))
		text.WriteString(fmt.Sprintf("Location: %s\n", alert.Review.Location))
		text.WriteString(fmt.Sprintf("Posted:   %s\n", alert.Review.Timestamp))
		text.WriteString(fmt.Sprintf("Compound: %.3f\n\n", compound(*alert.Review)))
		text.WriteString(alert.Review.Body + "\n")
	}

	return text.String()
}

func compound(review models.Review) float64 {
	if review.Sentiment == nil {
		return 0
	}
	return review.Sentiment.Compound
}

// truncate cuts s to length runes so multi-byte text stays valid UTF-8
func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length]) + "..."
}
