package alert

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"fuelrecon-backend/internal/domain"
)

type mailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSink emails warning and critical events to a fixed recipient list.
type SendGridSink struct {
	client    mailClient
	fromEmail string
	fromName  string
	to        []string
}

func NewSendGridSink(apiKey, fromEmail, fromName string, to []string) *SendGridSink {
	return &SendGridSink{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		to:        to,
	}
}

func (s *SendGridSink) Name() string { return "sendgrid" }

func (s *SendGridSink) Notify(ctx context.Context, ev domain.Event) error {
	if !atLeast(ev, domain.SeverityWarning) || len(s.to) == 0 {
		return nil
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(s.fromName, s.fromEmail))
	message.Subject = fmt.Sprintf("[%s] %s at station %d", strings.ToUpper(string(ev.Severity)), ev.Kind, ev.StationID)

	p := mail.NewPersonalization()
	for _, addr := range s.to {
		p.AddTos(mail.NewEmail("", addr))
	}
	message.AddPersonalizations(p)

	plain, htmlBody := renderEvent(ev)
	message.AddContent(mail.NewContent("text/plain", plain), mail.NewContent("text/html", htmlBody))

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

func renderEvent(ev domain.Event) (string, string) {
	keys := make([]string, 0, len(ev.Attributes))
	for k := range ev.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var plain, rows strings.Builder
	fmt.Fprintf(&plain, "%s\n\n", ev.Message)
	for _, k := range keys {
		fmt.Fprintf(&plain, "%s: %s\n", k, ev.Attributes[k])
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%s</td></tr>", html.EscapeString(k), html.EscapeString(ev.Attributes[k]))
	}
	fmt.Fprintf(&plain, "\nTenant %d, station %d, %s\n", ev.TenantID, ev.StationID, ev.OccurredAt.Format("2006-01-02 15:04:05 MST"))

	htmlBody := fmt.Sprintf(`<html><body><h2>%s</h2><p>%s</p><table>%s</table></body></html>`,
		html.EscapeString(string(ev.Kind)), html.EscapeString(ev.Message), rows.String())
	return plain.String(), htmlBody
}
