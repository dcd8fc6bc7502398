// Package email renders transactional emails and sends them through Resend.
package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/resend/resend-go/v2"
	"song-request-backend/internal/apperr"
)

//go:embed templates/*.html
var templateFS embed.FS

type Message struct {
	To      []string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, from string, msg Message) error
}

// ResendSender delivers messages through the Resend API.
type ResendSender struct {
	client *resend.Client
}

func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey)}
}

func (s *ResendSender) Send(ctx context.Context, from string, msg Message) error {
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend: %v: %w", err, apperr.ErrUpstream)
	}
	return nil
}

const (
	tmplProducerAssigned  = "producer_assigned.html"
	tmplInternalFiles     = "internal_files.html"
	tmplNewRequest        = "new_request.html"
	tmplRefund            = "refund.html"
	tmplRevisionDelivered = "revision_delivered.html"
	tmplRevisionRequested = "revision_requested.html"
	tmplFinalDelivery     = "final_delivery.html"
)

var templates = parseTemplates(
	tmplProducerAssigned,
	tmplInternalFiles,
	tmplNewRequest,
	tmplRefund,
	tmplRevisionDelivered,
	tmplRevisionRequested,
	tmplFinalDelivery,
)

func parseTemplates(names ...string) map[string]*template.Template {
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		out[name] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}
	return out
}

// Mailer composes the workflow's emails. A Mailer with an empty recipient
// skips the send.
type Mailer struct {
	sender        Sender
	from          string
	internalFiles string
}

func NewMailer(sender Sender, from, internalFilesAddress string) *Mailer {
	return &Mailer{sender: sender, from: from, internalFiles: internalFilesAddress}
}

func (m *Mailer) send(ctx context.Context, to, subject, tmpl string, data any) error {
	if strings.TrimSpace(to) == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := templates[tmpl].ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", tmpl, err)
	}
	return m.sender.Send(ctx, m.from, Message{To: []string{to}, Subject: subject, HTML: buf.String()})
}

type ProducerAssigned struct {
	OrderID      string
	CustomerName string
	ProducerName string
	SongIdea     string
	OrderURL     string
}

func (m *Mailer) ProducerAssigned(ctx context.Context, to string, d ProducerAssigned) error {
	return m.send(ctx, to, "A producer accepted your song request", tmplProducerAssigned, d)
}

type InternalFiles struct {
	OrderID       string
	ProducerName  string
	ProducerEmail string
	Tier          string
	Genre         string
	SongIdea      string
	Files         []string
}

// InternalFiles goes to the configured internal files inbox.
func (m *Mailer) InternalFiles(ctx context.Context, d InternalFiles) error {
	return m.send(ctx, m.internalFiles, "Files for order "+d.OrderID, tmplInternalFiles, d)
}

type NewRequest struct {
	OrderID      string
	ProducerName string
	Tier         string
	SongIdea     string
	Payout       string
	Deadline     string
}

func (m *Mailer) NewRequest(ctx context.Context, to string, d NewRequest) error {
	return m.send(ctx, to, "New song request", tmplNewRequest, d)
}

type Refund struct {
	OrderID      string
	CustomerName string
	Amount       string
}

func (m *Mailer) Refund(ctx context.Context, to string, d Refund) error {
	return m.send(ctx, to, "Your song request was refunded", tmplRefund, d)
}

type RevisionDelivered struct {
	OrderID        string
	CustomerName   string
	RevisionNumber int
	DeliveryLink   string
	Notes          string
	MeetingLink    string
}

func (m *Mailer) RevisionDelivered(ctx context.Context, to string, d RevisionDelivered) error {
	return m.send(ctx, to, fmt.Sprintf("Revision %d is ready", d.RevisionNumber), tmplRevisionDelivered, d)
}

type RevisionRequested struct {
	OrderID        string
	ProducerName   string
	RevisionNumber int
	Notes          string
}

func (m *Mailer) RevisionRequested(ctx context.Context, to string, d RevisionRequested) error {
	return m.send(ctx, to, fmt.Sprintf("Revision %d requested", d.RevisionNumber), tmplRevisionRequested, d)
}

type FinalDelivery struct {
	OrderID      string
	CustomerName string
	DeliveryLink string
}

func (m *Mailer) FinalDelivery(ctx context.Context, to string, d FinalDelivery) error {
	return m.send(ctx, to, "Your song is ready", tmplFinalDelivery, d)
}

// FormatCents renders minor units as a dollar-style amount.
func FormatCents(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, strings.ToUpper(currency))
}
