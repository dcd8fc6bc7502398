package email_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"song-request-backend/internal/email"
)

type recordingSender struct {
	from []string
	sent []email.Message
}

func (r *recordingSender) Send(_ context.Context, from string, msg email.Message) error {
	r.from = append(r.from, from)
	r.sent = append(r.sent, msg)
	return nil
}

func TestMailer_ProducerAssigned(t *testing.T) {
	sender := &recordingSender{}
	mailer := email.NewMailer(sender, "Orders <orders@example.com>", "files@example.com")

	err := mailer.ProducerAssigned(context.Background(), "fan@example.com", email.ProducerAssigned{
		OrderID:      "order-1",
		CustomerName: "Sam",
		ProducerName: "Beat <Smith>",
		SongIdea:     "a song about rain",
		OrderURL:     "https://app.example.com/orders/order-1",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"fan@example.com"}, msg.To)
	assert.Equal(t, "Orders <orders@example.com>", sender.from[0])
	assert.Contains(t, msg.HTML, "Beat &lt;Smith&gt;")
	assert.Contains(t, msg.HTML, "Order order-1")
}

func TestMailer_InternalFilesUsesConfiguredInbox(t *testing.T) {
	sender := &recordingSender{}
	mailer := email.NewMailer(sender, "orders@example.com", "files@example.com")

	require.NoError(t, mailer.InternalFiles(context.Background(), email.InternalFiles{
		OrderID: "order-2",
		Files:   []string{"https://cdn.example.com/demo.mp3"},
	}))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"files@example.com"}, sender.sent[0].To)
	assert.Contains(t, sender.sent[0].HTML, "demo.mp3")
}

func TestMailer_SkipsEmptyRecipient(t *testing.T) {
	sender := &recordingSender{}
	mailer := email.NewMailer(sender, "orders@example.com", "")

	require.NoError(t, mailer.InternalFiles(context.Background(), email.InternalFiles{OrderID: "x"}))
	require.NoError(t, mailer.Refund(context.Background(), " ", email.Refund{OrderID: "x"}))
	assert.Empty(t, sender.sent)
}

func TestMailer_RevisionDeliveredOptionalFields(t *testing.T) {
	sender := &recordingSender{}
	mailer := email.NewMailer(sender, "orders@example.com", "")

	require.NoError(t, mailer.RevisionDelivered(context.Background(), "fan@example.com", email.RevisionDelivered{
		OrderID:        "order-3",
		RevisionNumber: 2,
		DeliveryLink:   "https://drive.example.com/r2",
	}))
	assert.Equal(t, "Revision 2 is ready", sender.sent[0].Subject)
	assert.NotContains(t, sender.sent[0].HTML, "review call")
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "200.00 USD", email.FormatCents(20000, "usd"))
	assert.Equal(t, "170.05 USD", email.FormatCents(17005, "usd"))
}
