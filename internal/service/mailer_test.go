package service

import (
	"context"
	"errors"
	"net/mail"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to      mail.Address
	subject string
	html    string
	text    string
}

type recordingDelivery struct {
	sent []sentMail
	err  error
}

func (r *recordingDelivery) Deliver(ctx context.Context, to mail.Address, subject, html, text string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sentMail{to: to, subject: subject, html: html, text: text})
	return nil
}

func TestMailerRendersRegistration(t *testing.T) {
	delivery := &recordingDelivery{}
	m, err := NewMailer(delivery, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, m.SendCoordinatorRegistration(context.Background(), "Ravi <script>", "ravi@example.com"))
	require.Len(t, delivery.sent, 1)

	sent := delivery.sent[0]
	require.Equal(t, "Welcome to Global Innovator Olympiad!", sent.subject)
	require.Equal(t, "ravi@example.com", sent.to.Address)
	require.Contains(t, sent.html, "Welcome to Global Innovator Olympiad, Ravi &lt;script&gt;!")
	require.Contains(t, sent.text, "Welcome to Global Innovator Olympiad, Ravi <script>!")
	require.Contains(t, sent.text, "pending approval")
}

func TestMailerRendersApproval(t *testing.T) {
	delivery := &recordingDelivery{}
	m, err := NewMailer(delivery, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, m.SendCoordinatorApproval(context.Background(), "Meera", "meera@example.com"))
	require.Equal(t, "Your Coordinator Account Has Been Approved!", delivery.sent[0].subject)
	require.Contains(t, delivery.sent[0].html, "Congratulations, Meera!")
}

func TestMailerReturnsDeliveryError(t *testing.T) {
	m, err := NewMailer(&recordingDelivery{err: errors.New("smtp down")}, zerolog.Nop())
	require.NoError(t, err)

	require.Error(t, m.SendCoordinatorApproval(context.Background(), "Meera", "meera@example.com"))
}
