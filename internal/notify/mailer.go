package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/resend/resend-go/v2"
)

// Mailer sends the registration confirmation. Implementations must not
// be load-bearing for the reservation itself: a failed send is logged
// by the caller and never shown to the player.
type Mailer interface {
	SendConfirmation(ctx context.Context, m ConfirmationEmail) error
}

// ConsoleMailer logs instead of sending; default when no API key is
// configured.
type ConsoleMailer struct{}

func (ConsoleMailer) SendConfirmation(_ context.Context, m ConfirmationEmail) error {
	log.Printf("[mail] confirmation to=%s group=%s sessions=%d", m.Email, m.Category, m.SessionCount)
	return nil
}

// ResendMailer sends the confirmation through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendMailer) SendConfirmation(ctx context.Context, m ConfirmationEmail) error {
	subject := "Confirmation d'inscription — BEFA Academy"
	if m.Lang == "nl" {
		subject = "Bevestiging van inschrijving — BEFA Academy"
	}

	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{m.Email},
		Subject: subject,
		Html:    confirmationHTML(m),
	})
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	log.Printf("[mail] sent confirmation id=%s to=%s", sent.Id, m.Email)
	return nil
}

func confirmationHTML(m ConfirmationEmail) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<h2>Bonjour %s,</h2>", m.FirstName))
	b.WriteString("<p>Votre inscription à BEFA Academy est confirmée.</p>")
	b.WriteString("<ul>")
	b.WriteString(fmt.Sprintf("<li>Nombre de séances : %d</li>", m.SessionCount))
	b.WriteString(fmt.Sprintf("<li>Lieu : %s</li>", m.Location))
	b.WriteString(fmt.Sprintf("<li>Catégorie : %s</li>", m.Category))
	b.WriteString(fmt.Sprintf("<li>Horaire : %s %s — %s</li>", m.Weekday, m.StartTime, m.EndTime))
	b.WriteString("</ul>")
	if len(m.SessionDates) > 0 {
		b.WriteString("<p>Dates des séances :</p><ul>")
		for _, d := range m.SessionDates {
			b.WriteString(fmt.Sprintf("<li>%s</li>", d))
		}
		b.WriteString("</ul>")
	}
	if len(m.ExtraEquipment) > 0 {
		b.WriteString(fmt.Sprintf("<p>Équipement supplémentaire : %s</p>", strings.Join(m.ExtraEquipment, ", ")))
	}
	b.WriteString("<p>À très bientôt sur le terrain !</p>")
	return b.String()
}
