package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"campus-reserve-api/internal/bus"

	"github.com/wneessen/go-mail"
)

// Mailer mirrors the in-app notifications as human-readable emails. Same
// fire-and-forget contract as the dispatcher: a failed or misaddressed
// email is logged and dropped, it never fails the reservation operation
// that triggered it.
type Mailer struct {
	DB     *sql.DB
	client *mail.Client
	from   string
}

// NewMailer builds an SMTP-backed mailer.
func NewMailer(db *sql.DB, host string, port int, username, password, from string) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	}
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &Mailer{DB: db, client: client, from: from}, nil
}

// Send delivers one email. Errors are logged and swallowed.
func (m *Mailer) Send(ctx context.Context, to, subject, text, html string) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		log.Printf("email from %q invalid: %v", m.from, err)
		return
	}
	if err := msg.To(to); err != nil {
		log.Printf("email to %q invalid: %v", to, err)
		return
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	if html != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, html)
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		log.Printf("email to %s (%s) failed: %v", to, subject, err)
	}
}

// HandleEvent is the bus subscription entry point.
func (m *Mailer) HandleEvent(ctx context.Context, ev bus.Event) error {
	switch ev.Kind {
	case bus.ReservationCreated:
		name, email, err := m.lookupUser(ctx, ev.StudentID)
		if err != nil {
			return err
		}
		content := ConfirmationEmail(name, ev)
		m.Send(ctx, email, content.Subject, content.Text, content.HTML)
	case bus.ReservationApproved, bus.ReservationRejected:
		name, email, err := m.lookupUser(ctx, ev.StudentID)
		if err != nil {
			return err
		}
		content := StatusEmail(name, ev)
		m.Send(ctx, email, content.Subject, content.Text, content.HTML)

		if ev.ManagerID > 0 {
			mgrName, mgrEmail, err := m.lookupUser(ctx, ev.ManagerID)
			if err != nil {
				// Student already got theirs; partial delivery stands.
				log.Printf("lookup manager %d failed: %v", ev.ManagerID, err)
				return nil
			}
			mgrContent := StatusEmail(mgrName, ev)
			m.Send(ctx, mgrEmail, mgrContent.Subject, mgrContent.Text, mgrContent.HTML)
		}
	case bus.ReservationDeleted:
		// Deletion sends no email.
	}
	return nil
}

func (m *Mailer) lookupUser(ctx context.Context, userID int64) (name, email string, err error) {
	var first, last sql.NullString
	err = m.DB.QueryRowContext(ctx, `
		SELECT first_name, last_name, email FROM users WHERE id = $1`, userID,
	).Scan(&first, &last, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", fmt.Errorf("user %d not found", userID)
	}
	if err != nil {
		return "", "", fmt.Errorf("select user %d: %w", userID, err)
	}
	switch {
	case first.Valid && last.Valid:
		name = first.String + " " + last.String
	case first.Valid:
		name = first.String
	case last.Valid:
		name = last.String
	default:
		name = email
	}
	return name, email, nil
}
