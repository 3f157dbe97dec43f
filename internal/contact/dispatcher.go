package contact

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Mailer delivers one plain-text email.
type Mailer interface {
	SendText(ctx context.Context, to, subject, body string) error
}

// Dispatcher turns a queued notification job into an email to the studio.
type Dispatcher struct {
	repo        *Repo
	mailer      Mailer
	to          string
	maxAttempts int
	log         *slog.Logger
}

func NewDispatcher(repo *Repo, mailer Mailer, to string, maxAttempts int, log *slog.Logger) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{repo: repo, mailer: mailer, to: to, maxAttempts: maxAttempts, log: log}
}

// Outcome tells the consumer what to do with the delivery.
type Outcome int

const (
	OutcomeDone  Outcome = iota // ack
	OutcomeRetry                // republish to the retry queue
	OutcomeDrop                 // reject to the dead-letter queue
)

func (d *Dispatcher) Handle(ctx context.Context, jobID string) (Outcome, error) {
	start := time.Now()

	job, err := d.repo.GetNotification(ctx, jobID)
	if err != nil {
		if isNotFound(err) {
			return OutcomeDrop, fmt.Errorf("notification %s not found", jobID)
		}
		return OutcomeRetry, err
	}
	if job.Status == NotificationSent {
		return OutcomeDone, nil
	}
	if err := d.repo.MarkRunning(ctx, jobID); err != nil {
		return OutcomeRetry, err
	}
	attempt := job.Attempts + 1

	msg, err := d.repo.Get(ctx, job.MessageID)
	if err != nil {
		if isNotFound(err) {
			// the admin deleted the message before we got to it
			_ = d.repo.MarkFailed(ctx, jobID, "message deleted")
			return OutcomeDone, nil
		}
		return OutcomeRetry, err
	}

	subject, body := renderEmail(msg)
	if err := d.mailer.SendText(ctx, d.to, subject, body); err != nil {
		_ = d.repo.MarkFailed(ctx, jobID, err.Error())
		if attempt >= d.maxAttempts {
			d.log.Error("contact notification gave up", "job_id", jobID, "attempts", attempt, "err", err)
			return OutcomeDrop, err
		}
		return OutcomeRetry, err
	}

	if err := d.repo.MarkSent(ctx, jobID); err != nil {
		d.log.Warn("mark notification sent", "job_id", jobID, "err", err)
	}
	d.log.Info("contact notification sent", "job_id", jobID, "cost", time.Since(start))
	return OutcomeDone, nil
}

func renderEmail(m *Message) (string, string) {
	subject := m.Subject
	if subject == "" {
		subject = "Yeni mesaj"
	}
	var b strings.Builder
	b.WriteString("Yeni Əlaqə Mesajı\n\n")
	fmt.Fprintf(&b, "Ad: %s\n", m.Name)
	fmt.Fprintf(&b, "Email: %s\n", m.Email)
	fmt.Fprintf(&b, "Telefon: %s\n", m.Phone)
	fmt.Fprintf(&b, "Mövzu: %s\n\n", m.Subject)
	b.WriteString(m.Body)
	b.WriteString("\n")
	return "TechTribe Əlaqə: " + subject, b.String()
}
