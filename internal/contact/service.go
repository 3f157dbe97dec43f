package contact

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/techtribe/studio-api/internal/apperr"
	"github.com/techtribe/studio-api/internal/common"
)

var errMessageNotFound = apperr.NotFound("Mesaj tapılmadı")

// Notifier hands a notification job id to the background worker.
type Notifier interface {
	PublishJob(ctx context.Context, jobID string) error
}

type Service struct {
	repo     *Repo
	notifier Notifier
	timeout  time.Duration
	log      *slog.Logger
}

// NewService accepts a nil notifier; submissions are then stored with their
// job left queued for a later run of the worker.
func NewService(repo *Repo, notifier Notifier, timeout time.Duration, log *slog.Logger) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, timeout: timeout, log: log}
}

type SubmitInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type SubmitResult struct {
	Message            string `json:"message"`
	ID                 string `json:"id"`
	NotificationQueued bool   `json:"notification_queued"`
}

func (s *Service) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	body := strings.TrimSpace(in.Message)
	if name == "" || email == "" || body == "" {
		return nil, apperr.Validation("Ad, email və mesaj tələb olunur")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation("Email formatı yanlışdır")
	}

	jobID, err := common.NewULID()
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "daxili xəta", err)
	}
	m := &Message{
		ID:      uuid.NewString(),
		Name:    name,
		Email:   email,
		Phone:   strings.TrimSpace(in.Phone),
		Subject: strings.TrimSpace(in.Subject),
		Body:    body,
	}
	n := &Notification{ID: jobID, MessageID: m.ID, Status: NotificationQueued}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.CreateWithNotification(ctx, m, n); err != nil {
		return nil, s.storeErr("create message", err)
	}

	queued := false
	if s.notifier != nil {
		// the message is stored; a broker outage only delays the email
		if err := s.notifier.PublishJob(ctx, jobID); err != nil {
			s.log.Warn("publish contact notification", "job_id", jobID, "err", err)
		} else {
			queued = true
		}
	}
	s.log.Info("contact message received", "message_id", m.ID, "job_id", jobID, "queued", queued)
	return &SubmitResult{Message: "Mesajınız qəbul edildi", ID: m.ID, NotificationQueued: queued}, nil
}

func (s *Service) List(ctx context.Context) ([]Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.storeErr("list messages", err)
	}
	return out, nil
}

func (s *Service) MarkRead(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.MarkRead(ctx, id); err != nil {
		if isNotFound(err) {
			return errMessageNotFound
		}
		return s.storeErr("mark read", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return errMessageNotFound
		}
		return s.storeErr("delete message", err)
	}
	return nil
}

type Counts struct {
	Total  int64
	Unread int64
}

func (s *Service) Counts(ctx context.Context) (Counts, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	total, unread, err := s.repo.Counts(ctx)
	if err != nil {
		return Counts{}, s.storeErr("count messages", err)
	}
	return Counts{Total: total, Unread: unread}, nil
}

func (s *Service) storeErr(op string, err error) error {
	s.log.Error("contact store failure", "op", op, "err", err)
	return apperr.AsUnavailable(err, "Xidmət müvəqqəti əlçatan deyil")
}
