package contact

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

const listLimit = 100

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// CreateWithNotification stores the message and its queued notification job
// together.
func (r *Repo) CreateWithNotification(ctx context.Context, m *Message, n *Notification) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return pkgerrors.Wrap(err, "insert message")
		}
		return pkgerrors.Wrap(tx.Create(n).Error, "insert notification")
	})
}

func (r *Repo) List(ctx context.Context) ([]Message, error) {
	out := make([]Message, 0)
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(listLimit).Find(&out).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list messages")
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Message, error) {
	var m Message
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "get message")
	}
	return &m, nil
}

func (r *Repo) MarkRead(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&Message{}).Where("id = ?", id).Update("is_read", true)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "mark read")
	}
	if res.RowsAffected == 0 {
		// already read rows report 0 on MySQL, so confirm existence
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&Message{}, "id = ?", id)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "delete message")
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repo) Counts(ctx context.Context) (total, unread int64, err error) {
	if err = r.db.WithContext(ctx).Model(&Message{}).Count(&total).Error; err != nil {
		return 0, 0, pkgerrors.Wrap(err, "count messages")
	}
	err = r.db.WithContext(ctx).Model(&Message{}).Where("is_read = ?", false).Count(&unread).Error
	return total, unread, pkgerrors.Wrap(err, "count unread")
}

func (r *Repo) GetNotification(ctx context.Context, id string) (*Notification, error) {
	var n Notification
	if err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "get notification")
	}
	return &n, nil
}

// MarkRunning moves a job to running and counts the attempt.
func (r *Repo) MarkRunning(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":   NotificationRunning,
			"attempts": gorm.Expr("attempts + 1"),
		}).Error
	return pkgerrors.Wrap(err, "mark running")
}

func (r *Repo) MarkSent(ctx context.Context, id string) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":  NotificationSent,
			"sent_at": &now,
			"error":   nil,
		}).Error
	return pkgerrors.Wrap(err, "mark sent")
}

func (r *Repo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": NotificationFailed,
			"error":  errMsg,
		}).Error
	return pkgerrors.Wrap(err, "mark failed")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
