package contact

import "time"

// Message is a submission of the public contact form.
type Message struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(128);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	Phone     string    `gorm:"type:varchar(32)" json:"phone"`
	Subject   string    `gorm:"type:varchar(255)" json:"subject"`
	Body      string    `gorm:"column:message;type:text;not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Notifications []Notification `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Message) TableName() string { return "contact_messages" }

type NotificationStatus string

const (
	NotificationQueued  NotificationStatus = "queued"
	NotificationRunning NotificationStatus = "running"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// Notification is the email job created for every contact message. Its id is
// what goes over the queue; the worker reloads everything else from here.
type Notification struct {
	ID        string             `gorm:"primaryKey;size:26"` // ULID length
	MessageID string             `gorm:"type:char(36);index;not null"`
	Status    NotificationStatus `gorm:"type:varchar(16);index;not null"`
	Attempts  int                `gorm:"not null;default:0"`

	// Filled when failed
	Error *string `gorm:"type:text"`
	// Filled when sent
	SentAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Notification) TableName() string { return "contact_notifications" }
