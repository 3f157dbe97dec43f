package catalogue

import "time"

// Item is one ready-made website package offered by the studio.
type Item struct {
	ID               string    `gorm:"type:char(36);primaryKey" json:"id"`
	Title            string    `gorm:"type:varchar(200);not null" json:"title"`
	Description      string    `gorm:"type:text;not null" json:"description"`
	ShortDescription string    `gorm:"type:varchar(500)" json:"short_description"`
	Features         []string  `gorm:"type:text;serializer:json" json:"features"`
	Technologies     []string  `gorm:"type:text;serializer:json" json:"technologies"`
	Price            float64   `gorm:"not null;default:0" json:"price"`
	Currency         string    `gorm:"type:varchar(8);not null;default:'AZN'" json:"currency"`
	Images           []string  `gorm:"type:text;serializer:json" json:"images"`
	DemoURL          string    `gorm:"type:varchar(500)" json:"demo_url"`
	Category         string    `gorm:"type:varchar(64);index" json:"category"`
	IsFeatured       bool      `gorm:"not null;default:false" json:"is_featured"`
	IsActive         bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Item) TableName() string { return "catalogue_items" }
