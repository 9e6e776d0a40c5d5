package entity

import (
	"time"

	"github.com/buildcrew/fieldreport-api/internal/domain/enum"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order represents a construction service order referenced by report
// activity rows.
type Order struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	Code         string           `gorm:"size:100;unique;not null" json:"code"`
	CustomerName string           `gorm:"size:255;not null" json:"customer_name"`
	SiteAddress  string           `gorm:"type:text" json:"site_address"`
	Status       enum.OrderStatus `gorm:"default:0" json:"status"`
	StartDate    *time.Time       `gorm:"type:date" json:"start_date,omitempty"`
	Notes        string           `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new order
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}
