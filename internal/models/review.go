package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Review struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID         uuid.UUID `gorm:"type:uuid;index;unique" json:"request_id"`
	ClientID          uuid.UUID `gorm:"type:uuid;index" json:"client_id"`
	ProviderProfileID uuid.UUID `gorm:"type:uuid;index" json:"provider_profile_id"`

	Rating  int    `gorm:"not null" json:"rating"` // 1-5
	Comment string `gorm:"type:text" json:"comment"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Request         *ServiceRequest  `gorm:"foreignKey:RequestID" json:"request,omitempty"`
	Client          *User            `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	ProviderProfile *ProviderProfile `gorm:"foreignKey:ProviderProfileID" json:"provider_profile,omitempty"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
