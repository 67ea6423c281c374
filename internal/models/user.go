package models

import (
	"time"

	"github.com/google/uuid"
)

type UserType string

const (
	UserTypeClient   UserType = "client"
	UserTypeProvider UserType = "provider"
)

type User struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email string    `gorm:"uniqueIndex;not null" json:"email"`

	Password string `gorm:"not null" json:"-"`

	UserType  UserType `gorm:"type:varchar(20);not null;index" json:"user_type"`
	FirstName string   `gorm:"type:varchar(80);not null" json:"first_name"`
	LastName  string   `gorm:"type:varchar(80)" json:"last_name"`

	ProfilePhoto string `gorm:"type:text" json:"profile_photo"`

	// Last known location, captured at login and used for nearby-provider sorting
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `gorm:"type:varchar(120)" json:"city"`
	Country   string  `gorm:"type:varchar(120)" json:"country"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// HAS ONE provider_profile (provider_profiles.user_id -> users.id)
	ProviderProfile *ProviderProfile `gorm:"foreignKey:UserID;references:ID" json:"provider_profile,omitempty"`
}
