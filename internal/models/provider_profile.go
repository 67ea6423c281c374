package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type BusinessType string

const (
	BusinessIndividual BusinessType = "individual"
	BusinessGroup      BusinessType = "group"
)

type ProviderProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	BrandName    string       `gorm:"type:varchar(120);not null" json:"brand_name"`
	BusinessType BusinessType `gorm:"type:varchar(20);default:'individual'" json:"business_type"`
	Description  string       `gorm:"type:text" json:"description"`
	Phone        string       `gorm:"type:varchar(30)" json:"phone"`
	Website      string       `gorm:"type:varchar(200)" json:"website"`

	City       string `gorm:"type:varchar(120)" json:"city"`
	StreetName string `gorm:"type:varchar(200)" json:"street_name"`
	ZipCode    string `gorm:"type:varchar(10)" json:"zip_code"`
	Country    string `gorm:"type:varchar(120)" json:"country"`

	// List-shaped fields stored as JSON
	Services       datatypes.JSON `json:"services"`        // ["Web Development", ...]
	PortfolioLinks datatypes.JSON `json:"portfolio_links"` // ["https://...", ...]
	Languages      datatypes.JSON `json:"languages"`       // ["English", ...]

	YearsExperience string  `gorm:"type:varchar(20)" json:"years_experience"`
	HourlyRate      float64 `json:"hourly_rate"`
	Certifications  string  `gorm:"type:text" json:"certifications"`
	Availability    string  `gorm:"type:varchar(50)" json:"availability"`

	// Denormalized review aggregates, recomputed from review rows whenever
	// a review is inserted (see services/review)
	Rating       float64 `gorm:"default:0" json:"rating"`
	TotalReviews int     `gorm:"default:0" json:"total_reviews"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
