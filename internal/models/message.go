package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a direct message between two users. Conversations are not
// stored; they are derived by grouping messages by counterpart.
type Message struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SenderID   uuid.UUID `gorm:"type:uuid;index" json:"sender_id"`
	ReceiverID uuid.UUID `gorm:"type:uuid;index" json:"receiver_id"`

	Content string     `gorm:"type:text;not null" json:"content"`
	Read    bool       `gorm:"default:false" json:"read"`
	ReadAt  *time.Time `json:"read_at"`

	CreatedAt time.Time `json:"created_at"`

	// Preloaded relations
	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}
