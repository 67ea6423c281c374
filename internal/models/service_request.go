// Status graph for service requests (two-sided completion handshake):
//
//	pending ──(provider)──► accepted ──(provider)──► in_progress
//	   │                                                  │
//	   └──(provider)──► rejected / cancelled         (client)
//	                                                      ▼
//	              completed ◄──(provider)── client_completed
//
// rejected, cancelled and completed are terminal states.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	RequestPending         RequestStatus = "pending"
	RequestAccepted        RequestStatus = "accepted"
	RequestRejected        RequestStatus = "rejected"
	RequestCancelled       RequestStatus = "cancelled"
	RequestInProgress      RequestStatus = "in_progress"
	RequestClientCompleted RequestStatus = "client_completed"
	RequestCompleted       RequestStatus = "completed"
)

// requestTransitions lists every allowed (from, actor) → targets entry.
// Terminal states have no outgoing transitions.
var requestTransitions = map[RequestStatus]map[UserType][]RequestStatus{
	RequestPending: {
		UserTypeProvider: {RequestAccepted, RequestRejected, RequestCancelled},
	},
	RequestAccepted: {
		UserTypeProvider: {RequestInProgress},
	},
	RequestInProgress: {
		UserTypeClient: {RequestClientCompleted},
	},
	RequestClientCompleted: {
		UserTypeProvider: {RequestCompleted},
	},
}

// ParseRequestStatus converts a raw string to a RequestStatus, returning an
// error for unknown values.
func ParseRequestStatus(s string) (RequestStatus, error) {
	st := RequestStatus(s)
	switch st {
	case RequestPending, RequestAccepted, RequestRejected, RequestCancelled,
		RequestInProgress, RequestClientCompleted, RequestCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown request status %q", s)
}

// CanTransition reports whether the given actor may move a request
// from → to.
func CanTransition(from RequestStatus, actor UserType, to RequestStatus) bool {
	byActor, ok := requestTransitions[from]
	if !ok {
		return false // terminal state
	}
	for _, s := range byActor[actor] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether a request can never leave this status.
func IsTerminalStatus(s RequestStatus) bool {
	return len(requestTransitions[s]) == 0
}

type ServiceRequest struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	ClientID   uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id"`
	ProviderID uuid.UUID `gorm:"type:uuid;index;not null" json:"provider_id"`

	Title       string  `gorm:"not null" json:"title"`
	Description string  `gorm:"type:text;not null" json:"description"`
	Budget      float64 `gorm:"not null" json:"budget"`

	Location string    `gorm:"type:varchar(200);default:'Remote'" json:"location"`
	Deadline time.Time `json:"deadline"`

	Status RequestStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client   *User `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Provider *User `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
}
