// Package lifecycle owns the service-request state machine: it validates
// and applies status transitions, enforces which side (client or provider)
// may trigger each one, and exposes the current status to review and UI
// code. The allowed transition graph lives next to the status enum in
// internal/models.
package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clickwork-app/clickwork-backend/internal/models"
)

// DefaultDeadlineDays is applied when a request is created without a deadline.
const DefaultDeadlineDays = 30

// DefaultLocation is applied when a request is created with a blank location.
const DefaultLocation = "Remote"

// RequestStore abstracts record-store access for testability.
type RequestStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error)
	Insert(ctx context.Context, req *models.ServiceRequest) error
	// UpdateStatusCAS sets status to `to` only when the stored status still
	// equals `from`, reporting whether the swap happened. The check and the
	// write must be one atomic store operation.
	UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to models.RequestStatus) (bool, error)
}

type Manager struct {
	store RequestStore
}

func NewManager(store RequestStore) *Manager {
	return &Manager{store: store}
}

type CreateParams struct {
	ClientID    uuid.UUID
	ProviderID  uuid.UUID
	Title       string
	Description string
	Budget      float64
	Location    string
	Deadline    *time.Time
}

// Create validates params and inserts a new request in status pending.
// Nothing here prevents multiple pending requests between the same
// client/provider pair; de-duplication is a UI concern.
func (m *Manager) Create(ctx context.Context, p CreateParams) (*models.ServiceRequest, error) {
	title := strings.TrimSpace(p.Title)
	description := strings.TrimSpace(p.Description)
	location := strings.TrimSpace(p.Location)

	if p.ClientID == uuid.Nil {
		return nil, &ValidationError{Field: "client_id", Reason: "required"}
	}
	if p.ProviderID == uuid.Nil {
		return nil, &ValidationError{Field: "provider_id", Reason: "required"}
	}
	if title == "" {
		return nil, &ValidationError{Field: "title", Reason: "required"}
	}
	if description == "" {
		return nil, &ValidationError{Field: "description", Reason: "required"}
	}
	if p.Budget <= 0 {
		return nil, &ValidationError{Field: "budget", Reason: "must be positive"}
	}
	if location == "" {
		location = DefaultLocation
	}

	deadline := time.Now().AddDate(0, 0, DefaultDeadlineDays)
	if p.Deadline != nil {
		deadline = *p.Deadline
	}

	req := &models.ServiceRequest{
		ClientID:    p.ClientID,
		ProviderID:  p.ProviderID,
		Title:       title,
		Description: description,
		Budget:      p.Budget,
		Location:    location,
		Deadline:    deadline,
		Status:      models.RequestPending,
	}

	if err := m.store.Insert(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Get returns the request or ErrNotFound.
func (m *Manager) Get(ctx context.Context, requestID uuid.UUID) (*models.ServiceRequest, error) {
	return m.store.FindByID(ctx, requestID)
}

// GetStatus returns the current status or ErrNotFound.
func (m *Manager) GetStatus(ctx context.Context, requestID uuid.UUID) (models.RequestStatus, error) {
	req, err := m.store.FindByID(ctx, requestID)
	if err != nil {
		return "", err
	}
	return req.Status, nil
}

// Transition moves a request to target on behalf of actorID. The store
// write is conditioned on the status read here, so of two racing calls
// from the same source status exactly one wins; the loser gets
// ErrInvalidTransition and no partial state change is observed.
func (m *Manager) Transition(ctx context.Context, requestID, actorID uuid.UUID, target models.RequestStatus) (*models.ServiceRequest, error) {
	req, err := m.store.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var actor models.UserType
	switch actorID {
	case req.ClientID:
		actor = models.UserTypeClient
	case req.ProviderID:
		actor = models.UserTypeProvider
	default:
		return nil, ErrForbidden
	}

	from := req.Status
	if !models.CanTransition(from, actor, target) {
		// Distinguish "wrong side" from "state does not permit it": if the
		// counterpart could make this exact move, the caller is forbidden.
		if models.CanTransition(from, otherSide(actor), target) {
			return nil, ErrForbidden
		}
		return nil, ErrInvalidTransition
	}

	ok, err := m.store.UpdateStatusCAS(ctx, requestID, from, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race: someone else moved the request first.
		return nil, ErrInvalidTransition
	}

	req.Status = target
	return req, nil
}

func otherSide(t models.UserType) models.UserType {
	if t == models.UserTypeClient {
		return models.UserTypeProvider
	}
	return models.UserTypeClient
}
