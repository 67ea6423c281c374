package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clickwork-app/clickwork-backend/internal/models"
)

// fakeStore keeps requests in a map and applies the compare-and-swap the
// way the real store does.
type fakeStore struct {
	requests map[uuid.UUID]*models.ServiceRequest

	// when set, the next UpdateStatusCAS reports a lost race
	loseNextCAS bool

	insertErr error
	casCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{requests: map[uuid.UUID]*models.ServiceRequest{}}
}

func (s *fakeStore) FindByID(_ context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *fakeStore) Insert(_ context.Context, req *models.ServiceRequest) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	req.ID = uuid.New()
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *fakeStore) UpdateStatusCAS(_ context.Context, id uuid.UUID, from, to models.RequestStatus) (bool, error) {
	s.casCalls++
	if s.loseNextCAS {
		s.loseNextCAS = false
		return false, nil
	}
	req, ok := s.requests[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	return true, nil
}

func (s *fakeStore) seed(clientID, providerID uuid.UUID, status models.RequestStatus) uuid.UUID {
	id := uuid.New()
	s.requests[id] = &models.ServiceRequest{
		ID:         id,
		ClientID:   clientID,
		ProviderID: providerID,
		Title:      "Fix kitchen sink",
		Status:     status,
	}
	return id
}

func TestCreateDefaults(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store)

	req, err := m.Create(context.Background(), CreateParams{
		ClientID:    uuid.New(),
		ProviderID:  uuid.New(),
		Title:       "  Paint the fence  ",
		Description: "Two coats, white",
		Budget:      150,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if req.Status != models.RequestPending {
		t.Errorf("status = %s, want pending", req.Status)
	}
	if req.Title != "Paint the fence" {
		t.Errorf("title not trimmed: %q", req.Title)
	}
	if req.Location != DefaultLocation {
		t.Errorf("location = %q, want %q", req.Location, DefaultLocation)
	}

	wantDeadline := time.Now().AddDate(0, 0, DefaultDeadlineDays)
	if diff := req.Deadline.Sub(wantDeadline); diff < -time.Minute || diff > time.Minute {
		t.Errorf("deadline = %v, want about %v", req.Deadline, wantDeadline)
	}
}

func TestCreateExplicitValues(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store)

	deadline := time.Now().AddDate(0, 0, 7)
	req, err := m.Create(context.Background(), CreateParams{
		ClientID:    uuid.New(),
		ProviderID:  uuid.New(),
		Title:       "Logo design",
		Description: "Vector logo with brand guide",
		Budget:      300,
		Location:    "Berlin",
		Deadline:    &deadline,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if req.Location != "Berlin" {
		t.Errorf("location = %q", req.Location)
	}
	if !req.Deadline.Equal(deadline) {
		t.Errorf("deadline = %v, want %v", req.Deadline, deadline)
	}
}

func TestCreateValidation(t *testing.T) {
	m := NewManager(newFakeStore())
	base := CreateParams{
		ClientID:    uuid.New(),
		ProviderID:  uuid.New(),
		Title:       "Fix sink",
		Description: "Leaky pipe",
		Budget:      80,
	}

	cases := []struct {
		name   string
		mutate func(*CreateParams)
		field  string
	}{
		{"missing client", func(p *CreateParams) { p.ClientID = uuid.Nil }, "client_id"},
		{"missing provider", func(p *CreateParams) { p.ProviderID = uuid.Nil }, "provider_id"},
		{"blank title", func(p *CreateParams) { p.Title = "   " }, "title"},
		{"blank description", func(p *CreateParams) { p.Description = "" }, "description"},
		{"zero budget", func(p *CreateParams) { p.Budget = 0 }, "budget"},
		{"negative budget", func(p *CreateParams) { p.Budget = -5 }, "budget"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			tc.mutate(&p)
			_, err := m.Create(context.Background(), p)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if verr.Field != tc.field {
				t.Errorf("field = %q, want %q", verr.Field, tc.field)
			}
		})
	}
}

func TestTransitionNotFound(t *testing.T) {
	m := NewManager(newFakeStore())
	_, err := m.Transition(context.Background(), uuid.New(), uuid.New(), models.RequestAccepted)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTransitionStranger(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store)
	id := store.seed(uuid.New(), uuid.New(), models.RequestPending)

	_, err := m.Transition(context.Background(), id, uuid.New(), models.RequestAccepted)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestTransitionWrongSide(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store)
	clientID, providerID := uuid.New(), uuid.New()

	// client trying a provider-only move
	id := store.seed(clientID, providerID, models.RequestPending)
	if _, err := m.Transition(context.Background(), id, clientID, models.RequestAccepted); !errors.Is(err, ErrForbidden) {
		t.Errorf("client accept: err = %v, want ErrForbidden", err)
	}

	// provider trying the client-only completion mark
	id = store.seed(clientID, providerID, models.RequestInProgress)
	if _, err := m.Transition(context.Background(), id, providerID, models.RequestClientCompleted); !errors.Is(err, ErrForbidden) {
		t.Errorf("provider client_completed: err = %v, want ErrForbidden", err)
	}

	if store.casCalls != 0 {
		t.Errorf("store written despite forbidden moves: %d CAS calls", store.casCalls)
	}
}

func TestTransitionInvalidMove(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store)
	clientID, providerID := uuid.New(), uuid.New()

	cases := []struct {
		name   string
		status models.RequestStatus
		actor  uuid.UUID
		target models.RequestStatus
	}{
		{"skip to in_progress", models.RequestPending, providerID, models.RequestInProgress},
		{"skip to completed", models.RequestInProgress, clientID, models.RequestCompleted},
		{"backwards", models.RequestAccepted, providerID, models.RequestPending},
		{"reject after accepting", models.RequestAccepted, providerID, models.RequestRejected},
		{"out of rejected", models.RequestRejected, providerID, models.RequestAccepted},
		{"out of completed", models.RequestCompleted, providerID, models.RequestInProgress},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := store.seed(clientID, providerID, tc.status)
			_, err := m.Transition(context.Background(), id, tc.actor, tc.target)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("err = %v, want ErrInvalidTransition", err)
			}
		})
	}
}

func TestTransitionLostRace(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store)
	clientID, providerID := uuid.New(), uuid.New()
	id := store.seed(clientID, providerID, models.RequestPending)

	store.loseNextCAS = true
	_, err := m.Transition(context.Background(), id, providerID, models.RequestAccepted)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
	if store.requests[id].Status != models.RequestPending {
		t.Errorf("status changed despite lost race: %s", store.requests[id].Status)
	}
}

func TestFullLifecycle(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store)
	clientID, providerID := uuid.New(), uuid.New()

	req, err := m.Create(context.Background(), CreateParams{
		ClientID:    clientID,
		ProviderID:  providerID,
		Title:       "Garden cleanup",
		Description: "Front and back yard",
		Budget:      200,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	steps := []struct {
		actor  uuid.UUID
		target models.RequestStatus
	}{
		{providerID, models.RequestAccepted},
		{providerID, models.RequestInProgress},
		{clientID, models.RequestClientCompleted},
		{providerID, models.RequestCompleted},
	}
	for _, step := range steps {
		got, err := m.Transition(context.Background(), req.ID, step.actor, step.target)
		if err != nil {
			t.Fatalf("Transition to %s: %v", step.target, err)
		}
		if got.Status != step.target {
			t.Fatalf("status = %s, want %s", got.Status, step.target)
		}
	}

	status, err := m.GetStatus(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status != models.RequestCompleted {
		t.Errorf("final status = %s, want completed", status)
	}

	// terminal: nothing moves out of completed
	if _, err := m.Transition(context.Background(), req.ID, providerID, models.RequestInProgress); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("reopen err = %v, want ErrInvalidTransition", err)
	}
}

func TestRejectAndCancelPaths(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store)
	clientID, providerID := uuid.New(), uuid.New()

	for _, target := range []models.RequestStatus{models.RequestRejected, models.RequestCancelled} {
		id := store.seed(clientID, providerID, models.RequestPending)
		got, err := m.Transition(context.Background(), id, providerID, target)
		if err != nil {
			t.Fatalf("Transition to %s: %v", target, err)
		}
		if got.Status != target {
			t.Errorf("status = %s, want %s", got.Status, target)
		}
	}
}
