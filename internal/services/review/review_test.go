package review

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/clickwork-app/clickwork-backend/internal/models"
	"github.com/clickwork-app/clickwork-backend/internal/services/lifecycle"
)

type fakeRequests struct {
	requests map[uuid.UUID]*models.ServiceRequest
}

func (f *fakeRequests) Get(_ context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, lifecycle.ErrNotFound
	}
	return req, nil
}

type fakeReviewStore struct {
	reviews  map[uuid.UUID]*models.Review // keyed by request id
	profiles map[uuid.UUID]uuid.UUID      // provider user id → profile id

	// when set, CreateAndRecount reports the unique-constraint violation
	// even if the exists check saw nothing, like a concurrent duplicate
	duplicateOnCreate bool

	recounts int
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{
		reviews:  map[uuid.UUID]*models.Review{},
		profiles: map[uuid.UUID]uuid.UUID{},
	}
}

func (s *fakeReviewStore) ExistsForRequest(_ context.Context, requestID uuid.UUID) (bool, error) {
	_, ok := s.reviews[requestID]
	return ok, nil
}

func (s *fakeReviewStore) CreateAndRecount(_ context.Context, rev *models.Review) error {
	if s.duplicateOnCreate {
		return ErrAlreadyReviewed
	}
	if _, ok := s.reviews[rev.RequestID]; ok {
		return ErrAlreadyReviewed
	}
	rev.ID = uuid.New()
	s.reviews[rev.RequestID] = rev
	s.recounts++
	return nil
}

func (s *fakeReviewStore) ProviderProfileIDForUser(_ context.Context, providerUserID uuid.UUID) (uuid.UUID, error) {
	id, ok := s.profiles[providerUserID]
	if !ok {
		return uuid.Nil, lifecycle.ErrNotFound
	}
	return id, nil
}

type fixture struct {
	gate       *Gate
	store      *fakeReviewStore
	requestID  uuid.UUID
	clientID   uuid.UUID
	providerID uuid.UUID
	profileID  uuid.UUID
}

func newFixture(status models.RequestStatus) *fixture {
	f := &fixture{
		requestID:  uuid.New(),
		clientID:   uuid.New(),
		providerID: uuid.New(),
		profileID:  uuid.New(),
	}
	requests := &fakeRequests{requests: map[uuid.UUID]*models.ServiceRequest{
		f.requestID: {
			ID:         f.requestID,
			ClientID:   f.clientID,
			ProviderID: f.providerID,
			Status:     status,
		},
	}}
	f.store = newFakeReviewStore()
	f.store.profiles[f.providerID] = f.profileID
	f.gate = NewGate(requests, f.store)
	return f
}

func TestCanReview(t *testing.T) {
	notReady := []models.RequestStatus{
		models.RequestPending, models.RequestAccepted, models.RequestInProgress,
		models.RequestClientCompleted, models.RequestRejected, models.RequestCancelled,
	}
	for _, status := range notReady {
		f := newFixture(status)
		ok, err := f.gate.CanReview(context.Background(), f.requestID)
		if err != nil {
			t.Fatalf("CanReview(%s): %v", status, err)
		}
		if ok {
			t.Errorf("CanReview(%s) = true, want false", status)
		}
	}

	f := newFixture(models.RequestCompleted)
	ok, err := f.gate.CanReview(context.Background(), f.requestID)
	if err != nil {
		t.Fatalf("CanReview(completed): %v", err)
	}
	if !ok {
		t.Error("CanReview(completed) = false, want true")
	}
}

func TestCanReviewAfterReview(t *testing.T) {
	f := newFixture(models.RequestCompleted)
	f.store.reviews[f.requestID] = &models.Review{}

	ok, err := f.gate.CanReview(context.Background(), f.requestID)
	if err != nil {
		t.Fatalf("CanReview: %v", err)
	}
	if ok {
		t.Error("CanReview = true for already-reviewed request")
	}
}

func TestSubmit(t *testing.T) {
	f := newFixture(models.RequestCompleted)

	rev, err := f.gate.Submit(context.Background(), SubmitParams{
		ClientID:  f.clientID,
		RequestID: f.requestID,
		Rating:    4,
		Comment:   "  Great work  ",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if rev.ProviderProfileID != f.profileID {
		t.Errorf("profile id = %s, want %s", rev.ProviderProfileID, f.profileID)
	}
	if rev.Rating != 4 {
		t.Errorf("rating = %d", rev.Rating)
	}
	if rev.Comment != "Great work" {
		t.Errorf("comment not trimmed: %q", rev.Comment)
	}
	if f.store.recounts != 1 {
		t.Errorf("recounts = %d, want 1", f.store.recounts)
	}
}

func TestSubmitInvalidRating(t *testing.T) {
	f := newFixture(models.RequestCompleted)

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := f.gate.Submit(context.Background(), SubmitParams{
			ClientID:  f.clientID,
			RequestID: f.requestID,
			Rating:    rating,
		})
		if !errors.Is(err, ErrInvalidRating) {
			t.Errorf("rating %d: err = %v, want ErrInvalidRating", rating, err)
		}
	}
	if len(f.store.reviews) != 0 {
		t.Errorf("reviews created despite invalid ratings: %d", len(f.store.reviews))
	}
}

func TestSubmitNotClient(t *testing.T) {
	f := newFixture(models.RequestCompleted)

	for _, caller := range []uuid.UUID{f.providerID, uuid.New()} {
		_, err := f.gate.Submit(context.Background(), SubmitParams{
			ClientID:  caller,
			RequestID: f.requestID,
			Rating:    5,
		})
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("caller %s: err = %v, want ErrForbidden", caller, err)
		}
	}
}

func TestSubmitNotCompleted(t *testing.T) {
	for _, status := range []models.RequestStatus{
		models.RequestPending, models.RequestInProgress, models.RequestClientCompleted,
	} {
		f := newFixture(status)
		_, err := f.gate.Submit(context.Background(), SubmitParams{
			ClientID:  f.clientID,
			RequestID: f.requestID,
			Rating:    5,
		})
		if !errors.Is(err, ErrNotEligible) {
			t.Errorf("status %s: err = %v, want ErrNotEligible", status, err)
		}
	}
}

func TestSubmitDuplicate(t *testing.T) {
	f := newFixture(models.RequestCompleted)

	params := SubmitParams{ClientID: f.clientID, RequestID: f.requestID, Rating: 5}
	if _, err := f.gate.Submit(context.Background(), params); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := f.gate.Submit(context.Background(), params); !errors.Is(err, ErrNotEligible) {
		t.Errorf("second Submit: err = %v, want ErrNotEligible", err)
	}
	if f.store.recounts != 1 {
		t.Errorf("recounts = %d, want 1", f.store.recounts)
	}
}

func TestSubmitConcurrentDuplicate(t *testing.T) {
	f := newFixture(models.RequestCompleted)
	f.store.duplicateOnCreate = true

	_, err := f.gate.Submit(context.Background(), SubmitParams{
		ClientID:  f.clientID,
		RequestID: f.requestID,
		Rating:    5,
	})
	if !errors.Is(err, ErrNotEligible) {
		t.Errorf("err = %v, want ErrNotEligible", err)
	}
}

func TestSubmitUnknownRequest(t *testing.T) {
	f := newFixture(models.RequestCompleted)

	_, err := f.gate.Submit(context.Background(), SubmitParams{
		ClientID:  f.clientID,
		RequestID: uuid.New(),
		Rating:    5,
	})
	if !errors.Is(err, lifecycle.ErrNotFound) {
		t.Errorf("err = %v, want lifecycle.ErrNotFound", err)
	}
}
