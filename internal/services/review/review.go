// Package review decides whether a review may be filed for a request and
// enforces single-review-per-request. A review becomes possible only once
// the request's lifecycle reaches completed.
package review

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/clickwork-app/clickwork-backend/internal/models"
)

var (
	// ErrNotEligible means the request is not completed yet, or a review
	// already exists for it.
	ErrNotEligible = errors.New("review: request not eligible for review")

	// ErrInvalidRating means the rating is outside 1-5.
	ErrInvalidRating = errors.New("review: rating must be between 1 and 5")

	// ErrForbidden means the caller is not the client on the request.
	ErrForbidden = errors.New("review: caller is not the request's client")

	// ErrAlreadyReviewed is returned by the store when the unique
	// (request_id) constraint rejects a concurrent duplicate insert.
	ErrAlreadyReviewed = errors.New("review: request already reviewed")
)

// RequestSource is the slice of the lifecycle manager the gate needs.
type RequestSource interface {
	Get(ctx context.Context, requestID uuid.UUID) (*models.ServiceRequest, error)
}

// Store abstracts review persistence for testability.
type Store interface {
	ExistsForRequest(ctx context.Context, requestID uuid.UUID) (bool, error)
	// CreateAndRecount inserts the review and recomputes the provider
	// profile's rating/total_reviews from the review rows in the same
	// transaction, keeping the aggregates consistent.
	CreateAndRecount(ctx context.Context, rev *models.Review) error
	// ProviderProfileIDForUser resolves a provider's user id to their
	// profile id; reviews hang off the profile since ratings aggregate
	// per profile.
	ProviderProfileIDForUser(ctx context.Context, providerUserID uuid.UUID) (uuid.UUID, error)
}

type Gate struct {
	requests RequestSource
	store    Store
}

func NewGate(requests RequestSource, store Store) *Gate {
	return &Gate{requests: requests, store: store}
}

// CanReview reports whether a review may currently be filed for the
// request: status is completed and no review references it yet.
func (g *Gate) CanReview(ctx context.Context, requestID uuid.UUID) (bool, error) {
	req, err := g.requests.Get(ctx, requestID)
	if err != nil {
		return false, err
	}
	if req.Status != models.RequestCompleted {
		return false, nil
	}
	exists, err := g.store.ExistsForRequest(ctx, requestID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

type SubmitParams struct {
	ClientID  uuid.UUID
	RequestID uuid.UUID
	Rating    int
	Comment   string
}

// Submit files exactly one review for a completed request on behalf of
// its client. The existence check is advisory; the unique constraint on
// request_id settles concurrent submissions.
func (g *Gate) Submit(ctx context.Context, p SubmitParams) (*models.Review, error) {
	if p.Rating < 1 || p.Rating > 5 {
		return nil, ErrInvalidRating
	}

	req, err := g.requests.Get(ctx, p.RequestID)
	if err != nil {
		return nil, err
	}
	if req.ClientID != p.ClientID {
		return nil, ErrForbidden
	}
	if req.Status != models.RequestCompleted {
		return nil, ErrNotEligible
	}

	exists, err := g.store.ExistsForRequest(ctx, p.RequestID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrNotEligible
	}

	profileID, err := g.store.ProviderProfileIDForUser(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}

	rev := &models.Review{
		RequestID:         p.RequestID,
		ClientID:          p.ClientID,
		ProviderProfileID: profileID,
		Rating:            p.Rating,
		Comment:           strings.TrimSpace(p.Comment),
	}

	if err := g.store.CreateAndRecount(ctx, rev); err != nil {
		if errors.Is(err, ErrAlreadyReviewed) {
			return nil, ErrNotEligible
		}
		return nil, err
	}
	return rev, nil
}
