package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/clickwork-app/clickwork-backend/internal/models"
	"github.com/clickwork-app/clickwork-backend/internal/realtime"
	"github.com/clickwork-app/clickwork-backend/internal/services/lifecycle"
	"github.com/clickwork-app/clickwork-backend/internal/services/review"
)

type ReviewHandler struct {
	DB      *gorm.DB
	Hub     *realtime.Hub
	RDB     *redis.Client
	Reviews *review.Gate
}

func NewReviewHandler(db *gorm.DB, hub *realtime.Hub, rdb *redis.Client, gate *review.Gate) *ReviewHandler {
	return &ReviewHandler{DB: db, Hub: hub, RDB: rdb, Reviews: gate}
}

// SubmitReviewReq is the request body for filing a review
type SubmitReviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ReviewResponse is the response DTO for a review
type ReviewResponse struct {
	ID                string    `json:"id"`
	RequestID         string    `json:"request_id"`
	ClientID          string    `json:"client_id"`
	ProviderProfileID string    `json:"provider_profile_id"`
	Rating            int       `json:"rating"`
	Comment           string    `json:"comment"`
	CreatedAt         time.Time `json:"created_at"`

	Client *UserMini `json:"client,omitempty"`
}

func toReviewResponse(rev *models.Review) ReviewResponse {
	resp := ReviewResponse{
		ID:                rev.ID.String(),
		RequestID:         rev.RequestID.String(),
		ClientID:          rev.ClientID.String(),
		ProviderProfileID: rev.ProviderProfileID.String(),
		Rating:            rev.Rating,
		Comment:           rev.Comment,
		CreatedAt:         rev.CreatedAt,
	}
	if rev.Client != nil {
		resp.Client = toUserMini(rev.Client)
	}
	return resp
}

// SubmitReview files a review for a completed request
func (h *ReviewHandler) SubmitReview(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	requestUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request ID"})
	}

	var req SubmitReviewReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}

	rev, err := h.Reviews.Submit(c.Context(), review.SubmitParams{
		ClientID:  userUUID,
		RequestID: requestUUID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrNotFound):
			return c.Status(404).JSON(fiber.Map{"success": false, "message": "Request not found"})
		case errors.Is(err, review.ErrForbidden):
			return c.Status(403).JSON(fiber.Map{"success": false, "message": "Only the request's client can leave a review"})
		case errors.Is(err, review.ErrInvalidRating):
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "Rating must be between 1 and 5"})
		case errors.Is(err, review.ErrNotEligible):
			return c.Status(409).JSON(fiber.Map{"success": false, "message": "This request cannot be reviewed"})
		default:
			log.Println("Error submitting review:", err)
			return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to submit review"})
		}
	}

	// Tell the provider about the new review
	var request models.ServiceRequest
	if err := h.DB.First(&request, "id = ?", requestUUID).Error; err == nil {
		h.Hub.SendToUser(request.ProviderID, fiber.Map{
			"type":   "new_review",
			"review": toReviewResponse(rev),
		})

		notif := fiber.Map{
			"type":       "new_review",
			"request_id": requestUUID.String(),
			"rating":     rev.Rating,
		}
		if b, err := json.Marshal(notif); err == nil {
			h.RDB.Publish(context.Background(), "notifications:"+request.ProviderID.String(), b)
		}
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"data":    toReviewResponse(rev),
	})
}

// ListProviderReviews returns the reviews for a provider profile, newest first
func (h *ReviewHandler) ListProviderReviews(c *fiber.Ctx) error {
	profileUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid provider ID"})
	}

	var reviews []models.Review
	if err := h.DB.
		Preload("Client").
		Where("provider_profile_id = ?", profileUUID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		log.Println("Error fetching reviews:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch reviews"})
	}

	out := make([]ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, toReviewResponse(&r))
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}
