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

type RequestHandler struct {
	DB        *gorm.DB
	Hub       *realtime.Hub
	RDB       *redis.Client
	Lifecycle *lifecycle.Manager
	Reviews   *review.Gate
}

func NewRequestHandler(db *gorm.DB, hub *realtime.Hub, rdb *redis.Client, lc *lifecycle.Manager, gate *review.Gate) *RequestHandler {
	return &RequestHandler{DB: db, Hub: hub, RDB: rdb, Lifecycle: lc, Reviews: gate}
}

// CreateRequestReq is the request body for creating a service request
type CreateRequestReq struct {
	ProviderID  string  `json:"provider_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Budget      float64 `json:"budget"`
	Location    string  `json:"location"`
	Deadline    string  `json:"deadline"` // ISO format: 2026-09-30
}

// ServiceRequestResponse is the response DTO for a service request
type ServiceRequestResponse struct {
	ID         string `json:"id"`
	ClientID   string `json:"client_id"`
	ProviderID string `json:"provider_id"`

	Title       string  `json:"title"`
	Description string  `json:"description"`
	Budget      float64 `json:"budget"`
	Location    string  `json:"location"`
	Deadline    string  `json:"deadline"`

	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	// Optional embedded data
	Client   *UserMini `json:"client,omitempty"`
	Provider *UserMini `json:"provider,omitempty"`
}

func toServiceRequestResponse(req *models.ServiceRequest) ServiceRequestResponse {
	resp := ServiceRequestResponse{
		ID:          req.ID.String(),
		ClientID:    req.ClientID.String(),
		ProviderID:  req.ProviderID.String(),
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Location:    req.Location,
		Deadline:    req.Deadline.Format("2006-01-02"),
		Status:      string(req.Status),
		CreatedAt:   req.CreatedAt,
	}

	if req.Client != nil {
		resp.Client = toUserMini(req.Client)
	}
	if req.Provider != nil {
		resp.Provider = toUserMini(req.Provider)
	}

	return resp
}

// CreateRequest creates a new service request addressed to a provider
func (h *RequestHandler) CreateRequest(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var req CreateRequestReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	providerUUID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Invalid provider ID",
		})
	}

	// The target must be an active provider account
	var provider models.User
	if err := h.DB.First(&provider, "id = ? AND user_type = ?", providerUUID, models.UserTypeProvider).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"success": false,
			"message": "Provider not found",
		})
	}

	params := lifecycle.CreateParams{
		ClientID:    userUUID,
		ProviderID:  providerUUID,
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Location:    req.Location,
	}

	if req.Deadline != "" {
		deadline, err := time.Parse("2006-01-02", req.Deadline)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{
				"success": false,
				"message": "Invalid deadline format, expected YYYY-MM-DD",
			})
		}
		params.Deadline = &deadline
	}

	created, err := h.Lifecycle.Create(c.Context(), params)
	if err != nil {
		var ve *lifecycle.ValidationError
		if errors.As(err, &ve) {
			errs := FieldErrors{}
			errs.Add(ve.Field, ve.Reason)
			return validationFail(c, errs)
		}
		log.Println("Error creating service request:", err)
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create request",
		})
	}

	// Load relations for response
	h.DB.Preload("Client").Preload("Provider").Preload("Provider.ProviderProfile").
		First(created, "id = ?", created.ID)

	resp := toServiceRequestResponse(created)

	// Notify the provider
	h.Hub.SendToUser(providerUUID, fiber.Map{
		"type":    "new_request",
		"request": resp,
	})
	h.publishNotification(providerUUID, fiber.Map{
		"type":       "new_request",
		"request_id": created.ID.String(),
		"client_id":  userUUID.String(),
	})

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"data":    resp,
	})
}

// ListClientRequests returns the requests the current user sent as a client
func (h *RequestHandler) ListClientRequests(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var requests []models.ServiceRequest
	q := h.DB.
		Preload("Provider").
		Preload("Provider.ProviderProfile").
		Where("client_id = ?", userUUID)

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	if err := q.Order("created_at DESC").Find(&requests).Error; err != nil {
		log.Println("Error fetching client requests:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch requests"})
	}

	out := make([]ServiceRequestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, toServiceRequestResponse(&r))
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

// ListProviderRequests returns the requests addressed to the current provider
func (h *RequestHandler) ListProviderRequests(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var requests []models.ServiceRequest
	q := h.DB.
		Preload("Client").
		Where("provider_id = ?", userUUID)

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	if err := q.Order("created_at DESC").Find(&requests).Error; err != nil {
		log.Println("Error fetching provider requests:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch requests"})
	}

	out := make([]ServiceRequestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, toServiceRequestResponse(&r))
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

// GetRequest returns a single request visible to its participants
func (h *RequestHandler) GetRequest(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	requestUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request ID"})
	}

	var req models.ServiceRequest
	if err := h.DB.
		Preload("Client").
		Preload("Provider").
		Preload("Provider.ProviderProfile").
		First(&req, "id = ?", requestUUID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Request not found"})
	}

	if req.ClientID != userUUID && req.ProviderID != userUUID {
		return c.Status(403).JSON(fiber.Map{"success": false, "message": "Access denied"})
	}

	return c.JSON(fiber.Map{"success": true, "data": toServiceRequestResponse(&req)})
}

// UpdateStatusReq is the request body for a status transition
type UpdateStatusReq struct {
	Status string `json:"status"`
}

// UpdateStatus applies one lifecycle transition on behalf of the caller
func (h *RequestHandler) UpdateStatus(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	requestUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request ID"})
	}

	var req UpdateStatusReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}

	target, err := models.ParseRequestStatus(req.Status)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid status"})
	}

	updated, err := h.Lifecycle.Transition(c.Context(), requestUUID, userUUID, target)
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrNotFound):
			return c.Status(404).JSON(fiber.Map{"success": false, "message": "Request not found"})
		case errors.Is(err, lifecycle.ErrForbidden):
			return c.Status(403).JSON(fiber.Map{"success": false, "message": "You cannot make this change"})
		case errors.Is(err, lifecycle.ErrInvalidTransition):
			return c.Status(409).JSON(fiber.Map{"success": false, "message": "Status change not allowed from the current state"})
		default:
			log.Println("Error updating request status:", err)
			return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to update status"})
		}
	}

	// Reload with relations
	h.DB.Preload("Client").Preload("Provider").Preload("Provider.ProviderProfile").
		First(updated, "id = ?", updated.ID)

	resp := toServiceRequestResponse(updated)

	// Both sides see the change immediately
	h.Hub.SendToPair(updated.ClientID, updated.ProviderID, fiber.Map{
		"type":    "request_update",
		"request": resp,
	})

	recipientID := updated.ClientID
	if userUUID == updated.ClientID {
		recipientID = updated.ProviderID
	}
	h.publishNotification(recipientID, fiber.Map{
		"type":       "request_update",
		"request_id": updated.ID.String(),
		"status":     string(updated.Status),
	})

	return c.JSON(fiber.Map{"success": true, "data": resp})
}

// CanReview reports whether the request can be reviewed right now
func (h *RequestHandler) CanReview(c *fiber.Ctx) error {
	if _, err := getUserUUID(c); err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	requestUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request ID"})
	}

	ok, err := h.Reviews.CanReview(c.Context(), requestUUID)
	if err != nil {
		if errors.Is(err, lifecycle.ErrNotFound) {
			return c.Status(404).JSON(fiber.Map{"success": false, "message": "Request not found"})
		}
		log.Println("Error checking review eligibility:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to check review eligibility"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"can_review": ok},
	})
}

func (h *RequestHandler) publishNotification(recipient uuid.UUID, payload fiber.Map) {
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.RDB.Publish(context.Background(), "notifications:"+recipient.String(), b)
}
