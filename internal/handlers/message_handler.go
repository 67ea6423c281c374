package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/clickwork-app/clickwork-backend/internal/models"
	"github.com/clickwork-app/clickwork-backend/internal/realtime"
)

type MessageHandler struct {
	DB  *gorm.DB
	Hub *realtime.Hub
	RDB *redis.Client
}

func NewMessageHandler(db *gorm.DB, hub *realtime.Hub, rdb *redis.Client) *MessageHandler {
	return &MessageHandler{DB: db, Hub: hub, RDB: rdb}
}

type UserMini struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ProfilePhoto string `json:"profile_photo,omitempty"`
}

func toUserMini(u *models.User) *UserMini {
	return &UserMini{
		ID:           u.ID.String(),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		ProfilePhoto: u.ProfilePhoto,
	}
}

// MessageResponse is the response DTO for a message
type MessageResponse struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

func toMessageResponse(msg *models.Message) MessageResponse {
	return MessageResponse{
		ID:         msg.ID.String(),
		SenderID:   msg.SenderID.String(),
		ReceiverID: msg.ReceiverID.String(),
		Content:    msg.Content,
		Read:       msg.Read,
		CreatedAt:  msg.CreatedAt,
	}
}

// SendMessage sends a direct message to another user
func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var req struct {
		ReceiverID string `json:"receiver_id"`
		Content    string `json:"content"`
	}

	if err := c.BodyParser(&req); err != nil || req.Content == "" {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Content is required",
		})
	}

	receiverUUID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid receiver ID"})
	}

	if receiverUUID == userUUID {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Cannot message yourself"})
	}

	var receiver models.User
	if err := h.DB.First(&receiver, "id = ?", receiverUUID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Receiver not found"})
	}

	msg := models.Message{
		SenderID:   userUUID,
		ReceiverID: receiverUUID,
		Content:    req.Content,
		Read:       false,
	}

	if err := h.DB.Create(&msg).Error; err != nil {
		log.Println("Error creating message:", err)
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to send message",
		})
	}

	msgResp := toMessageResponse(&msg)

	// Broadcast via WebSocket to both sides
	h.Hub.SendToPair(userUUID, receiverUUID, fiber.Map{
		"type":    "new_message",
		"message": msgResp,
	})

	// Push notification via Redis for the recipient
	notif := map[string]interface{}{
		"type":      "new_message",
		"sender_id": userUUID.String(),
		"content":   req.Content,
	}
	payload, _ := json.Marshal(notif)
	h.RDB.Publish(context.Background(), "notifications:"+receiverUUID.String(), payload)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    msgResp,
	})
}

// ConversationOut is one derived conversation, grouped by counterpart
type ConversationOut struct {
	PartnerID   string           `json:"partner_id"`
	Partner     *UserMini        `json:"partner,omitempty"`
	LastMessage *MessageResponse `json:"last_message,omitempty"`
	UnreadCount int64            `json:"unread_count"`
}

// GetConversations groups the user's messages by counterpart
func (h *MessageHandler) GetConversations(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var messages []models.Message
	if err := h.DB.
		Preload("Sender").
		Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", userUUID, userUUID).
		Order("created_at DESC").
		Find(&messages).Error; err != nil {
		log.Println("Error fetching messages:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch conversations"})
	}

	// Messages arrive newest first, so the first message per partner is
	// the conversation's last message
	order := make([]uuid.UUID, 0)
	byPartner := make(map[uuid.UUID]*ConversationOut)

	for i := range messages {
		msg := &messages[i]

		partnerID := msg.SenderID
		partner := msg.Sender
		if msg.SenderID == userUUID {
			partnerID = msg.ReceiverID
			partner = msg.Receiver
		}

		conv, ok := byPartner[partnerID]
		if !ok {
			conv = &ConversationOut{PartnerID: partnerID.String()}
			if partner != nil {
				conv.Partner = toUserMini(partner)
			}
			last := toMessageResponse(msg)
			conv.LastMessage = &last

			byPartner[partnerID] = conv
			order = append(order, partnerID)
		}

		if msg.ReceiverID == userUUID && !msg.Read {
			conv.UnreadCount++
		}
	}

	out := make([]ConversationOut, 0, len(order))
	for _, id := range order {
		out = append(out, *byPartner[id])
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

// GetThread returns the messages between the user and a counterpart and
// marks the incoming ones as read
func (h *MessageHandler) GetThread(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	partnerUUID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid user ID"})
	}

	var messages []models.Message
	if err := h.DB.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userUUID, partnerUUID, partnerUUID, userUUID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		log.Println("Error fetching thread:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch messages"})
	}

	// Mark incoming messages as read
	if err := h.DB.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read = false", partnerUUID, userUUID).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": time.Now(),
		}).Error; err != nil {
		log.Println("Error marking messages as read:", err)
		// Don't fail the request, just log it
	}

	out := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, toMessageResponse(&messages[i]))
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

// GetUnreadTotal returns the total count of unread messages for the user
func (h *MessageHandler) GetUnreadTotal(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var count int64
	if err := h.DB.Model(&models.Message{}).
		Where("receiver_id = ? AND read = false", userUUID).
		Count(&count).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to count unread messages"})
	}

	return c.JSON(fiber.Map{"success": true, "data": count})
}

// WebSocketHandler registers a connection on the notification hub
func (h *MessageHandler) WebSocketHandler(c *websocket.Conn) {
	// Identity comes from the query string; the ws route has no JWT middleware
	userID := c.Query("user_id")
	if userID == "" {
		log.Println("WebSocket: user_id parameter missing")
		c.Close()
		return
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		log.Println("WebSocket: invalid user_id:", userID, "error:", err)
		c.Close()
		return
	}

	log.Printf("WebSocket: user %s connected\n", userID)

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userUUID,
		Conn:   &realtime.WebSocketConn{Conn: c},
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer func() {
		h.Hub.UnregisterClient(client)
		log.Printf("WebSocket: user %s disconnected\n", userID)
	}()

	// Pump hub messages out to the client
	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("WebSocket write error:", err)
				return
			}
		}
	}()

	// Read loop keeps the connection alive
	for {
		var payload map[string]interface{}
		if err := c.ReadJSON(&payload); err != nil {
			log.Printf("WebSocket read error for user %s: %v\n", userID, err)
			break
		}

		if msgType, ok := payload["type"].(string); ok && msgType == "pong" {
			continue
		}
	}
}
