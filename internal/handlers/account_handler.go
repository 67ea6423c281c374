package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/clickwork-app/clickwork-backend/internal/models"
	"github.com/clickwork-app/clickwork-backend/internal/services/geocode"
)

type AccountHandler struct {
	DB       *gorm.DB
	Geocoder *geocode.Service
}

func NewAccountHandler(db *gorm.DB, geocoder *geocode.Service) *AccountHandler {
	return &AccountHandler{DB: db, Geocoder: geocoder}
}

// Me returns the current user, including the provider profile when present
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var user models.User
	if err := h.DB.Preload("ProviderProfile").First(&user, "id = ?", userUUID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "User not found"})
	}
	user.Password = ""

	return c.JSON(fiber.Map{"success": true, "data": user})
}

type UpdateLocationReq struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UpdateLocation stores the user's coordinates and resolves them to a
// city and country via reverse geocoding
func (h *AccountHandler) UpdateLocation(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var req UpdateLocationReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}

	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Coordinates out of range"})
	}

	updates := map[string]interface{}{
		"latitude":  req.Latitude,
		"longitude": req.Longitude,
	}

	if place, err := h.Geocoder.ReverseGeocode(c.Context(), req.Latitude, req.Longitude); err != nil {
		log.Println("Reverse geocode failed:", err)
	} else {
		if city := place.CityName(); city != "" {
			updates["city"] = city
		}
		if place.CountryName != "" {
			updates["country"] = place.CountryName
		}
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", userUUID).Updates(updates).Error; err != nil {
		log.Println("Error updating user location:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to update location"})
	}

	var user models.User
	h.DB.First(&user, "id = ?", userUUID)
	user.Password = ""

	return c.JSON(fiber.Map{"success": true, "data": user})
}
