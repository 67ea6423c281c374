package handlers

import (
	"encoding/json"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/clickwork-app/clickwork-backend/internal/models"
	"github.com/clickwork-app/clickwork-backend/internal/services/geocode"
)

type ProviderHandler struct {
	DB         *gorm.DB
	Geocoder   *geocode.Service
	UploadDir  string
	AppBaseURL string
}

func NewProviderHandler(db *gorm.DB, geocoder *geocode.Service, uploadDir, appBaseURL string) *ProviderHandler {
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	return &ProviderHandler{DB: db, Geocoder: geocoder, UploadDir: uploadDir, AppBaseURL: appBaseURL}
}

// ProviderProfileReq is the request body for provider setup and updates
type ProviderProfileReq struct {
	BrandName    string `json:"brand_name"`
	BusinessType string `json:"business_type"`
	Description  string `json:"description"`
	Phone        string `json:"phone"`
	Website      string `json:"website"`

	City       string `json:"city"`
	StreetName string `json:"street_name"`
	ZipCode    string `json:"zip_code"`
	Country    string `json:"country"`

	Services        []string `json:"services"`
	YearsExperience string   `json:"years_experience"`
	HourlyRate      float64  `json:"hourly_rate"`
	PortfolioLinks  []string `json:"portfolio_links"`
	Certifications  string   `json:"certifications"`
	Languages       []string `json:"languages"`
	Availability    string   `json:"availability"`
}

// Setup creates the provider profile for the current user
func (h *ProviderHandler) Setup(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var req ProviderProfileReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}

	errors := FieldErrors{}
	if strings.TrimSpace(req.BrandName) == "" {
		errors.Add("brand_name", "Brand name is required")
	}
	if strings.TrimSpace(req.City) == "" {
		errors.Add("city", "City is required")
	}
	if strings.TrimSpace(req.Country) == "" {
		errors.Add("country", "Country is required")
	}
	if len(req.Services) == 0 {
		errors.Add("services", "At least one service is required")
	}
	if len(errors) > 0 {
		return validationFail(c, errors)
	}

	// One profile per user
	var existing models.ProviderProfile
	if err := h.DB.First(&existing, "user_id = ?", userUUID).Error; err == nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Profile already exists"})
	}

	profile := models.ProviderProfile{
		UserID:          userUUID,
		BrandName:       strings.TrimSpace(req.BrandName),
		BusinessType:    models.BusinessType(req.BusinessType),
		Description:     req.Description,
		Phone:           req.Phone,
		Website:         req.Website,
		City:            strings.TrimSpace(req.City),
		StreetName:      req.StreetName,
		ZipCode:         req.ZipCode,
		Country:         strings.TrimSpace(req.Country),
		YearsExperience: req.YearsExperience,
		HourlyRate:      req.HourlyRate,
		Certifications:  req.Certifications,
		Availability:    req.Availability,
	}
	if profile.BusinessType == "" {
		profile.BusinessType = models.BusinessIndividual
	}
	profile.Services = toJSONList(req.Services)
	profile.PortfolioLinks = toJSONList(req.PortfolioLinks)
	profile.Languages = toJSONList(req.Languages)

	// Resolve city/country to coordinates; a failed lookup is not fatal
	if coords, err := h.Geocoder.GeocodeCity(c.Context(), profile.City, profile.Country); err != nil {
		log.Println("Geocode failed for provider setup:", err)
	} else {
		profile.Latitude = coords.Latitude
		profile.Longitude = coords.Longitude
	}

	if err := h.DB.Create(&profile).Error; err != nil {
		log.Println("Error creating provider profile:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to create profile"})
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "data": profile})
}

// GetMyProfile returns the current provider's profile
func (h *ProviderHandler) GetMyProfile(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var profile models.ProviderProfile
	if err := h.DB.First(&profile, "user_id = ?", userUUID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Profile not found"})
	}

	return c.JSON(fiber.Map{"success": true, "data": profile})
}

// UpdateProfile updates the current provider's profile
func (h *ProviderHandler) UpdateProfile(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var req ProviderProfileReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}

	var profile models.ProviderProfile
	if err := h.DB.First(&profile, "user_id = ?", userUUID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Profile not found"})
	}

	movedCity := false
	if city := strings.TrimSpace(req.City); city != "" && city != profile.City {
		profile.City = city
		movedCity = true
	}
	if country := strings.TrimSpace(req.Country); country != "" && country != profile.Country {
		profile.Country = country
		movedCity = true
	}

	if brand := strings.TrimSpace(req.BrandName); brand != "" {
		profile.BrandName = brand
	}
	if req.BusinessType != "" {
		profile.BusinessType = models.BusinessType(req.BusinessType)
	}
	profile.Description = req.Description
	profile.Phone = req.Phone
	profile.Website = req.Website
	profile.StreetName = req.StreetName
	profile.ZipCode = req.ZipCode
	profile.YearsExperience = req.YearsExperience
	if req.HourlyRate > 0 {
		profile.HourlyRate = req.HourlyRate
	}
	profile.Certifications = req.Certifications
	profile.Availability = req.Availability
	if req.Services != nil {
		profile.Services = toJSONList(req.Services)
	}
	if req.PortfolioLinks != nil {
		profile.PortfolioLinks = toJSONList(req.PortfolioLinks)
	}
	if req.Languages != nil {
		profile.Languages = toJSONList(req.Languages)
	}

	if movedCity {
		if coords, err := h.Geocoder.GeocodeCity(c.Context(), profile.City, profile.Country); err != nil {
			log.Println("Geocode failed for provider update:", err)
		} else {
			profile.Latitude = coords.Latitude
			profile.Longitude = coords.Longitude
		}
	}

	if err := h.DB.Save(&profile).Error; err != nil {
		log.Println("Error updating provider profile:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{"success": true, "data": profile})
}

// UploadPhoto stores a profile photo and links it to the user
func (h *ProviderHandler) UploadPhoto(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Photo file is required"})
	}

	if file.Size > 5*1024*1024 {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Photo exceeds 5MB limit"})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".webp" {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Unsupported image format"})
	}

	filename := uuid.New().String() + ext
	uploadDir := filepath.Join(h.UploadDir, "profile-photos")
	os.MkdirAll(uploadDir, 0755)

	savePath := filepath.Join(uploadDir, filename)
	if err := c.SaveFile(file, savePath); err != nil {
		log.Println("Error saving profile photo:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to save photo"})
	}

	publicPath := "/uploads/profile-photos/" + filename
	if h.AppBaseURL != "" {
		publicPath = strings.TrimRight(h.AppBaseURL, "/") + publicPath
	}

	if err := h.DB.Model(&models.User{}).
		Where("id = ?", userUUID).
		Update("profile_photo", publicPath).Error; err != nil {
		log.Println("Error linking profile photo:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to update profile photo"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"photo_url": publicPath},
	})
}

// ProviderOut is the public listing DTO for a provider
type ProviderOut struct {
	models.ProviderProfile
	User       *UserMini `json:"user,omitempty"`
	DistanceKM *float64  `json:"distance_km,omitempty"`
}

// ListProviders is the public provider directory: filter by service/city,
// ordered by rating then review count, optionally re-sorted by distance
// from the caller's coordinates
func (h *ProviderHandler) ListProviders(c *fiber.Ctx) error {
	q := h.DB.Preload("User").Model(&models.ProviderProfile{})

	if service := c.Query("service"); service != "" {
		q = q.Where("services::text ILIKE ?", "%"+service+"%")
	}
	if city := c.Query("city"); city != "" {
		q = q.Where("city ILIKE ?", city)
	}

	var profiles []models.ProviderProfile
	if err := q.Order("rating DESC, total_reviews DESC").
		Limit(100).
		Find(&profiles).Error; err != nil {
		log.Println("Error fetching providers:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch providers"})
	}

	out := make([]ProviderOut, 0, len(profiles))
	for i := range profiles {
		p := ProviderOut{ProviderProfile: profiles[i]}
		if profiles[i].User != nil {
			p.User = toUserMini(profiles[i].User)
		}
		p.ProviderProfile.User = nil
		out = append(out, p)
	}

	// Distance sort when the caller shares a location; close ratings lose
	// to proximity, matching the dashboard's nearby-first ordering
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat == nil && errLng == nil {
		for i := range out {
			if out[i].Latitude != 0 || out[i].Longitude != 0 {
				d := haversineKM(lat, lng, out[i].Latitude, out[i].Longitude)
				out[i].DistanceKM = &d
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			di, dj := out[i].DistanceKM, out[j].DistanceKM
			if di != nil && dj != nil && math.Abs(*di-*dj) > 1 {
				return *di < *dj
			}
			if math.Abs(out[i].Rating-out[j].Rating) > 0.5 {
				return out[i].Rating > out[j].Rating
			}
			return out[i].TotalReviews > out[j].TotalReviews
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

// GetProvider returns the public profile with its recent reviews
func (h *ProviderHandler) GetProvider(c *fiber.Ctx) error {
	profileUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid provider ID"})
	}

	var profile models.ProviderProfile
	if err := h.DB.Preload("User").First(&profile, "id = ?", profileUUID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Provider not found"})
	}

	var reviews []models.Review
	h.DB.Preload("Client").
		Where("provider_profile_id = ?", profileUUID).
		Order("created_at DESC").
		Limit(10).
		Find(&reviews)

	reviewsOut := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		reviewsOut = append(reviewsOut, toReviewResponse(&reviews[i]))
	}

	p := ProviderOut{ProviderProfile: profile}
	if profile.User != nil {
		p.User = toUserMini(profile.User)
	}
	p.ProviderProfile.User = nil

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"provider": p,
			"reviews":  reviewsOut,
		},
	})
}

func toJSONList(items []string) datatypes.JSON {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return datatypes.JSON(b)
}

// haversineKM is the great-circle distance between two coordinates
func haversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKM = 6371

	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
