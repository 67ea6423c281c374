package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/clickwork-app/clickwork-backend/internal/config"
	"github.com/clickwork-app/clickwork-backend/internal/db"
	"github.com/clickwork-app/clickwork-backend/internal/handlers"
	"github.com/clickwork-app/clickwork-backend/internal/middleware"
	"github.com/clickwork-app/clickwork-backend/internal/models"
	"github.com/clickwork-app/clickwork-backend/internal/realtime"
	"github.com/clickwork-app/clickwork-backend/internal/services/geocode"
	"github.com/clickwork-app/clickwork-backend/internal/services/lifecycle"
	"github.com/clickwork-app/clickwork-backend/internal/services/review"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Redis not reachable:", err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.ProviderProfile{},
		&models.ServiceRequest{},
		&models.Review{},
		&models.Message{},
	); err != nil {
		log.Fatal(err)
	}

	geocoder := geocode.NewService(cfg.GeocodeBaseURL)

	lifecycleMgr := lifecycle.NewManager(lifecycle.NewGormStore(gdb))
	reviewGate := review.NewGate(lifecycleMgr, review.NewGormStore(gdb))

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	accountH := handlers.NewAccountHandler(gdb, geocoder)
	providerH := handlers.NewProviderHandler(gdb, geocoder, "./uploads", cfg.AppBaseURL)
	requestH := handlers.NewRequestHandler(gdb, hub, rdb, lifecycleMgr, reviewGate)
	reviewH := handlers.NewReviewHandler(gdb, hub, rdb, reviewGate)
	messageH := handlers.NewMessageHandler(gdb, hub, rdb)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Static("/uploads", "./uploads")

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Get("/providers", providerH.ListProviders)
	api.Get("/providers/:id", providerH.GetProvider)
	api.Get("/providers/:id/reviews", reviewH.ListProviderReviews)

	// protected (JWT cookie)
	protected := api.Group("/",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/me", accountH.Me)
	protected.Patch("/me/location", accountH.UpdateLocation)

	// provider profile
	protected.Post("/provider/setup",
		middleware.RequireUserTypes("provider"),
		providerH.Setup,
	)
	protected.Get("/provider/profile/me",
		middleware.RequireUserTypes("provider"),
		providerH.GetMyProfile,
	)
	protected.Patch("/provider/profile",
		middleware.RequireUserTypes("provider"),
		providerH.UpdateProfile,
	)
	protected.Post("/provider/photo",
		middleware.RequireUserTypes("provider"),
		providerH.UploadPhoto,
	)

	// service requests
	protected.Post("/requests",
		middleware.RequireUserTypes("client"),
		requestH.CreateRequest,
	)
	protected.Get("/client/requests",
		middleware.RequireUserTypes("client"),
		requestH.ListClientRequests,
	)
	protected.Get("/provider/requests",
		middleware.RequireUserTypes("provider"),
		requestH.ListProviderRequests,
	)
	protected.Get("/requests/:id", requestH.GetRequest)
	protected.Patch("/requests/:id/status", requestH.UpdateStatus)
	protected.Get("/requests/:id/can-review", requestH.CanReview)

	// reviews
	protected.Post("/requests/:id/reviews",
		middleware.RequireUserTypes("client"),
		reviewH.SubmitReview,
	)

	// messaging
	protected.Post("/messages", messageH.SendMessage)
	protected.Get("/messages/conversations", messageH.GetConversations)
	protected.Get("/messages/with/:userId", messageH.GetThread)
	protected.Get("/messages/unread-count", messageH.GetUnreadTotal)

	// WebSocket endpoint, authenticated via query param
	app.Get("/ws/notifications", websocket.New(messageH.WebSocketHandler))

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
