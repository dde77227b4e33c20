package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/granthub/granthub-api/database"
	"github.com/granthub/granthub-api/handlers"
	admin_handlers "github.com/granthub/granthub-api/handlers/admin"
	application_handlers "github.com/granthub/granthub-api/handlers/application"
	auth_handlers "github.com/granthub/granthub-api/handlers/auth"
	content_handlers "github.com/granthub/granthub-api/handlers/content"
	document_handlers "github.com/granthub/granthub-api/handlers/document"
	mentorship_handlers "github.com/granthub/granthub-api/handlers/mentorship"
	notification_handlers "github.com/granthub/granthub-api/handlers/notification"
	partner_handlers "github.com/granthub/granthub-api/handlers/partner"
	program_handlers "github.com/granthub/granthub-api/handlers/program"
	stream_handlers "github.com/granthub/granthub-api/handlers/stream"
	"github.com/granthub/granthub-api/services"
	"github.com/granthub/granthub-api/services/realtime"
	"github.com/granthub/granthub-api/services/storage"
	"github.com/granthub/granthub-api/utils/auth"
	"github.com/granthub/granthub-api/utils/cache"
	"github.com/granthub/granthub-api/utils/middleware"
)

// SetupRoutes wires every handler onto the app. The returned cleanup function
// flushes pending autosaves and closes the Redis connection; call it on
// shutdown.
func SetupRoutes(app *fiber.App, store database.Storage) func() {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "granthub-api"
	}

	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis backs brute force protection, the program cache and the
	// realtime event feed. The portal still works without it, minus those.
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection, caching and live streams will be disabled.", err)
		redisCache = nil
	}

	var bruteForceProtection *middleware.BruteForceProtection
	var publisher *realtime.Publisher
	var subscriber *realtime.Subscriber
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
		publisher = realtime.NewPublisher(redisCache.GetClient())
		subscriber = realtime.NewSubscriber(redisCache.GetClient())
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	var events services.EventPublisher
	if publisher != nil {
		events = publisher
	}

	// Notification and email channels feed the dispatcher; every lifecycle
	// transition goes through it
	emailService := services.NewEmailService()
	notificationService := services.NewNotificationService(db)
	dispatcher := services.NewDispatcher(notificationService, emailService, events)
	appURL := emailService.AppURL()

	// Application pipeline
	applicationService := services.NewApplicationService(
		database.NewApplicationStore(db),
		database.NewUserDirectory(db),
		dispatcher,
		events,
		appURL,
	)
	autosaver := services.NewAutosaver(applicationService, 0)
	applicationHandler := application_handlers.NewApplicationHandler(applicationService, autosaver)

	// Mentorship
	mentorshipService := services.NewMentorshipService(database.NewMatchStore(db), dispatcher, events, appURL)
	sessionService := services.NewSessionService(database.NewSessionStore(db))
	mentorshipHandler := mentorship_handlers.NewMentorshipHandler(mentorshipService, sessionService)

	// Object storage for documents, avatars and logos
	storageClient, err := storage.NewClient(storage.Config{
		AccessKey: os.Getenv("DO_SPACES_ACCESS_KEY"),
		SecretKey: os.Getenv("DO_SPACES_SECRET_KEY"),
		Bucket:    os.Getenv("DO_SPACES_BUCKET"),
		Region:    os.Getenv("DO_SPACES_REGION"),
		Endpoint:  os.Getenv("DO_SPACES_ENDPOINT"),
		CDNURL:    os.Getenv("DO_SPACES_CDN_URL"),
	})
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}
	documentService := services.NewDocumentService(db, storageClient)
	documentHandler := document_handlers.NewDocumentHandler(documentService)

	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection, emailService)
	notificationHandler := notification_handlers.NewNotificationHandler(notificationService)
	programHandler := program_handlers.NewProgramHandler(db, redisCache)
	partnerHandler := partner_handlers.NewPartnerHandler(db, dispatcher, events, appURL)
	eventHandler := content_handlers.NewEventHandler(db)
	announcementHandler := content_handlers.NewAnnouncementHandler(db)
	newsletterHandler := content_handlers.NewNewsletterHandler(db)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", func(c *fiber.Ctx) error {
		return handlers.HandleCheckHealth(c, db, redisCache)
	})

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/forgot-password", authHandler.ForgotPassword)
	authGroup.Post("/reset-password", authHandler.ResetPassword)
	authGroup.Get("/verify-email", authHandler.VerifyEmail)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)
	authGroup.Post("/resend-verification", authMiddleware.Required(), authHandler.ResendVerification)
	authGroup.Post("/avatar", authMiddleware.Required(), documentHandler.UploadAvatar)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Grant programs
	programs := api.Group("/programs")
	programs.Get("/", authMiddleware.Optional(), programHandler.List)       // Public: list open programs
	programs.Get("/:id", programHandler.Get)                                // Public: program details
	programs.Post("/", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(db, "program_create", "programs"), programHandler.Create)
	programs.Put("/:id", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(db, "program_update", "programs"), programHandler.Update)
	programs.Delete("/:id", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(db, "program_delete", "programs"), programHandler.Delete)

	// Grant applications (applicants)
	applications := api.Group("/applications", authMiddleware.Required())
	applications.Get("/", applicationHandler.List)
	applications.Post("/draft", applicationHandler.EnsureDraft)
	applications.Get("/:id", applicationHandler.Get)
	applications.Put("/:id", applicationHandler.SaveDraft)
	applications.Patch("/:id/autosave", applicationHandler.Autosave)
	applications.Post("/:id/submit", authMiddleware.RequireVerifiedEmail(), applicationHandler.Submit)

	// Application documents
	applications.Post("/:id/documents", documentHandler.Upload)
	applications.Get("/:id/documents", documentHandler.List)
	api.Delete("/documents/:id", authMiddleware.Required(), documentHandler.Delete)
	api.Get("/documents/:id/download", authMiddleware.Required(), documentHandler.DownloadURL)

	// Application review (admin)
	review := api.Group("/admin/applications", authMiddleware.RequireAdmin())
	review.Get("/", applicationHandler.ListByStatus)
	review.Get("/counts", applicationHandler.StatusCounts)
	review.Post("/:id/review", middleware.AdminAuditLog(db, "application_review", "applications"), applicationHandler.Review)

	// Mentorship
	mentorship := api.Group("/mentorship", authMiddleware.Required())
	mentorship.Get("/mentors", mentorshipHandler.ListMentors)
	mentorship.Post("/requests", mentorshipHandler.RequestMentor)
	mentorship.Get("/requests/pending", mentorshipHandler.PendingRequests)
	mentorship.Post("/requests/:id/respond", mentorshipHandler.Respond)
	mentorship.Post("/requests/:id/withdraw", mentorshipHandler.Withdraw)
	mentorship.Get("/current", mentorshipHandler.CurrentMatch)

	// Mentorship sessions
	mentorship.Post("/sessions", mentorshipHandler.CreateSession)
	mentorship.Get("/sessions", mentorshipHandler.ListSessions)
	mentorship.Put("/sessions/:id", mentorshipHandler.UpdateSession)
	mentorship.Delete("/sessions/:id", mentorshipHandler.DeleteSession)

	// Notifications
	notifications := api.Group("/notifications", authMiddleware.Required())
	notifications.Get("/", notificationHandler.GetNotifications)
	notifications.Get("/unread-count", notificationHandler.GetUnreadCount)
	notifications.Put("/:id/read", notificationHandler.MarkAsRead)
	notifications.Put("/read-all", notificationHandler.MarkAllAsRead)
	notifications.Delete("/:id", notificationHandler.DeleteNotification)
	notifications.Delete("/", notificationHandler.DeleteAllNotifications)

	// Realtime event streams (SSE)
	if subscriber != nil {
		streamHandler := stream_handlers.NewStreamHandler(subscriber)
		api.Get("/stream/:topic", authMiddleware.Required(), streamHandler.Events)
	}

	// Partner organizations
	partners := api.Group("/partners")
	partners.Get("/", partnerHandler.ListPublic)
	partners.Post("/", authMiddleware.Required(), partnerHandler.Register)
	partners.Get("/me", authMiddleware.Required(), partnerHandler.MyOrganization)
	partners.Put("/me", authMiddleware.Required(), partnerHandler.Update)
	partners.Post("/:id/logo", authMiddleware.Required(), documentHandler.UploadLogo)

	// Partner verification (admin)
	adminPartners := api.Group("/admin/partners", authMiddleware.RequireAdmin())
	adminPartners.Get("/", partnerHandler.AdminList)
	adminPartners.Post("/:id/verify", middleware.AdminAuditLog(db, "partner_verify", "partners"), partnerHandler.Verify)
	adminPartners.Post("/:id/reject", middleware.AdminAuditLog(db, "partner_reject", "partners"), partnerHandler.Reject)

	// Events
	eventsGroup := api.Group("/events")
	eventsGroup.Get("/", eventHandler.ListPublished)
	eventsGroup.Get("/mine", authMiddleware.Required(), eventHandler.ListMine)
	eventsGroup.Get("/:id", authMiddleware.Optional(), eventHandler.Get)
	eventsGroup.Post("/", authMiddleware.Required(), eventHandler.Create)
	eventsGroup.Put("/:id", authMiddleware.Required(), eventHandler.Update)
	eventsGroup.Delete("/:id", authMiddleware.Required(), eventHandler.Delete)

	// Announcements
	announcements := api.Group("/announcements")
	announcements.Get("/", authMiddleware.Optional(), announcementHandler.List)
	announcements.Post("/", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(db, "announcement_create", "announcements"), announcementHandler.Create)
	announcements.Put("/:id", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(db, "announcement_update", "announcements"), announcementHandler.Update)
	announcements.Delete("/:id", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(db, "announcement_delete", "announcements"), announcementHandler.Delete)

	// Newsletter (public)
	newsletter := api.Group("/newsletter")
	newsletter.Post("/subscribe", newsletterHandler.Subscribe)
	newsletter.Post("/unsubscribe", newsletterHandler.Unsubscribe)

	// Admin user management
	admin := api.Group("/admin", authMiddleware.RequireAdmin())
	admin.Get("/users/stats", func(c *fiber.Ctx) error { return admin_handlers.GetUserStats(c, store) })
	admin.Get("/users", func(c *fiber.Ctx) error { return admin_handlers.ListUsers(c, store) })
	admin.Get("/users/:id", func(c *fiber.Ctx) error { return admin_handlers.GetUser(c, store) })
	admin.Put("/users/:id", middleware.AdminAuditLog(db, "user_update", "users"), func(c *fiber.Ctx) error { return admin_handlers.UpdateUser(c, store) })
	admin.Delete("/users/:id", middleware.AdminAuditLog(db, "user_delete", "users"), func(c *fiber.Ctx) error { return admin_handlers.DeleteUser(c, store) })
	admin.Post("/users/:id/reset-password", middleware.AdminAuditLog(db, "password_reset", "users"), func(c *fiber.Ctx) error { return admin_handlers.ResetUserPassword(c, store) })

	// Admin analytics
	admin.Get("/analytics/overview", func(c *fiber.Ctx) error { return admin_handlers.GetOverviewAnalytics(c, store) })
	admin.Get("/analytics/applications", func(c *fiber.Ctx) error { return admin_handlers.GetApplicationAnalytics(c, store) })
	admin.Get("/analytics/mentorship", func(c *fiber.Ctx) error { return admin_handlers.GetMentorshipAnalytics(c, store) })

	// Admin audit logs
	admin.Get("/audit", func(c *fiber.Ctx) error { return admin_handlers.ListAuditLogs(c, store) })
	admin.Get("/audit/:id", func(c *fiber.Ctx) error { return admin_handlers.GetAuditLog(c, store) })

	return func() {
		autosaver.Close()
		if redisCache != nil {
			if err := redisCache.Close(); err != nil {
				log.Printf("Failed to close Redis connection: %v", err)
			}
		}
	}
}
