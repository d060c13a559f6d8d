package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduadmit/config"
	"github.com/sahilchouksey/eduadmit/database"
	"github.com/sahilchouksey/eduadmit/handlers"
	admission_handlers "github.com/sahilchouksey/eduadmit/handlers/admission"
	auth_handlers "github.com/sahilchouksey/eduadmit/handlers/auth"
	category_handlers "github.com/sahilchouksey/eduadmit/handlers/category"
	course_handlers "github.com/sahilchouksey/eduadmit/handlers/course"
	enrollment_handlers "github.com/sahilchouksey/eduadmit/handlers/enrollment"
	feedback_handlers "github.com/sahilchouksey/eduadmit/handlers/feedback"
	institute_handlers "github.com/sahilchouksey/eduadmit/handlers/institute"
	notification_handlers "github.com/sahilchouksey/eduadmit/handlers/notification"
	payment_handlers "github.com/sahilchouksey/eduadmit/handlers/payment"
	"github.com/sahilchouksey/eduadmit/services"
	"github.com/sahilchouksey/eduadmit/utils"
	"github.com/sahilchouksey/eduadmit/utils/auth"
	"github.com/sahilchouksey/eduadmit/utils/cache"
	"github.com/sahilchouksey/eduadmit/utils/middleware"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	getEnv, err := config.Get()
	if err != nil {
		log.Fatal("Failed to load environment configuration")
	}

	if getEnv.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := getEnv.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "eduadmit-api"
	}

	jwtConfig := auth.JWTConfig{
		Secret:        getEnv.JWT_SECRET,
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

	// Initialize Redis cache for brute force protection
	redisURL := getEnv.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Initialize auth middleware with DB for blacklist checking
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Initialize services
	notificationService := services.NewNotificationService(db)
	instituteService := services.NewInstituteService(db, notificationService)
	seatLedger := services.NewSeatLedger()
	enrollmentService := services.NewEnrollmentService(db)
	admissionService := services.NewAdmissionService(db, seatLedger, enrollmentService, notificationService)
	paymentService := services.NewPaymentService(db, notificationService, getEnv.PAYMENT_GATEWAY_NAME)

	// Initialize handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	instituteHandler := institute_handlers.NewInstituteHandler(db, instituteService)
	categoryHandler := category_handlers.NewCategoryHandler(db, instituteService)
	courseHandler := course_handlers.NewCourseHandler(db, instituteService)
	admissionHandler := admission_handlers.NewAdmissionHandler(db, admissionService, instituteService)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(db, enrollmentService, instituteService)
	paymentHandler := payment_handlers.NewPaymentHandler(paymentService)
	feedbackHandler := feedback_handlers.NewFeedbackHandler(db)
	notificationHandler := notification_handlers.NewNotificationHandler(notificationService)

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

	// Health check endpoints (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))
	app.Get("/health", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

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

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/logout-all", authMiddleware.Required(), authHandler.LogoutAll)

	authGroup.Get("/me", authMiddleware.Required(), authHandler.GetProfile)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Institute routes
	institutes := api.Group("/institutes")
	institutes.Get("/", instituteHandler.List)                                           // Public: approved institutes
	institutes.Post("/apply", authMiddleware.Required(), instituteHandler.Apply)         // Protected: apply or reapply
	institutes.Get("/mine", authMiddleware.Required(), instituteHandler.GetMine)         // Protected: owner's institute
	institutes.Put("/mine", authMiddleware.Required(), instituteHandler.Update)          // Protected: edit own institute
	institutes.Get("/dashboard", authMiddleware.Required(), instituteHandler.Dashboard)  // Protected: owner dashboard
	institutes.Get("/admissions", authMiddleware.Required(), admissionHandler.ListForInstitute)
	institutes.Get("/enrollments", authMiddleware.Required(), enrollmentHandler.ListForInstitute)
	institutes.Get("/:id", instituteHandler.Get)                                         // Public: approved institute by ID
	institutes.Get("/:id/categories", categoryHandler.ListByInstitute)                   // Public: institute's categories

	// Category routes
	categories := api.Group("/categories")
	categories.Get("/:id/courses", categoryHandler.ListCourses)                // Public: courses in a category
	categories.Post("/", authMiddleware.Required(), categoryHandler.Create)    // Owner: create category
	categories.Put("/:id", authMiddleware.Required(), categoryHandler.Update)  // Owner: update category
	categories.Delete("/:id", authMiddleware.Required(), categoryHandler.Delete)

	// Course routes
	courses := api.Group("/courses")
	courses.Get("/", courseHandler.List)                                        // Public: course catalog
	courses.Get("/:id", courseHandler.Get)                                      // Public: course by ID
	courses.Post("/", authMiddleware.Required(), courseHandler.Create)          // Owner: create course
	courses.Put("/:id", authMiddleware.Required(), courseHandler.Update)        // Owner: update course
	courses.Delete("/:id", authMiddleware.Required(), courseHandler.Delete)     // Owner: delete course

	// Admission routes (all protected)
	admissions := api.Group("/admissions", authMiddleware.Required())
	admissions.Post("/", admissionHandler.Submit)                     // Applicant: submit admission
	admissions.Get("/", admissionHandler.ListMine)                    // Applicant: own admissions
	admissions.Get("/:id", admissionHandler.Get)                      // Applicant or institute owner
	admissions.Post("/:id/transition", admissionHandler.Transition)   // Owner: shortlist/accept/reject
	admissions.Delete("/:id/course", admissionHandler.RemoveCourse)   // Owner: detach course
	admissions.Get("/:id/offer-letter", admissionHandler.OfferLetter) // Applicant: offer letter data
	admissions.Post("/:id/pay", paymentHandler.Pay)                   // Applicant: mock payment
	admissions.Get("/:id/payment", paymentHandler.Status)             // Applicant: payment status

	// Enrollment routes (protected)
	enrollments := api.Group("/enrollments", authMiddleware.Required())
	enrollments.Get("/", enrollmentHandler.ListMine)
	enrollments.Get("/mine", enrollmentHandler.ListMine)

	// Feedback routes
	feedbackGroup := api.Group("/feedback")
	feedbackGroup.Post("/", authMiddleware.Required(), feedbackHandler.Create)

	// Notification routes (protected)
	notifications := api.Group("/notifications", authMiddleware.Required())
	notifications.Get("/", notificationHandler.List)
	notifications.Post("/:id/read", notificationHandler.MarkRead)

	// Admin routes
	admin := api.Group("/admin", authMiddleware.RequireAdmin())
	admin.Get("/institutes", instituteHandler.AdminList)
	admin.Post("/institutes/:id/approve", instituteHandler.Approve)
	admin.Post("/institutes/:id/reject", instituteHandler.Reject)
	admin.Get("/feedback", feedbackHandler.AdminList)
}
