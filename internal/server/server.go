// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pavelchamgl/analog-threads/internal/bootstrap"
	"github.com/pavelchamgl/analog-threads/internal/config"
	"github.com/pavelchamgl/analog-threads/internal/email"
	"github.com/pavelchamgl/analog-threads/internal/featureflags"
	"github.com/pavelchamgl/analog-threads/internal/media"
	"github.com/pavelchamgl/analog-threads/internal/middleware"
	"github.com/pavelchamgl/analog-threads/internal/models"
	"github.com/pavelchamgl/analog-threads/internal/notifications"
	"github.com/pavelchamgl/analog-threads/internal/repository"
	"github.com/pavelchamgl/analog-threads/internal/service"
	"github.com/pavelchamgl/analog-threads/internal/tasks"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	tokenIssuer   = "threads-api"
	tokenAudience = "threads-client"
)

// consumedTicketEntry caches a WebSocket ticket that was already consumed
// from Redis so the multi-pass upgrade handshake can still authenticate.
type consumedTicketEntry struct {
	userID    uint
	consumeAt time.Time
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo         repository.UserRepository
	postRepo         repository.PostRepository
	commentRepo      repository.CommentRepository
	followRepo       repository.FollowRepository
	hashtagRepo      repository.HashTagRepository
	notificationRepo repository.NotificationRepository
	otpRepo          repository.OTPRepository

	notifier *notifications.Notifier
	hub      *notifications.Hub
	queue    *tasks.Queue
	uploader media.Uploader
	mailer   email.Mailer
	flags    *featureflags.Manager

	visibility          *service.VisibilityService
	userService         *service.UserService
	postService         *service.PostService
	commentService      *service.CommentService
	followService       *service.FollowService
	feedService         *service.FeedService
	notificationService *service.NotificationService

	consumedTickets   map[string]consumedTicketEntry
	consumedTicketsMu sync.Mutex
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedBuiltIns: true})
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	prom := middleware.InitMetrics("threads-api")

	server := &Server{
		config:           cfg,
		db:               db,
		redis:            redisClient,
		promMiddleware:   prom,
		userRepo:         repository.NewUserRepository(db),
		postRepo:         repository.NewPostRepository(db),
		commentRepo:      repository.NewCommentRepository(db),
		followRepo:       repository.NewFollowRepository(db),
		hashtagRepo:      repository.NewHashTagRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
		otpRepo:          repository.NewOTPRepository(db),
		flags:            featureflags.NewManager(cfg.FeatureFlags),
		consumedTickets:  make(map[string]consumedTicketEntry),
	}

	// Media uploads go to Cloudinary when configured, local disk otherwise.
	if cfg.CloudinaryURL != "" {
		up, err := media.NewCloudinaryUploader(cfg.CloudinaryURL)
		if err != nil {
			return nil, fmt.Errorf("cloudinary init failed: %w", err)
		}
		server.uploader = up
	} else {
		server.uploader = &media.LocalUploader{Dir: "uploads", BaseURL: "/uploads"}
	}

	if cfg.SMTPUser != "" {
		server.mailer = email.NewSMTPMailer(cfg)
	} else {
		server.mailer = email.NopMailer{}
	}

	// Notifier publishes even with a nil Redis client (it degrades to a
	// no-op), so realtime wiring is always safe to construct.
	server.notifier = notifications.NewNotifier(redisClient)
	server.hub = notifications.NewHub()
	if redisClient != nil {
		server.queue = tasks.NewQueue(redisClient, cfg.TaskWorkers)
	}

	server.visibility = service.NewVisibilityService(server.followRepo, server.postRepo)
	server.notificationService = service.NewNotificationService(server.notificationRepo, server.queue, server.notifier)
	server.userService = service.NewUserService(
		server.userRepo, server.otpRepo, server.visibility,
		server.queue, server.mailer,
		time.Duration(cfg.OTPLifetimeMinutes)*time.Minute,
	)
	server.followService = service.NewFollowService(server.followRepo, server.userRepo, server.notificationService)
	server.postService = service.NewPostService(
		server.postRepo, server.userRepo, server.followRepo,
		server.hashtagRepo, server.visibility, server.notificationService,
	)
	server.commentService = service.NewCommentService(
		server.commentRepo, server.postRepo, server.userRepo,
		server.visibility, server.notificationService,
	)
	server.feedService = service.NewFeedService(server.postRepo, server.userRepo, server.hashtagRepo)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on
	// error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api/v1")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Threads Backend Metrics Dashboard",
	}))

	// Locally uploaded media is served straight from disk.
	if _, ok := s.uploader.(*media.LocalUploader); ok {
		app.Static("/uploads", "uploads")
	}

	// Auth routes
	api.Post("/sign_up", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "sign_up"), s.SignUp)
	api.Post("/sign_in", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "sign_in"), s.SignIn)
	api.Post("/sign_in/refresh", s.Refresh)
	api.Post("/logout", s.AuthRequired(), s.Logout)

	// OTP flows. Password reset is public (identified by email), email
	// confirmation requires an authenticated user.
	api.Post("/forgot_password", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "forgot_password"), s.ForgotPassword)
	api.Post("/forgot_password/verify", s.ForgotPasswordVerify)
	api.Put("/forgot_password/update", s.ForgotPasswordUpdate)
	api.Post("/confirm_email", s.AuthRequired(), middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "confirm_email"), s.RequestEmailConfirmation)
	api.Put("/confirm_email/update", s.AuthRequired(), s.ConfirmEmail)

	// WebSocket ticket issuance
	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)

	protected := api.Group("", s.AuthRequired())

	// Profile and follow graph routes. Specific subpaths must be
	// registered before the generic /:id route.
	profile := protected.Group("/user/profile")
	profile.Get("/username/:username", s.GetProfileByUsername)
	profile.Get("/followers/:id", s.GetFollowers)
	profile.Get("/follows/:id", s.GetFollowing)
	profile.Get("/follow_requests", s.GetFollowRequests)
	profile.Post("/follow_requests/allow", s.AllowFollowRequest)
	profile.Post("/follow_requests/decline", s.DeclineFollowRequest)
	profile.Post("/follow", s.FollowUser)
	profile.Post("/unfollow", s.UnfollowUser)
	profile.Post("/delete", s.RemoveFollower)
	profile.Post("/mutual_follow", s.MutualFollow)
	profile.Patch("/update", s.UpdateMyProfile)
	profile.Patch("/photo", s.UpdateMyPhoto)
	profile.Get("/:id", s.GetProfile)

	// Post routes
	post := protected.Group("/post")
	post.Post("/", middleware.RateLimit(
		s.redis, 30, time.Minute, "create_post"), s.CreatePost)
	post.Get("/", s.GetMyPosts)
	post.Get("/user/:userId", s.GetUserPosts)
	post.Get("/by_hashtag/:tagName", s.PostsByHashtag)
	post.Patch("/like_unlike/:postId", s.LikeUnlikePost)
	// Comment subpaths before the generic /:postId routes.
	post.Delete("/comments/:commentId", s.DeleteComment)
	post.Post("/comments/:commentId/reply", middleware.RateLimit(
		s.redis, 30, time.Minute, "create_comment"), s.ReplyComment)
	post.Patch("/comments/like_unlike/:commentId", s.LikeUnlikeComment)
	post.Get("/:postId/comments", s.GetComments)
	post.Post("/:postId/comments", middleware.RateLimit(
		s.redis, 30, time.Minute, "create_comment"), s.CreateComment)
	post.Post("/:postId/repost", s.Repost)
	post.Post("/:postId/quote", s.Quote)
	post.Get("/:postId", s.GetPost)
	post.Delete("/:postId", s.DeletePost)

	// Feed routes
	feed := protected.Group("/feed")
	feed.Get("/for_you", s.FeedForYou)
	feed.Get("/following", s.FeedFollowing)

	// Search routes
	search := protected.Group("/search")
	search.Get("/users/:q", middleware.RateLimit(
		s.redis, 30, time.Minute, "search"), s.SearchUsers)
	search.Get("/hashtag/:q", middleware.RateLimit(
		s.redis, 30, time.Minute, "search"), s.SearchHashtags)

	// Notification routes
	protected.Get("/notifications", s.GetNotifications)
	protected.Post("/notifications/test", s.SendTestNotification)
	protected.Get("/feature_flags", s.GetFeatureFlags)

	// WebSocket endpoint - protected by AuthRequired (ticket or token)
	ws := api.Group("/ws", s.AuthRequired())
	ws.Get("/notifications", s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is required for full readiness: realtime delivery and the
		// task queue depend on it.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		isWSPath := strings.HasPrefix(path, "/api/v1/ws")

		// 1. Try WebSocket ticket first (short-lived, single-use)
		ticket := c.Query("ticket")
		if ticket != "" {
			if userID, ok := s.resolveWSTicket(c.Context(), ticket); ok {
				c.Locals("userID", userID)
				c.Locals("wsTicket", ticket)
				ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
				c.SetUserContext(ctx)
				return c.Next()
			}
			// If a ticket was provided but is invalid/expired, fail hard on
			// WS paths (a stale ticket must not fall through to JWT).
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		// 2. Fall back to JWT (Bearer token or query param)
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.parseToken(c.Context(), tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		// Refresh tokens only work on the refresh endpoint.
		if tokenType, _ := claims["token_type"].(string); tokenType == "refresh" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Refresh token cannot be used for API access"))
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}
		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		c.Locals("userID", uint(userID))
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// parseToken validates a JWT's signature, issuer, audience and revocation
// state and returns its claims.
func (s *Server) parseToken(ctx context.Context, tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}

	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != tokenIssuer {
		return nil, models.NewUnauthorizedError("Invalid token issuer")
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != tokenAudience {
		return nil, models.NewUnauthorizedError("Invalid token audience")
	}

	// Check JTI for revocation
	if jti, exists := claims["jti"].(string); exists && jti != "" && s.redis != nil {
		isBlacklisted, err := s.redis.Exists(ctx, "blacklist:"+jti).Result()
		if err == nil && isBlacklisted > 0 {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}

	return claims, nil
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Threads API",
		// Video uploads cap at 15MB; leave headroom for multipart framing.
		BodyLimit: 20 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	if s.queue != nil {
		s.queue.Start()
	}

	if s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start %s wiring: %v", s.hub.Name(), err)
			}
		}()
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop all wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Shutdown the HTTP/WS server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close WebSocket connections gracefully
	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			log.Printf("error shutting down %s: %v", s.hub.Name(), err)
		}
	}

	// Drain the background queue
	if s.queue != nil {
		s.queue.Stop()
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
