package main

import (
	"crypto/ed25519"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"song-request-backend/internal/config"
	"song-request-backend/internal/handlers"
	"song-request-backend/internal/logging"
	"song-request-backend/internal/middleware"
	"song-request-backend/internal/services"
	"song-request-backend/internal/supabase"
)

type serviceSet struct {
	orders     *services.OrderService
	assigner   *services.AssignmentNotifier
	acceptance *services.AcceptanceService
	sweeper    *services.ExpirySweeper
	payouts    *services.PayoutService
	revisions  *services.RevisionService
	producers  *services.ProducerService
	drive      *services.DriveService
	uploads    *services.UploadService
	db         handlers.Pinger
}

func newRouter(cfg *config.Config, logger *zap.Logger, roles middleware.RoleSource, discordKey ed25519.PublicKey, svc serviceSet) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	orders := handlers.NewOrdersHandler(svc.orders)
	revisions := handlers.NewRevisionsHandler(svc.revisions)
	producers := handlers.NewProducersHandler(svc.producers)
	drive := handlers.NewDriveHandler(svc.drive)
	uploads := handlers.NewUploadHandler(svc.uploads)
	admin := handlers.NewAdminHandler(svc.sweeper, svc.payouts, svc.assigner, svc.producers)
	interactions := handlers.NewInteractionsHandler(discordKey, svc.acceptance, logger)
	webhooks := handlers.NewWebhookHandler(cfg.StripeWebhookSecret, svc.orders, logger)

	router.GET("/health", handlers.NewHealthHandler(svc.db).Check)

	// Public
	public := router.Group("/api/v1")
	public.GET("/meta/statuses", handlers.Statuses)
	public.GET("/meta/genres", handlers.Genres)
	public.GET("/producers", producers.ListProducers)
	public.GET("/producers/:slug", producers.GetProducer)

	// Signed callbacks (no JWT)
	public.POST("/discord/interactions", interactions.HandleInteraction)
	public.POST("/webhooks/stripe", webhooks.HandleStripe)
	public.POST("/internal/sweep-expired", middleware.SharedSecret(cfg.CronSecret), admin.SweepExpired)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	// Checkout
	api.POST("/checkout", orders.Checkout)
	api.POST("/checkout/verify", orders.VerifyPayment)
	api.POST("/uploads", uploads.Upload)

	// Orders
	api.GET("/orders", orders.ListOrders)
	api.GET("/orders/:order_id", orders.GetOrder)
	api.POST("/orders/:order_id/start", orders.StartOrder)
	api.POST("/orders/:order_id/cancel-request", orders.RequestCancellation)
	api.POST("/orders/:order_id/deliver", orders.Deliver)
	api.GET("/orders/:order_id/revisions", revisions.ListRevisions)
	api.POST("/orders/:order_id/drive/upload-session", drive.UploadSession)
	api.POST("/orders/:order_id/drive/finalize", drive.Finalize)

	// Revisions
	api.POST("/revisions/:revision_id/request", revisions.RequestRevision)
	api.POST("/revisions/:revision_id/deliver", revisions.DeliverRevision)
	api.GET("/revisions/:revision_id/messages", revisions.ListMessages)
	api.POST("/revisions/:revision_id/messages", revisions.PostMessage)

	// Producers
	api.POST("/producer-applications", producers.Apply)
	api.GET("/producer/orders", orders.ListAssigned)
	api.GET("/producer/profile", producers.Me)
	api.PUT("/producer/profile", producers.UpdateProfile)
	api.POST("/producer/connect", producers.Connect)
	api.GET("/producer/connect/status", producers.ConnectStatus)
	api.GET("/producer/drive/auth-url", drive.AuthURL)
	api.POST("/producer/drive/callback", drive.Callback)

	// Admin
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.RequireRole(roles, logger, supabase.RoleAdmin))
	adminGroup.POST("/orders/:order_id/payout", admin.Payout)
	adminGroup.POST("/orders/:order_id/notify", admin.Notify)
	adminGroup.GET("/applications", admin.ListApplications)
	adminGroup.POST("/applications/:application_id/decision", admin.DecideApplication)

	return router
}
