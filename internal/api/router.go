package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	iauth "github.com/tenderhq/tenderdesk/internal/auth"
	"github.com/tenderhq/tenderdesk/internal/cache"
	"github.com/tenderhq/tenderdesk/internal/handlers"
	"github.com/tenderhq/tenderdesk/internal/middleware"
	"github.com/tenderhq/tenderdesk/internal/realtime"
	"github.com/tenderhq/tenderdesk/internal/services"
	"github.com/tenderhq/tenderdesk/pkg/response"
)

// Options bundles everything the router needs.
type Options struct {
	JWT           *iauth.JWTService
	Hub           *realtime.Hub
	Users         *services.UserService
	Notifications *services.NotificationService
	Tenders       *services.TenderService
	Teams         *services.TeamService

	RateLimitStore    cache.Store
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter assembles the HTTP surface: health, metrics, auth, and the
// authenticated API group.
func NewRouter(opts Options) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(opts.Users, opts.JWT)
	notificationHandler := handlers.NewNotificationHandler(opts.Notifications, opts.Hub, opts.JWT)
	tenderHandler := handlers.NewTenderHandler(opts.Tenders)
	teamHandler := handlers.NewTeamHandler(opts.Teams)

	api := router.Group("/api")
	if opts.RateLimitStore != nil && opts.RateLimitRequests > 0 {
		api.Use(middleware.RateLimit(opts.RateLimitStore, opts.RateLimitRequests, opts.RateLimitWindow))
	}

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/me", middleware.Auth(opts.JWT), authHandler.Me)
	}

	// The stream endpoint authenticates via query token inside the handler
	// because browsers cannot attach headers to a WebSocket handshake.
	api.GET("/notifications/stream", notificationHandler.Stream)

	authed := api.Group("")
	authed.Use(middleware.Auth(opts.JWT))
	{
		authed.GET("/notifications", notificationHandler.List)
		authed.POST("/notifications", notificationHandler.Create)
		authed.PATCH("/notifications", notificationHandler.UpdateReadState)
		authed.DELETE("/notifications", notificationHandler.Delete)

		authed.GET("/tenders", tenderHandler.List)
		authed.POST("/tenders", tenderHandler.Create)
		authed.GET("/tenders/:id", tenderHandler.Get)
		authed.PATCH("/tenders/:id", tenderHandler.Update)
		authed.DELETE("/tenders/:id", tenderHandler.Delete)

		authed.GET("/teams", teamHandler.List)
		authed.POST("/teams", teamHandler.Create)
		authed.GET("/teams/:id", teamHandler.Get)
		authed.POST("/teams/:id/invites", teamHandler.Invite)
		authed.POST("/invites/:id/accept", teamHandler.AcceptInvite)
	}

	router.NoRoute(middleware.NotFoundHandler)

	return router
}
