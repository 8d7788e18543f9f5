package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/auth"
	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/service/rooms"
	"github.com/vovakirdan/roomchat-server/internal/store"
)

// Server bundles the HTTP server with background helpers that share its lifetime.
type Server struct {
	*stdhttp.Server

	limiter *ipRateLimiter
	stop    chan struct{}
}

// NewServer builds the HTTP server with REST routes and the WebSocket endpoint.
func NewServer(
	hub *core.Hub,
	authService *auth.Service,
	roomService *rooms.Service,
	users store.UserStore,
	cfg *config.Config,
	logger *zerolog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, gin.H{
			"status":   "ok",
			"sessions": hub.Sessions(),
		})
	})

	apiHandlers := NewAPIHandlers(authService, logger)
	userHandlers := NewUserHandlers(users, logger)
	roomHandlers := NewRoomHandlers(roomService, logger)
	authMiddleware := AuthMiddleware(authService, logger)

	limiter := newIPRateLimiter(cfg.APIRateLimitMaxRequests, cfg.APIRateLimitWindow)
	api := router.Group("/api")
	if limiter != nil {
		api.Use(limiter.middleware())
	}

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", apiHandlers.Register)
		authGroup.POST("/login", apiHandlers.Login)
		authGroup.GET("/me", authMiddleware, userHandlers.Me)
	}

	roomGroup := api.Group("/rooms", authMiddleware)
	{
		roomGroup.POST("/create", roomHandlers.CreateRoom)
		roomGroup.POST("/join", roomHandlers.JoinRoom)
		roomGroup.GET("/my", roomHandlers.ListRooms)
		roomGroup.GET("/:roomId/messages", roomHandlers.RoomMessages)
	}

	router.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg.MaxMessageBytes, cfg.AllowedOrigins, logger)))

	srv := &Server{
		Server: &stdhttp.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
		limiter: limiter,
		stop:    make(chan struct{}),
	}
	limiter.startCleanup(srv.stop)
	srv.RegisterOnShutdown(func() { close(srv.stop) })
	return srv
}
