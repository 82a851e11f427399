package server

import (
	"net/http"

	"event-match/internal/broker"
	"event-match/internal/config"
	"event-match/internal/countdown"
	"event-match/internal/logging"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Server struct {
	store      *Store
	db         *gorm.DB
	ws         *wsHub
	cfg        config.Config
	clock      clockwork.Clock
	timers     *countdown.Scheduler
	bus        broker.Bus
	presence   broker.Presence
	instanceID string
}

type Option func(*Server)

func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

func WithBus(bus broker.Bus) Option {
	return func(s *Server) { s.bus = bus }
}

func WithPresence(presence broker.Presence) Option {
	return func(s *Server) { s.presence = presence }
}

// New builds a server. A nil conn keeps all state in memory.
func New(conn *gorm.DB, cfg config.Config, opts ...Option) *Server {
	s := &Server{
		store:      NewStore(),
		db:         conn,
		ws:         newWSHub(),
		cfg:        cfg,
		clock:      clockwork.NewRealClock(),
		bus:        broker.Noop{},
		presence:   broker.NewMemoryPresence(),
		instanceID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.timers = countdown.NewScheduler(s.clock)
	if err := s.bus.Subscribe(s.handleBusMessage); err != nil {
		log.Error().Err(err).Msg("broker subscribe failed")
	}
	registerValidators()
	return s
}

func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), logging.GinMiddleware(), cors.New(s.corsConfig()))

	r.GET("/healthz", s.handleHealth)
	r.GET("/ws", s.handleWebsocket)
	r.GET("/events/:code/share", s.handleShareView)

	api := r.Group("/api")
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.GET("/auth/me", s.requireUser(), s.handleMe)

	api.GET("/event-qrcode", s.handleEventQRCode)
	api.POST("/events", s.requireUser(), s.handleCreateEvent)
	api.GET("/events/mine", s.requireUser(), s.handleMyEvents)
	api.GET("/events/:code", s.handleGetEvent)
	api.POST("/events/:code/join", s.handleJoinEvent)
	api.POST("/events/:code/start", s.requireUser(), s.handleStartCountdown)
	api.POST("/events/:code/reveal", s.requireUser(), s.handleRevealMatches)
	api.POST("/events/:code/responses", s.handleSubmitResponses)
	api.POST("/events/:code/outfit", s.handleSubmitOutfit)
	api.POST("/events/:code/vote", s.handleVote)
	api.GET("/events/:code/leaderboard", s.handleLeaderboard)
	api.GET("/events/:code/matches", s.handleGetMatch)
	api.POST("/events/:code/followup", s.handleSubmitFollowup)
	api.GET("/events/:code/followup/stats", s.requireUser(), s.handleFollowupStats)
	api.GET("/events/:code/followup/match", s.handleFollowupMatch)
	api.GET("/events/:code/activity", s.handleActivity)
	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	allowAll := len(s.cfg.AllowedOrigins) == 0
	for _, origin := range s.cfg.AllowedOrigins {
		if origin == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.cfg.AllowedOrigins
	}
	return cfg
}

// Close stops every countdown and releases the broker.
func (s *Server) Close() error {
	s.timers.Stop()
	return s.bus.Close()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "instance": s.instanceID})
}
