package api

import (
	"fmt"
	"net/http"

	"afisha/internal/config"
	"afisha/internal/database"
	"afisha/internal/handlers"
	"afisha/internal/logger"
	"afisha/internal/messaging"
	"afisha/internal/middleware"
	"afisha/internal/repository"
	"afisha/internal/search"
	"afisha/internal/service"
	"afisha/internal/stats"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server представляет HTTP сервер API
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	services *service.Services
}

// NewServer создает новый экземпляр сервера
func NewServer(cfg *config.Config) *Server {
	// Устанавливаем режим Gin
	gin.SetMode(cfg.GinMode)

	// Подключаемся к базе данных
	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	// Запускаем миграции
	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	// Внешние подсистемы необязательны: без них сервис продолжает работать
	// в деградированном режиме. Присваиваем интерфейсы только при удачном
	// подключении, чтобы не получить typed-nil
	var index service.EventIndex
	if cfg.SearchEnabled {
		esClient, err := search.NewClient(cfg.Elasticsearch)
		if err != nil {
			logger.Get().Warn("Elasticsearch unavailable, public search will use the database", "error", err)
		} else {
			index = esClient
		}
	}

	var natsClient *messaging.NATSClient
	var notifier service.Notifier
	if cfg.MessagingEnabled {
		natsClient, err = messaging.NewNATSClient(cfg.NATS)
		if err != nil {
			logger.Get().Warn("NATS unavailable, notifications disabled", "error", err)
			natsClient = nil
		} else {
			notifier = natsClient
		}
	}

	var viewsCache *stats.ViewsCache
	if cfg.CacheEnabled {
		viewsCache, err = stats.NewViewsCache(cfg.Cache)
		if err != nil {
			logger.Get().Warn("Redis unavailable, views served without cache", "error", err)
			viewsCache = nil
		}
	}
	statsClient := stats.NewClient(cfg.Stats, viewsCache)

	// Создаем репозитории и сервисы
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, statsClient, index, notifier)

	// Создаем роутер
	router := gin.New()

	// Применяем middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		services: services,
	}

	server.setupRoutes()

	return server
}

// setupRoutes настраивает все API роуты
func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services)

	// Публичный API
	events := s.router.Group("/events")
	{
		events.GET("", h.SearchPublishedEvents)
		events.GET("/:eventId", h.GetPublishedEvent)
		events.GET("/:eventId/reactions", h.ListEventReactions)
	}

	// Приватный API инициаторов и участников
	users := s.router.Group("/users/:userId")
	{
		users.GET("/events", h.ListUserEvents)
		users.POST("/events", h.CreateEvent)
		users.GET("/events/:eventId", h.GetUserEvent)
		users.PATCH("/events/:eventId", h.UpdateEventByUser)
		users.GET("/events/:eventId/requests", h.ListEventRequests)
		users.PATCH("/events/:eventId/requests", h.UpdateRequestStatuses)

		users.POST("/events/:eventId/reaction", h.CreateReaction)
		users.PATCH("/events/:eventId/reaction", h.UpdateReaction)
		users.DELETE("/events/:eventId/reaction", h.DeleteReaction)

		users.GET("/requests", h.ListUserRequests)
		users.POST("/requests", h.SubmitRequest)
		users.PATCH("/requests/:requestId/cancel", h.CancelRequest)

		users.GET("/rating", h.GetUserRating)
	}

	// Админский API модерации
	admin := s.router.Group("/admin")
	{
		admin.GET("/events", h.AdminSearchEvents)
		admin.PATCH("/events/:eventId", h.UpdateEventByAdmin)
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// healthCheck обрабатывает health check запросы
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "afisha-api",
	})
}

// Run запускает HTTP сервер
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter возвращает роутер для тестирования
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup закрывает соединения
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			logger.Get().Error("Error closing NATS connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logger.Get().Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
