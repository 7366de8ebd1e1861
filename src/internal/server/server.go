package server

import (
	"net/http"
	"time"

	"heartmon-svc/src/clients"
	"heartmon-svc/src/internal/config"
	"heartmon-svc/src/internal/dependency"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = *logrus.StandardLogger()

type Server struct {
	config *config.Configuration
	deps   *dependency.Manager
}

// New builds the server: backing clients, dependency graph and routes.
func New(cfg *config.Configuration) (*Server, error) {
	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()

	mongodb, err := clients.NewMongoDB(&cfg.Database)
	if err != nil {
		return nil, err
	}

	redisClient, err := clients.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, err
	}

	rabbitMQ, err := clients.NewRabbitMQ(&cfg.Queue)
	if err != nil {
		return nil, err
	}
	if err := rabbitMQ.SetupQueue(); err != nil {
		return nil, err
	}

	deps := dependency.NewDependencyManager(router, mongodb, redisClient, rabbitMQ, cfg)
	SetupRoutes(deps)

	return &Server{
		config: cfg,
		deps:   deps,
	}, nil
}

// Start blocks serving HTTP until the listener fails. The write timeout
// stays at zero so server-sent event streams are never cut off mid
// subscription.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.deps.Router,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	log.Infof("Server listening on port %s", s.config.Server.Port)
	return srv.ListenAndServe()
}
