package dependency

import (
	"context"
	"time"

	"heartmon-svc/src/clients"
	"heartmon-svc/src/internal/cache"
	"heartmon-svc/src/internal/clock"
	"heartmon-svc/src/internal/config"
	"heartmon-svc/src/internal/middleware"
	"heartmon-svc/src/internal/session"
	"heartmon-svc/src/internal/stream"
	"heartmon-svc/src/internal/token"
	"heartmon-svc/src/internal/user"

	"github.com/gin-gonic/gin"
)

type Manager struct {
	Router         *gin.Engine
	Config         *config.Configuration
	Mongodb        *clients.MongoDB
	Redis          *clients.RedisClient
	RabbitMQ       *clients.RabbitMQ
	Tokens         *token.Store
	Auth           *middleware.AuthMiddleware
	Bus            *stream.Bus
	StreamHandler  stream.Handler
	UserService    user.Service
	UserHandler    user.Handler
	SessionService session.Service
	SessionHandler session.Handler
	CacheService   cache.Service
}

func NewDependencyManager(router *gin.Engine,
	mongodb *clients.MongoDB,
	redisClient *clients.RedisClient,
	rabbitMQ *clients.RabbitMQ,
	cfg *config.Configuration) *Manager {
	clk := clock.New()
	mailer := clients.NewMailerClient(cfg, rabbitMQ.Channel)

	tokens := token.NewStore(time.Duration(cfg.Security.TokenTTLMinutes)*time.Minute, clk)
	bus := stream.NewBus(cfg.Stream.SubscriberBufferSize)
	cacheService := cache.NewCacheService(redisClient.Client, cfg)

	userRepo := user.NewRepository(mongodb, &cfg.Database.Collections)
	userService := user.NewService(cfg, userRepo, tokens, mailer, clk)
	userHandler := user.NewHandler(cfg, userService)

	sessionRepo := session.NewRepository(mongodb, &cfg.Database.Collections)
	sessionService := session.NewService(sessionRepo, cacheService,
		&memberDirectory{users: userService}, bus, mailer, clk)
	sessionHandler := session.NewHandler(cfg, sessionService, tokens)

	return &Manager{
		Router:         router,
		Config:         cfg,
		Mongodb:        mongodb,
		Redis:          redisClient,
		RabbitMQ:       rabbitMQ,
		Tokens:         tokens,
		Auth:           middleware.NewAuthMiddleware(tokens),
		Bus:            bus,
		StreamHandler:  stream.NewHandler(cfg, bus, clk),
		UserService:    userService,
		UserHandler:    userHandler,
		SessionService: sessionService,
		SessionHandler: sessionHandler,
		CacheService:   cacheService,
	}
}

// memberDirectory adapts the user service to the session service's member
// lookups.
type memberDirectory struct {
	users user.Service
}

func (d *memberDirectory) Member(ctx context.Context, username string) (*session.Member, error) {
	details, err := d.users.Details(ctx, username)
	if err != nil {
		return nil, err
	}
	return &session.Member{
		Username:  details.Username,
		FirstName: details.FirstName,
		LastName:  details.LastName,
		Email:     details.Email,
	}, nil
}
