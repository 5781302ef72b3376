package server

import (
	"time"

	httpHandler "github.com/krishhhh88/instadrive-backend/interfaces/http"
	"github.com/krishhhh88/instadrive-backend/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	Origins    []string
	SecretKey  string
	CronSecret string
}

// Handlers groups everything the router mounts. OAuth handlers and QueueStream are optional.
type Handlers struct {
	Cron          httpHandler.ICronHandler
	Queue         httpHandler.IQueueHandler
	Schedule      httpHandler.IScheduleHandler
	Drive         httpHandler.IDriveHandler
	Account       httpHandler.IAccountHandler
	Health        httpHandler.IHealthHandler
	GoogleOAuth   httpHandler.IOAuthHandler
	FacebookOAuth httpHandler.IOAuthHandler
	QueueStream   gin.HandlerFunc
}

func InitiateRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	allowed := make(map[string]bool, len(cfg.Origins))
	for _, o := range cfg.Origins {
		allowed[o] = true
	}
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.HeaderCronSecret},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowOriginFunc:  func(origin string) bool { return allowed[origin] },
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", h.Health.Healthz)

	// The trigger is authenticated by shared secret, not by user token.
	cron := router.Group("/api/cron", middleware.CronAuth(cfg.CronSecret))
	cron.GET("/run-jobs", h.Cron.RunJobs)
	cron.POST("/run-jobs", h.Cron.RunJobs)

	if h.GoogleOAuth != nil {
		router.GET("/auth/google/callback", h.GoogleOAuth.Callback)
	}
	if h.FacebookOAuth != nil {
		router.GET("/auth/facebook/callback", h.FacebookOAuth.Callback)
	}

	api := router.Group("/api", middleware.Auth(cfg.SecretKey))
	{
		api.GET("/queue", h.Queue.List)
		api.POST("/queue", h.Queue.Create)
		api.DELETE("/queue/:id", h.Queue.Delete)
		if h.QueueStream != nil {
			api.GET("/queue/stream", h.QueueStream)
		}

		api.GET("/schedule", h.Schedule.Get)
		api.POST("/schedule", h.Schedule.Save)

		api.GET("/drive/files", h.Drive.Files)
		api.GET("/accounts/status", h.Account.Status)

		if h.GoogleOAuth != nil {
			api.GET("/auth/google", h.GoogleOAuth.GetAuthURL)
		}
		if h.FacebookOAuth != nil {
			api.GET("/auth/facebook", h.FacebookOAuth.GetAuthURL)
		}
	}

	return router
}
