package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"nemochat/cmd/middleware"
	"nemochat/internal/service"
)

type Routers struct {
	Service service.Service
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())

	app.GET("/health", func(c *ginext.Context) {
		c.JSON(200, map[string]string{"status": "ok"})
	})

	apiGroup := app.Group("/v1")

	apiGroup.POST("/chat", r.Service.Chat)
	apiGroup.GET("/ws/chat/:session_id", r.Service.WSChat)

	apiGroup.POST("/events", r.Service.CreateEvent)
	apiGroup.GET("/events", r.Service.GetAllEvents)
	apiGroup.GET("/events/search", r.Service.SearchEvents)
	apiGroup.GET("/events/:id", r.Service.GetInfo)

	apiGroup.POST("/events/register", r.Service.RegisterByName)
	apiGroup.POST("/events/:id/register", r.Service.RegisterByID)
	apiGroup.POST("/events/feedback", r.Service.Feedback)
	apiGroup.GET("/registrations/status", r.Service.RegistrationStatus)

	apiGroup.GET("/sessions/:id/history", r.Service.SessionHistory)
	apiGroup.DELETE("/sessions/:id", r.Service.ClearSession)

	return app
}
